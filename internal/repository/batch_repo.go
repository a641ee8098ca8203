package repository

import (
	"context"
	"time"

	"scms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchRepository interface {
	Create(ctx context.Context, batch *model.Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Batch, int64, error)
	List(ctx context.Context, page, limit int, status string) ([]model.Batch, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
	ListExpiring(ctx context.Context, asOf, until time.Time) ([]model.Batch, error)
}

type batchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) Create(ctx context.Context, batch *model.Batch) error {
	return GetDB(ctx, r.db).Create(batch).Error
}

func (r *batchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	var batch model.Batch
	if err := GetDB(ctx, r.db).Preload("Product").First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *batchRepository) ListByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Batch, int64, error) {
	var batches []model.Batch
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Batch{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("expiration_date asc, id asc").Offset(offset).Limit(limit).Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

func (r *batchRepository) List(ctx context.Context, page, limit int, status string) ([]model.Batch, int64, error) {
	var batches []model.Batch
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Batch{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Product").Order("expiration_date asc, id asc").
		Offset(offset).Limit(limit).Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

func (r *batchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Batch{}).Where("id = ?", id).Update("status", status).Error
}

// MarkExpired transitions every IN_STOCK batch past its expiration date to
// EXPIRED and returns how many rows changed.
func (r *batchRepository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Batch{}).
		Where("status = ? AND expiration_date < ?", model.BatchStatusInStock, asOf).
		Update("status", model.BatchStatusExpired)
	return res.RowsAffected, res.Error
}

// ListExpiring returns IN_STOCK batches with stock left expiring in (asOf, until],
// earliest expiry first.
func (r *batchRepository) ListExpiring(ctx context.Context, asOf, until time.Time) ([]model.Batch, error) {
	var batches []model.Batch
	err := GetDB(ctx, r.db).Preload("Product").
		Where("status = ? AND current_quantity > 0 AND expiration_date > ? AND expiration_date <= ?",
			model.BatchStatusInStock, asOf, until).
		Order("expiration_date asc, id asc").
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}
