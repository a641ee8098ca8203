package repository

import (
	"context"

	"scms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InventoryRepository interface {
	Create(ctx context.Context, record *model.InventoryRecord) error
	Update(ctx context.Context, record *model.InventoryRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryRecord, error)
	FindByBatchAndLocation(ctx context.Context, batchID uuid.UUID, location string) (*model.InventoryRecord, error)
	List(ctx context.Context, page, limit int, location string) ([]model.InventoryRecord, int64, error)
	ListBelowReorderPoint(ctx context.Context) ([]model.InventoryRecord, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) Create(ctx context.Context, record *model.InventoryRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *inventoryRepository) Update(ctx context.Context, record *model.InventoryRecord) error {
	return GetDB(ctx, r.db).Save(record).Error
}

func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	if err := GetDB(ctx, r.db).Preload("Batch").Preload("Batch.Product").
		First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) FindByBatchAndLocation(ctx context.Context, batchID uuid.UUID, location string) (*model.InventoryRecord, error) {
	var record model.InventoryRecord
	if err := GetDB(ctx, r.db).
		Where("batch_id = ? AND location = ?", batchID, location).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *inventoryRepository) List(ctx context.Context, page, limit int, location string) ([]model.InventoryRecord, int64, error) {
	var records []model.InventoryRecord
	var total int64

	db := GetDB(ctx, r.db).Model(&model.InventoryRecord{})
	if location != "" {
		db = db.Where("location = ?", location)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Batch").Preload("Batch.Product").
		Order("location asc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListBelowReorderPoint returns records strictly under their reorder point.
// Records without a reorder point never alert.
func (r *inventoryRepository) ListBelowReorderPoint(ctx context.Context) ([]model.InventoryRecord, error) {
	var records []model.InventoryRecord
	err := GetDB(ctx, r.db).Preload("Batch").Preload("Batch.Product").
		Where("reorder_point IS NOT NULL AND quantity_on_hand < reorder_point").
		Order("location asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
