package repository

import (
	"context"

	"scms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RetailerRepository interface {
	Create(ctx context.Context, retailer *model.Retailer) error
	Update(ctx context.Context, retailer *model.Retailer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Retailer, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Retailer, int64, error)
}

type retailerRepository struct {
	db *gorm.DB
}

func NewRetailerRepository(db *gorm.DB) RetailerRepository {
	return &retailerRepository{db: db}
}

func (r *retailerRepository) Create(ctx context.Context, retailer *model.Retailer) error {
	return GetDB(ctx, r.db).Create(retailer).Error
}

func (r *retailerRepository) Update(ctx context.Context, retailer *model.Retailer) error {
	return GetDB(ctx, r.db).Save(retailer).Error
}

func (r *retailerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Retailer{}).Error
}

func (r *retailerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Retailer, error) {
	var retailer model.Retailer
	if err := GetDB(ctx, r.db).Preload("PricingTier").First(&retailer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

func (r *retailerRepository) List(ctx context.Context, page, limit int, search string) ([]model.Retailer, int64, error) {
	var retailers []model.Retailer
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Retailer{})
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("PricingTier").Order("name asc").
		Offset(offset).Limit(limit).Find(&retailers).Error; err != nil {
		return nil, 0, err
	}
	return retailers, total, nil
}
