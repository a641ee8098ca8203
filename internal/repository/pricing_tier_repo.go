package repository

import (
	"context"

	"scms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PricingTierRepository interface {
	Create(ctx context.Context, tier *model.PricingTier) error
	Update(ctx context.Context, tier *model.PricingTier) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PricingTier, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.PricingTier, error)
	List(ctx context.Context, page, limit int) ([]model.PricingTier, int64, error)
}

type pricingTierRepository struct {
	db *gorm.DB
}

func NewPricingTierRepository(db *gorm.DB) PricingTierRepository {
	return &pricingTierRepository{db: db}
}

func (r *pricingTierRepository) Create(ctx context.Context, tier *model.PricingTier) error {
	return GetDB(ctx, r.db).Create(tier).Error
}

func (r *pricingTierRepository) Update(ctx context.Context, tier *model.PricingTier) error {
	return GetDB(ctx, r.db).Save(tier).Error
}

func (r *pricingTierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PricingTier{}).Error
}

func (r *pricingTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PricingTier, error) {
	var tier model.PricingTier
	if err := GetDB(ctx, r.db).First(&tier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *pricingTierRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.PricingTier, error) {
	var tier model.PricingTier
	if err := GetDB(ctx, r.db).Where("id = ? AND is_active = ?", id, true).First(&tier).Error; err != nil {
		return nil, err
	}
	return &tier, nil
}

func (r *pricingTierRepository) List(ctx context.Context, page, limit int) ([]model.PricingTier, int64, error) {
	var tiers []model.PricingTier
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PricingTier{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&tiers).Error; err != nil {
		return nil, 0, err
	}
	return tiers, total, nil
}
