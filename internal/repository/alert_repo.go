package repository

import (
	"context"

	"scms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) error
	Update(ctx context.Context, alert *model.Alert) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Alert, error)
	FindOpenByTarget(ctx context.Context, alertType, targetType string, targetID uuid.UUID) (*model.Alert, error)
	List(ctx context.Context, page, limit int, alertType, status string) ([]model.Alert, int64, error)
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) error {
	return GetDB(ctx, r.db).Create(alert).Error
}

func (r *alertRepository) Update(ctx context.Context, alert *model.Alert) error {
	return GetDB(ctx, r.db).Save(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	var alert model.Alert
	if err := GetDB(ctx, r.db).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

// FindOpenByTarget returns the outstanding NEW or ACKNOWLEDGED alert for a
// (type, target) pair, or gorm.ErrRecordNotFound. The sweeps use this check
// to stay idempotent.
func (r *alertRepository) FindOpenByTarget(ctx context.Context, alertType, targetType string, targetID uuid.UUID) (*model.Alert, error) {
	var alert model.Alert
	err := GetDB(ctx, r.db).
		Where("type = ? AND target_type = ? AND target_id = ? AND status IN ?",
			alertType, targetType, targetID,
			[]string{model.AlertStatusNew, model.AlertStatusAcknowledged}).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, page, limit int, alertType, status string) ([]model.Alert, int64, error) {
	var alerts []model.Alert
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Alert{})
	if alertType != "" {
		db = db.Where("type = ?", alertType)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}
