package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"scms/internal/model"
	"scms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTierRequest struct {
	Name                  string          `json:"name" binding:"required"`
	Description           string          `json:"description"`
	MinDiscountPercentage decimal.Decimal `json:"min_discount_percentage"`
	MaxDiscountPercentage decimal.Decimal `json:"max_discount_percentage"`
}

type UpdateTierRequest struct {
	Name                  *string          `json:"name"`
	Description           *string          `json:"description"`
	MinDiscountPercentage *decimal.Decimal `json:"min_discount_percentage"`
	MaxDiscountPercentage *decimal.Decimal `json:"max_discount_percentage"`
	IsActive              *bool            `json:"is_active"`
}

// TierService manages the named discount bands retailers are assigned to.
type TierService interface {
	CreateTier(ctx context.Context, userID string, req CreateTierRequest) (*model.PricingTier, error)
	UpdateTier(ctx context.Context, userID string, id uuid.UUID, req UpdateTierRequest) (*model.PricingTier, error)
	DeleteTier(ctx context.Context, userID string, id uuid.UUID) error
	GetTier(ctx context.Context, id uuid.UUID) (*model.PricingTier, error)
	ListTiers(ctx context.Context, page, limit int) ([]model.PricingTier, int64, error)
}

type tierService struct {
	tierRepo  repository.PricingTierRepository
	auditRepo repository.AuditRepository
}

func NewTierService(tierRepo repository.PricingTierRepository, auditRepo repository.AuditRepository) TierService {
	return &tierService{tierRepo: tierRepo, auditRepo: auditRepo}
}

func (s *tierService) CreateTier(ctx context.Context, userID string, req CreateTierRequest) (*model.PricingTier, error) {
	tier := &model.PricingTier{
		Name:                  req.Name,
		Description:           req.Description,
		MinDiscountPercentage: req.MinDiscountPercentage,
		MaxDiscountPercentage: req.MaxDiscountPercentage,
		IsActive:              true,
	}
	if err := tier.Validate(); err != nil {
		return nil, err
	}
	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to create pricing tier: %w", err)
	}

	s.audit(ctx, userID, model.ActionCreateTier, tier)
	return tier, nil
}

func (s *tierService) UpdateTier(ctx context.Context, userID string, id uuid.UUID, req UpdateTierRequest) (*model.PricingTier, error) {
	tier, err := s.tierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to load pricing tier: %w", err)
	}

	if req.Name != nil {
		tier.Name = *req.Name
	}
	if req.Description != nil {
		tier.Description = *req.Description
	}
	if req.MinDiscountPercentage != nil {
		tier.MinDiscountPercentage = *req.MinDiscountPercentage
	}
	if req.MaxDiscountPercentage != nil {
		tier.MaxDiscountPercentage = *req.MaxDiscountPercentage
	}
	if req.IsActive != nil {
		tier.IsActive = *req.IsActive
	}

	if err := tier.Validate(); err != nil {
		return nil, err
	}
	if err := s.tierRepo.Update(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to update pricing tier: %w", err)
	}

	s.audit(ctx, userID, model.ActionUpdateTier, tier)
	return tier, nil
}

func (s *tierService) DeleteTier(ctx context.Context, userID string, id uuid.UUID) error {
	tier, err := s.tierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTierNotFound
		}
		return fmt.Errorf("failed to load pricing tier: %w", err)
	}

	if err := s.tierRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete pricing tier: %w", err)
	}

	s.audit(ctx, userID, model.ActionDeleteTier, tier)
	return nil
}

func (s *tierService) GetTier(ctx context.Context, id uuid.UUID) (*model.PricingTier, error) {
	tier, err := s.tierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to load pricing tier: %w", err)
	}
	return tier, nil
}

func (s *tierService) ListTiers(ctx context.Context, page, limit int) ([]model.PricingTier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	tiers, total, err := s.tierRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pricing tiers: %w", err)
	}
	return tiers, total, nil
}

func (s *tierService) audit(ctx context.Context, userID, action string, tier *model.PricingTier) {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		actor = &parsed
	}
	details, _ := json.Marshal(map[string]string{
		"min_discount_percentage": tier.MinDiscountPercentage.String(),
		"max_discount_percentage": tier.MaxDiscountPercentage.String(),
	})
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   tier.ID.String(),
		EntityName: tier.Name,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log for %s %s: %v", action, tier.ID, err)
	}
}
