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
	"gorm.io/gorm"
)

type CreateRetailerRequest struct {
	Name          string  `json:"name" binding:"required"`
	ContactPerson string  `json:"contact_person"`
	Email         string  `json:"email" binding:"omitempty,email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Pincode       string  `json:"pincode"`
	PricingTierID *string `json:"pricing_tier_id"`
}

type UpdateRetailerRequest struct {
	Name          *string `json:"name"`
	ContactPerson *string `json:"contact_person"`
	Email         *string `json:"email" binding:"omitempty,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	Pincode       *string `json:"pincode"`
	PricingTierID *string `json:"pricing_tier_id"` // empty string clears the tier
	IsActive      *bool   `json:"is_active"`
}

// RetailerService manages retailer accounts and their tier assignment.
type RetailerService interface {
	CreateRetailer(ctx context.Context, userID string, req CreateRetailerRequest) (*model.Retailer, error)
	UpdateRetailer(ctx context.Context, userID string, id uuid.UUID, req UpdateRetailerRequest) (*model.Retailer, error)
	DeleteRetailer(ctx context.Context, userID string, id uuid.UUID) error
	GetRetailer(ctx context.Context, id uuid.UUID) (*model.Retailer, error)
	ListRetailers(ctx context.Context, page, limit int, search string) ([]model.Retailer, int64, error)
}

type retailerService struct {
	retailerRepo repository.RetailerRepository
	tierRepo     repository.PricingTierRepository
	auditRepo    repository.AuditRepository
}

func NewRetailerService(
	retailerRepo repository.RetailerRepository,
	tierRepo repository.PricingTierRepository,
	auditRepo repository.AuditRepository,
) RetailerService {
	return &retailerService{retailerRepo: retailerRepo, tierRepo: tierRepo, auditRepo: auditRepo}
}

func (s *retailerService) CreateRetailer(ctx context.Context, userID string, req CreateRetailerRequest) (*model.Retailer, error) {
	tierID, err := s.resolveTierID(ctx, req.PricingTierID)
	if err != nil {
		return nil, err
	}

	retailer := &model.Retailer{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
		PricingTierID: tierID,
		IsActive:      true,
	}
	if err := s.retailerRepo.Create(ctx, retailer); err != nil {
		return nil, fmt.Errorf("failed to create retailer: %w", err)
	}

	s.audit(ctx, userID, model.ActionCreateRetailer, retailer.ID.String(), retailer.Name)
	return retailer, nil
}

func (s *retailerService) UpdateRetailer(ctx context.Context, userID string, id uuid.UUID, req UpdateRetailerRequest) (*model.Retailer, error) {
	retailer, err := s.retailerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRetailer
		}
		return nil, fmt.Errorf("failed to load retailer: %w", err)
	}

	if req.Name != nil {
		retailer.Name = *req.Name
	}
	if req.ContactPerson != nil {
		retailer.ContactPerson = *req.ContactPerson
	}
	if req.Email != nil {
		retailer.Email = *req.Email
	}
	if req.Phone != nil {
		retailer.Phone = *req.Phone
	}
	if req.Address != nil {
		retailer.Address = *req.Address
	}
	if req.City != nil {
		retailer.City = *req.City
	}
	if req.State != nil {
		retailer.State = *req.State
	}
	if req.Pincode != nil {
		retailer.Pincode = *req.Pincode
	}
	if req.PricingTierID != nil {
		if *req.PricingTierID == "" {
			retailer.PricingTierID = nil
			retailer.PricingTier = nil
		} else {
			tierID, tierErr := s.resolveTierID(ctx, req.PricingTierID)
			if tierErr != nil {
				return nil, tierErr
			}
			retailer.PricingTierID = tierID
			retailer.PricingTier = nil
		}
	}
	if req.IsActive != nil {
		retailer.IsActive = *req.IsActive
	}

	if err := s.retailerRepo.Update(ctx, retailer); err != nil {
		return nil, fmt.Errorf("failed to update retailer: %w", err)
	}

	s.audit(ctx, userID, model.ActionUpdateRetailer, retailer.ID.String(), retailer.Name)
	return retailer, nil
}

func (s *retailerService) DeleteRetailer(ctx context.Context, userID string, id uuid.UUID) error {
	retailer, err := s.retailerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidRetailer
		}
		return fmt.Errorf("failed to load retailer: %w", err)
	}

	if err := s.retailerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete retailer: %w", err)
	}

	s.audit(ctx, userID, model.ActionDeleteRetailer, id.String(), retailer.Name)
	return nil
}

func (s *retailerService) GetRetailer(ctx context.Context, id uuid.UUID) (*model.Retailer, error) {
	retailer, err := s.retailerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRetailer
		}
		return nil, fmt.Errorf("failed to load retailer: %w", err)
	}
	return retailer, nil
}

func (s *retailerService) ListRetailers(ctx context.Context, page, limit int, search string) ([]model.Retailer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	retailers, total, err := s.retailerRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list retailers: %w", err)
	}
	return retailers, total, nil
}

// resolveTierID validates that an assigned tier exists and is active. Pricing
// later treats an assigned-but-inactive tier as an error, so catching the
// assignment early gives the operator a clean message.
func (s *retailerService) resolveTierID(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	tierID, err := uuid.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing_tier_id: %w", err)
	}
	if _, err := s.tierRepo.FindActiveByID(ctx, tierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to load pricing tier: %w", err)
	}
	return &tierID, nil
}

func (s *retailerService) audit(ctx context.Context, userID, action, entityID, entityName string) {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		actor = &parsed
	}
	details, _ := json.Marshal(map[string]string{"name": entityName})
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log for %s %s: %v", action, entityID, err)
	}
}
