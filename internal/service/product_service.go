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

type CreateProductRequest struct {
	SKU           string          `json:"sku" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	MRP           decimal.Decimal `json:"mrp" binding:"required"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	ShelfLifeDays int             `json:"shelf_life_days" binding:"required,min=1"`
	IsPerishable  *bool           `json:"is_perishable"`
}

type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Category      *string          `json:"category"`
	Brand         *string          `json:"brand"`
	MRP           *decimal.Decimal `json:"mrp"`
	UnitOfMeasure *string          `json:"unit_of_measure"`
	ShelfLifeDays *int             `json:"shelf_life_days"`
	IsPerishable  *bool            `json:"is_perishable"`
}

// ProductService manages the product master data.
type ProductService interface {
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, userID string, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID string, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
}

func NewProductService(productRepo repository.ProductRepository, auditRepo repository.AuditRepository) ProductService {
	return &productService{productRepo: productRepo, auditRepo: auditRepo}
}

func (s *productService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error) {
	if req.MRP.IsNegative() {
		return nil, fmt.Errorf("mrp must not be negative")
	}

	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, fmt.Errorf("product with SKU %q already exists", req.SKU)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check SKU uniqueness: %w", err)
	}

	perishable := true
	if req.IsPerishable != nil {
		perishable = *req.IsPerishable
	}

	product := &model.Product{
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Brand:         req.Brand,
		MRP:           req.MRP,
		UnitOfMeasure: req.UnitOfMeasure,
		ShelfLifeDays: req.ShelfLifeDays,
		IsPerishable:  perishable,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.audit(ctx, userID, model.ActionCreateProduct, product.ID.String(), product.Name, map[string]interface{}{
		"sku": product.SKU,
		"mrp": product.MRP.String(),
	})
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID string, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidProduct
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.MRP != nil {
		if req.MRP.IsNegative() {
			return nil, fmt.Errorf("mrp must not be negative")
		}
		product.MRP = *req.MRP
	}
	if req.UnitOfMeasure != nil {
		product.UnitOfMeasure = *req.UnitOfMeasure
	}
	if req.ShelfLifeDays != nil {
		if *req.ShelfLifeDays < 1 {
			return nil, fmt.Errorf("shelf_life_days must be at least 1")
		}
		product.ShelfLifeDays = *req.ShelfLifeDays
	}
	if req.IsPerishable != nil {
		product.IsPerishable = *req.IsPerishable
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.audit(ctx, userID, model.ActionUpdateProduct, product.ID.String(), product.Name, nil)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, userID string, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidProduct
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.audit(ctx, userID, model.ActionDeleteProduct, id.String(), product.Name, nil)
	return nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidProduct
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

func (s *productService) audit(ctx context.Context, userID, action, entityID, entityName string, details map[string]interface{}) {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		actor = &parsed
	}
	payload := ""
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			payload = string(b)
		}
	}
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log for %s %s: %v", action, entityID, err)
	}
}
