package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"scms/internal/model"
	"scms/internal/repository"
	ws "scms/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReceiveBatchRequest struct {
	ProductID               string          `json:"product_id" binding:"required"`
	ManufacturerBatchNumber string          `json:"manufacturer_batch_number" binding:"required"`
	ProductionDate          string          `json:"production_date" binding:"required"` // YYYY-MM-DD
	ExpirationDate          string          `json:"expiration_date"`                    // optional, defaults to production + shelf life
	Quantity                decimal.Decimal `json:"quantity" binding:"required"`
	Location                string          `json:"location" binding:"required"`
	ReorderPoint            *decimal.Decimal `json:"reorder_point"`
	ManufacturingLocation   string          `json:"manufacturing_location"`
}

type RecallBatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// InventoryService covers the goods-receipt and stock-keeping side: batches
// enter as RECEIVED, get a per-location inventory record, and flip to IN_STOCK
// in the same transaction so they become allocatable atomically.
type InventoryService interface {
	ReceiveBatch(ctx context.Context, userID string, req ReceiveBatchRequest) (*model.Batch, error)
	RecallBatch(ctx context.Context, userID string, batchID uuid.UUID, req RecallBatchRequest) (*model.Batch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*model.Batch, error)
	ListBatches(ctx context.Context, page, limit int, status string) ([]model.Batch, int64, error)
	ListBatchesByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Batch, int64, error)
	ListInventory(ctx context.Context, page, limit int, location string) ([]model.InventoryRecord, int64, error)
}

type inventoryService struct {
	productRepo   repository.ProductRepository
	batchRepo     repository.BatchRepository
	inventoryRepo repository.InventoryRepository
	alertRepo     repository.AlertRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
	inventoryRepo repository.InventoryRepository,
	alertRepo repository.AlertRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryService {
	return &inventoryService{
		productRepo:   productRepo,
		batchRepo:     batchRepo,
		inventoryRepo: inventoryRepo,
		alertRepo:     alertRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

func (s *inventoryService) ReceiveBatch(ctx context.Context, userID string, req ReceiveBatchRequest) (*model.Batch, error) {
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product id: %w", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidProduct
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	productionDate, err := time.Parse("2006-01-02", req.ProductionDate)
	if err != nil {
		return nil, fmt.Errorf("invalid production_date: %w", err)
	}

	expirationDate := product.ExpiryDateFor(productionDate)
	if req.ExpirationDate != "" {
		expirationDate, err = time.Parse("2006-01-02", req.ExpirationDate)
		if err != nil {
			return nil, fmt.Errorf("invalid expiration_date: %w", err)
		}
	}
	if !expirationDate.After(productionDate) {
		return nil, fmt.Errorf("expiration_date must be after production_date")
	}

	batch := &model.Batch{
		ProductID:               product.ID,
		ManufacturerBatchNumber: req.ManufacturerBatchNumber,
		ProductionDate:          productionDate,
		ExpirationDate:          expirationDate,
		InitialQuantity:         req.Quantity,
		CurrentQuantity:         req.Quantity,
		Status:                  model.BatchStatusReceived,
		ManufacturingLocation:   req.ManufacturingLocation,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.batchRepo.Create(txCtx, batch); createErr != nil {
			return fmt.Errorf("failed to create batch: %w", createErr)
		}

		record := &model.InventoryRecord{
			BatchID:        batch.ID,
			Location:       req.Location,
			QuantityOnHand: req.Quantity,
			ReorderPoint:   req.ReorderPoint,
		}
		if recordErr := s.inventoryRepo.Create(txCtx, record); recordErr != nil {
			return fmt.Errorf("failed to create inventory record: %w", recordErr)
		}

		// IN_STOCK only once the inventory record exists, so the batch becomes
		// visible to the allocator and its stock view in one step.
		if statusErr := s.batchRepo.UpdateStatus(txCtx, batch.ID, model.BatchStatusInStock); statusErr != nil {
			return fmt.Errorf("failed to put batch in stock: %w", statusErr)
		}
		batch.Status = model.BatchStatusInStock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, userID, model.ActionReceiveBatch, batch.ID.String(), batch.ManufacturerBatchNumber, map[string]interface{}{
		"product_id":      product.ID.String(),
		"quantity":        req.Quantity.String(),
		"location":        req.Location,
		"expiration_date": expirationDate.Format("2006-01-02"),
	})
	return batch, nil
}

// RecallBatch pulls a batch out of circulation and raises a critical recall
// alert. Recalled batches keep their quantities for traceability.
func (s *inventoryService) RecallBatch(ctx context.Context, userID string, batchID uuid.UUID, req RecallBatchRequest) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch not found")
		}
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}

	if batch.Status == model.BatchStatusRecalled {
		return batch, nil
	}
	if batch.Status == model.BatchStatusDispatched || batch.Status == model.BatchStatusExpired {
		// Still recallable: the alert is what drives the downstream chase-up.
		log.Printf("recalling batch %s from status %s", batch.ID, batch.Status)
	}

	if err := s.batchRepo.UpdateStatus(ctx, batch.ID, model.BatchStatusRecalled); err != nil {
		return nil, fmt.Errorf("failed to recall batch: %w", err)
	}
	batch.Status = model.BatchStatusRecalled

	alert := &model.Alert{
		Type:       model.AlertTypeRecall,
		TargetType: model.AlertTargetBatch,
		TargetID:   batch.ID,
		Priority:   model.AlertPriorityCritical,
		Status:     model.AlertStatusNew,
		Message: fmt.Sprintf("Batch %s of %s recalled: %s",
			batch.ManufacturerBatchNumber, batch.Product.Name, req.Reason),
	}
	if err := s.alertRepo.Create(ctx, alert); err != nil {
		log.Printf("failed to create recall alert for batch %s: %v", batch.ID, err)
	} else if s.hub != nil {
		if payload, marshalErr := json.Marshal(AlertEvent{
			Event: "alert_created",
			Data: map[string]interface{}{
				"id":       alert.ID.String(),
				"type":     alert.Type,
				"priority": alert.Priority,
				"message":  alert.Message,
			},
		}); marshalErr == nil {
			s.hub.Publish(payload)
		}
	}

	s.audit(ctx, userID, model.ActionRecallBatch, batch.ID.String(), batch.ManufacturerBatchNumber, map[string]interface{}{
		"reason": req.Reason,
	})
	return batch, nil
}

func (s *inventoryService) GetBatch(ctx context.Context, id uuid.UUID) (*model.Batch, error) {
	batch, err := s.batchRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch not found")
		}
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	return batch, nil
}

func (s *inventoryService) ListBatches(ctx context.Context, page, limit int, status string) ([]model.Batch, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	batches, total, err := s.batchRepo.List(ctx, page, limit, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, total, nil
}

func (s *inventoryService) ListBatchesByProduct(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.Batch, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	batches, total, err := s.batchRepo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list batches for product: %w", err)
	}
	return batches, total, nil
}

func (s *inventoryService) ListInventory(ctx context.Context, page, limit int, location string) ([]model.InventoryRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	records, total, err := s.inventoryRepo.List(ctx, page, limit, location)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory: %w", err)
	}
	return records, total, nil
}

func (s *inventoryService) audit(ctx context.Context, userID, action, entityID, entityName string, details map[string]interface{}) {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		actor = &parsed
	}
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log for %s %s: %v", action, entityID, err)
	}
}
