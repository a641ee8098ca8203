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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxAllocationRetries bounds how often a line's allocation is retried after
// losing a race on a shared batch before the whole order is rejected.
const maxAllocationRetries = 3

// --- DTOs ---

type OrderLineRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

type ProcessOrderRequest struct {
	OrderCode  string             `json:"order_code" binding:"required"`
	RetailerID string             `json:"retailer_id" binding:"required"`
	Strategy   string             `json:"strategy" binding:"omitempty,oneof=FEFO FIFO"`
	Note       string             `json:"note"`
	Lines      []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type LineAllocationResponse struct {
	ProductID          string          `json:"product_id"`
	BatchID            string          `json:"batch_id"`
	BatchNumber        string          `json:"batch_number"`
	ExpirationDate     string          `json:"expiration_date"`
	Quantity           decimal.Decimal `json:"quantity"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
}

type ProcessOrderResponse struct {
	OrderID     string                   `json:"order_id"`
	OrderCode   string                   `json:"order_code"`
	Status      string                   `json:"status"`
	OrderTotal  decimal.Decimal          `json:"order_total"`
	Allocations []LineAllocationResponse `json:"allocations"`
}

type OrderResponse struct {
	ID         string                   `json:"id"`
	OrderCode  string                   `json:"order_code"`
	RetailerID string                   `json:"retailer_id"`
	Status     string                   `json:"status"`
	OrderTotal decimal.Decimal          `json:"order_total"`
	Items      []LineAllocationResponse `json:"items"`
	CreatedAt  string                   `json:"created_at"`
}

// OrderService orchestrates pricing and allocation for multi-line orders.
// An order is atomic: every line is priced and allocated, or the order is
// rejected and every reservation already taken for it is released.
type OrderService interface {
	ProcessOrder(ctx context.Context, userID string, req ProcessOrderRequest) (ProcessOrderResponse, error)
	ListOrders(ctx context.Context, page, limit int) ([]OrderResponse, int64, error)
}

type orderService struct {
	productRepo  repository.ProductRepository
	retailerRepo repository.RetailerRepository
	orderRepo    repository.OrderRepository
	auditRepo    repository.AuditRepository
	allocator    AllocationService
	pricing      PricingService
	txManager    repository.TransactionManager
}

func NewOrderService(
	productRepo repository.ProductRepository,
	retailerRepo repository.RetailerRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	allocator AllocationService,
	pricing PricingService,
	txManager repository.TransactionManager,
) OrderService {
	return &orderService{
		productRepo:  productRepo,
		retailerRepo: retailerRepo,
		orderRepo:    orderRepo,
		auditRepo:    auditRepo,
		allocator:    allocator,
		pricing:      pricing,
		txManager:    txManager,
	}
}

// ProcessOrder drives an order through Draft → Priced → Allocated → Committed,
// rejecting the whole order on the first line that cannot be satisfied.
func (s *orderService) ProcessOrder(ctx context.Context, userID string, req ProcessOrderRequest) (ProcessOrderResponse, error) {
	// Draft: validate retailer, products and quantities before touching stock.
	retailerID, err := uuid.Parse(req.RetailerID)
	if err != nil {
		return ProcessOrderResponse{}, fmt.Errorf("invalid retailer id: %w", err)
	}

	retailer, err := s.retailerRepo.FindByID(ctx, retailerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProcessOrderResponse{}, ErrInvalidRetailer
		}
		return ProcessOrderResponse{}, fmt.Errorf("failed to load retailer: %w", err)
	}

	products := make(map[uuid.UUID]*model.Product, len(req.Lines))
	for _, line := range req.Lines {
		if !line.Quantity.IsPositive() {
			return ProcessOrderResponse{}, ErrInvalidQuantity
		}
		pid, parseErr := uuid.Parse(line.ProductID)
		if parseErr != nil {
			return ProcessOrderResponse{}, fmt.Errorf("invalid product id %q: %w", line.ProductID, parseErr)
		}
		if _, seen := products[pid]; seen {
			continue
		}
		product, findErr := s.productRepo.FindByID(ctx, pid)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return ProcessOrderResponse{}, ErrInvalidProduct
			}
			return ProcessOrderResponse{}, fmt.Errorf("failed to load product %s: %w", pid, findErr)
		}
		products[pid] = product
	}

	// Priced: the tier is resolved once per retailer and reused across lines.
	tier, err := s.pricing.ResolveTier(ctx, retailer)
	if err != nil {
		return ProcessOrderResponse{}, err
	}

	now := time.Now()
	var response ProcessOrderResponse

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var reserved []BatchAllocation
		orderTotal := decimal.Zero
		var items []model.OrderItem
		var lines []LineAllocationResponse

		for _, line := range req.Lines {
			pid, _ := uuid.Parse(line.ProductID)
			product := products[pid]

			allocations, allocErr := s.allocateWithRetry(txCtx, pid, line.Quantity, req.Strategy)
			if allocErr != nil {
				// Allocated → Rejected: release everything earlier lines took.
				s.releaseReserved(txCtx, reserved)
				return allocErr
			}
			reserved = append(reserved, allocations...)

			for _, alloc := range allocations {
				quote, quoteErr := s.pricing.QuoteForTier(product, tier, line.Quantity, &alloc.Batch, now)
				if quoteErr != nil {
					s.releaseReserved(txCtx, reserved)
					return quoteErr
				}

				lineTotal := quote.UnitPrice.Mul(alloc.QuantityTaken).Round(2)
				orderTotal = orderTotal.Add(lineTotal)

				items = append(items, model.OrderItem{
					ProductID:          pid,
					BatchID:            alloc.Batch.ID,
					Quantity:           alloc.QuantityTaken,
					DiscountPercentage: quote.DiscountPercentage,
					UnitPrice:          quote.UnitPrice,
					LineTotal:          lineTotal,
				})
				lines = append(lines, LineAllocationResponse{
					ProductID:          pid.String(),
					BatchID:            alloc.Batch.ID.String(),
					BatchNumber:        alloc.Batch.ManufacturerBatchNumber,
					ExpirationDate:     alloc.Batch.ExpirationDate.Format("2006-01-02"),
					Quantity:           alloc.QuantityTaken,
					DiscountPercentage: quote.DiscountPercentage,
					UnitPrice:          quote.UnitPrice,
					LineTotal:          lineTotal,
				})
			}
		}

		// Committed: persist the order with its resolved allocations.
		order := model.Order{
			OrderCode:  req.OrderCode,
			RetailerID: retailer.ID,
			Status:     model.OrderStatusPending,
			Note:       req.Note,
			OrderTotal: orderTotal,
		}
		if createErr := s.orderRepo.Create(txCtx, &order); createErr != nil {
			s.releaseReserved(txCtx, reserved)
			return fmt.Errorf("failed to create order: %w", createErr)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if itemErr := s.orderRepo.CreateItem(txCtx, &items[i]); itemErr != nil {
				s.releaseReserved(txCtx, reserved)
				return fmt.Errorf("failed to create order item: %w", itemErr)
			}
		}

		s.writeAuditLog(txCtx, userID, &order, lines)

		response = ProcessOrderResponse{
			OrderID:     order.ID.String(),
			OrderCode:   order.OrderCode,
			Status:      order.Status,
			OrderTotal:  orderTotal,
			Allocations: lines,
		}
		return nil
	})

	if err != nil {
		return ProcessOrderResponse{}, err
	}
	return response, nil
}

// allocateWithRetry retries a line's allocation after concurrency conflicts,
// which are transient by definition, up to maxAllocationRetries attempts.
func (s *orderService) allocateWithRetry(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, strategy string) ([]BatchAllocation, error) {
	var lastErr error
	for attempt := 0; attempt < maxAllocationRetries; attempt++ {
		allocations, err := s.allocator.AllocateInTx(ctx, productID, quantity, strategy)
		if err == nil {
			return allocations, nil
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *orderService) releaseReserved(ctx context.Context, reserved []BatchAllocation) {
	if len(reserved) == 0 {
		return
	}
	// The allocator released its own partial take; this covers completed lines.
	s.allocator.Release(ctx, reserved)
}

func (s *orderService) writeAuditLog(ctx context.Context, userID string, order *model.Order, lines []LineAllocationResponse) {
	var actor *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		actor = &parsed
	}

	details, _ := json.Marshal(map[string]interface{}{
		"order_code":  order.OrderCode,
		"retailer_id": order.RetailerID.String(),
		"order_total": order.OrderTotal.String(),
		"allocations": lines,
	})
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     model.ActionProcessOrder,
		EntityID:   order.ID.String(),
		EntityName: order.OrderCode,
		Details:    string(details),
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		log.Printf("failed to write audit log for order %s: %v", order.ID, err)
	}
}

func (s *orderService) ListOrders(ctx context.Context, page, limit int) ([]OrderResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	orders, total, err := s.orderRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		items := make([]LineAllocationResponse, 0, len(o.Items))
		for _, item := range o.Items {
			items = append(items, LineAllocationResponse{
				ProductID:          item.ProductID.String(),
				BatchID:            item.BatchID.String(),
				Quantity:           item.Quantity,
				DiscountPercentage: item.DiscountPercentage,
				UnitPrice:          item.UnitPrice,
				LineTotal:          item.LineTotal,
			})
		}
		res = append(res, OrderResponse{
			ID:         o.ID.String(),
			OrderCode:  o.OrderCode,
			RetailerID: o.RetailerID.String(),
			Status:     o.Status,
			OrderTotal: o.OrderTotal,
			Items:      items,
			CreatedAt:  o.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, total, nil
}
