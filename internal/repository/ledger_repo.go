package repository

import (
	"context"
	"errors"
	"fmt"

	"scms/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrReservationConflict is returned when a conditional decrement matched no
// row: either a concurrent caller drained the batch first or the batch left
// IN_STOCK between the candidate listing and the reservation.
var ErrReservationConflict = errors.New("batch reservation conflict")

// LedgerRepository is the transactional contract over batch stock. Reserve is
// a single conditional UPDATE so the read-check-decrement is atomic with
// respect to concurrent reservations against the same batch: stock can never
// be oversold regardless of how many order handlers run in parallel.
type LedgerRepository interface {
	ListAvailableBatches(ctx context.Context, productID uuid.UUID, strategy string) ([]model.Batch, error)
	ReserveBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error)
	ReleaseBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) error
	SetBatchStatus(ctx context.Context, batchID uuid.UUID, status string) error
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// ListAvailableBatches returns IN_STOCK batches with stock left, ordered for
// the given strategy: FEFO by expiration date, FIFO by production date, both
// with ascending batch id as the deterministic tie-break.
func (r *ledgerRepository) ListAvailableBatches(ctx context.Context, productID uuid.UUID, strategy string) ([]model.Batch, error) {
	order := "expiration_date ASC, id ASC"
	if strategy == model.StrategyFIFO {
		order = "production_date ASC, id ASC"
	}

	var batches []model.Batch
	err := GetDB(ctx, r.db).
		Where("product_id = ? AND status = ? AND current_quantity > 0", productID, model.BatchStatusInStock).
		Order(order).
		Find(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// ReserveBatchQuantity atomically decrements a batch and mirrors the decrement
// into the batch's per-location inventory records. Returns the batch's
// remaining quantity, or ErrReservationConflict when the conditional update
// matched nothing.
func (r *ledgerRepository) ReserveBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error) {
	db := GetDB(ctx, r.db)

	res := db.Model(&model.Batch{}).
		Where("id = ? AND status = ? AND current_quantity >= ?", batchID, model.BatchStatusInStock, quantity).
		UpdateColumn("current_quantity", gorm.Expr("current_quantity - ?", quantity))
	if res.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to reserve batch quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, ErrReservationConflict
	}

	if err := r.drainInventoryRecords(ctx, batchID, quantity); err != nil {
		return decimal.Zero, err
	}

	var batch model.Batch
	if err := db.Select("current_quantity").First(&batch, "id = ?", batchID).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to reload batch after reservation: %w", err)
	}
	return batch.CurrentQuantity, nil
}

// drainInventoryRecords subtracts the reserved quantity from the batch's
// location records, largest stock first, keeping the materialized view equal
// to the sum of decrements applied to the batch.
func (r *ledgerRepository) drainInventoryRecords(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) error {
	db := GetDB(ctx, r.db)

	var records []model.InventoryRecord
	if err := db.
		Where("batch_id = ? AND quantity_on_hand > 0", batchID).
		Order("quantity_on_hand DESC, location ASC").
		Find(&records).Error; err != nil {
		return fmt.Errorf("failed to load inventory records: %w", err)
	}

	remaining := quantity
	for _, rec := range records {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, rec.QuantityOnHand)
		if err := db.Model(&model.InventoryRecord{}).
			Where("id = ?", rec.ID).
			UpdateColumn("quantity_on_hand", gorm.Expr("quantity_on_hand - ?", take)).Error; err != nil {
			return fmt.Errorf("failed to update inventory record: %w", err)
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// ReleaseBatchQuantity undoes a reservation during a logical rollback: the
// batch is re-incremented, flipped back to IN_STOCK if the reservation had
// dispatched it, and the quantity is returned to the batch's first location.
func (r *ledgerRepository) ReleaseBatchQuantity(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) error {
	db := GetDB(ctx, r.db)

	res := db.Model(&model.Batch{}).
		Where("id = ?", batchID).
		UpdateColumn("current_quantity", gorm.Expr("current_quantity + ?", quantity))
	if res.Error != nil {
		return fmt.Errorf("failed to release batch quantity: %w", res.Error)
	}

	if err := db.Model(&model.Batch{}).
		Where("id = ? AND status = ?", batchID, model.BatchStatusDispatched).
		UpdateColumn("status", model.BatchStatusInStock).Error; err != nil {
		return fmt.Errorf("failed to restore batch status: %w", err)
	}

	var rec model.InventoryRecord
	err := db.Where("batch_id = ?", batchID).Order("location ASC").First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil // Batch tracked without location records
		}
		return fmt.Errorf("failed to load inventory record: %w", err)
	}

	if err := db.Model(&model.InventoryRecord{}).
		Where("id = ?", rec.ID).
		UpdateColumn("quantity_on_hand", gorm.Expr("quantity_on_hand + ?", quantity)).Error; err != nil {
		return fmt.Errorf("failed to restore inventory record: %w", err)
	}
	return nil
}

func (r *ledgerRepository) SetBatchStatus(ctx context.Context, batchID uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Batch{}).
		Where("id = ?", batchID).
		UpdateColumn("status", status).Error
}
