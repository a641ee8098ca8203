package service

import (
	"context"
	"testing"
	"time"

	"scms/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allocBase = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func stockBatch(n int, productID uuid.UUID, qty int64, producedDaysAgo, expiresInDays int) *model.Batch {
	return &model.Batch{
		ID:                      uuidN(n),
		ProductID:               productID,
		ManufacturerBatchNumber: uuidN(n).String()[:8],
		ProductionDate:          allocBase.AddDate(0, 0, -producedDaysAgo),
		ExpirationDate:          allocBase.AddDate(0, 0, expiresInDays),
		InitialQuantity:         decimal.NewFromInt(qty),
		CurrentQuantity:         decimal.NewFromInt(qty),
		Status:                  model.BatchStatusInStock,
	}
}

func TestAllocateFEFOTakesEarliestExpiryFirst(t *testing.T) {
	productID := uuidN(100)
	// Deliberately inserted out of expiry order
	late := stockBatch(1, productID, 50, 10, 20)
	early := stockBatch(2, productID, 30, 5, 5)
	ledger := newFakeLedger(late, early)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	allocations, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(40), model.StrategyFEFO)
	require.NoError(t, err)
	require.Len(t, allocations, 2)

	assert.Equal(t, early.ID, allocations[0].Batch.ID)
	assert.Equal(t, "30", allocations[0].QuantityTaken.String())
	assert.Equal(t, late.ID, allocations[1].Batch.ID)
	assert.Equal(t, "10", allocations[1].QuantityTaken.String())

	// The drained batch is dispatched, the partially used one stays in stock.
	assert.Equal(t, model.BatchStatusDispatched, early.Status)
	assert.Equal(t, model.BatchStatusInStock, late.Status)
	assert.Equal(t, "40", late.CurrentQuantity.String())
}

func TestAllocateFIFOTakesOldestProductionFirst(t *testing.T) {
	productID := uuidN(100)
	// Expires sooner but produced later: FIFO must skip past it
	freshButExpiring := stockBatch(1, productID, 50, 2, 3)
	oldStock := stockBatch(2, productID, 50, 30, 40)
	ledger := newFakeLedger(freshButExpiring, oldStock)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	allocations, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(20), model.StrategyFIFO)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, oldStock.ID, allocations[0].Batch.ID)
}

func TestAllocateEqualDatesBreakTiesByID(t *testing.T) {
	productID := uuidN(100)
	b2 := stockBatch(2, productID, 10, 5, 7)
	b1 := stockBatch(1, productID, 10, 5, 7)
	ledger := newFakeLedger(b2, b1)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	allocations, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(15), model.StrategyFEFO)
	require.NoError(t, err)
	require.Len(t, allocations, 2)
	assert.Equal(t, b1.ID, allocations[0].Batch.ID)
	assert.Equal(t, b2.ID, allocations[1].Batch.ID)
}

func TestAllocateDefaultsToFEFO(t *testing.T) {
	productID := uuidN(100)
	late := stockBatch(1, productID, 50, 20, 30)
	early := stockBatch(2, productID, 50, 1, 2)
	ledger := newFakeLedger(late, early)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	allocations, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, early.ID, allocations[0].Batch.ID)
}

func TestAllocateQuantitiesSumToRequest(t *testing.T) {
	productID := uuidN(100)
	ledger := newFakeLedger(
		stockBatch(1, productID, 7, 1, 2),
		stockBatch(2, productID, 13, 2, 4),
		stockBatch(3, productID, 29, 3, 6),
	)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	requested := decimal.NewFromInt(31)
	allocations, err := svc.Allocate(context.Background(), productID, requested, model.StrategyFEFO)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, a := range allocations {
		assert.True(t, a.QuantityTaken.IsPositive())
		sum = sum.Add(a.QuantityTaken)
	}
	assert.True(t, sum.Equal(requested), "allocated %s, requested %s", sum, requested)
}

func TestAllocateInsufficientStockLeavesLedgerUntouched(t *testing.T) {
	productID := uuidN(100)
	b1 := stockBatch(1, productID, 10, 1, 2)
	b2 := stockBatch(2, productID, 15, 2, 4)
	ledger := newFakeLedger(b1, b2)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	_, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(26), model.StrategyFEFO)
	require.ErrorIs(t, err, ErrInsufficientStock)

	assert.Equal(t, "10", b1.CurrentQuantity.String())
	assert.Equal(t, "15", b2.CurrentQuantity.String())
	assert.Empty(t, ledger.releases)
}

func TestAllocateRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewAllocationService(newFakeLedger(), &fakeTxManager{})

	_, err := svc.Allocate(context.Background(), uuidN(100), decimal.Zero, model.StrategyFEFO)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Allocate(context.Background(), uuidN(100), decimal.NewFromInt(-3), model.StrategyFEFO)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAllocateRejectsUnknownStrategy(t *testing.T) {
	svc := NewAllocationService(newFakeLedger(), &fakeTxManager{})

	_, err := svc.Allocate(context.Background(), uuidN(100), decimal.NewFromInt(1), "LIFO")
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestAllocateConflictReleasesEarlierReservations(t *testing.T) {
	productID := uuidN(100)
	first := stockBatch(1, productID, 10, 1, 2)
	second := stockBatch(2, productID, 10, 2, 4)
	ledger := newFakeLedger(first, second)
	// Every reservation attempt on the second batch loses the race.
	ledger.conflictsLeft[second.ID] = 100
	svc := NewAllocationService(ledger, &fakeTxManager{})

	_, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(15), model.StrategyFEFO)
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	// The first batch's reservation was rolled back.
	assert.Equal(t, "10", first.CurrentQuantity.String())
	assert.Equal(t, model.BatchStatusInStock, first.Status)
	assert.Contains(t, ledger.releases, first.ID)
}

func TestAllocateSkipsOtherProductsAndNonStockBatches(t *testing.T) {
	productID := uuidN(100)
	otherProduct := stockBatch(1, uuidN(200), 50, 1, 2)
	expired := stockBatch(2, productID, 50, 30, 10)
	expired.Status = model.BatchStatusExpired
	available := stockBatch(3, productID, 50, 5, 9)
	ledger := newFakeLedger(otherProduct, expired, available)
	svc := NewAllocationService(ledger, &fakeTxManager{})

	allocations, err := svc.Allocate(context.Background(), productID, decimal.NewFromInt(50), model.StrategyFEFO)
	require.NoError(t, err)
	require.Len(t, allocations, 1)
	assert.Equal(t, available.ID, allocations[0].Batch.ID)
}
