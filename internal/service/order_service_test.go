package service

import (
	"context"
	"testing"

	"scms/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	svc       OrderService
	ledger    *fakeLedger
	orderRepo *fakeOrderRepo
	auditRepo *fakeAuditRepo
	productA  *model.Product
	productB  *model.Product
	retailer  *model.Retailer
}

func newOrderFixture(t *testing.T, batches ...*model.Batch) *orderFixture {
	t.Helper()

	tier := &model.PricingTier{
		ID:                    uuidN(1),
		Name:                  "Gold",
		MinDiscountPercentage: decimal.NewFromInt(10),
		MaxDiscountPercentage: decimal.NewFromInt(20),
		IsActive:              true,
	}
	productA := &model.Product{ID: uuidN(10), SKU: "MILK-1L", Name: "Whole Milk 1L", MRP: decimal.NewFromInt(100), ShelfLifeDays: 14}
	productB := &model.Product{ID: uuidN(11), SKU: "YOG-500", Name: "Yogurt 500g", MRP: decimal.NewFromInt(50), ShelfLifeDays: 21}
	tierID := tier.ID
	retailer := &model.Retailer{ID: uuidN(20), Name: "Corner Shop", PricingTierID: &tierID, IsActive: true}

	ledger := newFakeLedger(batches...)
	orderRepo := &fakeOrderRepo{}
	auditRepo := &fakeAuditRepo{}
	txManager := &fakeTxManager{}
	allocator := NewAllocationService(ledger, txManager)
	pricing := NewPricingService(
		PricingConfig{LargeOrderQuantity: decimal.NewFromInt(100), NearExpiryDays: 7},
		newFakeProductRepo(productA, productB),
		newFakeRetailerRepo(retailer),
		newFakeTierRepo(tier),
	)

	svc := NewOrderService(
		newFakeProductRepo(productA, productB),
		newFakeRetailerRepo(retailer),
		orderRepo,
		auditRepo,
		allocator,
		pricing,
		txManager,
	)

	return &orderFixture{
		svc:       svc,
		ledger:    ledger,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		productA:  productA,
		productB:  productB,
		retailer:  retailer,
	}
}

func TestProcessOrderMultiLineSuccess(t *testing.T) {
	// Far-future expiry keeps the near-expiry bonus out of the math.
	batchA := stockBatch(1, uuidN(10), 100, 5, 60)
	batchB := stockBatch(2, uuidN(11), 80, 5, 60)
	f := newOrderFixture(t, batchA, batchB)

	res, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1001",
		RetailerID: f.retailer.ID.String(),
		Lines: []OrderLineRequest{
			{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(50)},
			{ProductID: f.productB.ID.String(), Quantity: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, res.Status)
	require.Len(t, res.Allocations, 2)

	// Line A: qty 50 -> discount 10 + 10*0.5 = 15% -> unit 85, total 4250.
	assert.Equal(t, "15", res.Allocations[0].DiscountPercentage.String())
	assert.Equal(t, "85", res.Allocations[0].UnitPrice.String())
	assert.Equal(t, "4250", res.Allocations[0].LineTotal.String())

	// Line B: qty 20 -> discount 10 + 10*0.2 = 12% -> unit 44, total 880.
	assert.Equal(t, "12", res.Allocations[1].DiscountPercentage.String())
	assert.Equal(t, "44", res.Allocations[1].UnitPrice.String())
	assert.Equal(t, "880", res.Allocations[1].LineTotal.String())

	assert.Equal(t, "5130", res.OrderTotal.String())

	// Persisted order and items match the response.
	require.Len(t, f.orderRepo.orders, 1)
	require.Len(t, f.orderRepo.items, 2)
	assert.Equal(t, "ORD-1001", f.orderRepo.orders[0].OrderCode)
	assert.Equal(t, "50", batchA.CurrentQuantity.String())
	assert.Equal(t, "60", batchB.CurrentQuantity.String())
}

func TestProcessOrderLineSpanningBatchesGetsItemPerBatch(t *testing.T) {
	early := stockBatch(1, uuidN(10), 30, 10, 20)
	late := stockBatch(2, uuidN(10), 100, 5, 40)
	f := newOrderFixture(t, early, late)

	res, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1002",
		RetailerID: f.retailer.ID.String(),
		Lines: []OrderLineRequest{
			{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Allocations, 2)
	assert.Equal(t, early.ID.String(), res.Allocations[0].BatchID)
	assert.Equal(t, "30", res.Allocations[0].Quantity.String())
	assert.Equal(t, late.ID.String(), res.Allocations[1].BatchID)
	assert.Equal(t, "20", res.Allocations[1].Quantity.String())
	require.Len(t, f.orderRepo.items, 2)
}

func TestProcessOrderRejectsWholeOrderOnShortLine(t *testing.T) {
	batchA := stockBatch(1, uuidN(10), 100, 5, 60)
	batchB := stockBatch(2, uuidN(11), 5, 5, 60) // not enough for line B
	f := newOrderFixture(t, batchA, batchB)

	_, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1003",
		RetailerID: f.retailer.ID.String(),
		Lines: []OrderLineRequest{
			{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(50)},
			{ProductID: f.productB.ID.String(), Quantity: decimal.NewFromInt(20)},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Line A's reservation was rolled back, nothing was persisted.
	assert.Equal(t, "100", batchA.CurrentQuantity.String())
	assert.Equal(t, "5", batchB.CurrentQuantity.String())
	assert.Contains(t, f.ledger.releases, batchA.ID)
	assert.Empty(t, f.orderRepo.orders)
	assert.Empty(t, f.orderRepo.items)
}

func TestProcessOrderRetriesTransientConflicts(t *testing.T) {
	batchA := stockBatch(1, uuidN(10), 100, 5, 60)
	f := newOrderFixture(t, batchA)
	// First two attempts lose the race, the third wins.
	f.ledger.conflictsLeft[batchA.ID] = 2

	res, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1004",
		RetailerID: f.retailer.ID.String(),
		Lines: []OrderLineRequest{
			{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(10)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, res.Status)
	assert.Equal(t, "90", batchA.CurrentQuantity.String())
}

func TestProcessOrderGivesUpAfterPersistentConflicts(t *testing.T) {
	batchA := stockBatch(1, uuidN(10), 100, 5, 60)
	f := newOrderFixture(t, batchA)
	f.ledger.conflictsLeft[batchA.ID] = 100

	_, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1005",
		RetailerID: f.retailer.ID.String(),
		Lines: []OrderLineRequest{
			{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(10)},
		},
	})
	require.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Empty(t, f.orderRepo.orders)
}

func TestProcessOrderCreateFailureReleasesReservations(t *testing.T) {
	batchA := stockBatch(1, uuidN(10), 100, 5, 60)
	f := newOrderFixture(t, batchA)
	f.orderRepo.failCreate = true

	_, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1010",
		RetailerID: f.retailer.ID.String(),
		Lines: []OrderLineRequest{
			{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(25)},
		},
	})
	require.Error(t, err)

	assert.Equal(t, "100", batchA.CurrentQuantity.String())
	assert.Contains(t, f.ledger.releases, batchA.ID)
	assert.Empty(t, f.orderRepo.orders)
	assert.Empty(t, f.orderRepo.items)
}

func TestProcessOrderValidatesInput(t *testing.T) {
	f := newOrderFixture(t, stockBatch(1, uuidN(10), 100, 5, 60))

	_, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1006",
		RetailerID: uuidN(99).String(),
		Lines:      []OrderLineRequest{{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, ErrInvalidRetailer)

	_, err = f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1007",
		RetailerID: f.retailer.ID.String(),
		Lines:      []OrderLineRequest{{ProductID: f.productA.ID.String(), Quantity: decimal.Zero}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1008",
		RetailerID: f.retailer.ID.String(),
		Lines:      []OrderLineRequest{{ProductID: uuidN(98).String(), Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestProcessOrderWritesAuditEntry(t *testing.T) {
	f := newOrderFixture(t, stockBatch(1, uuidN(10), 100, 5, 60))

	_, err := f.svc.ProcessOrder(context.Background(), uuidN(42).String(), ProcessOrderRequest{
		OrderCode:  "ORD-1009",
		RetailerID: f.retailer.ID.String(),
		Lines:      []OrderLineRequest{{ProductID: f.productA.ID.String(), Quantity: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	require.Len(t, f.auditRepo.entries, 1)
	entry := f.auditRepo.entries[0]
	assert.Equal(t, model.ActionProcessOrder, entry.Action)
	assert.Equal(t, "ORD-1009", entry.EntityName)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, uuidN(42), *entry.UserID)
}
