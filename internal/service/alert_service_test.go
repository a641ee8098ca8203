package service

import (
	"context"
	"testing"
	"time"

	"scms/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expiringBatch(n int, expiresInDays int, qty int64) *model.Batch {
	now := time.Now()
	return &model.Batch{
		ID:                      uuidN(n),
		ProductID:               uuidN(900),
		ManufacturerBatchNumber: "LOT-" + uuidN(n).String()[:4],
		Product:                 model.Product{Name: "Yogurt 500g", UnitOfMeasure: "pcs"},
		ProductionDate:          now.AddDate(0, 0, -10),
		ExpirationDate:          now.AddDate(0, 0, expiresInDays),
		InitialQuantity:         decimal.NewFromInt(qty),
		CurrentQuantity:         decimal.NewFromInt(qty),
		Status:                  model.BatchStatusInStock,
	}
}

func lowStockRecord(n int, onHand, reorder int64) *model.InventoryRecord {
	rp := decimal.NewFromInt(reorder)
	return &model.InventoryRecord{
		ID:             uuidN(n),
		BatchID:        uuidN(n + 500),
		Batch:          model.Batch{Product: model.Product{Name: "Yogurt 500g"}},
		Location:       "WH-A",
		QuantityOnHand: decimal.NewFromInt(onHand),
		ReorderPoint:   &rp,
	}
}

func newAlertFixture(batches []*model.Batch, records []*model.InventoryRecord) (AlertService, *fakeAlertRepo, *fakeBatchRepo) {
	alertRepo := newFakeAlertRepo()
	batchRepo := newFakeBatchRepo(batches...)
	inventoryRepo := newFakeInventoryRepo(records...)
	svc := NewAlertService(alertRepo, batchRepo, inventoryRepo, &fakeAuditRepo{}, nil)
	return svc, alertRepo, batchRepo
}

func TestExpirationSweepCreatesOneAlertPerBatch(t *testing.T) {
	svc, alertRepo, _ := newAlertFixture([]*model.Batch{
		expiringBatch(1, 1, 20),
		expiringBatch(2, 3, 10),
		expiringBatch(3, 6, 5),
		expiringBatch(4, 30, 50), // outside the window
	}, nil)

	created, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	// Priorities follow the escalation ladder.
	byTarget := make(map[string]string)
	for _, a := range alertRepo.alerts {
		byTarget[a.TargetID.String()] = a.Priority
	}
	assert.Equal(t, model.AlertPriorityCritical, byTarget[uuidN(1).String()])
	assert.Equal(t, model.AlertPriorityHigh, byTarget[uuidN(2).String()])
	assert.Equal(t, model.AlertPriorityMedium, byTarget[uuidN(3).String()])
}

func TestExpirationSweepIsIdempotent(t *testing.T) {
	svc, alertRepo, _ := newAlertFixture([]*model.Batch{expiringBatch(1, 2, 20)}, nil)

	first, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	assert.Len(t, alertRepo.alerts, 1)
}

func TestExpirationSweepResolvedAlertAllowsNewOne(t *testing.T) {
	svc, alertRepo, _ := newAlertFixture([]*model.Batch{expiringBatch(1, 2, 20)}, nil)

	_, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)

	for _, a := range alertRepo.alerts {
		resolved, resolveErr := svc.ResolveAlert(context.Background(), a.ID.String(), uuidN(42).String())
		require.NoError(t, resolveErr)
		assert.Equal(t, model.AlertStatusResolved, resolved.Status)
	}

	created, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

func TestExpirationSweepRetiresPastExpiryBatches(t *testing.T) {
	dead := expiringBatch(1, -2, 15)
	svc, alertRepo, batchRepo := newAlertFixture([]*model.Batch{dead, expiringBatch(2, 4, 10)}, nil)

	created, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)

	got, findErr := batchRepo.FindByID(context.Background(), dead.ID)
	require.NoError(t, findErr)
	assert.Equal(t, model.BatchStatusExpired, got.Status)

	// The expired batch gets no expiring-soon alert, only the live one does.
	assert.Equal(t, 1, created)
	for _, a := range alertRepo.alerts {
		assert.NotEqual(t, dead.ID, a.TargetID)
	}
}

func TestExpirationSweepContinuesPastFailedWrite(t *testing.T) {
	svc, alertRepo, _ := newAlertFixture([]*model.Batch{
		expiringBatch(1, 1, 20),
		expiringBatch(2, 2, 10),
		expiringBatch(3, 3, 5),
	}, nil)
	alertRepo.failTargets[uuidN(2)] = true

	created, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
}

func TestLowStockSweepStrictComparison(t *testing.T) {
	svc, alertRepo, _ := newAlertFixture(nil, []*model.InventoryRecord{
		lowStockRecord(1, 4, 10),  // below
		lowStockRecord(2, 10, 10), // at the reorder point: no alert
		lowStockRecord(3, 25, 10), // above
	})

	created, err := svc.RunLowStockSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	for _, a := range alertRepo.alerts {
		assert.Equal(t, model.AlertTypeLowStock, a.Type)
		assert.Equal(t, uuidN(1), a.TargetID)
	}
}

func TestLowStockSweepIsIdempotent(t *testing.T) {
	svc, _, _ := newAlertFixture(nil, []*model.InventoryRecord{lowStockRecord(1, 2, 10)})

	first, err := svc.RunLowStockSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := svc.RunLowStockSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestLowStockSweepSkipsRecordsWithoutReorderPoint(t *testing.T) {
	rec := lowStockRecord(1, 0, 10)
	rec.ReorderPoint = nil
	svc, _, _ := newAlertFixture(nil, []*model.InventoryRecord{rec})

	created, err := svc.RunLowStockSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestAcknowledgeThenResolveLifecycle(t *testing.T) {
	svc, alertRepo, _ := newAlertFixture([]*model.Batch{expiringBatch(1, 1, 20)}, nil)
	_, err := svc.RunExpirationSweep(context.Background(), 7)
	require.NoError(t, err)

	var alertID string
	for _, a := range alertRepo.alerts {
		alertID = a.ID.String()
	}
	operator := uuidN(42).String()

	acked, err := svc.AcknowledgeAlert(context.Background(), alertID, operator)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedBy)
	assert.Equal(t, operator, *acked.AcknowledgedBy)

	// A second acknowledge is rejected.
	_, err = svc.AcknowledgeAlert(context.Background(), alertID, operator)
	assert.Error(t, err)

	resolved, err := svc.ResolveAlert(context.Background(), alertID, operator)
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolving twice is rejected too.
	_, err = svc.ResolveAlert(context.Background(), alertID, operator)
	assert.Error(t, err)
}
