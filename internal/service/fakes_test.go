package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"scms/internal/model"
	"scms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// uuidN builds a deterministic UUID for ordering assertions.
func uuidN(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

// --- transaction manager ---

// fakeTxManager runs the callback directly; rollback behavior is exercised
// through the services' explicit release paths.
type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- ledger ---

type fakeLedger struct {
	batches map[uuid.UUID]*model.Batch
	// conflictsLeft forces the next N reservations on a batch to fail,
	// simulating a concurrent caller winning the conditional update.
	conflictsLeft map[uuid.UUID]int
	releases      []uuid.UUID
}

func newFakeLedger(batches ...*model.Batch) *fakeLedger {
	l := &fakeLedger{
		batches:       make(map[uuid.UUID]*model.Batch),
		conflictsLeft: make(map[uuid.UUID]int),
	}
	for _, b := range batches {
		l.batches[b.ID] = b
	}
	return l
}

func (l *fakeLedger) ListAvailableBatches(_ context.Context, productID uuid.UUID, strategy string) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range l.batches {
		if b.ProductID == productID && b.Status == model.BatchStatusInStock && b.CurrentQuantity.IsPositive() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		var ti, tj time.Time
		if strategy == model.StrategyFIFO {
			ti, tj = out[i].ProductionDate, out[j].ProductionDate
		} else {
			ti, tj = out[i].ExpirationDate, out[j].ExpirationDate
		}
		if ti.Equal(tj) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return ti.Before(tj)
	})
	return out, nil
}

func (l *fakeLedger) ReserveBatchQuantity(_ context.Context, batchID uuid.UUID, quantity decimal.Decimal) (decimal.Decimal, error) {
	if n := l.conflictsLeft[batchID]; n > 0 {
		l.conflictsLeft[batchID] = n - 1
		return decimal.Zero, repository.ErrReservationConflict
	}
	b, ok := l.batches[batchID]
	if !ok {
		return decimal.Zero, gorm.ErrRecordNotFound
	}
	if b.Status != model.BatchStatusInStock || b.CurrentQuantity.LessThan(quantity) {
		return decimal.Zero, repository.ErrReservationConflict
	}
	b.CurrentQuantity = b.CurrentQuantity.Sub(quantity)
	return b.CurrentQuantity, nil
}

func (l *fakeLedger) ReleaseBatchQuantity(_ context.Context, batchID uuid.UUID, quantity decimal.Decimal) error {
	b, ok := l.batches[batchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.CurrentQuantity = b.CurrentQuantity.Add(quantity)
	if b.Status == model.BatchStatusDispatched {
		b.Status = model.BatchStatusInStock
	}
	l.releases = append(l.releases, batchID)
	return nil
}

func (l *fakeLedger) SetBatchStatus(_ context.Context, batchID uuid.UUID, status string) error {
	b, ok := l.batches[batchID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Status = status
	return nil
}

// --- products ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo(products ...*model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int, _ string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

// --- retailers ---

type fakeRetailerRepo struct {
	retailers map[uuid.UUID]*model.Retailer
}

func newFakeRetailerRepo(retailers ...*model.Retailer) *fakeRetailerRepo {
	r := &fakeRetailerRepo{retailers: make(map[uuid.UUID]*model.Retailer)}
	for _, rt := range retailers {
		r.retailers[rt.ID] = rt
	}
	return r
}

func (r *fakeRetailerRepo) Create(_ context.Context, rt *model.Retailer) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	r.retailers[rt.ID] = rt
	return nil
}

func (r *fakeRetailerRepo) Update(_ context.Context, rt *model.Retailer) error {
	r.retailers[rt.ID] = rt
	return nil
}

func (r *fakeRetailerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.retailers, id)
	return nil
}

func (r *fakeRetailerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Retailer, error) {
	rt, ok := r.retailers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rt, nil
}

func (r *fakeRetailerRepo) List(_ context.Context, _, _ int, _ string) ([]model.Retailer, int64, error) {
	var out []model.Retailer
	for _, rt := range r.retailers {
		out = append(out, *rt)
	}
	return out, int64(len(out)), nil
}

// --- pricing tiers ---

type fakeTierRepo struct {
	tiers map[uuid.UUID]*model.PricingTier
}

func newFakeTierRepo(tiers ...*model.PricingTier) *fakeTierRepo {
	r := &fakeTierRepo{tiers: make(map[uuid.UUID]*model.PricingTier)}
	for _, t := range tiers {
		r.tiers[t.ID] = t
	}
	return r
}

func (r *fakeTierRepo) Create(_ context.Context, t *model.PricingTier) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tiers[t.ID] = t
	return nil
}

func (r *fakeTierRepo) Update(_ context.Context, t *model.PricingTier) error {
	r.tiers[t.ID] = t
	return nil
}

func (r *fakeTierRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.tiers, id)
	return nil
}

func (r *fakeTierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PricingTier, error) {
	t, ok := r.tiers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTierRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*model.PricingTier, error) {
	t, ok := r.tiers[id]
	if !ok || !t.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTierRepo) List(_ context.Context, _, _ int) ([]model.PricingTier, int64, error) {
	var out []model.PricingTier
	for _, t := range r.tiers {
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

// --- orders ---

type fakeOrderRepo struct {
	orders []*model.Order
	items  []*model.OrderItem
	// failCreate rejects the next order insert, e.g. duplicate order code
	failCreate bool
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	if r.failCreate {
		r.failCreate = false
		return errors.New("duplicate key value violates unique constraint")
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.orders = append(r.orders, o)
	return nil
}

func (r *fakeOrderRepo) CreateItem(_ context.Context, item *model.OrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items = append(r.items, item)
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	for _, o := range r.orders {
		if o.ID == id {
			o.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) List(_ context.Context, _, _ int) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

// --- batches ---

type fakeBatchRepo struct {
	batches map[uuid.UUID]*model.Batch
}

func newFakeBatchRepo(batches ...*model.Batch) *fakeBatchRepo {
	r := &fakeBatchRepo{batches: make(map[uuid.UUID]*model.Batch)}
	for _, b := range batches {
		r.batches[b.ID] = b
	}
	return r
}

func (r *fakeBatchRepo) Create(_ context.Context, b *model.Batch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.batches[b.ID] = b
	return nil
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Batch, error) {
	b, ok := r.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *fakeBatchRepo) ListByProduct(_ context.Context, productID uuid.UUID, _, _ int) ([]model.Batch, int64, error) {
	var out []model.Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBatchRepo) List(_ context.Context, _, _ int, status string) ([]model.Batch, int64, error) {
	var out []model.Batch
	for _, b := range r.batches {
		if status == "" || b.Status == status {
			out = append(out, *b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBatchRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	b, ok := r.batches[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.Status = status
	return nil
}

func (r *fakeBatchRepo) MarkExpired(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, b := range r.batches {
		if b.Status == model.BatchStatusInStock && b.ExpirationDate.Before(asOf) {
			b.Status = model.BatchStatusExpired
			n++
		}
	}
	return n, nil
}

func (r *fakeBatchRepo) ListExpiring(_ context.Context, asOf, until time.Time) ([]model.Batch, error) {
	var out []model.Batch
	for _, b := range r.batches {
		if b.Status == model.BatchStatusInStock && b.CurrentQuantity.IsPositive() &&
			b.ExpirationDate.After(asOf) && !b.ExpirationDate.After(until) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpirationDate.Equal(out[j].ExpirationDate) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].ExpirationDate.Before(out[j].ExpirationDate)
	})
	return out, nil
}

// --- inventory records ---

type fakeInventoryRepo struct {
	records map[uuid.UUID]*model.InventoryRecord
}

func newFakeInventoryRepo(records ...*model.InventoryRecord) *fakeInventoryRepo {
	r := &fakeInventoryRepo{records: make(map[uuid.UUID]*model.InventoryRecord)}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *fakeInventoryRepo) Create(_ context.Context, rec *model.InventoryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeInventoryRepo) Update(_ context.Context, rec *model.InventoryRecord) error {
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeInventoryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InventoryRecord, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeInventoryRepo) FindByBatchAndLocation(_ context.Context, batchID uuid.UUID, location string) (*model.InventoryRecord, error) {
	for _, rec := range r.records {
		if rec.BatchID == batchID && rec.Location == location {
			return rec, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInventoryRepo) List(_ context.Context, _, _ int, location string) ([]model.InventoryRecord, int64, error) {
	var out []model.InventoryRecord
	for _, rec := range r.records {
		if location == "" || rec.Location == location {
			out = append(out, *rec)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeInventoryRepo) ListBelowReorderPoint(_ context.Context) ([]model.InventoryRecord, error) {
	var out []model.InventoryRecord
	for _, rec := range r.records {
		if rec.ReorderPoint != nil && rec.QuantityOnHand.LessThan(*rec.ReorderPoint) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

// --- alerts ---

type fakeAlertRepo struct {
	alerts map[uuid.UUID]*model.Alert
	// failTargets rejects creates for these target IDs to test partial failure
	failTargets map[uuid.UUID]bool
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{
		alerts:      make(map[uuid.UUID]*model.Alert),
		failTargets: make(map[uuid.UUID]bool),
	}
}

func (r *fakeAlertRepo) Create(_ context.Context, a *model.Alert) error {
	if r.failTargets[a.TargetID] {
		return errors.New("insert failed")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.alerts[a.ID] = a
	return nil
}

func (r *fakeAlertRepo) Update(_ context.Context, a *model.Alert) error {
	r.alerts[a.ID] = a
	return nil
}

func (r *fakeAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Alert, error) {
	a, ok := r.alerts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeAlertRepo) FindOpenByTarget(_ context.Context, alertType, targetType string, targetID uuid.UUID) (*model.Alert, error) {
	for _, a := range r.alerts {
		if a.Type == alertType && a.TargetType == targetType && a.TargetID == targetID && a.IsOpen() {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAlertRepo) List(_ context.Context, _, _ int, alertType, status string) ([]model.Alert, int64, error) {
	var out []model.Alert
	for _, a := range r.alerts {
		if (alertType == "" || a.Type == alertType) && (status == "" || a.Status == status) {
			out = append(out, *a)
		}
	}
	return out, int64(len(out)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []*model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}
