package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductExpiryDateFor(t *testing.T) {
	p := &Product{ShelfLifeDays: 14}
	produced := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), p.ExpiryDateFor(produced))
}

func TestBatchDaysUntilExpiry(t *testing.T) {
	today := time.Date(2026, 3, 1, 15, 30, 0, 0, time.UTC)
	b := &Batch{ExpirationDate: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)}

	// Time of day does not shift the whole-day count.
	assert.Equal(t, 5, b.DaysUntilExpiry(today))

	b.ExpirationDate = time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	assert.Negative(t, b.DaysUntilExpiry(today))
	assert.True(t, b.IsExpired(today))
}

func TestBatchCanFulfill(t *testing.T) {
	b := &Batch{CurrentQuantity: decimal.NewFromInt(10)}

	assert.True(t, b.CanFulfill(decimal.NewFromInt(10)))
	assert.False(t, b.CanFulfill(decimal.NewFromInt(11)))
}

func TestInventoryRecordIsLowStock(t *testing.T) {
	rp := decimal.NewFromInt(10)
	rec := &InventoryRecord{QuantityOnHand: decimal.NewFromInt(9), ReorderPoint: &rp}
	assert.True(t, rec.IsLowStock())

	// At the reorder point is not low stock, only strictly below.
	rec.QuantityOnHand = decimal.NewFromInt(10)
	assert.False(t, rec.IsLowStock())

	rec.ReorderPoint = nil
	rec.QuantityOnHand = decimal.Zero
	assert.False(t, rec.IsLowStock())
}

func TestPricingTierValidate(t *testing.T) {
	tier := &PricingTier{
		MinDiscountPercentage: decimal.NewFromInt(10),
		MaxDiscountPercentage: decimal.NewFromInt(20),
	}
	assert.NoError(t, tier.Validate())

	tier.MinDiscountPercentage = decimal.NewFromInt(-1)
	assert.Error(t, tier.Validate())

	tier.MinDiscountPercentage = decimal.NewFromInt(30)
	assert.Error(t, tier.Validate())

	tier.MinDiscountPercentage = decimal.NewFromInt(10)
	tier.MaxDiscountPercentage = decimal.NewFromInt(101)
	assert.Error(t, tier.Validate())
}
