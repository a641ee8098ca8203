package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord tracks stock of one batch at one physical location.
// quantity_on_hand is a materialized view of batch decrements per location,
// kept in sync by the ledger inside the same transaction — it is never an
// independent source of truth.
type InventoryRecord struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BatchID        uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_batch_location" json:"batch_id"`
	Batch          Batch            `gorm:"foreignKey:BatchID" json:"-"`
	Location       string           `gorm:"type:varchar(255);not null;uniqueIndex:idx_inventory_batch_location" json:"location"`
	QuantityOnHand decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"quantity_on_hand"`
	ReorderPoint   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"reorder_point"` // Nullable: no replenishment alerting when unset
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsLowStock reports whether quantity on hand has fallen below the reorder point
func (r *InventoryRecord) IsLowStock() bool {
	if r.ReorderPoint == nil {
		return false
	}
	return r.QuantityOnHand.LessThan(*r.ReorderPoint)
}
