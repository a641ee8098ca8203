package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the master record for a food product
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU           string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"type:varchar(100)" json:"category"`
	Brand         string          `gorm:"type:varchar(100)" json:"brand"`
	MRP           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"mrp"` // Manufacturer's Recommended Price per unit
	UnitOfMeasure string          `gorm:"type:varchar(20)" json:"unit_of_measure"`
	ShelfLifeDays int             `gorm:"type:int;not null" json:"shelf_life_days"`
	IsPerishable  bool            `gorm:"default:true" json:"is_perishable"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ExpiryDateFor calculates the expiration date for a batch produced on the given date
func (p *Product) ExpiryDateFor(productionDate time.Time) time.Time {
	return productionDate.AddDate(0, 0, p.ShelfLifeDays)
}

// BatchStatus constants
const (
	BatchStatusReceived   = "RECEIVED"
	BatchStatusInStock    = "IN_STOCK"
	BatchStatusDispatched = "DISPATCHED"
	BatchStatusExpired    = "EXPIRED"
	BatchStatusRecalled   = "RECALLED"
)

// Allocation strategy constants
const (
	StrategyFEFO = "FEFO" // First-Expiry-First-Out (default for perishables)
	StrategyFIFO = "FIFO" // First-In-First-Out
)

// Batch is a traceable production lot of a product. Batches are append-only:
// allocation decrements current_quantity and the expiry sweep flips status,
// but rows are never deleted so recalls stay traceable.
type Batch struct {
	ID                      uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID               uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_batches_product_number" json:"product_id"`
	Product                 Product         `gorm:"foreignKey:ProductID" json:"-"`
	ManufacturerBatchNumber string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_batches_product_number" json:"manufacturer_batch_number"`
	ProductionDate          time.Time       `gorm:"type:date;not null;index" json:"production_date"`
	ExpirationDate          time.Time       `gorm:"type:date;not null;index" json:"expiration_date"`
	InitialQuantity         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"initial_quantity"`
	CurrentQuantity         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"current_quantity"`
	Status                  string          `gorm:"type:varchar(20);not null;default:'RECEIVED';index" json:"status"`
	ManufacturingLocation   string          `gorm:"type:varchar(255)" json:"manufacturing_location"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// IsExpired reports whether the batch is past its expiration date
func (b *Batch) IsExpired(today time.Time) bool {
	return today.After(b.ExpirationDate)
}

// DaysUntilExpiry returns whole days between today and the expiration date.
// Negative when the batch is already expired.
func (b *Batch) DaysUntilExpiry(today time.Time) int {
	return int(b.ExpirationDate.Sub(today.Truncate(24*time.Hour)).Hours() / 24)
}

// CanFulfill reports whether the batch has enough stock for the requested quantity
func (b *Batch) CanFulfill(quantity decimal.Decimal) bool {
	return b.CurrentQuantity.GreaterThanOrEqual(quantity)
}
