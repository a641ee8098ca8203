package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus constants. Committed orders land in PENDING for downstream
// fulfillment; rejected orders keep their line snapshot for diagnostics.
const (
	OrderStatusPending  = "PENDING"
	OrderStatusRejected = "REJECTED"
)

// Order is a committed retailer order. Orders are atomic: either every line
// was priced and allocated, or the order was rejected with no stock movement.
type Order struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderCode  string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_code"`
	RetailerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"retailer_id"`
	Retailer   Retailer        `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	Status     string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Note       string          `gorm:"type:text" json:"note"`
	OrderTotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"order_total"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OrderItem is one (batch, quantity, price) allocation of an order line.
// A requested line spanning several batches produces several items.
type OrderItem struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product            Product         `gorm:"foreignKey:ProductID" json:"-"`
	BatchID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"batch_id"`
	Batch              Batch           `gorm:"foreignKey:BatchID" json:"-"`
	Quantity           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"discount_percentage"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}
