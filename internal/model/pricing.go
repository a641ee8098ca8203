package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PricingTier is a named discount band assigned to retailer segments.
// A retailer in a tier receives a discount within [min, max] percent of MRP,
// where the exact point depends on order volume and batch freshness.
type PricingTier struct {
	ID                    uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                  string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description           string          `gorm:"type:text" json:"description"`
	MinDiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"min_discount_percentage"`
	MaxDiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"max_discount_percentage"`
	IsActive              bool            `gorm:"default:true" json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

var oneHundred = decimal.NewFromInt(100)

// Validate enforces 0 <= min <= max <= 100 before a tier is persisted
func (t *PricingTier) Validate() error {
	if t.MinDiscountPercentage.IsNegative() {
		return fmt.Errorf("min_discount_percentage must not be negative")
	}
	if t.MaxDiscountPercentage.LessThan(t.MinDiscountPercentage) {
		return fmt.Errorf("max_discount_percentage must not be less than min_discount_percentage")
	}
	if t.MaxDiscountPercentage.GreaterThan(oneHundred) {
		return fmt.Errorf("max_discount_percentage must not exceed 100")
	}
	return nil
}

// Retailer is a customer buying from the distributor. A retailer references
// at most one pricing tier; without a tier it buys at MRP (0% discount).
type Retailer struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	Phone         string         `gorm:"type:varchar(20)" json:"phone"`
	Address       string         `gorm:"type:text" json:"address"`
	City          string         `gorm:"type:varchar(100)" json:"city"`
	State         string         `gorm:"type:varchar(100)" json:"state"`
	Pincode       string         `gorm:"type:varchar(10)" json:"pincode"`
	PricingTierID *uuid.UUID     `gorm:"type:uuid;index" json:"pricing_tier_id"`
	PricingTier   *PricingTier   `gorm:"foreignKey:PricingTierID" json:"pricing_tier,omitempty"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
