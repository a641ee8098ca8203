package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertType constants
const (
	AlertTypeExpiration   = "EXPIRATION"
	AlertTypeLowStock     = "LOW_STOCK"
	AlertTypeRecall       = "RECALL"
	AlertTypeQualityIssue = "QUALITY_ISSUE"
)

// AlertStatus constants. Sweeps create NEW alerts; only operator actions move
// an alert forward — re-running a sweep never resolves or duplicates one.
const (
	AlertStatusNew          = "NEW"
	AlertStatusAcknowledged = "ACKNOWLEDGED"
	AlertStatusResolved     = "RESOLVED"
)

// AlertPriority constants
const (
	AlertPriorityLow      = "LOW"
	AlertPriorityMedium   = "MEDIUM"
	AlertPriorityHigh     = "HIGH"
	AlertPriorityCritical = "CRITICAL"
)

// AlertTarget entity kinds
const (
	AlertTargetBatch     = "BATCH"
	AlertTargetInventory = "INVENTORY"
	AlertTargetProduct   = "PRODUCT"
)

// Alert is an operator notification produced by the sweep generators.
// At most one open (NEW or ACKNOWLEDGED) alert exists per (type, target) pair.
type Alert struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type           string     `gorm:"type:varchar(20);not null;index:idx_alerts_type_status" json:"type"`
	TargetType     string     `gorm:"type:varchar(20);not null;index:idx_alerts_target" json:"target_type"`
	TargetID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_alerts_target" json:"target_id"`
	Priority       string     `gorm:"type:varchar(10);not null;default:'MEDIUM'" json:"priority"`
	Message        string     `gorm:"type:text;not null" json:"message"`
	Status         string     `gorm:"type:varchar(15);not null;default:'NEW';index:idx_alerts_type_status" json:"status"`
	AcknowledgedBy *uuid.UUID `gorm:"type:uuid" json:"acknowledged_by"`
	AcknowledgedAt *time.Time `json:"acknowledged_at"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid" json:"resolved_by"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsOpen reports whether the alert still counts against the one-open-per-target rule
func (a *Alert) IsOpen() bool {
	return a.Status == AlertStatusNew || a.Status == AlertStatusAcknowledged
}
