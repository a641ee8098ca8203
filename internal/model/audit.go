package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateProduct  = "CREATE_PRODUCT"
	ActionUpdateProduct  = "UPDATE_PRODUCT"
	ActionDeleteProduct  = "DELETE_PRODUCT"
	ActionReceiveBatch   = "RECEIVE_BATCH"
	ActionRecallBatch    = "RECALL_BATCH"
	ActionCreateRetailer = "CREATE_RETAILER"
	ActionUpdateRetailer = "UPDATE_RETAILER"
	ActionDeleteRetailer = "DELETE_RETAILER"
	ActionCreateTier     = "CREATE_PRICING_TIER"
	ActionUpdateTier     = "UPDATE_PRICING_TIER"
	ActionDeleteTier     = "DELETE_PRICING_TIER"
	ActionProcessOrder   = "PROCESS_ORDER"
	ActionAckAlert       = "ACKNOWLEDGE_ALERT"
	ActionResolveAlert   = "RESOLVE_ALERT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable for automated sweeps
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
