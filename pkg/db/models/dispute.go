package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/pkg/enums"
)

// Dispute is a buyer complaint against a held order. The unique order index
// enforces at most one dispute per order.
type Dispute struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID             `gorm:"column:order_id;type:uuid;uniqueIndex:ux_disputes_order;not null"`
	BusinessID uuid.UUID             `gorm:"column:business_id;type:uuid;not null;index"`
	BuyerKey   string                `gorm:"column:buyer_key;not null"`
	Reason     string                `gorm:"column:reason"`
	Status     enums.DisputeStatus   `gorm:"column:status;not null;index"`
	Decision   enums.DisputeDecision `gorm:"column:decision;not null"`
	Priority   int                   `gorm:"column:priority;not null;default:0"`
	ResolvedAt *time.Time            `gorm:"column:resolved_at"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
