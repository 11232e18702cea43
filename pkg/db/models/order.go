package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/pkg/enums"
)

// Order is a paid marketplace order whose funds move through escrow. Reference
// is the gateway transaction reference and is unique, which is what makes
// payment ingestion idempotent.
type Order struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Reference    string             `gorm:"column:reference;uniqueIndex:ux_orders_reference;not null"`
	BusinessID   uuid.UUID          `gorm:"column:business_id;type:uuid;not null;index"`
	BuyerKey     string             `gorm:"column:buyer_key;not null;default:''"`
	AmountMinor  int64              `gorm:"column:amount_minor;not null"`
	Currency     enums.Currency     `gorm:"column:currency;not null"`
	PaymentType  enums.PaymentType  `gorm:"column:payment_type;not null"`
	EscrowStatus enums.EscrowStatus `gorm:"column:escrow_status;not null;index"`
	Status       enums.OrderStatus  `gorm:"column:status;not null"`
	BuyerInfo    json.RawMessage    `gorm:"column:buyer_info;type:jsonb"`
	HeldAt       *time.Time         `gorm:"column:held_at"`
	ReleasedAt   *time.Time         `gorm:"column:released_at"`
	RefundedAt   *time.Time         `gorm:"column:refunded_at"`
	DisputedAt   *time.Time         `gorm:"column:disputed_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
