package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/pkg/enums"
)

// Withdrawal is a vendor payout request. While pending or approved its amount
// is parked in the wallet's withdraw hold.
type Withdrawal struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID    uuid.UUID              `gorm:"column:business_id;type:uuid;not null;index"`
	AmountMinor   int64                  `gorm:"column:amount_minor;not null"`
	Currency      enums.Currency         `gorm:"column:currency;not null"`
	Status        enums.WithdrawalStatus `gorm:"column:status;not null;index"`
	PayoutDetails json.RawMessage        `gorm:"column:payout_details;type:jsonb"`
	Note          string                 `gorm:"column:note"`
	ApprovedAt    *time.Time             `gorm:"column:approved_at"`
	RejectedAt    *time.Time             `gorm:"column:rejected_at"`
	PaidAt        *time.Time             `gorm:"column:paid_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
