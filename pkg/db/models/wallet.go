package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the materialized per-business balance projection. Every field is
// in minor units and must stay non-negative; TotalEarnedMinor only grows.
type Wallet struct {
	BusinessID        uuid.UUID `gorm:"column:business_id;type:uuid;primaryKey"`
	PendingMinor      int64     `gorm:"column:pending_minor;not null;default:0"`
	AvailableMinor    int64     `gorm:"column:available_minor;not null;default:0"`
	WithdrawHoldMinor int64     `gorm:"column:withdraw_hold_minor;not null;default:0"`
	TotalEarnedMinor  int64     `gorm:"column:total_earned_minor;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
