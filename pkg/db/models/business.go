package models

import (
	"time"

	"github.com/google/uuid"
)

// Business anchors a vendor's wallet and counts its open disputes.
type Business struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name         string    `gorm:"column:name;not null"`
	OwnerUserID  uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null;index"`
	OpenDisputes int       `gorm:"column:open_disputes;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Frozen reports whether withdrawals are blocked for the business. A business
// with any open dispute cannot take money out.
func (b Business) Frozen() bool {
	return b.OpenDisputes > 0
}
