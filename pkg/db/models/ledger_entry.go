package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/pkg/enums"
)

// LedgerEntry records an immutable money movement. Rows are append-only and
// written in the same transaction as the balance change they describe.
type LedgerEntry struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID   uuid.UUID             `gorm:"column:business_id;type:uuid;not null;index"`
	OrderID      *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	WithdrawalID *uuid.UUID            `gorm:"column:withdrawal_id;type:uuid;index"`
	Type         enums.LedgerEntryType `gorm:"column:type;not null"`
	AmountMinor  int64                 `gorm:"column:amount_minor;not null"`
	Metadata     json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}
