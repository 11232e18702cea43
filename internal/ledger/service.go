package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

// Service defines operations that record ledger entries.
type Service interface {
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error)
	HasEntry(ctx context.Context, orderID uuid.UUID, entryType enums.LedgerEntryType) (bool, error)
	ListForBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a ledger entry requires.
type RecordEntryInput struct {
	BusinessID   uuid.UUID             `json:"business_id"`
	OrderID      *uuid.UUID            `json:"order_id,omitempty"`
	WithdrawalID *uuid.UUID            `json:"withdrawal_id,omitempty"`
	Type         enums.LedgerEntryType `json:"type"`
	AmountMinor  int64                 `json:"amount_minor"`
	Metadata     json.RawMessage       `json:"metadata"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error) {
	if input.BusinessID == uuid.Nil {
		return nil, fmt.Errorf("business id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid ledger entry type %q", input.Type)
	}
	if input.AmountMinor <= 0 {
		return nil, fmt.Errorf("ledger amount must be positive")
	}

	entry := &models.LedgerEntry{
		BusinessID:   input.BusinessID,
		OrderID:      input.OrderID,
		WithdrawalID: input.WithdrawalID,
		Type:         input.Type,
		AmountMinor:  input.AmountMinor,
		Metadata:     input.Metadata,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) HasEntry(ctx context.Context, orderID uuid.UUID, entryType enums.LedgerEntryType) (bool, error) {
	if orderID == uuid.Nil {
		return false, fmt.Errorf("order id is required")
	}
	if !entryType.IsValid() {
		return false, fmt.Errorf("invalid ledger entry type %q", entryType)
	}

	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.Type == entryType {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) ListForBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if businessID == uuid.Nil {
		return nil, fmt.Errorf("business id is required")
	}
	return s.repo.ListByBusinessID(ctx, businessID, limit)
}
