package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.LedgerEntry) error
	listFn   func(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if f.listFn != nil {
		return f.listFn(ctx, orderID)
	}
	return nil, nil
}

func (f *fakeRepository) ListByBusinessID(ctx context.Context, businessID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return nil, nil
}

func TestService_RecordEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	orderID := uuid.New()
	metadata := json.RawMessage(`{"gateway":"paystack"}`)
	input := RecordEntryInput{
		BusinessID:  uuid.New(),
		OrderID:     &orderID,
		Type:        enums.LedgerEntryTypePaymentHeld,
		AmountMinor: 425000,
		Metadata:    metadata,
	}

	var created *models.LedgerEntry
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	got, err := svc.RecordEntry(context.Background(), input)
	if err != nil {
		t.Fatalf("RecordEntry error: %v", err)
	}
	if created == nil {
		t.Fatal("expected ledger entry to be created")
	}
	if created.BusinessID != input.BusinessID || created.Type != input.Type || created.AmountMinor != input.AmountMinor {
		t.Fatalf("unexpected ledger entry data: %v", created)
	}
	if created.OrderID == nil || *created.OrderID != orderID {
		t.Fatalf("missing order link: %+v", created)
	}
	if string(created.Metadata) != string(metadata) {
		t.Fatalf("metadata mismatch: %s", created.Metadata)
	}
	if got != created {
		t.Fatalf("service should return created entry")
	}
}

func TestService_RecordEntryValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	cases := []struct {
		name  string
		input RecordEntryInput
	}{
		{
			name: "missing business",
			input: RecordEntryInput{
				Type:        enums.LedgerEntryTypePaymentHeld,
				AmountMinor: 100,
			},
		},
		{
			name: "invalid type",
			input: RecordEntryInput{
				BusinessID:  uuid.New(),
				Type:        enums.LedgerEntryType("money_appeared"),
				AmountMinor: 100,
			},
		},
		{
			name: "non-positive amount",
			input: RecordEntryInput{
				BusinessID:  uuid.New(),
				Type:        enums.LedgerEntryTypePaymentHeld,
				AmountMinor: 0,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordEntry(context.Background(), tc.input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestService_RecordEntryPropagatesRepoError(t *testing.T) {
	repoErr := errors.New("boom")
	repo := &fakeRepository{
		createFn: func(ctx context.Context, entry *models.LedgerEntry) error {
			return repoErr
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	orderID := uuid.New()
	_, err = svc.RecordEntry(context.Background(), RecordEntryInput{
		BusinessID:  uuid.New(),
		OrderID:     &orderID,
		Type:        enums.LedgerEntryTypeEscrowReleased,
		AmountMinor: 100,
	})
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestService_HasEntry(t *testing.T) {
	orderID := uuid.New()
	repo := &fakeRepository{
		listFn: func(ctx context.Context, id uuid.UUID) ([]models.LedgerEntry, error) {
			return []models.LedgerEntry{
				{Type: enums.LedgerEntryTypePaymentHeld},
				{Type: enums.LedgerEntryTypeEscrowReleased},
			}, nil
		},
	}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	found, err := svc.HasEntry(context.Background(), orderID, enums.LedgerEntryTypeEscrowReleased)
	if err != nil {
		t.Fatalf("HasEntry error: %v", err)
	}
	if !found {
		t.Fatal("expected entry to be found")
	}

	found, err = svc.HasEntry(context.Background(), orderID, enums.LedgerEntryTypeWithdrawPaid)
	if err != nil {
		t.Fatalf("HasEntry error: %v", err)
	}
	if found {
		t.Fatal("did not expect entry to be found")
	}
}
