package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/businesses"
	"github.com/vendora/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

type fakeWalletRepo struct {
	Repository
	findFn func(ctx context.Context, businessID uuid.UUID) (*models.Wallet, error)
}

func (f *fakeWalletRepo) Find(ctx context.Context, businessID uuid.UUID) (*models.Wallet, error) {
	return f.findFn(ctx, businessID)
}

type fakeBusinessRepo struct {
	businesses.Repository
	findFn func(ctx context.Context, id uuid.UUID) (*models.Business, error)
}

func (f *fakeBusinessRepo) Find(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return f.findFn(ctx, id)
}

func TestGetWallet_ReturnsProjection(t *testing.T) {
	businessID := uuid.New()
	svc, err := NewService(ServiceParams{
		Repo: &fakeWalletRepo{findFn: func(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
			return &models.Wallet{
				BusinessID:        id,
				PendingMinor:      100,
				AvailableMinor:    200,
				WithdrawHoldMinor: 50,
				TotalEarnedMinor:  350,
			}, nil
		}},
		BusinessRepo: &fakeBusinessRepo{findFn: func(ctx context.Context, id uuid.UUID) (*models.Business, error) {
			return &models.Business{ID: id, OpenDisputes: 2}, nil
		}},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	view, err := svc.GetWallet(context.Background(), businessID)
	if err != nil {
		t.Fatalf("GetWallet error: %v", err)
	}
	if view.PendingMinor != 100 || view.AvailableMinor != 200 || view.WithdrawHoldMinor != 50 || view.TotalEarnedMinor != 350 {
		t.Fatalf("unexpected balances: %+v", view)
	}
	if !view.Frozen {
		t.Fatal("expected wallet to be frozen while disputes are open")
	}
}

func TestGetWallet_ZeroValueWhenMissing(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Repo: &fakeWalletRepo{findFn: func(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
			return nil, gorm.ErrRecordNotFound
		}},
		BusinessRepo: &fakeBusinessRepo{findFn: func(ctx context.Context, id uuid.UUID) (*models.Business, error) {
			return &models.Business{ID: id}, nil
		}},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	view, err := svc.GetWallet(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetWallet error: %v", err)
	}
	if view.PendingMinor != 0 || view.AvailableMinor != 0 || view.WithdrawHoldMinor != 0 || view.TotalEarnedMinor != 0 {
		t.Fatalf("expected zero-value wallet, got %+v", view)
	}
	if view.Frozen {
		t.Fatal("expected wallet not frozen without disputes")
	}
}

func TestGetWallet_UnknownBusiness(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Repo: &fakeWalletRepo{findFn: func(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
			t.Fatal("wallet repo should not be queried for unknown business")
			return nil, nil
		}},
		BusinessRepo: &fakeBusinessRepo{findFn: func(ctx context.Context, id uuid.UUID) (*models.Business, error) {
			return nil, gorm.ErrRecordNotFound
		}},
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	_, err = svc.GetWallet(context.Background(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
