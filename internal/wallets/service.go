package wallets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/businesses"
	"github.com/vendora/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

// Service exposes the wallet read surface.
type Service interface {
	GetWallet(ctx context.Context, businessID uuid.UUID) (*WalletView, error)
}

// WalletView is the wallet projection plus the derived frozen flag.
type WalletView struct {
	BusinessID        uuid.UUID `json:"business_id"`
	PendingMinor      int64     `json:"pending_minor"`
	AvailableMinor    int64     `json:"available_minor"`
	WithdrawHoldMinor int64     `json:"withdraw_hold_minor"`
	TotalEarnedMinor  int64     `json:"total_earned_minor"`
	Frozen            bool      `json:"frozen"`
}

// ServiceParams wires the wallet service dependencies.
type ServiceParams struct {
	Repo         Repository
	BusinessRepo businesses.Repository
}

type service struct {
	repo         Repository
	businessRepo businesses.Repository
}

// NewService validates params and builds the wallet service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.BusinessRepo == nil {
		return nil, fmt.Errorf("business repository required")
	}
	return &service{repo: params.Repo, businessRepo: params.BusinessRepo}, nil
}

// GetWallet returns the materialized balances for the business. A business
// that has never received a payment gets a zero-value view rather than an
// error; an unknown business is a NotFound.
func (s *service) GetWallet(ctx context.Context, businessID uuid.UUID) (*WalletView, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}

	business, err := s.businessRepo.Find(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business")
	}

	wallet, err := s.repo.Find(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			wallet = &models.Wallet{BusinessID: businessID}
		} else {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
		}
	}

	return &WalletView{
		BusinessID:        businessID,
		PendingMinor:      wallet.PendingMinor,
		AvailableMinor:    wallet.AvailableMinor,
		WithdrawHoldMinor: wallet.WithdrawHoldMinor,
		TotalEarnedMinor:  wallet.TotalEarnedMinor,
		Frozen:            business.Frozen(),
	}, nil
}
