package withdrawals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/businesses"
	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// Service runs the withdrawal lifecycle. Money is parked in the wallet's
// withdraw hold from request until the terminal state, so a withdrawal can
// never spend funds twice.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error)
	Approve(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	Reject(ctx context.Context, withdrawalID uuid.UUID, note string) (*models.Withdrawal, error)
	MarkPaid(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error)
	ListForBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Withdrawal, error)
	ListPending(ctx context.Context, limit int) ([]models.Withdrawal, error)
}

// RequestInput captures a vendor's payout request.
type RequestInput struct {
	BusinessID    uuid.UUID
	AmountMinor   int64
	Currency      enums.Currency
	PayoutDetails json.RawMessage
}

type atomicRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the withdrawal service dependencies.
type ServiceParams struct {
	DB           atomicRunner
	Repo         Repository
	WalletRepo   wallets.Repository
	BusinessRepo businesses.Repository
	LedgerRepo   ledger.Repository
	Logger       *logger.Logger
	Now          func() time.Time
}

type service struct {
	db           atomicRunner
	repo         Repository
	walletRepo   wallets.Repository
	businessRepo businesses.Repository
	ledgerRepo   ledger.Repository
	logg         *logger.Logger
	now          func() time.Time
}

// NewService validates params and builds the withdrawal service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("withdrawal repository required")
	}
	if params.WalletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.BusinessRepo == nil {
		return nil, fmt.Errorf("business repository required")
	}
	if params.LedgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:           params.DB,
		repo:         params.Repo,
		walletRepo:   params.WalletRepo,
		businessRepo: params.BusinessRepo,
		ledgerRepo:   params.LedgerRepo,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// Request moves the amount from available into withdraw hold and records the
// pending withdrawal. The guarded move is the overdraft check: two racing
// requests cannot both capture the same funds.
func (s *service) Request(ctx context.Context, input RequestInput) (*models.Withdrawal, error) {
	if input.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	if input.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	var withdrawal *models.Withdrawal
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		business, bizErr := s.businessRepo.WithTx(tx).Find(ctx, input.BusinessID)
		if bizErr != nil {
			if errors.Is(bizErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, bizErr, "load business")
		}
		if business.Frozen() {
			return ErrWalletFrozen
		}

		if err := s.walletRepo.WithTx(tx).HoldAvailable(ctx, input.BusinessID, input.AmountMinor); err != nil {
			if errors.Is(err, wallets.ErrInsufficientFunds) {
				return ErrInsufficientBalance
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hold funds")
		}

		created := &models.Withdrawal{
			BusinessID:    input.BusinessID,
			AmountMinor:   input.AmountMinor,
			Currency:      input.Currency,
			Status:        enums.WithdrawalStatusPending,
			PayoutDetails: input.PayoutDetails,
		}
		if err := s.repo.WithTx(tx).Create(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create withdrawal")
		}

		if err := s.appendEntry(ctx, tx, created, enums.LedgerEntryTypeWithdrawRequested); err != nil {
			return err
		}

		withdrawal = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logLifecycle(ctx, withdrawal, "withdrawal requested")
	return withdrawal, nil
}

// Approve moves a pending withdrawal to approved. No balances change; the
// funds are already held.
func (s *service) Approve(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	var approved *models.Withdrawal
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		withdrawal, txErr := s.loadForTransition(ctx, tx, withdrawalID, enums.WithdrawalStatusPending)
		if txErr != nil {
			return txErr
		}

		now := s.now().UTC()
		if err := s.applyTransition(ctx, tx, withdrawal, enums.WithdrawalStatusPending, map[string]any{
			"status":      enums.WithdrawalStatusApproved,
			"approved_at": now,
		}); err != nil {
			return err
		}

		withdrawal.Status = enums.WithdrawalStatusApproved
		withdrawal.ApprovedAt = &now
		approved = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logLifecycle(ctx, approved, "withdrawal approved")
	return approved, nil
}

// Reject returns the held funds to the available balance. Rejected is
// terminal.
func (s *service) Reject(ctx context.Context, withdrawalID uuid.UUID, note string) (*models.Withdrawal, error) {
	var rejected *models.Withdrawal
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		withdrawal, txErr := s.loadForTransition(ctx, tx, withdrawalID, enums.WithdrawalStatusPending)
		if txErr != nil {
			return txErr
		}

		now := s.now().UTC()
		if err := s.applyTransition(ctx, tx, withdrawal, enums.WithdrawalStatusPending, map[string]any{
			"status":      enums.WithdrawalStatusRejected,
			"note":        note,
			"rejected_at": now,
		}); err != nil {
			return err
		}

		if err := s.walletRepo.WithTx(tx).ReleaseHold(ctx, withdrawal.BusinessID, withdrawal.AmountMinor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release held funds")
		}
		if err := s.appendEntry(ctx, tx, withdrawal, enums.LedgerEntryTypeWithdrawRejected); err != nil {
			return err
		}

		withdrawal.Status = enums.WithdrawalStatusRejected
		withdrawal.Note = note
		withdrawal.RejectedAt = &now
		rejected = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logLifecycle(ctx, rejected, "withdrawal rejected")
	return rejected, nil
}

// MarkPaid finalizes an approved withdrawal after the payout went out. The
// held amount leaves the wallet entirely.
func (s *service) MarkPaid(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	var paid *models.Withdrawal
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		withdrawal, txErr := s.loadForTransition(ctx, tx, withdrawalID, enums.WithdrawalStatusApproved)
		if txErr != nil {
			return txErr
		}

		now := s.now().UTC()
		if err := s.applyTransition(ctx, tx, withdrawal, enums.WithdrawalStatusApproved, map[string]any{
			"status":  enums.WithdrawalStatusPaid,
			"paid_at": now,
		}); err != nil {
			return err
		}

		if err := s.walletRepo.WithTx(tx).ClearHold(ctx, withdrawal.BusinessID, withdrawal.AmountMinor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear held funds")
		}
		if err := s.appendEntry(ctx, tx, withdrawal, enums.LedgerEntryTypeWithdrawPaid); err != nil {
			return err
		}

		withdrawal.Status = enums.WithdrawalStatusPaid
		withdrawal.PaidAt = &now
		paid = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logLifecycle(ctx, paid, "withdrawal paid")
	return paid, nil
}

func (s *service) GetWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.Withdrawal, error) {
	if withdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id is required")
	}
	withdrawal, err := s.repo.FindByID(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
	}
	return withdrawal, nil
}

func (s *service) ListForBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	return s.repo.ListByBusinessID(ctx, businessID, limit)
}

func (s *service) ListPending(ctx context.Context, limit int) ([]models.Withdrawal, error) {
	return s.repo.ListByStatus(ctx, enums.WithdrawalStatusPending, limit)
}

func (s *service) loadForTransition(ctx context.Context, tx *gorm.DB, withdrawalID uuid.UUID, expected enums.WithdrawalStatus) (*models.Withdrawal, error) {
	if withdrawalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id is required")
	}
	withdrawal, err := s.repo.WithTx(tx).FindByID(ctx, withdrawalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal")
	}
	if withdrawal.Status != expected {
		return nil, ErrInvalidStatus
	}
	return withdrawal, nil
}

func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, withdrawal *models.Withdrawal, expected enums.WithdrawalStatus, updates map[string]any) error {
	ok, err := s.repo.WithTx(tx).UpdateStatus(ctx, withdrawal.ID, expected, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update withdrawal")
	}
	if !ok {
		return ErrInvalidStatus
	}
	return nil
}

func (s *service) appendEntry(ctx context.Context, tx *gorm.DB, withdrawal *models.Withdrawal, entryType enums.LedgerEntryType) error {
	if err := s.ledgerRepo.WithTx(tx).Create(ctx, &models.LedgerEntry{
		BusinessID:   withdrawal.BusinessID,
		WithdrawalID: &withdrawal.ID,
		Type:         entryType,
		AmountMinor:  withdrawal.AmountMinor,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return nil
}

func (s *service) logLifecycle(ctx context.Context, withdrawal *models.Withdrawal, msg string) {
	if s.logg == nil || withdrawal == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"withdrawalId": withdrawal.ID.String(),
		"businessId":   withdrawal.BusinessID.String(),
	})
	s.logg.Info(logCtx, msg)
}
