package disputes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/businesses"
	"github.com/vendora/vendora-backend/internal/escrow"
	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/pkg/db"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// Service opens and resolves disputes. Every money effect of a dispute runs
// through the escrow service inside the dispute's own transaction.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Dispute, error)
	Resolve(ctx context.Context, disputeID uuid.UUID, decision enums.DisputeDecision) (*models.Dispute, error)
	GetDispute(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error)
	ListOpen(ctx context.Context, limit int) ([]models.Dispute, error)
}

// OpenInput captures a buyer's complaint against a held order.
type OpenInput struct {
	OrderID  uuid.UUID
	BuyerKey string
	Reason   string
	Priority int
}

type atomicRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the dispute service dependencies.
type ServiceParams struct {
	DB           atomicRunner
	Repo         Repository
	Escrow       escrow.Service
	BusinessRepo businesses.Repository
	LedgerRepo   ledger.Repository
	Logger       *logger.Logger
	Now          func() time.Time
}

type service struct {
	db           atomicRunner
	repo         Repository
	escrow       escrow.Service
	businessRepo businesses.Repository
	ledgerRepo   ledger.Repository
	logg         *logger.Logger
	now          func() time.Time
}

// NewService validates params and builds the dispute service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("dispute repository required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
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
		escrow:       params.Escrow,
		businessRepo: params.BusinessRepo,
		ledgerRepo:   params.LedgerRepo,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// Open freezes the order's escrow, records the dispute and bumps the
// business's open-dispute counter in one transaction.
func (s *service) Open(ctx context.Context, input OpenInput) (*models.Dispute, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if input.BuyerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer key is required")
	}

	var dispute *models.Dispute
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		order, txErr := s.escrow.MarkDisputedInTx(ctx, tx, input.OrderID)
		if txErr != nil {
			if errors.Is(txErr, escrow.ErrInvalidTransition) {
				// A held order is the only disputable one. If it is already
				// disputed, surface the friendlier duplicate error.
				if existing, findErr := s.repo.WithTx(tx).FindByOrderID(ctx, input.OrderID); findErr == nil && existing.Status == enums.DisputeStatusOpen {
					return ErrDisputeExists
				}
			}
			return txErr
		}

		// The ownership check shares the transaction with the freeze, so a
		// mismatch rolls the whole thing back.
		if order.BuyerKey == "" || order.BuyerKey != input.BuyerKey {
			return escrow.ErrNotOrderBuyer
		}

		created := &models.Dispute{
			OrderID:    order.ID,
			BusinessID: order.BusinessID,
			BuyerKey:   input.BuyerKey,
			Reason:     input.Reason,
			Status:     enums.DisputeStatusOpen,
			Decision:   enums.DisputeDecisionNone,
			Priority:   input.Priority,
		}
		if err := s.repo.WithTx(tx).Create(ctx, created); err != nil {
			if db.IsUniqueViolation(err, "ux_disputes_order") {
				return ErrDisputeExists
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}

		if err := s.businessRepo.WithTx(tx).IncrementOpenDisputes(ctx, order.BusinessID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment open disputes")
		}

		metadata, _ := json.Marshal(map[string]string{"buyer_key": input.BuyerKey})
		if err := s.ledgerRepo.WithTx(tx).Create(ctx, &models.LedgerEntry{
			BusinessID:  order.BusinessID,
			OrderID:     &order.ID,
			Type:        enums.LedgerEntryTypeDisputeOpened,
			AmountMinor: order.AmountMinor,
			Metadata:    metadata,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		dispute = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"disputeId": dispute.ID.String()})
		s.logg.Info(logCtx, "dispute opened")
	}
	return dispute, nil
}

// Resolve closes an open dispute with the admin's decision and settles the
// disputed order accordingly. A second resolve returns ErrAlreadyResolved and
// leaves balances untouched.
func (s *service) Resolve(ctx context.Context, disputeID uuid.UUID, decision enums.DisputeDecision) (*models.Dispute, error) {
	if disputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	if decision != enums.DisputeDecisionRelease && decision != enums.DisputeDecisionRefund {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be release or refund")
	}

	var resolved *models.Dispute
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		dispute, txErr := repo.FindByID(ctx, disputeID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "load dispute")
		}
		if dispute.Status == enums.DisputeStatusClosed {
			return ErrAlreadyResolved
		}

		switch decision {
		case enums.DisputeDecisionRelease:
			if _, err := s.escrow.ReleaseInTx(ctx, tx, dispute.OrderID, enums.EscrowStatusDisputed, enums.LedgerEntryTypeDisputeReleased); err != nil {
				return err
			}
		case enums.DisputeDecisionRefund:
			if _, err := s.escrow.RefundInTx(ctx, tx, dispute.OrderID, enums.EscrowStatusDisputed, enums.LedgerEntryTypeDisputeRefunded); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		closed, err := repo.Close(ctx, disputeID, decision, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close dispute")
		}
		if !closed {
			return ErrAlreadyResolved
		}

		if err := s.businessRepo.WithTx(tx).DecrementOpenDisputes(ctx, dispute.BusinessID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement open disputes")
		}

		dispute.Status = enums.DisputeStatusClosed
		dispute.Decision = decision
		dispute.ResolvedAt = &now
		resolved = dispute
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"disputeId": resolved.ID.String(),
			"decision":  decision.String(),
		})
		s.logg.Info(logCtx, "dispute resolved")
	}
	return resolved, nil
}

func (s *service) GetDispute(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	if disputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id is required")
	}
	dispute, err := s.repo.FindByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) ListOpen(ctx context.Context, limit int) ([]models.Dispute, error) {
	return s.repo.ListByStatus(ctx, enums.DisputeStatusOpen, limit)
}
