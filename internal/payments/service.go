package payments

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
	"github.com/vendora/vendora-backend/internal/orders"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/pkg/db"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// Service ingests verified gateway payments into escrow.
type Service interface {
	IngestPayment(ctx context.Context, input IngestInput) (*IngestResult, error)
}

// IngestInput is a gateway-verified successful charge. Verification happens
// at the webhook edge; by the time it reaches here the money is real.
type IngestInput struct {
	Reference   string
	BusinessID  uuid.UUID
	BuyerKey    string
	AmountMinor int64
	Currency    enums.Currency
	PaymentType enums.PaymentType
	Gateway     string
	BuyerInfo   json.RawMessage
}

// IngestResult reports the order and whether this delivery created it.
type IngestResult struct {
	Order   *models.Order
	Created bool
}

type atomicRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the payment intake dependencies.
type ServiceParams struct {
	DB           atomicRunner
	OrderRepo    orders.Repository
	WalletRepo   wallets.Repository
	LedgerRepo   ledger.Repository
	BusinessRepo businesses.Repository
	Logger       *logger.Logger
	Now          func() time.Time
}

type service struct {
	db           atomicRunner
	orderRepo    orders.Repository
	walletRepo   wallets.Repository
	ledgerRepo   ledger.Repository
	businessRepo businesses.Repository
	logg         *logger.Logger
	now          func() time.Time
}

// NewService validates params and builds the payment intake service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.WalletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.LedgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if params.BusinessRepo == nil {
		return nil, fmt.Errorf("business repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:           params.DB,
		orderRepo:    params.OrderRepo,
		walletRepo:   params.WalletRepo,
		ledgerRepo:   params.LedgerRepo,
		businessRepo: params.BusinessRepo,
		logg:         params.Logger,
		now:          now,
	}, nil
}

// IngestPayment creates the held order, bumps the wallet's pending balance
// and appends the ledger entry in one transaction. The gateway reference is
// the idempotency key: a redelivered event returns the original order and
// writes nothing.
func (s *service) IngestPayment(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	var result *IngestResult
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)

		existing, findErr := orderRepo.FindByReference(ctx, input.Reference)
		if findErr == nil {
			result = &IngestResult{Order: existing, Created: false}
			return nil
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "lookup reference")
		}

		// Unknown business fails closed: nothing is written.
		if _, bizErr := s.businessRepo.WithTx(tx).Find(ctx, input.BusinessID); bizErr != nil {
			if errors.Is(bizErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, bizErr, "load business")
		}

		walletRepo := s.walletRepo.WithTx(tx)
		if err := walletRepo.Ensure(ctx, input.BusinessID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure wallet")
		}
		if err := walletRepo.AddPending(ctx, input.BusinessID, input.AmountMinor); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit pending")
		}

		now := s.now().UTC()
		order := &models.Order{
			Reference:    input.Reference,
			BusinessID:   input.BusinessID,
			BuyerKey:     input.BuyerKey,
			AmountMinor:  input.AmountMinor,
			Currency:     input.Currency,
			PaymentType:  input.PaymentType,
			EscrowStatus: enums.EscrowStatusHeld,
			Status:       enums.OrderStatusPaidHeld,
			BuyerInfo:    input.BuyerInfo,
			HeldAt:       &now,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "ux_orders_reference") {
				// Lost a race with a concurrent delivery of the same event.
				return db.ErrContention
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		metadata, _ := json.Marshal(map[string]string{"gateway": input.Gateway})
		if err := s.ledgerRepo.WithTx(tx).Create(ctx, &models.LedgerEntry{
			BusinessID:  input.BusinessID,
			OrderID:     &order.ID,
			Type:        enums.LedgerEntryTypePaymentHeld,
			AmountMinor: input.AmountMinor,
			Metadata:    metadata,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		result = &IngestResult{Order: order, Created: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"reference": input.Reference,
			"created":   result.Created,
		})
		s.logg.Info(logCtx, "payment ingested")
	}
	return result, nil
}

func (s *service) validate(input IngestInput) error {
	if input.Reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	if input.BusinessID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	if input.AmountMinor <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	if !input.PaymentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type")
	}
	return nil
}
