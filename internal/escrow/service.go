package escrow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/internal/orders"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/metrics"
)

// Service owns every escrow state transition. Each transition updates the
// order, moves the wallet balance and appends a ledger entry inside one
// serializable transaction.
type Service interface {
	Release(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ReleaseForBuyer(ctx context.Context, orderID uuid.UUID, buyerKey string) (*models.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID) (*models.Order, error)

	// In-transaction variants for callers that already hold the money
	// transaction, such as dispute resolution.
	ReleaseInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from enums.EscrowStatus, entryType enums.LedgerEntryType) (*models.Order, error)
	RefundInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from enums.EscrowStatus, entryType enums.LedgerEntryType) (*models.Order, error)
	MarkDisputedInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error)
}

type atomicRunner interface {
	RunAtomic(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the escrow service dependencies.
type ServiceParams struct {
	DB         atomicRunner
	OrderRepo  orders.Repository
	WalletRepo wallets.Repository
	LedgerRepo ledger.Repository
	Metrics    *metrics.EscrowMetrics
	Now        func() time.Time
}

type service struct {
	db         atomicRunner
	orderRepo  orders.Repository
	walletRepo wallets.Repository
	ledgerRepo ledger.Repository
	metrics    *metrics.EscrowMetrics
	now        func() time.Time
}

// NewService validates params and builds the escrow service.
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
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:         params.DB,
		orderRepo:  params.OrderRepo,
		walletRepo: params.WalletRepo,
		ledgerRepo: params.LedgerRepo,
		metrics:    params.Metrics,
		now:        now,
	}, nil
}

// Release moves a held order's funds into the vendor's available balance.
func (s *service) Release(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var released *models.Order
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		order, txErr := s.ReleaseInTx(ctx, tx, orderID, enums.EscrowStatusHeld, enums.LedgerEntryTypeEscrowReleased)
		if txErr != nil {
			return txErr
		}
		released = order
		return nil
	})
	if err != nil {
		s.noteContention(err)
		return nil, err
	}
	s.noteTransition("release")
	return released, nil
}

// ReleaseForBuyer releases a held order on behalf of the buyer who paid for
// it. The ownership check runs inside the same transaction as the release so
// a mismatched caller can never move the funds.
func (s *service) ReleaseForBuyer(ctx context.Context, orderID uuid.UUID, buyerKey string) (*models.Order, error) {
	if buyerKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer key is required")
	}

	var released *models.Order
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		order, txErr := s.orderRepo.WithTx(tx).FindByID(ctx, orderID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "load order")
		}
		if order.BuyerKey == "" || order.BuyerKey != buyerKey {
			return ErrNotOrderBuyer
		}

		order, txErr = s.ReleaseInTx(ctx, tx, orderID, enums.EscrowStatusHeld, enums.LedgerEntryTypeEscrowReleased)
		if txErr != nil {
			return txErr
		}
		released = order
		return nil
	})
	if err != nil {
		s.noteContention(err)
		return nil, err
	}
	s.noteTransition("release")
	return released, nil
}

// Refund returns a held order's funds to the buyer. The wallet deduction is
// guarded; a pending shortfall fails the whole transaction.
func (s *service) Refund(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var refunded *models.Order
	err := s.db.RunAtomic(ctx, func(tx *gorm.DB) error {
		order, txErr := s.RefundInTx(ctx, tx, orderID, enums.EscrowStatusHeld, enums.LedgerEntryTypeEscrowRefunded)
		if txErr != nil {
			return txErr
		}
		refunded = order
		return nil
	})
	if err != nil {
		s.noteContention(err)
		return nil, err
	}
	s.noteTransition("refund")
	return refunded, nil
}

func (s *service) ReleaseInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from enums.EscrowStatus, entryType enums.LedgerEntryType) (*models.Order, error) {
	order, err := s.loadForTransition(ctx, tx, orderID, from)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{
		"escrow_status": enums.EscrowStatusReleased,
		"status":        enums.OrderStatusReleasedToVendorWallet,
		"released_at":   now,
	}
	if err := s.applyTransition(ctx, tx, order, from, updates); err != nil {
		return nil, err
	}

	if err := s.walletRepo.WithTx(tx).MovePendingToAvailable(ctx, order.BusinessID, order.AmountMinor); err != nil {
		return nil, err
	}
	if err := s.appendEntry(ctx, tx, order, entryType); err != nil {
		return nil, err
	}

	order.EscrowStatus = enums.EscrowStatusReleased
	order.Status = enums.OrderStatusReleasedToVendorWallet
	order.ReleasedAt = &now
	return order, nil
}

func (s *service) RefundInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from enums.EscrowStatus, entryType enums.LedgerEntryType) (*models.Order, error) {
	order, err := s.loadForTransition(ctx, tx, orderID, from)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{
		"escrow_status": enums.EscrowStatusRefunded,
		"status":        enums.OrderStatusRefunded,
		"refunded_at":   now,
	}
	if err := s.applyTransition(ctx, tx, order, from, updates); err != nil {
		return nil, err
	}

	if err := s.walletRepo.WithTx(tx).DeductPending(ctx, order.BusinessID, order.AmountMinor); err != nil {
		return nil, err
	}
	if err := s.appendEntry(ctx, tx, order, entryType); err != nil {
		return nil, err
	}

	order.EscrowStatus = enums.EscrowStatusRefunded
	order.Status = enums.OrderStatusRefunded
	order.RefundedAt = &now
	return order, nil
}

// MarkDisputedInTx freezes a held order. No balance moves; the funds stay in
// pending until the dispute resolves.
func (s *service) MarkDisputedInTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadForTransition(ctx, tx, orderID, enums.EscrowStatusHeld)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]any{
		"escrow_status": enums.EscrowStatusDisputed,
		"status":        enums.OrderStatusDisputed,
		"disputed_at":   now,
	}
	if err := s.applyTransition(ctx, tx, order, enums.EscrowStatusHeld, updates); err != nil {
		return nil, err
	}

	order.EscrowStatus = enums.EscrowStatusDisputed
	order.Status = enums.OrderStatusDisputed
	order.DisputedAt = &now
	return order, nil
}

func (s *service) loadForTransition(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from enums.EscrowStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.orderRepo.WithTx(tx).FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.EscrowStatus != from {
		return nil, ErrInvalidTransition
	}
	return order, nil
}

func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.EscrowStatus, updates map[string]any) error {
	ok, err := s.orderRepo.WithTx(tx).UpdateEscrowState(ctx, order.ID, from, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

func (s *service) appendEntry(ctx context.Context, tx *gorm.DB, order *models.Order, entryType enums.LedgerEntryType) error {
	metadata, _ := json.Marshal(map[string]string{"reference": order.Reference})
	return s.ledgerRepo.WithTx(tx).Create(ctx, &models.LedgerEntry{
		BusinessID:  order.BusinessID,
		OrderID:     &order.ID,
		Type:        entryType,
		AmountMinor: order.AmountMinor,
		Metadata:    metadata,
	})
}

func (s *service) noteTransition(name string) {
	if s.metrics != nil {
		s.metrics.IncTransition(name)
	}
}

func (s *service) noteContention(err error) {
	if s.metrics != nil && pkgerrors.HasCode(err, pkgerrors.CodeContention) {
		s.metrics.IncContention()
	}
}
