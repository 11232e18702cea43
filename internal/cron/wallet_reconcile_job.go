package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/metrics"
)

type walletReader interface {
	ListAll(ctx context.Context) ([]models.Wallet, error)
}

type orderSummer interface {
	SumAmountByEscrowStatuses(ctx context.Context, businessID uuid.UUID, statuses []enums.EscrowStatus) (int64, error)
}

type withdrawalSummer interface {
	SumAmountByStatuses(ctx context.Context, businessID uuid.UUID, statuses []enums.WithdrawalStatus) (int64, error)
}

// WalletReconcileJobParams configure the reconciliation job.
type WalletReconcileJobParams struct {
	Logger      *logger.Logger
	Wallets     walletReader
	Orders      orderSummer
	Withdrawals withdrawalSummer
	Metrics     *metrics.EscrowMetrics
}

// NewWalletReconcileJob builds the job that recomputes every wallet's
// balances from the order and withdrawal history and reports divergence. The
// job never mutates; a divergence is an alert, not a repair.
func NewWalletReconcileJob(params WalletReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order summer required")
	}
	if params.Withdrawals == nil {
		return nil, fmt.Errorf("withdrawal summer required")
	}
	return &walletReconcileJob{
		logg:        params.Logger,
		wallets:     params.Wallets,
		orders:      params.Orders,
		withdrawals: params.Withdrawals,
		metrics:     params.Metrics,
	}, nil
}

type walletReconcileJob struct {
	logg        *logger.Logger
	wallets     walletReader
	orders      orderSummer
	withdrawals withdrawalSummer
	metrics     *metrics.EscrowMetrics
}

func (j *walletReconcileJob) Name() string { return "wallet-reconcile" }

func (j *walletReconcileJob) Run(ctx context.Context) error {
	wallets, err := j.wallets.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}

	var errs []error
	diverged := 0
	for _, wallet := range wallets {
		ok, checkErr := j.checkWallet(ctx, wallet)
		if checkErr != nil {
			errs = append(errs, fmt.Errorf("reconcile wallet %s: %w", wallet.BusinessID, checkErr))
			continue
		}
		if !ok {
			diverged++
		}
	}

	if j.metrics != nil {
		j.metrics.SetDivergedWallets(diverged)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"wallets":  len(wallets),
		"diverged": diverged,
	})
	j.logg.Info(logCtx, "wallet reconcile loop complete")
	return multierr.Combine(errs...)
}

func (j *walletReconcileJob) checkWallet(ctx context.Context, wallet models.Wallet) (bool, error) {
	expectedPending, err := j.orders.SumAmountByEscrowStatuses(ctx, wallet.BusinessID, []enums.EscrowStatus{
		enums.EscrowStatusHeld,
		enums.EscrowStatusDisputed,
	})
	if err != nil {
		return false, err
	}
	expectedEarned, err := j.orders.SumAmountByEscrowStatuses(ctx, wallet.BusinessID, []enums.EscrowStatus{
		enums.EscrowStatusReleased,
	})
	if err != nil {
		return false, err
	}
	expectedHold, err := j.withdrawals.SumAmountByStatuses(ctx, wallet.BusinessID, []enums.WithdrawalStatus{
		enums.WithdrawalStatusPending,
		enums.WithdrawalStatusApproved,
	})
	if err != nil {
		return false, err
	}
	paidOut, err := j.withdrawals.SumAmountByStatuses(ctx, wallet.BusinessID, []enums.WithdrawalStatus{
		enums.WithdrawalStatusPaid,
	})
	if err != nil {
		return false, err
	}
	expectedAvailable := expectedEarned - expectedHold - paidOut

	deltas := map[string]int64{
		"pending":       wallet.PendingMinor - expectedPending,
		"available":     wallet.AvailableMinor - expectedAvailable,
		"withdraw_hold": wallet.WithdrawHoldMinor - expectedHold,
		"total_earned":  wallet.TotalEarnedMinor - expectedEarned,
	}

	clean := true
	for _, delta := range deltas {
		if delta != 0 {
			clean = false
		}
	}
	if !clean {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"businessId":        wallet.BusinessID.String(),
			"pendingDelta":      deltas["pending"],
			"availableDelta":    deltas["available"],
			"withdrawHoldDelta": deltas["withdraw_hold"],
			"totalEarnedDelta":  deltas["total_earned"],
		})
		j.logg.Warn(logCtx, "wallet balances diverge from history")
	}
	return clean, nil
}
