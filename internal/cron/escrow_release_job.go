package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/vendora/vendora-backend/internal/escrow"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/logger"
)

const defaultReleaseBatchSize = 100

type heldOrderReader interface {
	FindHeldBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderReleaser interface {
	Release(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// EscrowReleaseJobParams configure the automatic escrow release job.
type EscrowReleaseJobParams struct {
	Logger     *logger.Logger
	Orders     heldOrderReader
	Escrow     orderReleaser
	HoldPeriod time.Duration
	BatchSize  int
}

// NewEscrowReleaseJob builds the cron job that releases held, undisputed
// orders once the hold period has elapsed. Disputed orders are untouched
// because the query only matches held escrow.
func NewEscrowReleaseJob(params EscrowReleaseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	if params.HoldPeriod <= 0 {
		return nil, fmt.Errorf("hold period must be positive")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultReleaseBatchSize
	}
	return &escrowReleaseJob{
		logg:       params.Logger,
		orders:     params.Orders,
		escrow:     params.Escrow,
		holdPeriod: params.HoldPeriod,
		batchSize:  batchSize,
		now:        time.Now,
	}, nil
}

type escrowReleaseJob struct {
	logg       *logger.Logger
	orders     heldOrderReader
	escrow     orderReleaser
	holdPeriod time.Duration
	batchSize  int
	now        func() time.Time
}

func (j *escrowReleaseJob) Name() string { return "escrow-release" }

func (j *escrowReleaseJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.holdPeriod)
	orders, err := j.orders.FindHeldBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query held orders: %w", err)
	}

	var errs []error
	released := 0
	for _, order := range orders {
		if _, releaseErr := j.escrow.Release(ctx, order.ID); releaseErr != nil {
			// A dispute opened between the query and the release is expected;
			// skip without failing the run.
			if errors.Is(releaseErr, escrow.ErrInvalidTransition) {
				continue
			}
			errs = append(errs, fmt.Errorf("release order %s: %w", order.ID, releaseErr))
			continue
		}
		released++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"eligible": len(orders),
		"released": released,
	})
	j.logg.Info(logCtx, "escrow release loop complete")
	return multierr.Combine(errs...)
}
