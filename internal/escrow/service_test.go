package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/internal/orders"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

type testRunner struct {
	db *gorm.DB
}

func (r *testRunner) RunAtomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupEscrowTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS businesses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  owner_user_id TEXT NOT NULL,
  open_disputes INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS wallets (
  business_id TEXT PRIMARY KEY,
  pending_minor INTEGER NOT NULL DEFAULT 0,
  available_minor INTEGER NOT NULL DEFAULT 0,
  withdraw_hold_minor INTEGER NOT NULL DEFAULT 0,
  total_earned_minor INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  business_id TEXT NOT NULL,
  buyer_key TEXT NOT NULL DEFAULT '',
  amount_minor INTEGER NOT NULL,
  currency TEXT NOT NULL,
  payment_type TEXT NOT NULL,
  escrow_status TEXT NOT NULL,
  status TEXT NOT NULL,
  buyer_info TEXT,
  held_at DATETIME,
  released_at DATETIME,
  refunded_at DATETIME,
  disputed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  order_id TEXT,
  withdrawal_id TEXT,
  type TEXT NOT NULL,
  amount_minor INTEGER NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:         &testRunner{db: db},
		OrderRepo:  orders.NewRepository(db),
		WalletRepo: wallets.NewRepository(db),
		LedgerRepo: ledger.NewRepository(db),
	})
	require.NoError(t, err)
	return svc
}

const testBuyerKey = "4f0c77c4-2a7b-4c55-9d28-0b3a9f9f2a61"

func seedHeldOrder(t *testing.T, db *gorm.DB, amountMinor int64) *models.Order {
	t.Helper()
	businessID := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, db.Create(&models.Business{
		ID:          businessID,
		Name:        "Test Vendor",
		OwnerUserID: uuid.New(),
	}).Error)
	require.NoError(t, db.Create(&models.Wallet{
		BusinessID:   businessID,
		PendingMinor: amountMinor,
	}).Error)

	order := &models.Order{
		ID:           uuid.New(),
		Reference:    "ref-" + uuid.NewString(),
		BusinessID:   businessID,
		BuyerKey:     testBuyerKey,
		AmountMinor:  amountMinor,
		Currency:     enums.CurrencyNGN,
		PaymentType:  enums.PaymentTypeEscrowGateway,
		EscrowStatus: enums.EscrowStatusHeld,
		Status:       enums.OrderStatusPaidHeld,
		HeldAt:       &now,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRelease_MovesPendingToAvailable(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 425000)

	released, err := svc.Release(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EscrowStatusReleased, released.EscrowStatus)
	assert.Equal(t, enums.OrderStatusReleasedToVendorWallet, released.Status)
	assert.NotNil(t, released.ReleasedAt)

	wallet, err := wallets.NewRepository(db).Find(ctx, order.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.PendingMinor)
	assert.Equal(t, int64(425000), wallet.AvailableMinor)
	assert.Equal(t, int64(425000), wallet.TotalEarnedMinor)

	entries, err := ledger.NewRepository(db).ListByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.LedgerEntryTypeEscrowReleased, entries[0].Type)
	assert.Equal(t, int64(425000), entries[0].AmountMinor)
}

func TestReleaseForBuyer_ReleasesOwnOrder(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 120000)

	released, err := svc.ReleaseForBuyer(ctx, order.ID, testBuyerKey)
	require.NoError(t, err)
	assert.Equal(t, enums.EscrowStatusReleased, released.EscrowStatus)

	wallet, err := wallets.NewRepository(db).Find(ctx, order.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), wallet.AvailableMinor)
}

func TestReleaseForBuyer_RejectsForeignBuyer(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 120000)

	_, err := svc.ReleaseForBuyer(ctx, order.ID, uuid.NewString())
	require.ErrorIs(t, err, ErrNotOrderBuyer)

	// Nothing moved.
	wallet, err := wallets.NewRepository(db).Find(ctx, order.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), wallet.PendingMinor)
	assert.Equal(t, int64(0), wallet.AvailableMinor)

	reloaded, err := orders.NewRepository(db).FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EscrowStatusHeld, reloaded.EscrowStatus)
}

func TestReleaseForBuyer_RejectsOrderWithoutBuyerKey(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 9000)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("buyer_key", "").Error)

	_, err := svc.ReleaseForBuyer(ctx, order.ID, testBuyerKey)
	require.ErrorIs(t, err, ErrNotOrderBuyer)
}

func TestRelease_SecondAttemptIsRejected(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 1000)

	_, err := svc.Release(ctx, order.ID)
	require.NoError(t, err)

	_, err = svc.Release(ctx, order.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	// Balances unchanged by the failed attempt.
	wallet, findErr := wallets.NewRepository(db).Find(ctx, order.BusinessID)
	require.NoError(t, findErr)
	assert.Equal(t, int64(1000), wallet.AvailableMinor)
	assert.Equal(t, int64(1000), wallet.TotalEarnedMinor)
}

func TestRefund_DeductsPendingAndRecordsEntry(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 90000)

	refunded, err := svc.Refund(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EscrowStatusRefunded, refunded.EscrowStatus)
	assert.Equal(t, enums.OrderStatusRefunded, refunded.Status)

	wallet, err := wallets.NewRepository(db).Find(ctx, order.BusinessID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.PendingMinor)
	assert.Equal(t, int64(0), wallet.TotalEarnedMinor)

	entries, err := ledger.NewRepository(db).ListByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.LedgerEntryTypeEscrowRefunded, entries[0].Type)
}

func TestRefund_FailsWholeTransactionOnPendingShortfall(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 5000)

	// Drain pending behind the order's back to simulate divergence.
	require.NoError(t, wallets.NewRepository(db).DeductPending(ctx, order.BusinessID, 4000))

	_, err := svc.Refund(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wallets.ErrInsufficientFunds))

	// The order must still be held and no ledger entry written.
	reloaded, findErr := orders.NewRepository(db).FindByID(ctx, order.ID)
	require.NoError(t, findErr)
	assert.Equal(t, enums.EscrowStatusHeld, reloaded.EscrowStatus)

	entries, listErr := ledger.NewRepository(db).ListByOrderID(ctx, order.ID)
	require.NoError(t, listErr)
	assert.Empty(t, entries)
}

func TestRelease_UnknownOrder(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.Release(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestMarkDisputedInTx_OnlyFromHeld(t *testing.T) {
	db := setupEscrowTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	order := seedHeldOrder(t, db, 1500)

	_, err := svc.Release(ctx, order.ID)
	require.NoError(t, err)

	err = (&testRunner{db: db}).RunAtomic(ctx, func(tx *gorm.DB) error {
		_, txErr := svc.MarkDisputedInTx(ctx, tx, order.ID)
		return txErr
	})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}
