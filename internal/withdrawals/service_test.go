package withdrawals

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/internal/businesses"
	"github.com/vendora/vendora-backend/internal/ledger"
	"github.com/vendora/vendora-backend/internal/wallets"
	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

type testRunner struct {
	db *gorm.DB
}

func (r *testRunner) RunAtomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func setupWithdrawalsTestDB(t *testing.T) *gorm.DB {
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
CREATE TABLE IF NOT EXISTS withdrawals (
  id TEXT PRIMARY KEY,
  business_id TEXT NOT NULL,
  amount_minor INTEGER NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL,
  payout_details TEXT,
  note TEXT,
  approved_at DATETIME,
  rejected_at DATETIME,
  paid_at DATETIME,
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
		DB:           &testRunner{db: db},
		Repo:         NewRepository(db),
		WalletRepo:   wallets.NewRepository(db),
		BusinessRepo: businesses.NewRepository(db),
		LedgerRepo:   ledger.NewRepository(db),
	})
	require.NoError(t, err)
	return svc
}

func seedVendor(t *testing.T, db *gorm.DB, availableMinor int64, openDisputes int) uuid.UUID {
	t.Helper()
	businessID := uuid.New()
	require.NoError(t, db.Create(&models.Business{
		ID:           businessID,
		Name:         "Test Vendor",
		OwnerUserID:  uuid.New(),
		OpenDisputes: openDisputes,
	}).Error)
	require.NoError(t, db.Create(&models.Wallet{
		BusinessID:       businessID,
		AvailableMinor:   availableMinor,
		TotalEarnedMinor: availableMinor,
	}).Error)
	return businessID
}

func TestRequest_HoldsFunds(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 100000, 0)

	withdrawal, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 40000,
		Currency:    enums.CurrencyNGN,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusPending, withdrawal.Status)

	wallet, err := wallets.NewRepository(db).Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), wallet.AvailableMinor)
	assert.Equal(t, int64(40000), wallet.WithdrawHoldMinor)
	assert.Equal(t, int64(100000), wallet.TotalEarnedMinor)
}

func TestRequest_InsufficientBalance(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 5000, 0)

	_, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 5001,
		Currency:    enums.CurrencyNGN,
	})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	// Nothing recorded, nothing held.
	wallet, findErr := wallets.NewRepository(db).Find(ctx, businessID)
	require.NoError(t, findErr)
	assert.Equal(t, int64(5000), wallet.AvailableMinor)
	assert.Equal(t, int64(0), wallet.WithdrawHoldMinor)

	list, listErr := svc.ListForBusiness(ctx, businessID, 0)
	require.NoError(t, listErr)
	assert.Empty(t, list)
}

func TestRequest_FrozenWallet(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 100000, 1)

	_, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 1000,
		Currency:    enums.CurrencyNGN,
	})
	assert.True(t, errors.Is(err, ErrWalletFrozen))
}

func TestApproveThenMarkPaid(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 80000, 0)

	withdrawal, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 80000,
		Currency:    enums.CurrencyNGN,
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	// Approval moves no money.
	wallet, err := wallets.NewRepository(db).Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(80000), wallet.WithdrawHoldMinor)

	paid, err := svc.MarkPaid(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	wallet, err = wallets.NewRepository(db).Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.AvailableMinor)
	assert.Equal(t, int64(0), wallet.WithdrawHoldMinor)
	assert.Equal(t, int64(80000), wallet.TotalEarnedMinor)
}

func TestReject_ReturnsHeldFunds(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 50000, 0)

	withdrawal, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 30000,
		Currency:    enums.CurrencyNGN,
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, withdrawal.ID, "bank details mismatch")
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, "bank details mismatch", rejected.Note)

	wallet, err := wallets.NewRepository(db).Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), wallet.AvailableMinor)
	assert.Equal(t, int64(0), wallet.WithdrawHoldMinor)
	assert.Equal(t, int64(50000), wallet.TotalEarnedMinor)
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 40000, 0)

	withdrawal, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 10000,
		Currency:    enums.CurrencyNGN,
	})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, withdrawal.ID, "no")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, withdrawal.ID)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = svc.MarkPaid(ctx, withdrawal.ID)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = svc.Reject(ctx, withdrawal.ID, "again")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestMarkPaid_RequiresApproval(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 25000, 0)

	withdrawal, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 25000,
		Currency:    enums.CurrencyNGN,
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, withdrawal.ID)
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestLedgerTrailForWithdrawalRoundTrip(t *testing.T) {
	db := setupWithdrawalsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	businessID := seedVendor(t, db, 60000, 0)

	withdrawal, err := svc.Request(ctx, RequestInput{
		BusinessID:  businessID,
		AmountMinor: 60000,
		Currency:    enums.CurrencyNGN,
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, withdrawal.ID)
	require.NoError(t, err)
	_, err = svc.MarkPaid(ctx, withdrawal.ID)
	require.NoError(t, err)

	entries, err := ledger.NewRepository(db).ListByBusinessID(ctx, businessID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	types := []enums.LedgerEntryType{entries[0].Type, entries[1].Type}
	assert.Contains(t, types, enums.LedgerEntryTypeWithdrawRequested)
	assert.Contains(t, types, enums.LedgerEntryTypeWithdrawPaid)
}
