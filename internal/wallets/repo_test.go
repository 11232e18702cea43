package wallets

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
)

func setupWalletsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	businesses := `
CREATE TABLE IF NOT EXISTS businesses (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  owner_user_id TEXT NOT NULL,
  open_disputes INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	wallets := `
CREATE TABLE IF NOT EXISTS wallets (
  business_id TEXT PRIMARY KEY,
  pending_minor INTEGER NOT NULL DEFAULT 0,
  available_minor INTEGER NOT NULL DEFAULT 0,
  withdraw_hold_minor INTEGER NOT NULL DEFAULT 0,
  total_earned_minor INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(businesses).Error)
	require.NoError(t, db.Exec(wallets).Error)
	return db
}

func seedWallet(t *testing.T, db *gorm.DB, pending, available, hold, earned int64) uuid.UUID {
	t.Helper()
	businessID := uuid.New()
	wallet := models.Wallet{
		BusinessID:        businessID,
		PendingMinor:      pending,
		AvailableMinor:    available,
		WithdrawHoldMinor: hold,
		TotalEarnedMinor:  earned,
	}
	require.NoError(t, db.Create(&wallet).Error)
	return businessID
}

func TestRepository_EnsureIsIdempotent(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := uuid.New()

	require.NoError(t, repo.Ensure(ctx, businessID))
	require.NoError(t, repo.AddPending(ctx, businessID, 500))
	require.NoError(t, repo.Ensure(ctx, businessID))

	wallet, err := repo.Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), wallet.PendingMinor)
}

func TestRepository_MovePendingToAvailable(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := seedWallet(t, db, 1000, 0, 0, 0)

	require.NoError(t, repo.MovePendingToAvailable(ctx, businessID, 600))

	wallet, err := repo.Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), wallet.PendingMinor)
	assert.Equal(t, int64(600), wallet.AvailableMinor)
	assert.Equal(t, int64(600), wallet.TotalEarnedMinor)
}

func TestRepository_MovePendingToAvailableRejectsOverdraw(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := seedWallet(t, db, 100, 0, 0, 0)

	err := repo.MovePendingToAvailable(ctx, businessID, 101)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	wallet, findErr := repo.Find(ctx, businessID)
	require.NoError(t, findErr)
	assert.Equal(t, int64(100), wallet.PendingMinor)
	assert.Equal(t, int64(0), wallet.TotalEarnedMinor)
}

func TestRepository_DeductPendingRejectsOverdraw(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := seedWallet(t, db, 250, 0, 0, 0)

	require.NoError(t, repo.DeductPending(ctx, businessID, 250))
	err := repo.DeductPending(ctx, businessID, 1)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
}

func TestRepository_HoldAndReleaseRoundTrip(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := seedWallet(t, db, 0, 900, 0, 900)

	require.NoError(t, repo.HoldAvailable(ctx, businessID, 400))

	wallet, err := repo.Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), wallet.AvailableMinor)
	assert.Equal(t, int64(400), wallet.WithdrawHoldMinor)

	require.NoError(t, repo.ReleaseHold(ctx, businessID, 400))

	wallet, err = repo.Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(900), wallet.AvailableMinor)
	assert.Equal(t, int64(0), wallet.WithdrawHoldMinor)
	assert.Equal(t, int64(900), wallet.TotalEarnedMinor)
}

func TestRepository_ClearHold(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := seedWallet(t, db, 0, 0, 750, 750)

	require.NoError(t, repo.ClearHold(ctx, businessID, 750))

	wallet, err := repo.Find(ctx, businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.WithdrawHoldMinor)
	assert.Equal(t, int64(750), wallet.TotalEarnedMinor)

	err = repo.ClearHold(ctx, businessID, 1)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
}

func TestRepository_HoldAvailableRejectsUnknownWallet(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)

	err := repo.HoldAvailable(context.Background(), uuid.New(), 100)
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
}

func TestRepository_RejectsNonPositiveAmounts(t *testing.T) {
	db := setupWalletsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	businessID := seedWallet(t, db, 100, 100, 100, 300)

	require.Error(t, repo.AddPending(ctx, businessID, 0))
	require.Error(t, repo.MovePendingToAvailable(ctx, businessID, -5))
	require.Error(t, repo.HoldAvailable(ctx, businessID, 0))
}
