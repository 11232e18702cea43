package wallets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendora/vendora-backend/pkg/db/models"
)

// Repository manages persistence for wallet balance projections. Every
// balance-moving method issues a guarded UPDATE so a non-negative invariant is
// enforced by the row predicate itself, not just by the caller.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, businessID uuid.UUID) (*models.Wallet, error)
	Ensure(ctx context.Context, businessID uuid.UUID) error
	AddPending(ctx context.Context, businessID uuid.UUID, amountMinor int64) error
	MovePendingToAvailable(ctx context.Context, businessID uuid.UUID, amountMinor int64) error
	DeductPending(ctx context.Context, businessID uuid.UUID, amountMinor int64) error
	HoldAvailable(ctx context.Context, businessID uuid.UUID, amountMinor int64) error
	ReleaseHold(ctx context.Context, businessID uuid.UUID, amountMinor int64) error
	ClearHold(ctx context.Context, businessID uuid.UUID, amountMinor int64) error
	ListAll(ctx context.Context) ([]models.Wallet, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, businessID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Ensure creates the zero-balance wallet row if the business does not have one
// yet. Safe to call from concurrent transactions.
func (r *repository) Ensure(ctx context.Context, businessID uuid.UUID) error {
	wallet := models.Wallet{BusinessID: businessID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&wallet).Error
}

func (r *repository) AddPending(ctx context.Context, businessID uuid.UUID, amountMinor int64) error {
	if err := validAmount(amountMinor); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET pending_minor = pending_minor + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ?
	`, amountMinor, businessID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MovePendingToAvailable(ctx context.Context, businessID uuid.UUID, amountMinor int64) error {
	if err := validAmount(amountMinor); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET pending_minor = pending_minor - ?,
			available_minor = available_minor + ?,
			total_earned_minor = total_earned_minor + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ? AND pending_minor >= ?
	`, amountMinor, amountMinor, amountMinor, businessID, amountMinor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *repository) DeductPending(ctx context.Context, businessID uuid.UUID, amountMinor int64) error {
	if err := validAmount(amountMinor); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET pending_minor = pending_minor - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ? AND pending_minor >= ?
	`, amountMinor, businessID, amountMinor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *repository) HoldAvailable(ctx context.Context, businessID uuid.UUID, amountMinor int64) error {
	if err := validAmount(amountMinor); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET available_minor = available_minor - ?,
			withdraw_hold_minor = withdraw_hold_minor + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ? AND available_minor >= ?
	`, amountMinor, amountMinor, businessID, amountMinor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *repository) ReleaseHold(ctx context.Context, businessID uuid.UUID, amountMinor int64) error {
	if err := validAmount(amountMinor); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET withdraw_hold_minor = withdraw_hold_minor - ?,
			available_minor = available_minor + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ? AND withdraw_hold_minor >= ?
	`, amountMinor, amountMinor, businessID, amountMinor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// ClearHold removes paid-out funds from the hold bucket. This is the only
// mutation where money leaves the wallet entirely.
func (r *repository) ClearHold(ctx context.Context, businessID uuid.UUID, amountMinor int64) error {
	if err := validAmount(amountMinor); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET withdraw_hold_minor = withdraw_hold_minor - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE business_id = ? AND withdraw_hold_minor >= ?
	`, amountMinor, businessID, amountMinor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := r.db.WithContext(ctx).Order("business_id ASC").Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

func validAmount(amountMinor int64) error {
	if amountMinor <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amountMinor)
	}
	return nil
}
