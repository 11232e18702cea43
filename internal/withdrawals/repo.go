package withdrawals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

// Repository manages persistence for withdrawal requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByBusinessID(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Withdrawal, error)
	ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.Withdrawal, error)
	// UpdateStatus applies updates only when the withdrawal still holds the
	// expected status. Returns false when the guard did not match.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected enums.WithdrawalStatus, updates map[string]any) (bool, error)
	SumAmountByStatuses(ctx context.Context, businessID uuid.UUID, statuses []enums.WithdrawalStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a withdrawal repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	if withdrawal.ID == uuid.Nil {
		withdrawal.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(withdrawal).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&withdrawal).Error; err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

func (r *repository) ListByBusinessID(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Withdrawal, error) {
	query := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var withdrawals []models.Withdrawal
	if err := query.Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.WithdrawalStatus, limit int) ([]models.Withdrawal, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var withdrawals []models.Withdrawal
	if err := query.Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, expected enums.WithdrawalStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SumAmountByStatuses(ctx context.Context, businessID uuid.UUID, statuses []enums.WithdrawalStatus) (int64, error) {
	var total *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Select("SUM(amount_minor)").
		Where("business_id = ? AND status IN ?", businessID, statuses).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
