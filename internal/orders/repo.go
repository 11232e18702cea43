package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

// Repository manages persistence for escrowed orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	// UpdateEscrowState applies updates only when the order still holds the
	// expected escrow status. Returns false when the guard did not match.
	UpdateEscrowState(ctx context.Context, id uuid.UUID, expected enums.EscrowStatus, updates map[string]any) (bool, error)
	FindHeldBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ListByBusinessID(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Order, error)
	SumAmountByEscrowStatuses(ctx context.Context, businessID uuid.UUID, statuses []enums.EscrowStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateEscrowState(ctx context.Context, id uuid.UUID, expected enums.EscrowStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND escrow_status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) FindHeldBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("escrow_status = ? AND held_at IS NOT NULL AND held_at < ?", enums.EscrowStatusHeld, cutoff).
		Order("held_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByBusinessID(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) SumAmountByEscrowStatuses(ctx context.Context, businessID uuid.UUID, statuses []enums.EscrowStatus) (int64, error) {
	var total *int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("SUM(amount_minor)").
		Where("business_id = ? AND escrow_status IN ?", businessID, statuses).
		Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
