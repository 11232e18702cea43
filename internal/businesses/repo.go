package businesses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
)

// Repository manages persistence for businesses and their open-dispute
// counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.Business, error)
	Create(ctx context.Context, business *models.Business) error
	IncrementOpenDisputes(ctx context.Context, id uuid.UUID) error
	DecrementOpenDisputes(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a business repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *repository) Create(ctx context.Context, business *models.Business) error {
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(business).Error
}

func (r *repository) IncrementOpenDisputes(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE businesses
		SET open_disputes = open_disputes + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementOpenDisputes floors at zero so a stray double-close never produces
// a negative counter.
func (r *repository) DecrementOpenDisputes(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE businesses
		SET open_disputes = open_disputes - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND open_disputes > 0
	`, id)
	return res.Error
}
