package disputes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
	"github.com/vendora/vendora-backend/pkg/enums"
)

// Repository manages persistence for disputes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dispute *models.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	ListByStatus(ctx context.Context, status enums.DisputeStatus, limit int) ([]models.Dispute, error)
	// Close marks an open dispute closed with its decision. Returns false when
	// the dispute was not open anymore.
	Close(ctx context.Context, id uuid.UUID, decision enums.DisputeDecision, resolvedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dispute repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, dispute *models.Dispute) error {
	if dispute.ID == uuid.Nil {
		dispute.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(dispute).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&dispute).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&dispute).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.DisputeStatus, limit int) ([]models.Dispute, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("priority DESC, created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var disputes []models.Dispute
	if err := query.Find(&disputes).Error; err != nil {
		return nil, err
	}
	return disputes, nil
}

func (r *repository) Close(ctx context.Context, id uuid.UUID, decision enums.DisputeDecision, resolvedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("id = ? AND status = ?", id, enums.DisputeStatusOpen).
		Updates(map[string]any{
			"status":      enums.DisputeStatusClosed,
			"decision":    decision,
			"resolved_at": resolvedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
