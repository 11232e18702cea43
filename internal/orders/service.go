package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora/vendora-backend/pkg/db/models"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
)

// Service exposes the order read surface. Money-moving transitions live in
// the escrow service.
type Service interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	ListForBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Order, error)
}

type service struct {
	repo Repository
}

// NewService wires an order service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) GetOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListForBusiness(ctx context.Context, businessID uuid.UUID, limit int) ([]models.Order, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id is required")
	}
	return s.repo.ListByBusinessID(ctx, businessID, limit)
}
