package negotiation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
)

// Repository manages persistence for vendor negotiations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, negotiation *models.Negotiation) error
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Negotiation, error)
	Update(ctx context.Context, negotiation *models.Negotiation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a negotiation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, negotiation *models.Negotiation) error {
	return r.db.WithContext(ctx).Create(negotiation).Error
}

// GetByOrder returns the latest negotiation for the order, nil when none.
func (r *repository) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Negotiation, error) {
	var negotiation models.Negotiation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&negotiation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &negotiation, nil
}

func (r *repository) Update(ctx context.Context, negotiation *models.Negotiation) error {
	return r.db.WithContext(ctx).Save(negotiation).Error
}
