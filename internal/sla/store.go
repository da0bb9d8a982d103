package sla

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
)

// OrderStore is the slice of order persistence the engine needs when a timer
// fires: load the order and write back its SLA document.
type OrderStore interface {
	GetOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error)
	SaveOrderSla(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type orderStore struct {
	db *gorm.DB
}

// NewOrderStore returns an order store bound to the provided database.
func NewOrderStore(db *gorm.DB) OrderStore {
	return &orderStore{db: db}
}

func (s *orderStore) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// GetOrder returns nil without error when the order does not exist.
func (s *orderStore) GetOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.conn(tx).WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrderSla writes only the SLA document, leaving concurrent updates to
// other order columns untouched.
func (s *orderStore) SaveOrderSla(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return s.conn(tx).WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("sla", order.Sla).Error
}
