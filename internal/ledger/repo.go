package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// Repository manages persistence for ledger transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerTransaction) error
	Latest(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope) (*models.LedgerTransaction, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerTransaction, error)
	ListByScope(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, limit int) ([]models.LedgerTransaction, error)
	SumByTypeSince(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, since time.Time) (int64, error)
	StatsByTypeBetween(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, from, to time.Time) (TypeStats, error)
}

// TypeStats aggregates one transaction type over a time range.
type TypeStats struct {
	Total int64
	Count int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Latest returns the newest link in the (tenant, scope) chain, or nil when
// the chain is empty.
func (r *repository) Latest(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope) (*models.LedgerTransaction, error) {
	var entry models.LedgerTransaction
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND scope = ?", tenantID, scope).
		Order("sequence DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerTransaction, error) {
	var entries []models.LedgerTransaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, sequence ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByScope(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, limit int) ([]models.LedgerTransaction, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ? AND scope = ?", tenantID, scope).
		Order("sequence DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.LedgerTransaction
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumByTypeSince(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, since time.Time) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerTransaction{}).
		Select("SUM(amount)").
		Where("tenant_id = ? AND scope = ? AND type = ? AND created_at >= ?", tenantID, scope, txType, since).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (r *repository) StatsByTypeBetween(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, from, to time.Time) (TypeStats, error) {
	var row struct {
		Total *int64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.LedgerTransaction{}).
		Select("SUM(amount) AS total, COUNT(*) AS count").
		Where("tenant_id = ? AND scope = ? AND type = ? AND created_at >= ? AND created_at < ?", tenantID, scope, txType, from, to).
		Scan(&row).Error
	if err != nil {
		return TypeStats{}, err
	}
	stats := TypeStats{Count: row.Count}
	if row.Total != nil {
		stats.Total = *row.Total
	}
	return stats, nil
}
