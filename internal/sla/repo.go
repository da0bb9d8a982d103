package sla

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
)

// TimerRepository manages persistence for scheduled SLA timers.
type TimerRepository interface {
	WithTx(tx *gorm.DB) TimerRepository
	Schedule(ctx context.Context, timer *models.SlaTimer) error
	Due(ctx context.Context, now time.Time, limit int) ([]models.SlaTimer, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	UnprocessedSince(ctx context.Context, since, now time.Time, limit int) ([]models.SlaTimer, error)
}

type timerRepository struct {
	db *gorm.DB
}

// NewTimerRepository returns a timer repository bound to the provided database.
func NewTimerRepository(db *gorm.DB) TimerRepository {
	return &timerRepository{db: db}
}

func (r *timerRepository) WithTx(tx *gorm.DB) TimerRepository {
	if tx == nil {
		return r
	}
	return &timerRepository{db: tx}
}

// Schedule inserts a timer; rescheduling the same idempotency key is a no-op.
func (r *timerRepository) Schedule(ctx context.Context, timer *models.SlaTimer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(timer).Error
}

// Due lists unprocessed timers whose run time has passed, oldest first.
func (r *timerRepository) Due(ctx context.Context, now time.Time, limit int) ([]models.SlaTimer, error) {
	q := r.db.WithContext(ctx).
		Where("processed_at IS NULL AND run_at <= ?", now).
		Order("run_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var timers []models.SlaTimer
	if err := q.Find(&timers).Error; err != nil {
		return nil, err
	}
	return timers, nil
}

// MarkProcessed stamps a timer once; marking an already processed timer is
// a no-op so concurrent workers cannot double-handle.
func (r *timerRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SlaTimer{}).
		Where("id = ? AND processed_at IS NULL", id).
		Update("processed_at", at).Error
}

// UnprocessedSince backs the catch-up sweep: timers that came due within the
// lookback window but were never processed, e.g. because a worker died.
func (r *timerRepository) UnprocessedSince(ctx context.Context, since, now time.Time, limit int) ([]models.SlaTimer, error) {
	q := r.db.WithContext(ctx).
		Where("processed_at IS NULL AND run_at >= ? AND run_at <= ?", since, now).
		Order("run_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var timers []models.SlaTimer
	if err := q.Find(&timers).Error; err != nil {
		return nil, err
	}
	return timers, nil
}
