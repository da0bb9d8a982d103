package sla

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
)

func setupTimerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS sla_timers (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  escalation_index INTEGER,
  is_threshold_check INTEGER NOT NULL,
  window_started_at DATETIME NOT NULL,
  run_at DATETIME NOT NULL,
  processed_at DATETIME,
  idempotency_key TEXT NOT NULL UNIQUE,
  created_at DATETIME
);
DELETE FROM sla_timers;`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newTestTimer(runAt time.Time, key string) *models.SlaTimer {
	return &models.SlaTimer{
		ID:               uuid.New(),
		TenantID:         uuid.New(),
		OrderID:          uuid.New(),
		Status:           enums.OrderStatusVendorSourcing,
		IsThresholdCheck: true,
		WindowStartedAt:  runAt.Add(-4 * time.Hour),
		RunAt:            runAt,
		IdempotencyKey:   key,
	}
}

func TestTimerScheduleDedupesOnIdempotencyKey(t *testing.T) {
	db := setupTimerTestDB(t)
	repo := NewTimerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Schedule(ctx, newTestTimer(now, "dedupe-order:vendor_sourcing:threshold")))
	require.NoError(t, repo.Schedule(ctx, newTestTimer(now, "dedupe-order:vendor_sourcing:threshold")),
		"scheduling the same key twice is silent")

	var count int64
	require.NoError(t, db.Model(&models.SlaTimer{}).
		Where("idempotency_key = ?", "dedupe-order:vendor_sourcing:threshold").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTimerDueOrderingAndLimit(t *testing.T) {
	db := setupTimerTestDB(t)
	repo := NewTimerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Schedule(ctx, newTestTimer(now.Add(-time.Minute), "due-late")))
	require.NoError(t, repo.Schedule(ctx, newTestTimer(now.Add(-time.Hour), "due-early")))
	require.NoError(t, repo.Schedule(ctx, newTestTimer(now.Add(time.Hour), "due-future")))

	due, err := repo.Due(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2, "future timers are not due yet")
	assert.Equal(t, "due-early", due[0].IdempotencyKey, "oldest timer comes first")

	limited, err := repo.Due(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "due-early", limited[0].IdempotencyKey)
}

func TestTimerMarkProcessedIsIdempotent(t *testing.T) {
	db := setupTimerTestDB(t)
	repo := NewTimerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	timer := newTestTimer(now.Add(-time.Minute), "mark-once")
	require.NoError(t, repo.Schedule(ctx, timer))

	require.NoError(t, repo.MarkProcessed(ctx, timer.ID, now))
	require.NoError(t, repo.MarkProcessed(ctx, timer.ID, now.Add(time.Hour)))

	var stored models.SlaTimer
	require.NoError(t, db.Where("id = ?", timer.ID).First(&stored).Error)
	require.NotNil(t, stored.ProcessedAt)
	assert.WithinDuration(t, now, *stored.ProcessedAt, time.Second, "second mark does not move the stamp")

	due, err := repo.Due(ctx, now.Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestTimerUnprocessedSinceHonorsLookback(t *testing.T) {
	db := setupTimerTestDB(t)
	repo := NewTimerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Schedule(ctx, newTestTimer(now.Add(-48*time.Hour), "sweep-ancient")))
	require.NoError(t, repo.Schedule(ctx, newTestTimer(now.Add(-2*time.Hour), "sweep-recent")))
	processed := newTestTimer(now.Add(-time.Hour), "sweep-handled")
	require.NoError(t, repo.Schedule(ctx, processed))
	require.NoError(t, repo.MarkProcessed(ctx, processed.ID, now))

	stale, err := repo.UnprocessedSince(ctx, now.Add(-24*time.Hour), now, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1, "only unprocessed timers inside the lookback window")
	assert.Equal(t, "sweep-recent", stale[0].IdempotencyKey)
}
