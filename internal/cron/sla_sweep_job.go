package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

const (
	defaultSweepLookback = 24 * time.Hour
	defaultSweepBatch    = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type slaTimerProcessor interface {
	StaleTimers(ctx context.Context, lookback time.Duration, now time.Time, limit int) ([]models.SlaTimer, error)
	ProcessTimer(ctx context.Context, timer models.SlaTimer, now time.Time) error
}

// SlaSweepJobParams configure the SLA catch-up sweep.
type SlaSweepJobParams struct {
	Logger   *logger.Logger
	Engine   slaTimerProcessor
	Lookback time.Duration
	Batch    int
}

// NewSlaSweepJob builds the job that re-processes SLA timers the poll
// worker missed, e.g. across a worker outage.
func NewSlaSweepJob(params SlaSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("sla engine required")
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = defaultSweepLookback
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &slaSweepJob{
		logg:     params.Logger,
		engine:   params.Engine,
		lookback: lookback,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type slaSweepJob struct {
	logg     *logger.Logger
	engine   slaTimerProcessor
	lookback time.Duration
	batch    int
	now      func() time.Time
}

func (j *slaSweepJob) Name() string { return "sla-sweep" }

func (j *slaSweepJob) Run(ctx context.Context) error {
	now := j.now()
	timers, err := j.engine.StaleTimers(ctx, j.lookback, now, j.batch)
	if err != nil {
		return fmt.Errorf("sla sweep list: %w", err)
	}

	var errs error
	processed := 0
	for _, timer := range timers {
		if err := j.engine.ProcessTimer(ctx, timer, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("timer %s: %w", timer.ID, err))
			continue
		}
		processed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale_timers": len(timers),
		"processed":    processed,
	})
	j.logg.Info(logCtx, "sla sweep complete")
	return errs
}
