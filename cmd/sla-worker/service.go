package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultBatchSize    = 100
)

type slaProcessor interface {
	DueTimers(ctx context.Context, now time.Time, limit int) ([]models.SlaTimer, error)
	ProcessTimer(ctx context.Context, timer models.SlaTimer, now time.Time) error
}

type workerMetrics interface {
	IncProcessed(outcome string)
}

type ServiceParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Engine  slaProcessor
	Metrics workerMetrics
}

// Service polls due SLA timers and hands each to the engine. Timers are
// delivered at least once, so a crashed cycle is retried on the next poll.
type Service struct {
	logg         *logger.Logger
	engine       slaProcessor
	metrics      workerMetrics
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Engine == nil {
		return nil, errors.New("sla engine is required")
	}
	if params.Metrics == nil {
		return nil, errors.New("metrics are required")
	}

	interval := params.Config.SLA.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	batch := params.Config.SLA.TimerBatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	return &Service{
		logg:         params.Logger,
		engine:       params.Engine,
		metrics:      params.Metrics,
		pollInterval: interval,
		batchSize:    batch,
		now:          time.Now,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "sla worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processCycle(ctx)
		if err != nil {
			s.logg.Error(ctx, "sla worker cycle error", err)
		}
		if processed && err == nil {
			continue
		}

		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return err
		}
	}
}

// processCycle drains one batch of due timers. It reports whether any timer
// was seen so the caller can poll again immediately on a full batch.
func (s *Service) processCycle(ctx context.Context) (bool, error) {
	now := s.now()
	timers, err := s.engine.DueTimers(ctx, now, s.batchSize)
	if err != nil {
		return false, fmt.Errorf("fetch due timers: %w", err)
	}
	if len(timers) == 0 {
		return false, nil
	}

	var firstErr error
	for _, timer := range timers {
		if err := s.engine.ProcessTimer(ctx, timer, now); err != nil {
			s.metrics.IncProcessed("error")
			fields := map[string]any{
				"timer_id": timer.ID.String(),
				"order_id": timer.OrderID.String(),
				"status":   timer.Status,
			}
			s.logg.Error(s.logg.WithFields(ctx, fields), "sla timer processing failed", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.metrics.IncProcessed("ok")
	}
	return true, firstErr
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
