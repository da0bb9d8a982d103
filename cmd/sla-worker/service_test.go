package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

type fakeEngine struct {
	timers    []models.SlaTimer
	listErr   error
	failIDs   map[uuid.UUID]error
	processed []uuid.UUID
}

func (f *fakeEngine) DueTimers(context.Context, time.Time, int) ([]models.SlaTimer, error) {
	return f.timers, f.listErr
}

func (f *fakeEngine) ProcessTimer(_ context.Context, timer models.SlaTimer, _ time.Time) error {
	if err, ok := f.failIDs[timer.ID]; ok {
		return err
	}
	f.processed = append(f.processed, timer.ID)
	return nil
}

type fakeWorkerMetrics struct {
	outcomes map[string]int
}

func (f *fakeWorkerMetrics) IncProcessed(outcome string) {
	if f.outcomes == nil {
		f.outcomes = map[string]int{}
	}
	f.outcomes[outcome]++
}

func newTestWorker(t *testing.T, engine *fakeEngine, m *fakeWorkerMetrics) *Service {
	t.Helper()
	logg := logger.New(logger.Options{
		ServiceName: "sla-worker-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:  &config.Config{},
		Logger:  logg,
		Engine:  engine,
		Metrics: m,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func TestProcessCycleHandsTimersToEngine(t *testing.T) {
	engine := &fakeEngine{
		timers: []models.SlaTimer{{ID: uuid.New()}, {ID: uuid.New()}},
	}
	m := &fakeWorkerMetrics{}
	service := newTestWorker(t, engine, m)

	processed, err := service.processCycle(context.Background())
	if err != nil {
		t.Fatalf("process cycle returned error: %v", err)
	}
	if !processed {
		t.Fatal("expected cycle to report processed")
	}
	if len(engine.processed) != 2 {
		t.Fatalf("expected 2 timers processed, got %d", len(engine.processed))
	}
	if m.outcomes["ok"] != 2 {
		t.Fatalf("expected 2 ok outcomes, got %d", m.outcomes["ok"])
	}
}

func TestProcessCycleContinuesPastFailures(t *testing.T) {
	failing := uuid.New()
	healthy := uuid.New()
	engine := &fakeEngine{
		timers:  []models.SlaTimer{{ID: failing}, {ID: healthy}},
		failIDs: map[uuid.UUID]error{failing: errors.New("boom")},
	}
	m := &fakeWorkerMetrics{}
	service := newTestWorker(t, engine, m)

	processed, err := service.processCycle(context.Background())
	if err == nil {
		t.Fatal("expected first failure surfaced")
	}
	if !processed {
		t.Fatal("expected cycle to report processed")
	}
	if len(engine.processed) != 1 || engine.processed[0] != healthy {
		t.Fatalf("expected the healthy timer to still process, got %v", engine.processed)
	}
	if m.outcomes["error"] != 1 || m.outcomes["ok"] != 1 {
		t.Fatalf("unexpected outcome counts: %v", m.outcomes)
	}
}

func TestProcessCycleEmptyQueue(t *testing.T) {
	engine := &fakeEngine{}
	service := newTestWorker(t, engine, &fakeWorkerMetrics{})

	processed, err := service.processCycle(context.Background())
	if err != nil {
		t.Fatalf("process cycle returned error: %v", err)
	}
	if processed {
		t.Fatal("expected empty cycle to report not processed")
	}
}

func TestProcessCyclePropagatesListError(t *testing.T) {
	engine := &fakeEngine{listErr: errors.New("db down")}
	service := newTestWorker(t, engine, &fakeWorkerMetrics{})

	if _, err := service.processCycle(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
