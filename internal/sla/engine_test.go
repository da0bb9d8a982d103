package sla

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
)

type fakeTimerRepo struct {
	timers map[string]*models.SlaTimer
}

func newFakeTimerRepo() *fakeTimerRepo {
	return &fakeTimerRepo{timers: make(map[string]*models.SlaTimer)}
}

func (f *fakeTimerRepo) WithTx(tx *gorm.DB) TimerRepository { return f }

func (f *fakeTimerRepo) Schedule(_ context.Context, timer *models.SlaTimer) error {
	if _, exists := f.timers[timer.IdempotencyKey]; exists {
		return nil
	}
	stored := *timer
	f.timers[timer.IdempotencyKey] = &stored
	return nil
}

func (f *fakeTimerRepo) Due(_ context.Context, now time.Time, limit int) ([]models.SlaTimer, error) {
	var due []models.SlaTimer
	for _, timer := range f.timers {
		if timer.ProcessedAt == nil && !timer.RunAt.After(now) {
			due = append(due, *timer)
		}
	}
	return due, nil
}

func (f *fakeTimerRepo) MarkProcessed(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, timer := range f.timers {
		if timer.ID == id && timer.ProcessedAt == nil {
			stamped := at
			timer.ProcessedAt = &stamped
		}
	}
	return nil
}

func (f *fakeTimerRepo) UnprocessedSince(_ context.Context, since, now time.Time, limit int) ([]models.SlaTimer, error) {
	var stale []models.SlaTimer
	for _, timer := range f.timers {
		if timer.ProcessedAt == nil && !timer.RunAt.Before(since) && !timer.RunAt.After(now) {
			stale = append(stale, *timer)
		}
	}
	return stale, nil
}

func (f *fakeTimerRepo) find(id uuid.UUID) *models.SlaTimer {
	for _, timer := range f.timers {
		if timer.ID == id {
			return timer
		}
	}
	return nil
}

type fakeOrderStore struct {
	orders    map[uuid.UUID]*models.Order
	slaWrites int
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderStore) GetOrder(_ context.Context, _ *gorm.DB, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	loaded := *order
	return &loaded, nil
}

func (f *fakeOrderStore) SaveOrderSla(_ context.Context, _ *gorm.DB, order *models.Order) error {
	stored, ok := f.orders[order.ID]
	if ok {
		stored.Sla = order.Sla
	}
	f.slaWrites++
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubPublisher struct {
	events []outbox.DomainEvent
}

func (p *stubPublisher) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *stubPublisher) ofType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var matched []outbox.DomainEvent
	for _, event := range p.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type engineHarness struct {
	engine    Engine
	timers    *fakeTimerRepo
	store     *fakeOrderStore
	publisher *stubPublisher
}

func newEngineHarness(t *testing.T) *engineHarness {
	t.Helper()
	timers := newFakeTimerRepo()
	store := newFakeOrderStore()
	publisher := &stubPublisher{}
	eng, err := NewEngine(timers, store, stubTxRunner{}, publisher)
	require.NoError(t, err)
	return &engineHarness{engine: eng, timers: timers, store: store, publisher: publisher}
}

func (h *engineHarness) addOrder(status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Status:   status,
	}
	h.store.orders[order.ID] = order
	return order
}

func (h *engineHarness) openWindow(t *testing.T, order *models.Order, now time.Time) {
	t.Helper()
	require.NoError(t, h.engine.OpenWindow(context.Background(), nil, order, now))
	h.store.orders[order.ID].Sla = order.Sla
}

func (h *engineHarness) timerFor(t *testing.T, order *models.Order, threshold bool, escalationIndex int) models.SlaTimer {
	t.Helper()
	for _, timer := range h.timers.timers {
		if timer.OrderID != order.ID {
			continue
		}
		if threshold && timer.IsThresholdCheck {
			return *timer
		}
		if !threshold && timer.EscalationIndex != nil && *timer.EscalationIndex == escalationIndex {
			return *timer
		}
	}
	t.Fatalf("no matching timer for order %s", order.ID)
	return models.SlaTimer{}
}

func TestOpenWindowSchedulesThresholdAndEscalations(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusVendorSourcing)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	h.openWindow(t, order, now)

	window := order.Sla.Active
	require.NotNil(t, window)
	assert.Equal(t, enums.OrderStatusVendorSourcing, window.Status)
	assert.Equal(t, 240, window.ThresholdMinutes)
	assert.Equal(t, now.Add(240*time.Minute), window.DueAt)
	require.Len(t, window.Escalations, 2)
	assert.Equal(t, 1, window.Escalations[0].Level)
	assert.Equal(t, "procurement_lead", window.Escalations[0].Role)
	assert.Equal(t, "operations_manager", window.Escalations[1].Role)
	assert.Nil(t, window.Escalations[0].TriggeredAt)

	require.Len(t, h.timers.timers, 3, "one threshold timer plus one per escalation")
	threshold := h.timerFor(t, order, true, 0)
	assert.Equal(t, window.DueAt, threshold.RunAt)
	secondEscalation := h.timerFor(t, order, false, 1)
	assert.Equal(t, now.Add(360*time.Minute), secondEscalation.RunAt)

	// Re-opening the same window dedupes on the idempotency key.
	require.NoError(t, h.engine.OpenWindow(context.Background(), nil, order, now))
	assert.Len(t, h.timers.timers, 3)
}

func TestOpenWindowSkipsUnmonitoredStatus(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusDraft)

	require.NoError(t, h.engine.OpenWindow(context.Background(), nil, order, time.Now()))

	assert.Nil(t, order.Sla.Active)
	assert.Empty(t, h.timers.timers)
}

func TestProcessTimerMarksBreachOnce(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusQualityControl)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	h.openWindow(t, order, start)

	threshold := h.timerFor(t, order, true, 0)
	fireAt := start.Add(721 * time.Minute)
	require.NoError(t, h.engine.ProcessTimer(context.Background(), threshold, fireAt))

	stored := h.store.orders[order.ID]
	require.NotNil(t, stored.Sla.Active)
	assert.True(t, stored.Sla.Active.Breached)
	require.NotNil(t, stored.Sla.Active.BreachedAt)
	assert.Equal(t, fireAt, *stored.Sla.Active.BreachedAt)
	require.NotNil(t, h.timers.find(threshold.ID).ProcessedAt)

	breaches := h.publisher.ofType(enums.EventOrderSlaBreached)
	require.Len(t, breaches, 1)
	assert.Equal(t, enums.AggregateOrder, breaches[0].AggregateType)
	assert.Equal(t, order.ID, breaches[0].AggregateID)

	// A redelivered threshold timer finds the breach already stamped.
	redelivered := threshold
	redelivered.ID = uuid.New()
	h.timers.timers["redelivered"] = &redelivered
	require.NoError(t, h.engine.ProcessTimer(context.Background(), redelivered, fireAt.Add(time.Minute)))
	assert.Len(t, h.publisher.ofType(enums.EventOrderSlaBreached), 1)
}

func TestProcessTimerEarlyThresholdWaits(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusQualityControl)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	h.openWindow(t, order, start)

	threshold := h.timerFor(t, order, true, 0)
	require.NoError(t, h.engine.ProcessTimer(context.Background(), threshold, start.Add(time.Hour)))

	assert.Nil(t, h.timers.find(threshold.ID).ProcessedAt, "early timer stays queued for retry")
	assert.False(t, h.store.orders[order.ID].Sla.Active.Breached)
	assert.Empty(t, h.publisher.events)
}

func TestProcessTimerTriggersDueEscalationsTogether(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusVendorSourcing)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	h.openWindow(t, order, start)

	// The threshold fires late enough that both ladder steps are overdue.
	threshold := h.timerFor(t, order, true, 0)
	fireAt := start.Add(400 * time.Minute)
	require.NoError(t, h.engine.ProcessTimer(context.Background(), threshold, fireAt))

	escalations := h.publisher.ofType(enums.EventOrderSlaEscalated)
	require.Len(t, escalations, 2)
	assert.Len(t, h.publisher.ofType(enums.EventOrderSlaBreached), 1)

	stored := h.store.orders[order.ID].Sla.Active
	require.NotNil(t, stored.Escalations[0].TriggeredAt)
	assert.Equal(t, start.Add(240*time.Minute), *stored.Escalations[0].TriggeredAt,
		"trigger stamp reflects when the step came due, not when the worker ran")
	require.NotNil(t, stored.Escalations[1].TriggeredAt)
	assert.Equal(t, start.Add(360*time.Minute), *stored.Escalations[1].TriggeredAt)

	// The dedicated escalation timers now find their steps already stamped.
	first := h.timerFor(t, order, false, 0)
	require.NoError(t, h.engine.ProcessTimer(context.Background(), first, fireAt.Add(time.Minute)))
	assert.Len(t, h.publisher.ofType(enums.EventOrderSlaEscalated), 2)
	require.NotNil(t, h.timers.find(first.ID).ProcessedAt)
}

func TestProcessTimerStaleWindowIsConsumed(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusVendorSourcing)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	h.openWindow(t, order, start)

	threshold := h.timerFor(t, order, true, 0)

	// The order has moved on before the timer fired.
	h.engine.CloseWindow(h.store.orders[order.ID], start.Add(time.Hour))

	require.NoError(t, h.engine.ProcessTimer(context.Background(), threshold, start.Add(241*time.Minute)))
	require.NotNil(t, h.timers.find(threshold.ID).ProcessedAt)
	assert.Empty(t, h.publisher.events)
}

func TestProcessTimerMissingOrderIsConsumed(t *testing.T) {
	h := newEngineHarness(t)
	timer := models.SlaTimer{
		ID:               uuid.New(),
		OrderID:          uuid.New(),
		Status:           enums.OrderStatusShipping,
		IsThresholdCheck: true,
		WindowStartedAt:  time.Now(),
		RunAt:            time.Now(),
		IdempotencyKey:   "orphan",
	}
	h.timers.timers[timer.IdempotencyKey] = &timer

	require.NoError(t, h.engine.ProcessTimer(context.Background(), timer, time.Now()))
	require.NotNil(t, h.timers.find(timer.ID).ProcessedAt)
	assert.Empty(t, h.publisher.events)
}

func TestCloseWindowArchivesAndSettles(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusVendorSourcing)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	h.openWindow(t, order, start)

	closeAt := start.Add(300 * time.Minute)
	h.engine.CloseWindow(order, closeAt)

	assert.Nil(t, order.Sla.Active)
	require.Len(t, order.Sla.History, 1)
	entry := order.Sla.History[0]
	assert.Equal(t, closeAt, entry.ClosedAt)
	assert.True(t, entry.Breached, "exit after the deadline records a breach")
	require.NotNil(t, entry.Escalations[0].TriggeredAt, "overdue first step is settled on close")
	assert.Nil(t, entry.Escalations[1].TriggeredAt, "second step was not yet due")
	assert.Empty(t, h.publisher.events, "closing a window emits nothing")
}

func TestCloseWindowOnTimeExit(t *testing.T) {
	h := newEngineHarness(t)
	order := h.addOrder(enums.OrderStatusVendorSourcing)
	start := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	h.openWindow(t, order, start)

	h.engine.CloseWindow(order, start.Add(time.Hour))

	require.Len(t, order.Sla.History, 1)
	assert.False(t, order.Sla.History[0].Breached)

	// Closing with no active window is a no-op.
	h.engine.CloseWindow(order, start.Add(2*time.Hour))
	assert.Len(t, order.Sla.History, 1)
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	_, err := NewEngine(nil, newFakeOrderStore(), stubTxRunner{}, &stubPublisher{})
	require.Error(t, err)
	_, err = NewEngine(newFakeTimerRepo(), nil, stubTxRunner{}, &stubPublisher{})
	require.Error(t, err)
	_, err = NewEngine(newFakeTimerRepo(), newFakeOrderStore(), nil, &stubPublisher{})
	require.Error(t, err)
	_, err = NewEngine(newFakeTimerRepo(), newFakeOrderStore(), stubTxRunner{}, nil)
	require.Error(t, err)
}
