package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
	"github.com/ptcex/orderguard-backend/pkg/outbox/payloads"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Engine drives SLA monitoring: it opens a window when an order enters a
// monitored status, closes it on the way out, and handles the timers that
// fire in between.
type Engine interface {
	OpenWindow(ctx context.Context, tx *gorm.DB, order *models.Order, now time.Time) error
	CloseWindow(order *models.Order, now time.Time)
	ProcessTimer(ctx context.Context, timer models.SlaTimer, now time.Time) error
	DueTimers(ctx context.Context, now time.Time, limit int) ([]models.SlaTimer, error)
	StaleTimers(ctx context.Context, lookback time.Duration, now time.Time, limit int) ([]models.SlaTimer, error)
}

type engine struct {
	timers TimerRepository
	store  OrderStore
	tx     txRunner
	outbox outboxPublisher
}

// NewEngine builds the SLA engine with the required dependencies.
func NewEngine(timers TimerRepository, store OrderStore, tx txRunner, publisher outboxPublisher) (Engine, error) {
	if timers == nil {
		return nil, fmt.Errorf("timer repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &engine{
		timers: timers,
		store:  store,
		tx:     tx,
		outbox: publisher,
	}, nil
}

// OpenWindow activates monitoring for the order's current status and
// schedules the threshold timer plus one timer per escalation step. It
// mutates order.Sla but does not persist the order; the caller owns the
// order write inside the same transaction.
func (e *engine) OpenWindow(ctx context.Context, tx *gorm.DB, order *models.Order, now time.Time) error {
	policy, ok := PolicyFor(order.Status)
	if !ok {
		return nil
	}

	dueAt := now.Add(time.Duration(policy.ThresholdMinutes) * time.Minute)
	escalations := make([]types.SlaEscalation, 0, len(policy.Escalations))
	for i, step := range policy.Escalations {
		escalations = append(escalations, types.SlaEscalation{
			Level:        i + 1,
			Role:         step.Role,
			Channel:      step.Channel,
			AfterMinutes: step.AfterMinutes,
		})
	}
	order.Sla.Active = &types.SlaWindow{
		Status:           order.Status,
		StartedAt:        now,
		DueAt:            dueAt,
		ThresholdMinutes: policy.ThresholdMinutes,
		Escalations:      escalations,
	}

	repo := e.timers.WithTx(tx)
	threshold := models.SlaTimer{
		ID:               uuid.New(),
		TenantID:         order.TenantID,
		OrderID:          order.ID,
		Status:           order.Status,
		IsThresholdCheck: true,
		WindowStartedAt:  now,
		RunAt:            dueAt,
		IdempotencyKey:   timerKey(order.ID, order.Status, now, "threshold"),
	}
	if err := repo.Schedule(ctx, &threshold); err != nil {
		return err
	}
	for i, step := range policy.Escalations {
		index := i
		timer := models.SlaTimer{
			ID:               uuid.New(),
			TenantID:         order.TenantID,
			OrderID:          order.ID,
			Status:           order.Status,
			EscalationIndex:  &index,
			WindowStartedAt:  now,
			RunAt:            now.Add(time.Duration(step.AfterMinutes) * time.Minute),
			IdempotencyKey:   timerKey(order.ID, order.Status, now, fmt.Sprintf("esc-%d", i)),
			IsThresholdCheck: false,
		}
		if err := repo.Schedule(ctx, &timer); err != nil {
			return err
		}
	}
	return nil
}

// CloseWindow settles the active window when the order leaves a monitored
// status: pending escalations that came due are stamped, a late exit is
// recorded as a breach, and the window moves to history. Pure mutation;
// the caller persists the order and no events are emitted here.
func (e *engine) CloseWindow(order *models.Order, now time.Time) {
	window := order.Sla.Active
	if window == nil {
		return
	}

	for i := range window.Escalations {
		esc := &window.Escalations[i]
		if esc.TriggeredAt != nil {
			continue
		}
		triggerAt := window.StartedAt.Add(time.Duration(esc.AfterMinutes) * time.Minute)
		if now.Before(triggerAt) {
			continue
		}
		at := triggerAt
		esc.TriggeredAt = &at
	}

	if !window.Breached && now.After(window.DueAt) {
		window.Breached = true
		at := now
		window.BreachedAt = &at
	}

	order.Sla.History = append(order.Sla.History, types.SlaHistoryEntry{
		SlaWindow: *window,
		ClosedAt:  now,
	})
	order.Sla.Active = nil
}

// ProcessTimer handles one fired timer in its own transaction. Delivery is
// at-least-once: stale timers (order gone, or the window they were scheduled
// for no longer active) are consumed silently, and breach/escalation stamps
// on the window guarantee each event fires once.
func (e *engine) ProcessTimer(ctx context.Context, timer models.SlaTimer, now time.Time) error {
	return e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := e.store.GetOrder(ctx, tx, timer.OrderID)
		if err != nil {
			return err
		}
		if order == nil || !order.Sla.ActiveMatches(timer.Status, timer.WindowStartedAt) {
			return e.timers.WithTx(tx).MarkProcessed(ctx, timer.ID, now)
		}

		window := order.Sla.Active
		changed, err := e.triggerDueEscalations(ctx, tx, order, window, now)
		if err != nil {
			return err
		}

		if timer.IsThresholdCheck {
			if now.Before(window.DueAt) {
				// Fired ahead of the deadline; persist any escalation
				// stamps and leave the timer unprocessed for a retry.
				if changed {
					if err := e.store.SaveOrderSla(ctx, tx, order); err != nil {
						return err
					}
				}
				return nil
			}
			if !window.Breached {
				window.Breached = true
				at := now
				window.BreachedAt = &at
				changed = true
				if err := e.emitBreach(ctx, tx, order, window, now); err != nil {
					return err
				}
			}
		}

		if changed {
			if err := e.store.SaveOrderSla(ctx, tx, order); err != nil {
				return err
			}
		}
		return e.timers.WithTx(tx).MarkProcessed(ctx, timer.ID, now)
	})
}

// triggerDueEscalations stamps and announces every escalation step whose
// delay has elapsed, regardless of which timer woke the engine up.
func (e *engine) triggerDueEscalations(ctx context.Context, tx *gorm.DB, order *models.Order, window *types.SlaWindow, now time.Time) (bool, error) {
	changed := false
	for i := range window.Escalations {
		esc := &window.Escalations[i]
		if esc.TriggeredAt != nil {
			continue
		}
		triggerAt := window.StartedAt.Add(time.Duration(esc.AfterMinutes) * time.Minute)
		if now.Before(triggerAt) {
			continue
		}
		at := triggerAt
		esc.TriggeredAt = &at
		changed = true

		err := e.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSlaEscalated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderSlaEscalatedEvent{
				OrderID:     order.ID,
				TenantID:    order.TenantID,
				Status:      window.Status,
				Level:       esc.Level,
				Role:        esc.Role,
				Channel:     esc.Channel,
				TriggeredAt: triggerAt,
			},
		})
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

func (e *engine) emitBreach(ctx context.Context, tx *gorm.DB, order *models.Order, window *types.SlaWindow, now time.Time) error {
	return e.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderSlaBreached,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderSlaBreachedEvent{
			OrderID:          order.ID,
			TenantID:         order.TenantID,
			Status:           window.Status,
			ThresholdMinutes: window.ThresholdMinutes,
			DueAt:            window.DueAt,
			BreachedAt:       now,
		},
	})
}

// DueTimers lists timers ready for processing.
func (e *engine) DueTimers(ctx context.Context, now time.Time, limit int) ([]models.SlaTimer, error) {
	return e.timers.Due(ctx, now, limit)
}

// StaleTimers lists timers the poll loop missed within the lookback window,
// for the catch-up sweep.
func (e *engine) StaleTimers(ctx context.Context, lookback time.Duration, now time.Time, limit int) ([]models.SlaTimer, error) {
	return e.timers.UnprocessedSince(ctx, now.Add(-lookback), now, limit)
}

func timerKey(orderID uuid.UUID, status enums.OrderStatus, startedAt time.Time, kind string) string {
	return fmt.Sprintf("%s:%s:%d:%s", orderID, status, startedAt.UTC().Unix(), kind)
}
