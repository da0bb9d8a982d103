package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
	"github.com/ptcex/orderguard-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps err so dispatchers stop retrying the row.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
// All domain events share one topic; consumers filter on the event_type
// message attribute.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.DomainTopic == "" {
		return nil, fmt.Errorf("domain topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.DomainTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventOrderStatusChanged,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventOrderPaymentReceived,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderPaymentReceivedEvent{} },
		},
		{
			EventType:      enums.EventOrderShipped,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderShippedEvent{} },
		},
		{
			EventType:      enums.EventOrderDelivered,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderDeliveredEvent{} },
		},
		{
			EventType:      enums.EventOrderCancelled,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderCancelledEvent{} },
		},
		{
			EventType:      enums.EventOrderRefunded,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderRefundedEvent{} },
		},
		{
			EventType:      enums.EventOrderSlaBreached,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderSlaBreachedEvent{} },
		},
		{
			EventType:      enums.EventOrderSlaEscalated,
			AggregateType:  enums.AggregateOrder,
			PayloadFactory: func() interface{} { return &payloads.OrderSlaEscalatedEvent{} },
		},
		{
			EventType:      enums.EventRefundRequestCreated,
			AggregateType:  enums.AggregateRefundRequest,
			PayloadFactory: func() interface{} { return &payloads.RefundRequestCreatedEvent{} },
		},
		{
			EventType:      enums.EventRefundApprovalGranted,
			AggregateType:  enums.AggregateRefundRequest,
			PayloadFactory: func() interface{} { return &payloads.RefundApprovalDecisionEvent{} },
		},
		{
			EventType:      enums.EventRefundApprovalRejected,
			AggregateType:  enums.AggregateRefundRequest,
			PayloadFactory: func() interface{} { return &payloads.RefundApprovalDecisionEvent{} },
		},
		{
			EventType:      enums.EventRefundRequestNeedsInformation,
			AggregateType:  enums.AggregateRefundRequest,
			PayloadFactory: func() interface{} { return &payloads.RefundApprovalDecisionEvent{} },
		},
		{
			EventType:      enums.EventRefundRequestResubmitted,
			AggregateType:  enums.AggregateRefundRequest,
			PayloadFactory: func() interface{} { return &payloads.RefundRequestResubmittedEvent{} },
		},
		{
			EventType:      enums.EventRefundRequestCompleted,
			AggregateType:  enums.AggregateRefundRequest,
			PayloadFactory: func() interface{} { return &payloads.RefundRequestCompletedEvent{} },
		},
		{
			EventType:      enums.EventInsuranceContributionRecorded,
			AggregateType:  enums.AggregateInsuranceFund,
			PayloadFactory: func() interface{} { return &payloads.InsuranceTransactionEvent{} },
		},
		{
			EventType:      enums.EventInsuranceWithdrawalRecorded,
			AggregateType:  enums.AggregateInsuranceFund,
			PayloadFactory: func() interface{} { return &payloads.InsuranceTransactionEvent{} },
		},
	} {
		desc.Topic = topic
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
