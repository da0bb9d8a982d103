package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateRefundRequest OutboxAggregateType = "refund_request"
	AggregateInsuranceFund OutboxAggregateType = "insurance_fund"
	AggregateNegotiation   OutboxAggregateType = "negotiation"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateRefundRequest,
	AggregateInsuranceFund,
	AggregateNegotiation,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderStatusChanged            OutboxEventType = "order_status_changed"
	EventOrderPaymentReceived          OutboxEventType = "order_payment_received"
	EventOrderShipped                  OutboxEventType = "order_shipped"
	EventOrderDelivered                OutboxEventType = "order_delivered"
	EventOrderCancelled                OutboxEventType = "order_cancelled"
	EventOrderRefunded                 OutboxEventType = "order_refunded"
	EventOrderSlaBreached              OutboxEventType = "order_sla_breached"
	EventOrderSlaEscalated             OutboxEventType = "order_sla_escalated"
	EventRefundRequestCreated          OutboxEventType = "refund_request_created"
	EventRefundApprovalGranted         OutboxEventType = "refund_approval_granted"
	EventRefundApprovalRejected        OutboxEventType = "refund_approval_rejected"
	EventRefundRequestNeedsInformation OutboxEventType = "refund_request_needs_information"
	EventRefundRequestResubmitted      OutboxEventType = "refund_request_resubmitted"
	EventRefundRequestCompleted        OutboxEventType = "refund_request_completed"
	EventInsuranceContributionRecorded OutboxEventType = "insurance_contribution_recorded"
	EventInsuranceWithdrawalRecorded   OutboxEventType = "insurance_withdrawal_recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderStatusChanged,
	EventOrderPaymentReceived,
	EventOrderShipped,
	EventOrderDelivered,
	EventOrderCancelled,
	EventOrderRefunded,
	EventOrderSlaBreached,
	EventOrderSlaEscalated,
	EventRefundRequestCreated,
	EventRefundApprovalGranted,
	EventRefundApprovalRejected,
	EventRefundRequestNeedsInformation,
	EventRefundRequestResubmitted,
	EventRefundRequestCompleted,
	EventInsuranceContributionRecorded,
	EventInsuranceWithdrawalRecorded,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason explains why an event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

// IsValid reports whether the value is a known OutboxDLQErrorReason.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validOutboxDLQErrorReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
