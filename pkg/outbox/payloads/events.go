package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// OrderStatusChangedEvent is emitted on every committed transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"orderId"`
	TenantID   uuid.UUID         `json:"tenantId"`
	FromStatus enums.OrderStatus `json:"fromStatus"`
	ToStatus   enums.OrderStatus `json:"toStatus"`
	ChangedAt  time.Time         `json:"changedAt"`
}

// OrderPaymentReceivedEvent reports a recorded customer payment.
type OrderPaymentReceivedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	TenantID      uuid.UUID           `json:"tenantId"`
	TransactionID uuid.UUID           `json:"transactionId"`
	Amount        int64               `json:"amount"`
	PaymentType   enums.PaymentType   `json:"paymentType"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	PaidAt        time.Time           `json:"paidAt"`
}

// OrderShippedEvent carries the tracking details stamped on shipping.
type OrderShippedEvent struct {
	OrderID        uuid.UUID `json:"orderId"`
	TenantID       uuid.UUID `json:"tenantId"`
	TrackingNumber string    `json:"trackingNumber"`
	ShippedAt      time.Time `json:"shippedAt"`
}

// OrderDeliveredEvent marks delivery confirmation at completion.
type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	TenantID    uuid.UUID `json:"tenantId"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// OrderCancelledEvent reports a cancellation with its reason.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	TenantID    uuid.UUID `json:"tenantId"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// OrderRefundedEvent reports the order-side refund stamp.
type OrderRefundedEvent struct {
	OrderID      uuid.UUID `json:"orderId"`
	TenantID     uuid.UUID `json:"tenantId"`
	RefundAmount int64     `json:"refundAmount"`
	Reason       string    `json:"reason,omitempty"`
	RefundedAt   time.Time `json:"refundedAt"`
}

// OrderSlaBreachedEvent fires once per breached SLA window.
type OrderSlaBreachedEvent struct {
	OrderID          uuid.UUID         `json:"orderId"`
	TenantID         uuid.UUID         `json:"tenantId"`
	Status           enums.OrderStatus `json:"status"`
	ThresholdMinutes int               `json:"thresholdMinutes"`
	DueAt            time.Time         `json:"dueAt"`
	BreachedAt       time.Time         `json:"breachedAt"`
}

// OrderSlaEscalatedEvent fires once per newly triggered escalation step.
type OrderSlaEscalatedEvent struct {
	OrderID     uuid.UUID               `json:"orderId"`
	TenantID    uuid.UUID               `json:"tenantId"`
	Status      enums.OrderStatus       `json:"status"`
	Level       int                     `json:"level"`
	Role        string                  `json:"role"`
	Channel     enums.EscalationChannel `json:"channel"`
	TriggeredAt time.Time               `json:"triggeredAt"`
}

// RefundRequestCreatedEvent announces a new refund request entering the
// approval workflow.
type RefundRequestCreatedEvent struct {
	RefundRequestID uuid.UUID                 `json:"refundRequestId"`
	OrderID         uuid.UUID                 `json:"orderId"`
	TenantID        uuid.UUID                 `json:"tenantId"`
	Reason          enums.RefundReason        `json:"reason"`
	RefundAmount    int64                     `json:"refundAmount"`
	Status          enums.RefundRequestStatus `json:"status"`
	RequiredLevels  []int                     `json:"requiredLevels"`
}

// RefundApprovalDecisionEvent reports a single level decision; used for
// granted, rejected and needs-information outcomes.
type RefundApprovalDecisionEvent struct {
	RefundRequestID uuid.UUID                 `json:"refundRequestId"`
	OrderID         uuid.UUID                 `json:"orderId"`
	TenantID        uuid.UUID                 `json:"tenantId"`
	ApproverID      uuid.UUID                 `json:"approverId"`
	ApprovalLevel   int                       `json:"approvalLevel"`
	Decision        enums.ApprovalDecision    `json:"decision"`
	Status          enums.RefundRequestStatus `json:"status"`
	AdjustedAmount  *int64                    `json:"adjustedAmount,omitempty"`
}

// RefundRequestCompletedEvent fires when the final required level approves.
type RefundRequestCompletedEvent struct {
	RefundRequestID uuid.UUID `json:"refundRequestId"`
	OrderID         uuid.UUID `json:"orderId"`
	TenantID        uuid.UUID `json:"tenantId"`
	RefundAmount    int64     `json:"refundAmount"`
	InsuranceCover  int64     `json:"insuranceCover"`
	ApprovedAt      time.Time `json:"approvedAt"`
}

// RefundRequestResubmittedEvent fires when a needs-information request
// re-enters the workflow with a recomputed calculation.
type RefundRequestResubmittedEvent struct {
	RefundRequestID uuid.UUID                 `json:"refundRequestId"`
	OrderID         uuid.UUID                 `json:"orderId"`
	TenantID        uuid.UUID                 `json:"tenantId"`
	Status          enums.RefundRequestStatus `json:"status"`
	RequiredLevels  []int                     `json:"requiredLevels"`
}

// InsuranceTransactionEvent reports a fund contribution or withdrawal.
type InsuranceTransactionEvent struct {
	TransactionID uuid.UUID                   `json:"transactionId"`
	TenantID      uuid.UUID                   `json:"tenantId"`
	OrderID       *uuid.UUID                  `json:"orderId,omitempty"`
	Type          enums.LedgerTransactionType `json:"type"`
	Amount        int64                       `json:"amount"`
	BalanceAfter  int64                       `json:"balanceAfter"`
}
