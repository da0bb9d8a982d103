package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/internal/negotiation"
	"github.com/ptcex/orderguard-backend/internal/payments"
	"github.com/ptcex/orderguard-backend/pkg/db"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/outbox"
	"github.com/ptcex/orderguard-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type slaEngine interface {
	OpenWindow(ctx context.Context, tx *gorm.DB, order *models.Order, now time.Time) error
	CloseWindow(order *models.Order, now time.Time)
}

type paymentRecorder interface {
	RecordCustomerPayment(ctx context.Context, tx *gorm.DB, order *models.Order, input payments.CustomerPaymentInput) (*models.LedgerTransaction, error)
	RecordVendorDisbursement(ctx context.Context, tx *gorm.DB, order *models.Order, input payments.VendorDisbursementInput) (*models.LedgerTransaction, error)
}

type fundContributor interface {
	ContributeForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.LedgerTransaction, error)
}

type negotiationStarter interface {
	Start(ctx context.Context, tx *gorm.DB, order *models.Order, input negotiation.StartInput) (*models.Negotiation, error)
}

// TransitionMetadata carries the optional per-state inputs of a transition.
// Which fields are required for which target state is enforced by
// ValidateTransition and the state handlers.
type TransitionMetadata struct {
	VendorID           *uuid.UUID `json:"vendorId,omitempty"`
	NegotiationOffer   *int64     `json:"negotiationOffer,omitempty"`
	QuotationAmount    *int64     `json:"quotationAmount,omitempty"`
	PaymentAmount      *int64     `json:"paymentAmount,omitempty"`
	PaymentMethod      *string    `json:"paymentMethod,omitempty"`
	PaymentReference   *string    `json:"paymentReference,omitempty"`
	DisbursementAmount *int64     `json:"disbursementAmount,omitempty"`
	EstimatedDelivery  *time.Time `json:"estimatedDelivery,omitempty"`
	TrackingNumber     *string    `json:"trackingNumber,omitempty"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	RefundAmount       *int64     `json:"refundAmount,omitempty"`
	RefundReason       *string    `json:"refundReason,omitempty"`
}

// TransitionInput asks the state machine to move one order.
type TransitionInput struct {
	OrderID   uuid.UUID
	NewStatus enums.OrderStatus
	Metadata  TransitionMetadata
	Actor     *outbox.ActorRef
}

// CreateOrderInput opens a draft order.
type CreateOrderInput struct {
	TenantID    uuid.UUID
	TotalAmount int64
}

// AvailableTransition is one allowed next status for an order.
type AvailableTransition struct {
	Status enums.OrderStatus `json:"status"`
}

// Service is the order state machine: it validates transitions, applies
// per-state side effects, manages SLA windows and commits each transition
// atomically with its events.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	TransitionTo(ctx context.Context, input TransitionInput) (*models.Order, error)
	ValidateTransition(order *models.Order, newStatus enums.OrderStatus, metadata TransitionMetadata) []string
	AvailableTransitions(order *models.Order) []AvailableTransition
}

type service struct {
	repo         Repository
	payments     paymentRecorder
	fund         fundContributor
	negotiations negotiationStarter
	sla          slaEngine
	tx           txRunner
	outbox       outboxPublisher
}

// NewService builds the state machine with the required collaborators.
func NewService(repo Repository, recorder paymentRecorder, fund fundContributor, negotiations negotiationStarter, sla slaEngine, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("payment recorder required")
	}
	if fund == nil {
		return nil, fmt.Errorf("insurance fund service required")
	}
	if negotiations == nil {
		return nil, fmt.Errorf("negotiation service required")
	}
	if sla == nil {
		return nil, fmt.Errorf("sla engine required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:         repo,
		payments:     recorder,
		fund:         fund,
		negotiations: negotiations,
		sla:          sla,
		tx:           tx,
		outbox:       publisher,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.TenantID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "tenant is required")
	}
	if input.TotalAmount < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "order total must not be negative")
	}

	order := &models.Order{
		ID:            uuid.New(),
		TenantID:      input.TenantID,
		OrderNumber:   newOrderNumber(),
		Status:        enums.OrderStatusDraft,
		TotalAmount:   input.TotalAmount,
		PaymentStatus: enums.PaymentStatusUnpaid,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "ux_orders_order_number") {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "order number collision, retry")
		}
		return nil, err
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// TransitionTo moves the order to a new status in one transaction: close
// the SLA window of the old status, run the target state's side effects,
// open the new window, persist and emit events. An illegal transition
// fails before anything is touched.
func (s *service) TransitionTo(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.NewStatus.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown order status").WithDetails(input.NewStatus)
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).GetByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		fromStatus := order.Status
		if !fromStatus.CanTransitionTo(input.NewStatus) {
			return apperrors.New(apperrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", fromStatus, input.NewStatus))
		}

		now := time.Now()
		s.sla.CloseWindow(order, now)
		order.Status = input.NewStatus

		paymentTxn, err := s.applySideEffects(ctx, tx, order, input.Metadata, now)
		if err != nil {
			return err
		}
		residualTxn, err := s.applyResidualFinancials(ctx, tx, order, input.Metadata, now)
		if err != nil {
			return err
		}
		if paymentTxn == nil {
			paymentTxn = residualTxn
		}

		if err := s.sla.OpenWindow(ctx, tx, order, now); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Update(ctx, order); err != nil {
			return err
		}
		if err := s.emitTransitionEvents(ctx, tx, order, fromStatus, input, paymentTxn, now); err != nil {
			return err
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) applySideEffects(ctx context.Context, tx *gorm.DB, order *models.Order, meta TransitionMetadata, now time.Time) (*models.LedgerTransaction, error) {
	switch order.Status {
	case enums.OrderStatusVendorNegotiation:
		return nil, s.startNegotiation(ctx, tx, order, meta)

	case enums.OrderStatusCustomerQuote:
		if meta.QuotationAmount != nil {
			order.QuotationAmount = meta.QuotationAmount
			at := now
			order.QuotedAt = &at
		}
		return nil, nil

	case enums.OrderStatusPartialPayment, enums.OrderStatusFullPayment:
		return s.recordTransitionPayment(ctx, tx, order, meta, now)

	case enums.OrderStatusInProduction:
		if meta.EstimatedDelivery != nil {
			order.EstimatedDeliveryAt = meta.EstimatedDelivery
		}
		return nil, nil

	case enums.OrderStatusShipping:
		at := now
		order.ShippedAt = &at
		if meta.TrackingNumber != nil {
			order.TrackingNumber = meta.TrackingNumber
		}
		return nil, nil

	case enums.OrderStatusCompleted:
		at := now
		order.CompletedAt = &at
		if meta.DeliveredAt != nil {
			order.DeliveredAt = meta.DeliveredAt
		} else {
			order.DeliveredAt = &at
		}
		if _, err := s.fund.ContributeForOrder(ctx, tx, order); err != nil {
			return nil, err
		}
		return nil, nil

	case enums.OrderStatusCancelled:
		at := now
		order.CancelledAt = &at
		if meta.CancellationReason != nil {
			order.CancellationReason = meta.CancellationReason
		}
		return nil, nil

	case enums.OrderStatusRefunded:
		at := now
		order.RefundedAt = &at
		order.PaymentStatus = enums.PaymentStatusRefunded
		if meta.RefundAmount != nil {
			order.RefundAmount = meta.RefundAmount
		}
		if meta.RefundReason != nil {
			order.RefundReason = meta.RefundReason
		}
		return nil, nil

	default:
		return nil, nil
	}
}

func (s *service) startNegotiation(ctx context.Context, tx *gorm.DB, order *models.Order, meta TransitionMetadata) error {
	if meta.VendorID != nil {
		order.VendorID = meta.VendorID
	}
	if order.VendorID == nil {
		return apperrors.New(apperrors.CodeNoVendorAssigned, "vendor must be selected before negotiation")
	}
	_, err := s.negotiations.Start(ctx, tx, order, negotiation.StartInput{
		VendorID:     *order.VendorID,
		InitialOffer: meta.NegotiationOffer,
	})
	return err
}

// recordTransitionPayment records the payment that drives a payment-state
// transition. A missing amount means the full outstanding balance.
func (s *service) recordTransitionPayment(ctx context.Context, tx *gorm.DB, order *models.Order, meta TransitionMetadata, now time.Time) (*models.LedgerTransaction, error) {
	amount := order.OutstandingBalance()
	if meta.PaymentAmount != nil && *meta.PaymentAmount > 0 {
		amount = *meta.PaymentAmount
	}
	if amount <= 0 {
		return nil, apperrors.New(apperrors.CodeAlreadyPaidInFull, "order is already paid in full")
	}

	input := payments.CustomerPaymentInput{
		Amount: amount,
		PaidAt: now,
	}
	if meta.PaymentMethod != nil {
		input.Method = *meta.PaymentMethod
	} else if order.PaymentMethod != nil {
		input.Method = *order.PaymentMethod
	}
	if meta.PaymentReference != nil {
		input.Reference = *meta.PaymentReference
	}
	return s.payments.RecordCustomerPayment(ctx, tx, order, input)
}

// applyResidualFinancials handles payment/disbursement metadata attached to
// transitions whose target state does not itself consume it.
func (s *service) applyResidualFinancials(ctx context.Context, tx *gorm.DB, order *models.Order, meta TransitionMetadata, now time.Time) (*models.LedgerTransaction, error) {
	var paymentTxn *models.LedgerTransaction

	isPaymentState := order.Status == enums.OrderStatusPartialPayment || order.Status == enums.OrderStatusFullPayment
	if !isPaymentState && meta.PaymentAmount != nil {
		input := payments.CustomerPaymentInput{
			Amount: *meta.PaymentAmount,
			PaidAt: now,
		}
		if meta.PaymentMethod != nil {
			input.Method = *meta.PaymentMethod
		}
		if meta.PaymentReference != nil {
			input.Reference = *meta.PaymentReference
		}
		txn, err := s.payments.RecordCustomerPayment(ctx, tx, order, input)
		if err != nil {
			return nil, err
		}
		paymentTxn = txn
	}

	if meta.DisbursementAmount != nil {
		_, err := s.payments.RecordVendorDisbursement(ctx, tx, order, payments.VendorDisbursementInput{
			Amount: *meta.DisbursementAmount,
		})
		if err != nil {
			return nil, err
		}
	}
	return paymentTxn, nil
}

func (s *service) emitTransitionEvents(ctx context.Context, tx *gorm.DB, order *models.Order, fromStatus enums.OrderStatus, input TransitionInput, paymentTxn *models.LedgerTransaction, now time.Time) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         input.Actor,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			TenantID:   order.TenantID,
			FromStatus: fromStatus,
			ToStatus:   order.Status,
			ChangedAt:  now,
		},
	})
	if err != nil {
		return err
	}

	if paymentTxn != nil {
		var paymentType enums.PaymentType
		if paymentTxn.PaymentType != nil {
			paymentType = *paymentTxn.PaymentType
		}
		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentReceived,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderPaymentReceivedEvent{
				OrderID:       order.ID,
				TenantID:      order.TenantID,
				TransactionID: paymentTxn.ID,
				Amount:        paymentTxn.Amount,
				PaymentType:   paymentType,
				PaymentStatus: order.PaymentStatus,
				PaidAt:        now,
			},
		})
		if err != nil {
			return err
		}
	}

	switch order.Status {
	case enums.OrderStatusShipping:
		tracking := ""
		if order.TrackingNumber != nil {
			tracking = *order.TrackingNumber
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderShipped,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderShippedEvent{
				OrderID:        order.ID,
				TenantID:       order.TenantID,
				TrackingNumber: tracking,
				ShippedAt:      now,
			},
		})

	case enums.OrderStatusCompleted:
		deliveredAt := now
		if order.DeliveredAt != nil {
			deliveredAt = *order.DeliveredAt
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDelivered,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderDeliveredEvent{
				OrderID:     order.ID,
				TenantID:    order.TenantID,
				DeliveredAt: deliveredAt,
			},
		})

	case enums.OrderStatusCancelled:
		reason := ""
		if order.CancellationReason != nil {
			reason = *order.CancellationReason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				TenantID:    order.TenantID,
				Reason:      reason,
				CancelledAt: now,
			},
		})

	case enums.OrderStatusRefunded:
		var amount int64
		if order.RefundAmount != nil {
			amount = *order.RefundAmount
		}
		reason := ""
		if order.RefundReason != nil {
			reason = *order.RefundReason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRefunded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderRefundedEvent{
				OrderID:      order.ID,
				TenantID:     order.TenantID,
				RefundAmount: amount,
				Reason:       reason,
				RefundedAt:   now,
			},
		})
	}
	return nil
}

// ValidateTransition pre-flights a transition without mutating anything,
// returning every rule the request would violate.
func (s *service) ValidateTransition(order *models.Order, newStatus enums.OrderStatus, meta TransitionMetadata) []string {
	var violations []string

	if !order.Status.CanTransitionTo(newStatus) {
		violations = append(violations, fmt.Sprintf("transition from %s to %s is not allowed", order.Status, newStatus))
	}
	if order.TotalAmount < 0 {
		violations = append(violations, "order total must not be negative")
	}

	switch newStatus {
	case enums.OrderStatusVendorNegotiation:
		if meta.VendorID == nil && order.VendorID == nil {
			violations = append(violations, "vendor must be selected for negotiation")
		}

	case enums.OrderStatusCustomerQuote:
		switch {
		case meta.QuotationAmount == nil && order.QuotationAmount == nil:
			violations = append(violations, "quotation amount is required")
		case meta.QuotationAmount != nil && *meta.QuotationAmount <= 0:
			violations = append(violations, "quotation amount must be positive")
		case meta.QuotationAmount == nil && order.QuotationAmount != nil && *order.QuotationAmount <= 0:
			violations = append(violations, "quotation amount must be positive")
		}

	case enums.OrderStatusPartialPayment, enums.OrderStatusFullPayment:
		if meta.PaymentMethod == nil && order.PaymentMethod == nil {
			violations = append(violations, "payment method is required")
		}
		if meta.PaymentAmount != nil && *meta.PaymentAmount <= 0 {
			violations = append(violations, "payment amount must be positive")
		}
		if order.OutstandingBalance() == 0 {
			violations = append(violations, "order is already paid in full")
		}

	case enums.OrderStatusShipping:
		if meta.TrackingNumber == nil && order.TrackingNumber == nil {
			violations = append(violations, "tracking number is required")
		}

	case enums.OrderStatusCancelled:
		if meta.CancellationReason == nil {
			violations = append(violations, "cancellation reason is required")
		}

	case enums.OrderStatusRefunded:
		switch {
		case meta.RefundAmount == nil:
			violations = append(violations, "refund amount is required")
		case *meta.RefundAmount <= 0:
			violations = append(violations, "refund amount must be positive")
		}
	}

	return violations
}

func (s *service) AvailableTransitions(order *models.Order) []AvailableTransition {
	allowed := order.Status.AllowedTransitions()
	out := make([]AvailableTransition, 0, len(allowed))
	for _, status := range allowed {
		out = append(out, AvailableTransition{Status: status})
	}
	return out
}

func newOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%05d", time.Now().Format("20060102"), rand.IntN(100000))
}
