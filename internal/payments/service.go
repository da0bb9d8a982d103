package payments

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/internal/ledger"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
)

// Service applies customer payments and vendor disbursements to an order.
// Both operations mutate the order in memory and append to the payments
// ledger; the caller owns persisting the order and the transaction scope.
// Neither operation dedupes replays — callers must invoke at most once per
// logical payment event.
type Service interface {
	RecordCustomerPayment(ctx context.Context, tx *gorm.DB, order *models.Order, input CustomerPaymentInput) (*models.LedgerTransaction, error)
	RecordVendorDisbursement(ctx context.Context, tx *gorm.DB, order *models.Order, input VendorDisbursementInput) (*models.LedgerTransaction, error)
}

// CustomerPaymentInput captures one incoming customer payment.
type CustomerPaymentInput struct {
	Amount    int64
	Method    string
	Reference string
	PaidAt    time.Time
}

// VendorDisbursementInput captures one outgoing vendor payment.
type VendorDisbursementInput struct {
	Amount      int64
	Description string
}

type service struct {
	ledger ledger.Service
}

// NewService wires a payment recorder over the ledger.
func NewService(ledgerSvc ledger.Service) (Service, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &service{ledger: ledgerSvc}, nil
}

// RecordCustomerPayment clamps the payment to the outstanding balance,
// classifies it as down or final payment, appends the ledger entry and
// rederives the order's payment status.
func (s *service) RecordCustomerPayment(ctx context.Context, tx *gorm.DB, order *models.Order, input CustomerPaymentInput) (*models.LedgerTransaction, error) {
	if order == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order is required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "payment amount must be positive")
	}

	outstanding := order.OutstandingBalance()
	if outstanding == 0 {
		return nil, apperrors.New(apperrors.CodeAlreadyPaidInFull, "order is already paid in full")
	}

	applied := input.Amount
	if applied > outstanding {
		applied = outstanding
	}

	paymentType := enums.PaymentTypeDownPayment
	if applied == outstanding {
		paymentType = enums.PaymentTypeFinalPayment
	}

	description := fmt.Sprintf("customer payment for order %s", order.OrderNumber)
	if input.Reference != "" {
		description = fmt.Sprintf("%s (ref %s)", description, input.Reference)
	}

	orderID := order.ID
	entry, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
		TenantID:    order.TenantID,
		Scope:       enums.LedgerScopePayments,
		Type:        enums.LedgerTransactionTypeIncoming,
		Amount:      applied,
		PaymentType: &paymentType,
		OrderID:     &orderID,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	order.TotalPaidAmount += applied
	order.PaymentStatus = derivePaymentStatus(order)
	if input.Method != "" {
		method := input.Method
		order.PaymentMethod = &method
	}
	if paymentType == enums.PaymentTypeDownPayment && order.DownPaymentPaidAt == nil {
		paidAt := input.PaidAt
		if paidAt.IsZero() {
			paidAt = time.Now()
		}
		order.DownPaymentPaidAt = &paidAt
	}

	return entry, nil
}

// RecordVendorDisbursement appends an outgoing ledger entry for the bound
// vendor and bumps the order's disbursed total.
func (s *service) RecordVendorDisbursement(ctx context.Context, tx *gorm.DB, order *models.Order, input VendorDisbursementInput) (*models.LedgerTransaction, error) {
	if order == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order is required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "disbursement amount must be positive")
	}
	if order.VendorID == nil {
		return nil, apperrors.New(apperrors.CodeNoVendorAssigned, "order has no vendor assigned")
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("vendor disbursement for order %s", order.OrderNumber)
	}

	orderID := order.ID
	entry, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
		TenantID:    order.TenantID,
		Scope:       enums.LedgerScopePayments,
		Type:        enums.LedgerTransactionTypeOutgoing,
		Amount:      input.Amount,
		OrderID:     &orderID,
		VendorID:    order.VendorID,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	order.TotalDisbursedAmount += input.Amount
	return entry, nil
}

func derivePaymentStatus(order *models.Order) enums.PaymentStatus {
	switch {
	case order.TotalPaidAmount >= order.TotalAmount && order.TotalAmount > 0:
		return enums.PaymentStatusPaid
	case order.TotalPaidAmount > 0:
		return enums.PaymentStatusPartiallyPaid
	default:
		return enums.PaymentStatusUnpaid
	}
}
