package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/internal/ledger"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
)

type fakeLedger struct {
	appends []ledger.AppendInput
	balance int64
	nextSeq int64
}

func (f *fakeLedger) Append(ctx context.Context, tx *gorm.DB, input ledger.AppendInput) (*models.LedgerTransaction, error) {
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "ledger amount must be positive")
	}
	f.appends = append(f.appends, input)
	before := f.balance
	if input.Type.IsCredit() {
		f.balance += input.Amount
	} else {
		f.balance -= input.Amount
	}
	f.nextSeq++
	return &models.LedgerTransaction{
		ID:            uuid.New(),
		TenantID:      input.TenantID,
		Scope:         input.Scope,
		Sequence:      f.nextSeq,
		Type:          input.Type,
		Amount:        input.Amount,
		BalanceBefore: before,
		BalanceAfter:  f.balance,
		PaymentType:   input.PaymentType,
		OrderID:       input.OrderID,
		VendorID:      input.VendorID,
		Description:   input.Description,
	}, nil
}

func (f *fakeLedger) Balance(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope) (int64, error) {
	return f.balance, nil
}

func (f *fakeLedger) HistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerTransaction, error) {
	return nil, nil
}

func (f *fakeLedger) RecentByScope(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, limit int) ([]models.LedgerTransaction, error) {
	return nil, nil
}

func (f *fakeLedger) SumByTypeSince(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeLedger) StatsByTypeBetween(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, from, to time.Time) (ledger.TypeStats, error) {
	return ledger.TypeStats{}, nil
}

func newTestOrder(total, paid int64) *models.Order {
	return &models.Order{
		ID:              uuid.New(),
		TenantID:        uuid.New(),
		OrderNumber:     "ORD-2026-0001",
		Status:          enums.OrderStatusAwaitingPayment,
		TotalAmount:     total,
		TotalPaidAmount: paid,
		PaymentStatus:   enums.PaymentStatusUnpaid,
	}
}

func TestRecordCustomerPaymentPartial(t *testing.T) {
	fl := &fakeLedger{}
	svc, err := NewService(fl)
	require.NoError(t, err)

	order := newTestOrder(10_000_000, 0)
	entry, err := svc.RecordCustomerPayment(context.Background(), nil, order, CustomerPaymentInput{
		Amount: 4_000_000,
		Method: "bank_transfer",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4_000_000), entry.Amount)
	assert.Equal(t, enums.PaymentStatusPartiallyPaid, order.PaymentStatus)
	assert.Equal(t, int64(4_000_000), order.TotalPaidAmount)
	assert.Equal(t, int64(4_000_000), fl.balance, "ledger balance increases by exactly the payment")
	require.NotNil(t, entry.PaymentType)
	assert.Equal(t, enums.PaymentTypeDownPayment, *entry.PaymentType)
	assert.NotNil(t, order.DownPaymentPaidAt, "first down payment is stamped")
	require.NotNil(t, order.PaymentMethod)
	assert.Equal(t, "bank_transfer", *order.PaymentMethod)
}

func TestRecordCustomerPaymentFinalAndClamp(t *testing.T) {
	fl := &fakeLedger{}
	svc, err := NewService(fl)
	require.NoError(t, err)

	order := newTestOrder(10_000_000, 4_000_000)
	stamp := time.Now().Add(-time.Hour)
	order.DownPaymentPaidAt = &stamp

	entry, err := svc.RecordCustomerPayment(context.Background(), nil, order, CustomerPaymentInput{
		Amount: 7_500_000, // more than outstanding, clamp to 6M
	})
	require.NoError(t, err)

	assert.Equal(t, int64(6_000_000), entry.Amount)
	require.NotNil(t, entry.PaymentType)
	assert.Equal(t, enums.PaymentTypeFinalPayment, *entry.PaymentType)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, int64(10_000_000), order.TotalPaidAmount)
	assert.Equal(t, stamp, *order.DownPaymentPaidAt, "existing down payment stamp untouched")
}

func TestRecordCustomerPaymentGuards(t *testing.T) {
	fl := &fakeLedger{}
	svc, err := NewService(fl)
	require.NoError(t, err)
	ctx := context.Background()

	order := newTestOrder(10_000_000, 0)
	_, err = svc.RecordCustomerPayment(ctx, nil, order, CustomerPaymentInput{Amount: 0})
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidAmount, appErr.Code())

	paid := newTestOrder(10_000_000, 10_000_000)
	_, err = svc.RecordCustomerPayment(ctx, nil, paid, CustomerPaymentInput{Amount: 1})
	appErr = apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeAlreadyPaidInFull, appErr.Code())

	assert.Empty(t, fl.appends, "guard failures must not touch the ledger")
}

func TestRecordVendorDisbursement(t *testing.T) {
	fl := &fakeLedger{balance: 10_000_000}
	svc, err := NewService(fl)
	require.NoError(t, err)
	ctx := context.Background()

	order := newTestOrder(10_000_000, 10_000_000)
	_, err = svc.RecordVendorDisbursement(ctx, nil, order, VendorDisbursementInput{Amount: 3_000_000})
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeNoVendorAssigned, appErr.Code())

	vendorID := uuid.New()
	order.VendorID = &vendorID
	entry, err := svc.RecordVendorDisbursement(ctx, nil, order, VendorDisbursementInput{Amount: 3_000_000})
	require.NoError(t, err)
	assert.Equal(t, enums.LedgerTransactionTypeOutgoing, entry.Type)
	require.NotNil(t, entry.VendorID)
	assert.Equal(t, vendorID, *entry.VendorID)
	assert.Equal(t, int64(3_000_000), order.TotalDisbursedAmount)
	assert.Equal(t, int64(7_000_000), fl.balance)

	_, err = svc.RecordVendorDisbursement(ctx, nil, order, VendorDisbursementInput{Amount: -1})
	appErr = apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidAmount, appErr.Code())
}
