package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
)

// Service appends to and reads the per-(tenant, scope) balance chains. Every
// monetary movement in the system lands here; rows are immutable once written.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerTransaction, error)
	Balance(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope) (int64, error)
	HistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerTransaction, error)
	RecentByScope(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, limit int) ([]models.LedgerTransaction, error)
	SumByTypeSince(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, since time.Time) (int64, error)
	StatsByTypeBetween(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, from, to time.Time) (TypeStats, error)
}

// AppendInput carries one ledger entry. Amount is always positive; the
// transaction type decides whether it credits or debits the chain.
type AppendInput struct {
	TenantID        uuid.UUID
	Scope           enums.LedgerScope
	Type            enums.LedgerTransactionType
	Amount          int64
	PaymentType     *enums.PaymentType
	OrderID         *uuid.UUID
	RefundRequestID *uuid.UUID
	VendorID        *uuid.UUID
	Description     string
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

var scopeTypes = map[enums.LedgerScope][]enums.LedgerTransactionType{
	enums.LedgerScopePayments: {
		enums.LedgerTransactionTypeIncoming,
		enums.LedgerTransactionTypeOutgoing,
	},
	enums.LedgerScopeInsuranceFund: {
		enums.LedgerTransactionTypeContribution,
		enums.LedgerTransactionTypeWithdrawal,
	},
}

func typeAllowedInScope(scope enums.LedgerScope, txType enums.LedgerTransactionType) bool {
	for _, candidate := range scopeTypes[scope] {
		if candidate == txType {
			return true
		}
	}
	return false
}

// Append writes the next link in the (tenant, scope) chain. When tx is
// non-nil the append runs inside it and serializes against concurrent
// appends with a transaction-scoped advisory lock; the unique index on
// (tenant_id, scope, sequence) backstops anything that slips past the lock.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.LedgerTransaction, error) {
	if input.TenantID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	if !input.Scope.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid ledger scope %q", input.Scope))
	}
	if !input.Type.IsValid() || !typeAllowedInScope(input.Scope, input.Type) {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid transaction type %q for scope %q", input.Type, input.Scope))
	}
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "ledger amount must be positive")
	}
	if input.Description == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "description is required")
	}

	repo := s.repo
	if tx != nil {
		if err := db.AcquireTxAdvisoryLock(tx, input.TenantID, "ledger:"+input.Scope.String()); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeDependency, err, "acquiring ledger lock")
		}
		repo = s.repo.WithTx(tx)
	}

	latest, err := repo.Latest(ctx, input.TenantID, input.Scope)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading chain head")
	}

	var balanceBefore int64
	var sequence int64 = 1
	if latest != nil {
		balanceBefore = latest.BalanceAfter
		sequence = latest.Sequence + 1
	}

	balanceAfter := balanceBefore - input.Amount
	if input.Type.IsCredit() {
		balanceAfter = balanceBefore + input.Amount
	}

	entry := &models.LedgerTransaction{
		ID:              uuid.New(),
		TenantID:        input.TenantID,
		Scope:           input.Scope,
		Sequence:        sequence,
		Type:            input.Type,
		Amount:          input.Amount,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    balanceAfter,
		PaymentType:     input.PaymentType,
		OrderID:         input.OrderID,
		RefundRequestID: input.RefundRequestID,
		VendorID:        input.VendorID,
		Description:     input.Description,
	}

	if err := repo.Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "ux_ledger_chain") {
			return nil, apperrors.Wrap(apperrors.CodeConflict, err, "concurrent ledger append")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "persisting ledger entry")
	}
	return entry, nil
}

// Balance returns the chain head's balance, zero for an empty chain.
func (s *service) Balance(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	if !scope.IsValid() {
		return 0, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid ledger scope %q", scope))
	}
	latest, err := s.repo.Latest(ctx, tenantID, scope)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDependency, err, "loading chain head")
	}
	if latest == nil {
		return 0, nil
	}
	return latest.BalanceAfter, nil
}

func (s *service) HistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerTransaction, error) {
	if orderID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func (s *service) RecentByScope(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, limit int) ([]models.LedgerTransaction, error) {
	if tenantID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	return s.repo.ListByScope(ctx, tenantID, scope, limit)
}

func (s *service) SumByTypeSince(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, since time.Time) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	return s.repo.SumByTypeSince(ctx, tenantID, scope, txType, since)
}

func (s *service) StatsByTypeBetween(ctx context.Context, tenantID uuid.UUID, scope enums.LedgerScope, txType enums.LedgerTransactionType, from, to time.Time) (TypeStats, error) {
	if tenantID == uuid.Nil {
		return TypeStats{}, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	return s.repo.StatsByTypeBetween(ctx, tenantID, scope, txType, from, to)
}
