package insurancefund

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/internal/ledger"
	"github.com/ptcex/orderguard-backend/internal/tenants"
	"github.com/ptcex/orderguard-backend/pkg/config"
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

// HealthStatus grades the fund's runway.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusCaution  HealthStatus = "caution"
	HealthStatusWarning  HealthStatus = "warning"
	HealthStatusCritical HealthStatus = "critical"
)

// HealthAssessment projects fund depletion from the trailing 6-month burn.
type HealthAssessment struct {
	TenantID             uuid.UUID    `json:"tenantId"`
	Balance              int64        `json:"balance"`
	MinimumBalance       int64        `json:"minimumBalance"`
	MonthlyBurnRate      int64        `json:"monthlyBurnRate"`
	MonthsUntilDepletion *float64     `json:"monthsUntilDepletion,omitempty"`
	Status               HealthStatus `json:"status"`
	Recommendations      []string     `json:"recommendations"`
}

// Statistics aggregates fund movement over a period.
type Statistics struct {
	TenantID          uuid.UUID `json:"tenantId"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	ContributionTotal int64     `json:"contributionTotal"`
	ContributionCount int64     `json:"contributionCount"`
	WithdrawalTotal   int64     `json:"withdrawalTotal"`
	WithdrawalCount   int64     `json:"withdrawalCount"`
	NetChange         int64     `json:"netChange"`
	EndingBalance     int64     `json:"endingBalance"`
}

// TopUpInput is a manual fund contribution outside the per-order flow.
type TopUpInput struct {
	TenantID    uuid.UUID
	Amount      int64
	Description string
	Actor       *outbox.ActorRef
}

// Service wraps the insurance-fund ledger scope with domain semantics.
type Service interface {
	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ContributeForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.LedgerTransaction, error)
	TopUp(ctx context.Context, input TopUpInput) (*models.LedgerTransaction, error)
	Withdraw(ctx context.Context, tx *gorm.DB, request *models.RefundRequest, amount int64) (*models.LedgerTransaction, error)
	HealthAssessment(ctx context.Context, tenantID uuid.UUID) (*HealthAssessment, error)
	Statistics(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*Statistics, error)
}

type service struct {
	ledger  ledger.Service
	tenants tenants.Service
	tx      txRunner
	outbox  outboxPublisher
	cfg     config.InsuranceConfig
}

// NewService builds the fund service with the required dependencies.
func NewService(ledgerSvc ledger.Service, tenantSvc tenants.Service, tx txRunner, publisher outboxPublisher, cfg config.InsuranceConfig) (Service, error) {
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tenantSvc == nil {
		return nil, fmt.Errorf("tenant service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		ledger:  ledgerSvc,
		tenants: tenantSvc,
		tx:      tx,
		outbox:  publisher,
		cfg:     cfg,
	}, nil
}

func (s *service) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.ledger.Balance(ctx, tenantID, enums.LedgerScopeInsuranceFund)
}

// ContributeForOrder diverts the tenant's contribution rate share of the
// order total into the fund. A zero-rounded amount is a silent no-op.
func (s *service) ContributeForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (*models.LedgerTransaction, error) {
	if order == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order is required")
	}

	tenant, err := s.tenants.Get(ctx, order.TenantID)
	if err != nil {
		return nil, err
	}
	rate := s.tenants.ContributionRate(tenant)
	amount := decimal.NewFromInt(order.TotalAmount).Mul(rate).IntPart()
	if amount <= 0 {
		return nil, nil
	}

	orderID := order.ID
	entry, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
		TenantID:    order.TenantID,
		Scope:       enums.LedgerScopeInsuranceFund,
		Type:        enums.LedgerTransactionTypeContribution,
		Amount:      amount,
		OrderID:     &orderID,
		Description: fmt.Sprintf("insurance contribution (%s) for order %s", rate.String(), order.OrderNumber),
	})
	if err != nil {
		return nil, err
	}

	if err := s.emitFundEvent(ctx, tx, enums.EventInsuranceContributionRecorded, entry, nil); err != nil {
		return nil, err
	}
	return entry, nil
}

// TopUp records a manual contribution in its own transaction.
func (s *service) TopUp(ctx context.Context, input TopUpInput) (*models.LedgerTransaction, error) {
	if input.TenantID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "top-up amount must be positive")
	}
	if _, err := s.tenants.RequireActive(ctx, input.TenantID); err != nil {
		return nil, err
	}

	description := input.Description
	if description == "" {
		description = "manual insurance fund top-up"
	}

	var entry *models.LedgerTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var appendErr error
		entry, appendErr = s.ledger.Append(ctx, tx, ledger.AppendInput{
			TenantID:    input.TenantID,
			Scope:       enums.LedgerScopeInsuranceFund,
			Type:        enums.LedgerTransactionTypeContribution,
			Amount:      input.Amount,
			Description: description,
		})
		if appendErr != nil {
			return appendErr
		}
		return s.emitFundEvent(ctx, tx, enums.EventInsuranceContributionRecorded, entry, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Withdraw debits the fund to cover a company loss on a refund request.
func (s *service) Withdraw(ctx context.Context, tx *gorm.DB, request *models.RefundRequest, amount int64) (*models.LedgerTransaction, error) {
	if request == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "refund request is required")
	}
	if amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "withdrawal amount must be positive")
	}

	balance, err := s.ledger.Balance(ctx, request.TenantID, enums.LedgerScopeInsuranceFund)
	if err != nil {
		return nil, err
	}
	if amount > balance {
		return nil, apperrors.New(apperrors.CodeInsufficientFunds, fmt.Sprintf("withdrawal %d exceeds fund balance %d", amount, balance))
	}

	requestID := request.ID
	orderID := request.OrderID
	entry, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
		TenantID:        request.TenantID,
		Scope:           enums.LedgerScopeInsuranceFund,
		Type:            enums.LedgerTransactionTypeWithdrawal,
		Amount:          amount,
		OrderID:         &orderID,
		RefundRequestID: &requestID,
		Description:     fmt.Sprintf("insurance cover for refund %s", request.RequestNumber),
	})
	if err != nil {
		return nil, err
	}
	// The advisory lock serializes appends, but a concurrent withdrawal can
	// still land between the balance read and the append when tx is nil.
	if entry.BalanceAfter < 0 {
		return nil, apperrors.New(apperrors.CodeInsufficientFunds, "fund balance went negative")
	}

	if err := s.emitFundEvent(ctx, tx, enums.EventInsuranceWithdrawalRecorded, entry, nil); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) HealthAssessment(ctx context.Context, tenantID uuid.UUID) (*HealthAssessment, error) {
	balance, err := s.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	since := time.Now().AddDate(0, -6, 0)
	withdrawn, err := s.ledger.SumByTypeSince(ctx, tenantID, enums.LedgerScopeInsuranceFund, enums.LedgerTransactionTypeWithdrawal, since)
	if err != nil {
		return nil, err
	}

	assessment := &HealthAssessment{
		TenantID:        tenantID,
		Balance:         balance,
		MinimumBalance:  s.cfg.MinimumBalance,
		MonthlyBurnRate: withdrawn / 6,
	}

	if assessment.MonthlyBurnRate > 0 {
		months := float64(balance) / float64(assessment.MonthlyBurnRate)
		assessment.MonthsUntilDepletion = &months
	}

	switch {
	case balance < s.cfg.MinimumBalance:
		assessment.Status = HealthStatusCritical
		assessment.Recommendations = []string{
			"fund is below the minimum reserve; top up immediately",
			"hold refund approvals that rely on insurance cover",
		}
	case assessment.MonthsUntilDepletion != nil && *assessment.MonthsUntilDepletion < 6:
		assessment.Status = HealthStatusWarning
		assessment.Recommendations = []string{
			"less than six months of runway at the current burn rate",
			"consider raising the tenant contribution rate",
		}
	case assessment.MonthsUntilDepletion != nil && *assessment.MonthsUntilDepletion < 12:
		assessment.Status = HealthStatusCaution
		assessment.Recommendations = []string{
			"monitor withdrawals monthly; runway is under a year",
		}
	default:
		assessment.Status = HealthStatusHealthy
	}

	return assessment, nil
}

func (s *service) Statistics(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*Statistics, error) {
	if !to.After(from) {
		return nil, apperrors.New(apperrors.CodeValidation, "statistics range must end after it starts")
	}

	contributions, err := s.ledger.StatsByTypeBetween(ctx, tenantID, enums.LedgerScopeInsuranceFund, enums.LedgerTransactionTypeContribution, from, to)
	if err != nil {
		return nil, err
	}
	withdrawals, err := s.ledger.StatsByTypeBetween(ctx, tenantID, enums.LedgerScopeInsuranceFund, enums.LedgerTransactionTypeWithdrawal, from, to)
	if err != nil {
		return nil, err
	}
	balance, err := s.Balance(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return &Statistics{
		TenantID:          tenantID,
		From:              from,
		To:                to,
		ContributionTotal: contributions.Total,
		ContributionCount: contributions.Count,
		WithdrawalTotal:   withdrawals.Total,
		WithdrawalCount:   withdrawals.Count,
		NetChange:         contributions.Total - withdrawals.Total,
		EndingBalance:     balance,
	}, nil
}

func (s *service) emitFundEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, entry *models.LedgerTransaction, actor *outbox.ActorRef) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInsuranceFund,
		AggregateID:   entry.TenantID,
		Actor:         actor,
		Data: payloads.InsuranceTransactionEvent{
			TransactionID: entry.ID,
			TenantID:      entry.TenantID,
			OrderID:       entry.OrderID,
			Type:          entry.Type,
			Amount:        entry.Amount,
			BalanceAfter:  entry.BalanceAfter,
		},
		Version: 1,
	})
}
