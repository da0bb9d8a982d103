package refunds

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

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

type orderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type insuranceFund interface {
	Balance(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Withdraw(ctx context.Context, tx *gorm.DB, request *models.RefundRequest, amount int64) (*models.LedgerTransaction, error)
}

// CreateRequestInput opens a refund request against an order.
type CreateRequestInput struct {
	OrderID                uuid.UUID
	Reason                 enums.RefundReason
	QualityIssuePercentage *int
	DelayDays              *int
	CustomerRequestAmount  *int64
	FaultPartyOverride     *enums.FaultParty
	RequestedBy            uuid.UUID
}

// ApprovalInput is one approver's decision at the request's current level.
type ApprovalInput struct {
	RefundRequestID uuid.UUID
	ApproverID      uuid.UUID
	ApproverTenant  uuid.UUID
	Decision        enums.ApprovalDecision
	Notes           *string
	AdjustedAmount  *int64
}

// Service runs the refund lifecycle: calculation, approval workflow, and the
// insurance-fund withdrawal once the final level approves.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*models.RefundRequest, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error)
	GetRequestByNumber(ctx context.Context, requestNumber string) (*models.RefundRequest, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error)
	ProcessApproval(ctx context.Context, input ApprovalInput) (*models.RefundApproval, error)
	Resubmit(ctx context.Context, requestID uuid.UUID) (*models.RefundRequest, error)
	WorkflowStatus(ctx context.Context, requestID uuid.UUID) (*WorkflowStatus, error)
}

type service struct {
	repo      Repository
	orders    orderReader
	fund      insuranceFund
	approvers ApproverDirectory
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds the refund service with the required dependencies.
func NewService(repo Repository, orders orderReader, fund insuranceFund, approvers ApproverDirectory, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("refund repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if fund == nil {
		return nil, fmt.Errorf("insurance fund service required")
	}
	if approvers == nil {
		return nil, fmt.Errorf("approver directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		orders:    orders,
		fund:      fund,
		approvers: approvers,
		tx:        tx,
		outbox:    publisher,
	}, nil
}

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.RefundRequest, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}

	request := &models.RefundRequest{
		ID:                     uuid.New(),
		TenantID:               order.TenantID,
		OrderID:                order.ID,
		RequestNumber:          newRequestNumber(),
		Reason:                 input.Reason,
		QualityIssuePercentage: input.QualityIssuePercentage,
		DelayDays:              input.DelayDays,
		CustomerRequestAmount:  input.CustomerRequestAmount,
		FaultPartyOverride:     input.FaultPartyOverride,
		RequestedBy:            input.RequestedBy,
		RequestedAt:            time.Now(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		balance, err := s.fund.Balance(ctx, order.TenantID)
		if err != nil {
			return err
		}

		calc := Calculate(order, request, balance)
		if violations := ValidateCalculation(calc); len(violations) > 0 {
			return apperrors.New(apperrors.CodeCalculationInvariant, "refund calculation violates invariants").
				WithDetails(violations)
		}
		request.Calculation = calc

		required := DetermineRequiredLevels(calc, request)
		if err := s.assignLevel(ctx, request, required[0]); err != nil {
			return err
		}

		if err := s.repo.WithTx(tx).CreateRequest(ctx, request); err != nil {
			if db.IsUniqueViolation(err, "ux_refund_requests_request_number") {
				return apperrors.Wrap(apperrors.CodeConflict, err, "refund request number already taken")
			}
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundRequestCreated,
			AggregateType: enums.AggregateRefundRequest,
			AggregateID:   request.ID,
			Actor:         actorFor(input.RequestedBy, request.TenantID),
			Data: payloads.RefundRequestCreatedEvent{
				RefundRequestID: request.ID,
				OrderID:         request.OrderID,
				TenantID:        request.TenantID,
				Reason:          request.Reason,
				RefundAmount:    calc.RefundableToCustomer,
				Status:          request.Status,
				RequiredLevels:  required,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) GetRequest(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "refund request not found")
	}
	return request, nil
}

func (s *service) GetRequestByNumber(ctx context.Context, requestNumber string) (*models.RefundRequest, error) {
	request, err := s.repo.GetRequestByNumber(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "refund request not found")
	}
	return request, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error) {
	return s.repo.ListRequestsByOrder(ctx, orderID)
}

// ProcessApproval records one decision and advances the workflow. The final
// approval stamps the request, clears the approver, and withdraws the
// calculated insurance cover from the fund in the same transaction.
func (s *service) ProcessApproval(ctx context.Context, input ApprovalInput) (*models.RefundApproval, error) {
	if !input.Decision.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid approval decision %q", input.Decision))
	}
	if input.AdjustedAmount != nil && *input.AdjustedAmount < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "adjusted amount must be non-negative")
	}

	var approval *models.RefundApproval
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.GetRequest(ctx, input.RefundRequestID)
		if err != nil {
			return err
		}
		if request == nil {
			return apperrors.New(apperrors.CodeNotFound, "refund request not found")
		}
		if err := canApprove(request, input); err != nil {
			return err
		}

		level, err := levelForStatus(request.Status)
		if err != nil {
			return err
		}

		approval = &models.RefundApproval{
			ID:              uuid.New(),
			RefundRequestID: request.ID,
			ApproverID:      input.ApproverID,
			ApprovalLevel:   level,
			Decision:        input.Decision,
			DecisionNotes:   input.Notes,
			AdjustedAmount:  input.AdjustedAmount,
			DecidedAt:       time.Now(),
		}
		if err := repo.CreateApproval(ctx, approval); err != nil {
			return err
		}

		switch input.Decision {
		case enums.ApprovalDecisionApproved:
			err = s.applyApproved(ctx, tx, repo, request, approval, input)
		case enums.ApprovalDecisionRejected:
			err = s.haltWorkflow(ctx, tx, repo, request, approval, input, enums.RefundRequestStatusRejected, enums.EventRefundApprovalRejected)
		case enums.ApprovalDecisionNeedsInfo:
			err = s.haltWorkflow(ctx, tx, repo, request, approval, input, enums.RefundRequestStatusNeedsInformation, enums.EventRefundRequestNeedsInformation)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return approval, nil
}

func (s *service) applyApproved(ctx context.Context, tx *gorm.DB, repo Repository, request *models.RefundRequest, approval *models.RefundApproval, input ApprovalInput) error {
	required := DetermineRequiredLevels(request.Calculation, request)

	if approval.ApprovalLevel >= maxLevel(required) {
		now := time.Now()
		request.Status = enums.RefundRequestStatusApproved
		request.ApprovedAt = &now
		request.CurrentApproverID = nil
		if err := repo.UpdateRequest(ctx, request); err != nil {
			return err
		}

		if cover := request.Calculation.InsuranceCover; cover > 0 {
			if _, err := s.fund.Withdraw(ctx, tx, request, cover); err != nil {
				return err
			}
		}

		refundAmount := request.Calculation.RefundableToCustomer
		if input.AdjustedAmount != nil {
			refundAmount = *input.AdjustedAmount
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundRequestCompleted,
			AggregateType: enums.AggregateRefundRequest,
			AggregateID:   request.ID,
			Actor:         actorFor(input.ApproverID, request.TenantID),
			Data: payloads.RefundRequestCompletedEvent{
				RefundRequestID: request.ID,
				OrderID:         request.OrderID,
				TenantID:        request.TenantID,
				RefundAmount:    refundAmount,
				InsuranceCover:  request.Calculation.InsuranceCover,
				ApprovedAt:      now,
			},
			Version: 1,
		})
	}

	next, err := nextLevelAfter(required, approval.ApprovalLevel)
	if err != nil {
		return err
	}
	if err := s.assignLevel(ctx, request, next); err != nil {
		return err
	}
	if err := repo.UpdateRequest(ctx, request); err != nil {
		return err
	}
	return s.emitDecision(ctx, tx, request, approval, input, enums.EventRefundApprovalGranted)
}

// haltWorkflow covers rejected and needs-information outcomes; both clear
// the current approver, only rejection is terminal.
func (s *service) haltWorkflow(ctx context.Context, tx *gorm.DB, repo Repository, request *models.RefundRequest, approval *models.RefundApproval, input ApprovalInput, status enums.RefundRequestStatus, eventType enums.OutboxEventType) error {
	request.Status = status
	request.CurrentApproverID = nil
	if err := repo.UpdateRequest(ctx, request); err != nil {
		return err
	}
	return s.emitDecision(ctx, tx, request, approval, input, eventType)
}

// Resubmit re-enters a needs-information request into the workflow with a
// recomputed calculation, as if it were freshly initialized.
func (s *service) Resubmit(ctx context.Context, requestID uuid.UUID) (*models.RefundRequest, error) {
	var request *models.RefundRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		request, err = repo.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if request == nil {
			return apperrors.New(apperrors.CodeNotFound, "refund request not found")
		}
		if request.Status != enums.RefundRequestStatusNeedsInformation {
			return apperrors.New(apperrors.CodeStateConflict, "only needs-information requests can be resubmitted")
		}

		order, err := s.orders.GetByID(ctx, request.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, "order not found")
		}

		balance, err := s.fund.Balance(ctx, request.TenantID)
		if err != nil {
			return err
		}

		calc := Calculate(order, request, balance)
		if violations := ValidateCalculation(calc); len(violations) > 0 {
			return apperrors.New(apperrors.CodeCalculationInvariant, "refund calculation violates invariants").
				WithDetails(violations)
		}
		request.Calculation = calc

		required := DetermineRequiredLevels(calc, request)
		if err := s.assignLevel(ctx, request, required[0]); err != nil {
			return err
		}
		if err := repo.UpdateRequest(ctx, request); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundRequestResubmitted,
			AggregateType: enums.AggregateRefundRequest,
			AggregateID:   request.ID,
			Actor:         actorFor(request.RequestedBy, request.TenantID),
			Data: payloads.RefundRequestResubmittedEvent{
				RefundRequestID: request.ID,
				OrderID:         request.OrderID,
				TenantID:        request.TenantID,
				Status:          request.Status,
				RequiredLevels:  required,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) WorkflowStatus(ctx context.Context, requestID uuid.UUID) (*WorkflowStatus, error) {
	request, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	approvals, err := s.repo.ListApprovals(ctx, requestID)
	if err != nil {
		return nil, err
	}
	required := DetermineRequiredLevels(request.Calculation, request)
	return buildWorkflowStatus(request, approvals, required), nil
}

// assignLevel moves the request into the pending status for level and
// resolves its approver.
func (s *service) assignLevel(ctx context.Context, request *models.RefundRequest, level int) error {
	status, err := enums.PendingStatusForLevel(level)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "resolving pending status")
	}
	approverID, err := s.approvers.ApproverForLevel(ctx, request.TenantID, level)
	if err != nil {
		return err
	}
	request.Status = status
	request.CurrentApproverID = &approverID
	return nil
}

func (s *service) emitDecision(ctx context.Context, tx *gorm.DB, request *models.RefundRequest, approval *models.RefundApproval, input ApprovalInput, eventType enums.OutboxEventType) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateRefundRequest,
		AggregateID:   request.ID,
		Actor:         actorFor(input.ApproverID, request.TenantID),
		Data: payloads.RefundApprovalDecisionEvent{
			RefundRequestID: request.ID,
			OrderID:         request.OrderID,
			TenantID:        request.TenantID,
			ApproverID:      approval.ApproverID,
			ApprovalLevel:   approval.ApprovalLevel,
			Decision:        approval.Decision,
			Status:          request.Status,
			AdjustedAmount:  approval.AdjustedAmount,
		},
		Version: 1,
	})
}

func canApprove(request *models.RefundRequest, input ApprovalInput) error {
	if !request.Status.IsPending() {
		return apperrors.New(apperrors.CodeNotAuthorizedApprove, "refund request is not awaiting approval")
	}
	if request.CurrentApproverID == nil || *request.CurrentApproverID != input.ApproverID {
		return apperrors.New(apperrors.CodeNotAuthorizedApprove, "user is not the assigned approver")
	}
	if request.TenantID != input.ApproverTenant {
		return apperrors.New(apperrors.CodeNotAuthorizedApprove, "approver belongs to a different tenant")
	}
	return nil
}

func validateCreateInput(input CreateRequestInput) error {
	if input.OrderID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "order id required")
	}
	if input.RequestedBy == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "requester id required")
	}
	if !input.Reason.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid refund reason %q", input.Reason))
	}
	if input.QualityIssuePercentage != nil && (*input.QualityIssuePercentage < 0 || *input.QualityIssuePercentage > 100) {
		return apperrors.New(apperrors.CodeValidation, "quality issue percentage must be between 0 and 100")
	}
	if input.DelayDays != nil && *input.DelayDays < 0 {
		return apperrors.New(apperrors.CodeValidation, "delay days must be non-negative")
	}
	if input.CustomerRequestAmount != nil && *input.CustomerRequestAmount <= 0 {
		return apperrors.New(apperrors.CodeInvalidAmount, "customer requested amount must be positive")
	}
	if input.FaultPartyOverride != nil && !input.FaultPartyOverride.IsValid() {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid fault party %q", *input.FaultPartyOverride))
	}
	return nil
}

func newRequestNumber() string {
	return fmt.Sprintf("RFD-%s-%05d", time.Now().Format("20060102"), rand.IntN(100000))
}

func actorFor(userID, tenantID uuid.UUID) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: userID, TenantID: &tenantID}
}
