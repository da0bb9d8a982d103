package refunds

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

// Risk thresholds that gate the manager and executive approval levels.
// Amounts are rupiah.
const (
	managerImpactThreshold     int64 = 1_000_000
	managerRefundThreshold     int64 = 3_000_000
	executiveRefundThreshold   int64 = 5_000_000
	executiveImpactThreshold   int64 = 2_000_000
	vendorFailureExecThreshold int64 = 10_000_000

	qualityEscalationPercentage = 80
)

var levelNames = map[int]string{
	1: "finance_review",
	2: "manager_approval",
	3: "executive_approval",
}

func levelName(level int) string {
	if name, ok := levelNames[level]; ok {
		return name
	}
	return "unknown"
}

// DetermineRequiredLevels lists the approval levels a request must pass, in
// ascending order. Finance review is always first.
func DetermineRequiredLevels(calc types.RefundCalculation, request *models.RefundRequest) []int {
	levels := []int{1}
	if requiresManagerApproval(calc, request) {
		levels = append(levels, 2)
	}
	if requiresExecutiveApproval(calc, request) {
		levels = append(levels, 3)
	}
	return levels
}

func requiresManagerApproval(calc types.RefundCalculation, request *models.RefundRequest) bool {
	if calc.FaultParty == enums.FaultPartyCompany {
		return true
	}
	if calc.NetCompanyImpact() > managerImpactThreshold {
		return true
	}
	if request.Reason == enums.RefundReasonQualityIssue &&
		request.QualityIssuePercentage != nil &&
		*request.QualityIssuePercentage >= qualityEscalationPercentage {
		return true
	}
	return calc.RefundableToCustomer > managerRefundThreshold
}

func requiresExecutiveApproval(calc types.RefundCalculation, request *models.RefundRequest) bool {
	if calc.RefundableToCustomer > executiveRefundThreshold {
		return true
	}
	if calc.NetCompanyImpact() > executiveImpactThreshold {
		return true
	}
	return request.Reason == enums.RefundReasonVendorFailure &&
		calc.VendorRecoverable > vendorFailureExecThreshold
}

// nextLevelAfter returns the required level following current.
func nextLevelAfter(required []int, current int) (int, error) {
	for i, level := range required {
		if level == current {
			if i == len(required)-1 {
				return 0, apperrors.New(apperrors.CodeStateConflict, "no approval level after the final one")
			}
			return required[i+1], nil
		}
	}
	return 0, apperrors.New(apperrors.CodeStateConflict, "current approval level is not required for this request")
}

func maxLevel(required []int) int {
	highest := 0
	for _, level := range required {
		if level > highest {
			highest = level
		}
	}
	return highest
}

// levelForStatus is the inverse of enums.PendingStatusForLevel.
func levelForStatus(status enums.RefundRequestStatus) (int, error) {
	switch status {
	case enums.RefundRequestStatusPendingFinance:
		return 1, nil
	case enums.RefundRequestStatusPendingManager:
		return 2, nil
	case enums.RefundRequestStatusPendingExecutive:
		return 3, nil
	default:
		return 0, apperrors.New(apperrors.CodeStateConflict, "request is not awaiting an approval decision")
	}
}

// WorkflowStep is one required approval level and its outcome, if decided.
type WorkflowStep struct {
	Level      int                     `json:"level"`
	LevelName  string                  `json:"levelName"`
	Required   bool                    `json:"required"`
	Completed  bool                    `json:"completed"`
	ApproverID *uuid.UUID              `json:"approverId,omitempty"`
	Decision   *enums.ApprovalDecision `json:"decision,omitempty"`
	DecidedAt  *time.Time              `json:"decidedAt,omitempty"`
	Notes      *string                 `json:"notes,omitempty"`
}

// WorkflowStatus is the read model for a request's progress through the
// approval chain.
type WorkflowStatus struct {
	CurrentStatus        enums.RefundRequestStatus `json:"currentStatus"`
	CurrentApproverID    *uuid.UUID                `json:"currentApproverId,omitempty"`
	CompletionPercentage float64                   `json:"completionPercentage"`
	Steps                []WorkflowStep            `json:"workflowSteps"`
	NextAction           string                    `json:"nextAction"`
}

func buildWorkflowStatus(request *models.RefundRequest, approvals []models.RefundApproval, required []int) *WorkflowStatus {
	grantedByLevel := map[int]*models.RefundApproval{}
	for i := range approvals {
		approval := &approvals[i]
		if approval.Decision == enums.ApprovalDecisionApproved {
			grantedByLevel[approval.ApprovalLevel] = approval
		}
	}

	steps := make([]WorkflowStep, 0, len(required))
	completed := 0
	for _, level := range required {
		step := WorkflowStep{
			Level:     level,
			LevelName: levelName(level),
			Required:  true,
		}
		if approval := grantedByLevel[level]; approval != nil {
			step.Completed = true
			step.ApproverID = &approval.ApproverID
			step.Decision = &approval.Decision
			step.DecidedAt = &approval.DecidedAt
			step.Notes = approval.DecisionNotes
			completed++
		}
		steps = append(steps, step)
	}

	return &WorkflowStatus{
		CurrentStatus:        request.Status,
		CurrentApproverID:    request.CurrentApproverID,
		CompletionPercentage: float64(completed) / float64(len(required)) * 100,
		Steps:                steps,
		NextAction:           nextActionDescription(request, required, grantedByLevel),
	}
}

func nextActionDescription(request *models.RefundRequest, required []int, grantedByLevel map[int]*models.RefundApproval) string {
	switch request.Status {
	case enums.RefundRequestStatusApproved:
		return "Approved - ready for processing"
	case enums.RefundRequestStatusRejected:
		return "Rejected - no further action required"
	case enums.RefundRequestStatusNeedsInformation:
		return "Waiting for the requester to provide additional information"
	}

	for _, level := range required {
		if grantedByLevel[level] == nil {
			return "Waiting for " + levelName(level) + " approval"
		}
	}
	return "Workflow in progress"
}
