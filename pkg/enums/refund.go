package enums

import "fmt"

// RefundReason maps to the refund_reason enum in Postgres.
type RefundReason string

const (
	RefundReasonCustomerRequest RefundReason = "customer_request"
	RefundReasonQualityIssue    RefundReason = "quality_issue"
	RefundReasonVendorFailure   RefundReason = "vendor_failure"
	RefundReasonTimelineDelay   RefundReason = "timeline_delay"
	RefundReasonProductionError RefundReason = "production_error"
	RefundReasonShippingDamage  RefundReason = "shipping_damage"
	RefundReasonOther           RefundReason = "other"
)

var validRefundReasons = []RefundReason{
	RefundReasonCustomerRequest,
	RefundReasonQualityIssue,
	RefundReasonVendorFailure,
	RefundReasonTimelineDelay,
	RefundReasonProductionError,
	RefundReasonShippingDamage,
	RefundReasonOther,
}

// String implements fmt.Stringer.
func (r RefundReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundReason.
func (r RefundReason) IsValid() bool {
	for _, candidate := range validRefundReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundReason converts raw input into a RefundReason.
func ParseRefundReason(value string) (RefundReason, error) {
	for _, candidate := range validRefundReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund reason %q", value)
}

// FaultParty records who the calculator attributed the failure to.
type FaultParty string

const (
	FaultPartyCustomer FaultParty = "customer"
	FaultPartyVendor   FaultParty = "vendor"
	FaultPartyCompany  FaultParty = "company"
	FaultPartyExternal FaultParty = "external"
	FaultPartyUnknown  FaultParty = "unknown"
)

var validFaultParties = []FaultParty{
	FaultPartyCustomer,
	FaultPartyVendor,
	FaultPartyCompany,
	FaultPartyExternal,
	FaultPartyUnknown,
}

// String implements fmt.Stringer.
func (f FaultParty) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FaultParty.
func (f FaultParty) IsValid() bool {
	for _, candidate := range validFaultParties {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFaultParty converts raw input into a FaultParty.
func ParseFaultParty(value string) (FaultParty, error) {
	for _, candidate := range validFaultParties {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fault party %q", value)
}

// RefundRequestStatus is the approval workflow state of a refund request.
type RefundRequestStatus string

const (
	RefundRequestStatusPendingFinance   RefundRequestStatus = "pending_finance"
	RefundRequestStatusPendingManager   RefundRequestStatus = "pending_manager"
	RefundRequestStatusPendingExecutive RefundRequestStatus = "pending_executive"
	RefundRequestStatusApproved         RefundRequestStatus = "approved"
	RefundRequestStatusRejected         RefundRequestStatus = "rejected"
	RefundRequestStatusNeedsInformation RefundRequestStatus = "needs_information"
)

var validRefundRequestStatuses = []RefundRequestStatus{
	RefundRequestStatusPendingFinance,
	RefundRequestStatusPendingManager,
	RefundRequestStatusPendingExecutive,
	RefundRequestStatusApproved,
	RefundRequestStatusRejected,
	RefundRequestStatusNeedsInformation,
}

// String implements fmt.Stringer.
func (s RefundRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RefundRequestStatus.
func (s RefundRequestStatus) IsValid() bool {
	for _, candidate := range validRefundRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsPending reports whether the request is waiting on an approver decision.
func (s RefundRequestStatus) IsPending() bool {
	switch s {
	case RefundRequestStatusPendingFinance, RefundRequestStatusPendingManager, RefundRequestStatusPendingExecutive:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the workflow has finished.
func (s RefundRequestStatus) IsTerminal() bool {
	return s == RefundRequestStatusApproved || s == RefundRequestStatusRejected
}

// ParseRefundRequestStatus converts raw input into a RefundRequestStatus.
func ParseRefundRequestStatus(value string) (RefundRequestStatus, error) {
	for _, candidate := range validRefundRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund request status %q", value)
}

// PendingStatusForLevel maps an approval level to its pending workflow status.
func PendingStatusForLevel(level int) (RefundRequestStatus, error) {
	switch level {
	case 1:
		return RefundRequestStatusPendingFinance, nil
	case 2:
		return RefundRequestStatusPendingManager, nil
	case 3:
		return RefundRequestStatusPendingExecutive, nil
	default:
		return "", fmt.Errorf("invalid approval level %d", level)
	}
}

// ApprovalDecision is an approver's verdict at a single level.
type ApprovalDecision string

const (
	ApprovalDecisionApproved  ApprovalDecision = "approved"
	ApprovalDecisionRejected  ApprovalDecision = "rejected"
	ApprovalDecisionNeedsInfo ApprovalDecision = "needs_info"
)

var validApprovalDecisions = []ApprovalDecision{
	ApprovalDecisionApproved,
	ApprovalDecisionRejected,
	ApprovalDecisionNeedsInfo,
}

// String implements fmt.Stringer.
func (d ApprovalDecision) String() string {
	return string(d)
}

// IsValid reports whether the value is a known ApprovalDecision.
func (d ApprovalDecision) IsValid() bool {
	for _, candidate := range validApprovalDecisions {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseApprovalDecision converts raw input into an ApprovalDecision.
func ParseApprovalDecision(value string) (ApprovalDecision, error) {
	for _, candidate := range validApprovalDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval decision %q", value)
}
