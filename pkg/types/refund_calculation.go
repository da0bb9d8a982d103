package types

import "github.com/ptcex/orderguard-backend/pkg/enums"

// RefundCalculation is the immutable calculation snapshot attached to a
// refund request. Amounts are rupiah; IDR carries no subunit.
type RefundCalculation struct {
	OrderTotal           int64              `json:"orderTotal"`
	CustomerPaidAmount   int64              `json:"customerPaidAmount"`
	VendorCostPaid       int64              `json:"vendorCostPaid"`
	ProductionProgress   int                `json:"productionProgress"`
	RefundReason         enums.RefundReason `json:"refundReason"`
	FaultParty           enums.FaultParty   `json:"faultParty"`
	RefundableToCustomer int64              `json:"refundableToCustomer"`
	VendorRecoverable    int64              `json:"vendorRecoverable"`
	CompanyLoss          int64              `json:"companyLoss"`
	InsuranceCover       int64              `json:"insuranceCover"`
	AppliedRules         []string           `json:"appliedRules"`
}

// NetCompanyImpact is the gross company-side damage before insurance:
// the fund is company money, so cover does not reduce the impact used
// for approval routing.
func (c RefundCalculation) NetCompanyImpact() int64 {
	return c.CompanyLoss + c.InsuranceCover
}
