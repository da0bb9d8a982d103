package refunds

import (
	"fmt"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

// Applied-rule identifiers recorded on the calculation audit trail.
const (
	ruleAdminCostDeduction    = "pre_production_admin_cost_deduction"
	ruleCustomerPaysIncurred  = "customer_pays_incurred_costs"
	ruleHandlingFee           = "handling_fee_applied"
	ruleRequestedAmountCap    = "customer_requested_amount_capped"
	ruleQualityProportional   = "quality_proportional_refund"
	ruleVendorFullRecovery    = "vendor_failure_full_recovery"
	ruleDelayCompensation     = "timeline_delay_compensation"
	ruleDelayFullRefund       = "full_refund_after_extended_delay"
	ruleProductionError       = "production_error_company_liability"
	ruleConservativeFallback  = "conservative_fallback_split"
	ruleInsuranceCoverage     = "insurance_coverage_applied"
	ruleFaultOverride         = "fault_party_override_applied"
)

const (
	adminFeePercent         = 5
	handlingFeePercent      = 10
	extendedDelayVendorPct  = 80
	shortDelayPercent       = 10
	mediumDelayPercent      = 25
	fallbackRefundPercent   = 80
	fallbackRecoveryPercent = 50
	productionErrorCoverPct = 80

	shortDelayMaxDays  = 7
	mediumDelayMaxDays = 30
)

// FaultPartyFor maps a refund reason to the party the platform holds
// responsible before any override.
func FaultPartyFor(reason enums.RefundReason) enums.FaultParty {
	switch reason {
	case enums.RefundReasonCustomerRequest:
		return enums.FaultPartyCustomer
	case enums.RefundReasonQualityIssue, enums.RefundReasonVendorFailure, enums.RefundReasonTimelineDelay:
		return enums.FaultPartyVendor
	case enums.RefundReasonProductionError:
		return enums.FaultPartyCompany
	case enums.RefundReasonShippingDamage:
		return enums.FaultPartyExternal
	default:
		return enums.FaultPartyUnknown
	}
}

// Calculate produces the financial breakdown for a refund request against an
// order snapshot. It is a pure function: the insurance balance is passed in
// rather than read, and nothing is persisted. Company loss is stored net of
// insurance coverage; NetCompanyImpact recovers the gross figure.
func Calculate(order *models.Order, request *models.RefundRequest, insuranceBalance int64) types.RefundCalculation {
	calc := types.RefundCalculation{
		OrderTotal:         order.TotalAmount,
		CustomerPaidAmount: order.TotalPaidAmount,
		VendorCostPaid:     order.TotalDisbursedAmount,
		ProductionProgress: order.Status.ProductionProgress(),
		RefundReason:       request.Reason,
		FaultParty:         FaultPartyFor(request.Reason),
		AppliedRules:       []string{},
	}

	switch request.Reason {
	case enums.RefundReasonCustomerRequest:
		calculateCustomerRequest(&calc, request)
	case enums.RefundReasonQualityIssue:
		calculateQualityIssue(&calc, request, insuranceBalance)
	case enums.RefundReasonVendorFailure:
		calculateVendorFailure(&calc, insuranceBalance)
	case enums.RefundReasonTimelineDelay:
		calculateTimelineDelay(&calc, request, insuranceBalance)
	case enums.RefundReasonProductionError:
		calculateProductionError(&calc, insuranceBalance)
	default:
		calculateFallback(&calc, insuranceBalance)
	}

	if request.FaultPartyOverride != nil && request.FaultPartyOverride.IsValid() {
		calc.FaultParty = *request.FaultPartyOverride
		calc.AppliedRules = append(calc.AppliedRules, ruleFaultOverride)
	}

	return calc
}

// calculateCustomerRequest charges the customer for costs the platform
// already committed. Pre-production only an admin fee applies; once vendor
// money has moved the customer also covers the disbursement plus handling.
func calculateCustomerRequest(calc *types.RefundCalculation, request *models.RefundRequest) {
	paid := calc.CustomerPaidAmount

	if calc.VendorCostPaid == 0 {
		adminFee := percentOf(calc.OrderTotal, adminFeePercent)
		calc.RefundableToCustomer = clampNonNegative(paid - adminFee)
		calc.AppliedRules = append(calc.AppliedRules, ruleAdminCostDeduction)
	} else {
		handlingFee := percentOf(calc.OrderTotal, handlingFeePercent)
		incurred := calc.VendorCostPaid + handlingFee
		calc.RefundableToCustomer = clampNonNegative(paid - incurred)
		calc.CompanyLoss = clampNonNegative(incurred - paid)
		calc.AppliedRules = append(calc.AppliedRules, ruleCustomerPaysIncurred, ruleHandlingFee)
	}

	if request.CustomerRequestAmount != nil && *request.CustomerRequestAmount < calc.RefundableToCustomer {
		calc.RefundableToCustomer = *request.CustomerRequestAmount
		calc.AppliedRules = append(calc.AppliedRules, ruleRequestedAmountCap)
	}
}

func calculateQualityIssue(calc *types.RefundCalculation, request *models.RefundRequest, insuranceBalance int64) {
	pct := 100
	if request.QualityIssuePercentage != nil {
		pct = *request.QualityIssuePercentage
	}

	calc.RefundableToCustomer = percentOf(calc.CustomerPaidAmount, pct)
	calc.VendorRecoverable = percentOf(calc.VendorCostPaid, pct)
	calc.CompanyLoss = clampNonNegative(calc.RefundableToCustomer - calc.VendorRecoverable)
	calc.AppliedRules = append(calc.AppliedRules, ruleQualityProportional)
	applyInsuranceCoverage(calc, calc.CompanyLoss, insuranceBalance)
}

func calculateVendorFailure(calc *types.RefundCalculation, insuranceBalance int64) {
	calc.RefundableToCustomer = calc.CustomerPaidAmount
	calc.VendorRecoverable = calc.VendorCostPaid
	calc.CompanyLoss = clampNonNegative(calc.RefundableToCustomer - calc.VendorRecoverable)
	calc.AppliedRules = append(calc.AppliedRules, ruleVendorFullRecovery)
	applyInsuranceCoverage(calc, calc.CompanyLoss, insuranceBalance)
}

// calculateTimelineDelay scales compensation with delay severity. Past 30
// days the order is treated as failed: full refund, with the vendor liable
// for most of what they were paid.
func calculateTimelineDelay(calc *types.RefundCalculation, request *models.RefundRequest, insuranceBalance int64) {
	days := 0
	if request.DelayDays != nil {
		days = *request.DelayDays
	}

	switch {
	case days > mediumDelayMaxDays:
		calc.RefundableToCustomer = calc.CustomerPaidAmount
		calc.VendorRecoverable = percentOf(calc.VendorCostPaid, extendedDelayVendorPct)
		calc.AppliedRules = append(calc.AppliedRules, ruleDelayFullRefund)
	case days > shortDelayMaxDays:
		compensation := percentOf(calc.CustomerPaidAmount, mediumDelayPercent)
		calc.RefundableToCustomer = compensation
		calc.VendorRecoverable = compensation
		calc.AppliedRules = append(calc.AppliedRules, ruleDelayCompensation)
	default:
		compensation := percentOf(calc.CustomerPaidAmount, shortDelayPercent)
		calc.RefundableToCustomer = compensation
		calc.VendorRecoverable = compensation
		calc.AppliedRules = append(calc.AppliedRules, ruleDelayCompensation)
	}

	calc.CompanyLoss = clampNonNegative(calc.RefundableToCustomer - calc.VendorRecoverable)
	applyInsuranceCoverage(calc, calc.CompanyLoss, insuranceBalance)
}

// calculateProductionError puts the company at fault: full refund, no vendor
// recovery, and insurance absorbs at most 80% of the loss.
func calculateProductionError(calc *types.RefundCalculation, insuranceBalance int64) {
	calc.RefundableToCustomer = calc.CustomerPaidAmount
	calc.CompanyLoss = calc.CustomerPaidAmount
	calc.AppliedRules = append(calc.AppliedRules, ruleProductionError)
	applyInsuranceCoverage(calc, percentOf(calc.CompanyLoss, productionErrorCoverPct), insuranceBalance)
}

func calculateFallback(calc *types.RefundCalculation, insuranceBalance int64) {
	calc.RefundableToCustomer = percentOf(calc.CustomerPaidAmount, fallbackRefundPercent)
	calc.VendorRecoverable = percentOf(calc.VendorCostPaid, fallbackRecoveryPercent)
	calc.CompanyLoss = clampNonNegative(calc.RefundableToCustomer - calc.VendorRecoverable)
	calc.AppliedRules = append(calc.AppliedRules, ruleConservativeFallback)
	applyInsuranceCoverage(calc, calc.CompanyLoss, insuranceBalance)
}

// applyInsuranceCoverage moves up to coverageCap of the company loss onto the
// fund, bounded by the available balance. CompanyLoss ends up net of cover.
func applyInsuranceCoverage(calc *types.RefundCalculation, coverageCap, insuranceBalance int64) {
	cover := min(coverageCap, calc.CompanyLoss, insuranceBalance)
	if cover <= 0 {
		return
	}
	calc.InsuranceCover = cover
	calc.CompanyLoss -= cover
	calc.AppliedRules = append(calc.AppliedRules, ruleInsuranceCoverage)
}

// ValidateCalculation reports invariant violations on a calculation snapshot.
// Violations are returned for the caller to act on, never auto-corrected.
func ValidateCalculation(calc types.RefundCalculation) []string {
	var violations []string

	if calc.RefundableToCustomer < 0 {
		violations = append(violations, "refundableToCustomer is negative")
	}
	if calc.VendorRecoverable < 0 {
		violations = append(violations, "vendorRecoverable is negative")
	}
	if calc.CompanyLoss < 0 {
		violations = append(violations, "companyLoss is negative")
	}
	if calc.InsuranceCover < 0 {
		violations = append(violations, "insuranceCover is negative")
	}

	if refundCap := percentOf(calc.OrderTotal, 110); calc.RefundableToCustomer > refundCap {
		violations = append(violations, fmt.Sprintf("refundableToCustomer %d exceeds 110%% of order total %d", calc.RefundableToCustomer, calc.OrderTotal))
	}
	if recoveryCap := percentOf(calc.VendorCostPaid, 110); calc.VendorRecoverable > recoveryCap {
		violations = append(violations, fmt.Sprintf("vendorRecoverable %d exceeds 110%% of vendor cost paid %d", calc.VendorRecoverable, calc.VendorCostPaid))
	}
	if calc.InsuranceCover > calc.NetCompanyImpact() {
		violations = append(violations, fmt.Sprintf("insuranceCover %d exceeds company loss %d", calc.InsuranceCover, calc.NetCompanyImpact()))
	}

	return violations
}

func percentOf(amount int64, pct int) int64 {
	return amount * int64(pct) / 100
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
