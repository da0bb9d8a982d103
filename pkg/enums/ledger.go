package enums

import "fmt"

// LedgerScope selects which balance chain a transaction belongs to.
// Each (tenant, scope) pair maintains its own sequence and running balance.
type LedgerScope string

const (
	LedgerScopePayments      LedgerScope = "payments"
	LedgerScopeInsuranceFund LedgerScope = "insurance_fund"
)

var validLedgerScopes = []LedgerScope{
	LedgerScopePayments,
	LedgerScopeInsuranceFund,
}

// String implements fmt.Stringer.
func (s LedgerScope) String() string {
	return string(s)
}

// IsValid reports whether the value is a known LedgerScope.
func (s LedgerScope) IsValid() bool {
	for _, candidate := range validLedgerScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseLedgerScope converts raw input into a LedgerScope.
func ParseLedgerScope(value string) (LedgerScope, error) {
	for _, candidate := range validLedgerScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger scope %q", value)
}

// LedgerTransactionType maps to the ledger_transaction_type enum in
// Postgres. Incoming/outgoing are payment-scope types; contribution and
// withdrawal belong to the insurance fund scope.
type LedgerTransactionType string

const (
	LedgerTransactionTypeIncoming     LedgerTransactionType = "incoming"
	LedgerTransactionTypeOutgoing     LedgerTransactionType = "outgoing"
	LedgerTransactionTypeContribution LedgerTransactionType = "contribution"
	LedgerTransactionTypeWithdrawal   LedgerTransactionType = "withdrawal"
)

var validLedgerTransactionTypes = []LedgerTransactionType{
	LedgerTransactionTypeIncoming,
	LedgerTransactionTypeOutgoing,
	LedgerTransactionTypeContribution,
	LedgerTransactionTypeWithdrawal,
}

// String implements fmt.Stringer.
func (t LedgerTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value matches the canonical transaction type enum.
func (t LedgerTransactionType) IsValid() bool {
	for _, candidate := range validLedgerTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsCredit reports whether the type adds to the running balance.
func (t LedgerTransactionType) IsCredit() bool {
	return t == LedgerTransactionTypeIncoming || t == LedgerTransactionTypeContribution
}

// ParseLedgerTransactionType converts raw input into LedgerTransactionType.
func ParseLedgerTransactionType(value string) (LedgerTransactionType, error) {
	for _, candidate := range validLedgerTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger transaction type %q", value)
}
