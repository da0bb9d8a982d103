package enums

import "fmt"

// NegotiationStatus tracks the lifecycle of a vendor negotiation.
type NegotiationStatus string

const (
	NegotiationStatusActive    NegotiationStatus = "active"
	NegotiationStatusAgreed    NegotiationStatus = "agreed"
	NegotiationStatusAbandoned NegotiationStatus = "abandoned"
)

var validNegotiationStatuses = []NegotiationStatus{
	NegotiationStatusActive,
	NegotiationStatusAgreed,
	NegotiationStatusAbandoned,
}

// String implements fmt.Stringer.
func (s NegotiationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known NegotiationStatus.
func (s NegotiationStatus) IsValid() bool {
	for _, candidate := range validNegotiationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseNegotiationStatus converts raw input into a NegotiationStatus.
func ParseNegotiationStatus(value string) (NegotiationStatus, error) {
	for _, candidate := range validNegotiationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid negotiation status %q", value)
}

// TenantStatus gates whether a tenant can take new financial operations.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

var validTenantStatuses = []TenantStatus{
	TenantStatusActive,
	TenantStatusSuspended,
}

// String implements fmt.Stringer.
func (s TenantStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TenantStatus.
func (s TenantStatus) IsValid() bool {
	for _, candidate := range validTenantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTenantStatus converts raw input into a TenantStatus.
func ParseTenantStatus(value string) (TenantStatus, error) {
	for _, candidate := range validTenantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tenant status %q", value)
}
