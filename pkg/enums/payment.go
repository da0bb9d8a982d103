package enums

import "fmt"

// PaymentStatus is derived from paid vs total amounts on an order.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusPartiallyPaid,
	PaymentStatusPaid,
	PaymentStatusRefunded,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// PaymentType classifies a recorded customer payment.
type PaymentType string

const (
	PaymentTypeDownPayment  PaymentType = "down_payment"
	PaymentTypeFinalPayment PaymentType = "final_payment"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeDownPayment,
	PaymentTypeFinalPayment,
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
