package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusDraft             OrderStatus = "draft"
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusVendorSourcing    OrderStatus = "vendor_sourcing"
	OrderStatusVendorNegotiation OrderStatus = "vendor_negotiation"
	OrderStatusCustomerQuote     OrderStatus = "customer_quote"
	OrderStatusAwaitingPayment   OrderStatus = "awaiting_payment"
	OrderStatusPartialPayment    OrderStatus = "partial_payment"
	OrderStatusFullPayment       OrderStatus = "full_payment"
	OrderStatusInProduction      OrderStatus = "in_production"
	OrderStatusQualityControl    OrderStatus = "quality_control"
	OrderStatusShipping          OrderStatus = "shipping"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusDraft,
	OrderStatusPending,
	OrderStatusVendorSourcing,
	OrderStatusVendorNegotiation,
	OrderStatusCustomerQuote,
	OrderStatusAwaitingPayment,
	OrderStatusPartialPayment,
	OrderStatusFullPayment,
	OrderStatusInProduction,
	OrderStatusQualityControl,
	OrderStatusShipping,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// orderTransitions is the static adjacency table for the order lifecycle.
// Quality control may bounce back to production for rework; negotiation may
// return to sourcing when a vendor falls through.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:             {OrderStatusPending, OrderStatusCancelled},
	OrderStatusPending:           {OrderStatusVendorSourcing, OrderStatusCancelled},
	OrderStatusVendorSourcing:    {OrderStatusVendorNegotiation, OrderStatusCancelled},
	OrderStatusVendorNegotiation: {OrderStatusCustomerQuote, OrderStatusVendorSourcing, OrderStatusCancelled},
	OrderStatusCustomerQuote:     {OrderStatusAwaitingPayment, OrderStatusCancelled},
	OrderStatusAwaitingPayment:   {OrderStatusPartialPayment, OrderStatusFullPayment, OrderStatusCancelled},
	OrderStatusPartialPayment:    {OrderStatusFullPayment, OrderStatusInProduction, OrderStatusRefunded, OrderStatusCancelled},
	OrderStatusFullPayment:       {OrderStatusInProduction, OrderStatusRefunded, OrderStatusCancelled},
	OrderStatusInProduction:      {OrderStatusQualityControl, OrderStatusRefunded},
	OrderStatusQualityControl:    {OrderStatusShipping, OrderStatusInProduction, OrderStatusRefunded},
	OrderStatusShipping:          {OrderStatusCompleted, OrderStatusRefunded},
	OrderStatusCompleted:         {OrderStatusRefunded},
	OrderStatusCancelled:         {},
	OrderStatusRefunded:          {},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo consults the adjacency table. Self-transitions are
// always rejected.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s == target {
		return false
	}
	for _, candidate := range orderTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the adjacent statuses in table order.
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	allowed := orderTransitions[s]
	out := make([]OrderStatus, len(allowed))
	copy(out, allowed)
	return out
}

// ProductionProgress returns the percentage of production completed implied
// by the status, used by the refund calculator.
func (s OrderStatus) ProductionProgress() int {
	switch s {
	case OrderStatusPartialPayment, OrderStatusFullPayment:
		return 10
	case OrderStatusInProduction:
		return 50
	case OrderStatusQualityControl:
		return 80
	case OrderStatusShipping:
		return 90
	case OrderStatusCompleted:
		return 100
	default:
		return 0
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
