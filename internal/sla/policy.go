package sla

import (
	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// EscalationStep is one rung of a policy's escalation ladder.
type EscalationStep struct {
	Role         string
	Channel      enums.EscalationChannel
	AfterMinutes int
}

// Policy is the monitoring contract for one order status: how long the order
// may sit there, and who hears about it when it overstays.
type Policy struct {
	ThresholdMinutes int
	Escalations      []EscalationStep
}

// Operational SLAs per monitored status. Statuses absent from this table
// (draft, terminal states, payment sub-states) are not monitored.
var policies = map[enums.OrderStatus]Policy{
	enums.OrderStatusVendorSourcing: {
		ThresholdMinutes: 240,
		Escalations: []EscalationStep{
			{Role: "procurement_lead", Channel: enums.EscalationChannelSlack, AfterMinutes: 240},
			{Role: "operations_manager", Channel: enums.EscalationChannelEmail, AfterMinutes: 360},
		},
	},
	enums.OrderStatusVendorNegotiation: {
		ThresholdMinutes: 720,
		Escalations: []EscalationStep{
			{Role: "procurement_manager", Channel: enums.EscalationChannelSlack, AfterMinutes: 720},
			{Role: "general_manager", Channel: enums.EscalationChannelEmail, AfterMinutes: 960},
		},
	},
	enums.OrderStatusCustomerQuote: {
		ThresholdMinutes: 1440,
		Escalations: []EscalationStep{
			{Role: "sales_lead", Channel: enums.EscalationChannelEmail, AfterMinutes: 1440},
			{Role: "operations_manager", Channel: enums.EscalationChannelSlack, AfterMinutes: 2160},
		},
	},
	enums.OrderStatusAwaitingPayment: {
		ThresholdMinutes: 4320,
		Escalations: []EscalationStep{
			{Role: "finance_team", Channel: enums.EscalationChannelEmail, AfterMinutes: 4320},
		},
	},
	enums.OrderStatusInProduction: {
		ThresholdMinutes: 2880,
		Escalations: []EscalationStep{
			{Role: "production_manager", Channel: enums.EscalationChannelSlack, AfterMinutes: 2880},
			{Role: "operations_manager", Channel: enums.EscalationChannelEmail, AfterMinutes: 4320},
		},
	},
	enums.OrderStatusQualityControl: {
		ThresholdMinutes: 720,
		Escalations: []EscalationStep{
			{Role: "qa_lead", Channel: enums.EscalationChannelSlack, AfterMinutes: 720},
		},
	},
	enums.OrderStatusShipping: {
		ThresholdMinutes: 2880,
		Escalations: []EscalationStep{
			{Role: "logistics_manager", Channel: enums.EscalationChannelEmail, AfterMinutes: 2880},
			{Role: "operations_manager", Channel: enums.EscalationChannelSlack, AfterMinutes: 4320},
		},
	},
}

// PolicyFor returns the SLA policy for a status, if it is monitored.
func PolicyFor(status enums.OrderStatus) (Policy, bool) {
	policy, ok := policies[status]
	return policy, ok
}
