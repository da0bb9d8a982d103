package enums

import "fmt"

// EscalationChannel is the notification medium for an SLA escalation.
type EscalationChannel string

const (
	EscalationChannelSlack EscalationChannel = "slack"
	EscalationChannelEmail EscalationChannel = "email"
)

var validEscalationChannels = []EscalationChannel{
	EscalationChannelSlack,
	EscalationChannelEmail,
}

// String implements fmt.Stringer.
func (c EscalationChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known EscalationChannel.
func (c EscalationChannel) IsValid() bool {
	for _, candidate := range validEscalationChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseEscalationChannel converts raw input into an EscalationChannel.
func ParseEscalationChannel(value string) (EscalationChannel, error) {
	for _, candidate := range validEscalationChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escalation channel %q", value)
}
