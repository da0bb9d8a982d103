package types

import (
	"time"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// SlaEscalation is one step of an escalation ladder inside an SLA window.
type SlaEscalation struct {
	Level        int                     `json:"level"`
	Role         string                  `json:"role"`
	Channel      enums.EscalationChannel `json:"channel"`
	AfterMinutes int                     `json:"afterMinutes"`
	TriggeredAt  *time.Time              `json:"triggeredAt,omitempty"`
}

// SlaWindow is the monitoring record for one stay in a monitored status.
type SlaWindow struct {
	Status           enums.OrderStatus `json:"status"`
	StartedAt        time.Time         `json:"startedAt"`
	DueAt            time.Time         `json:"dueAt"`
	ThresholdMinutes int               `json:"thresholdMinutes"`
	Escalations      []SlaEscalation   `json:"escalations"`
	Breached         bool              `json:"breached"`
	BreachedAt       *time.Time        `json:"breachedAt,omitempty"`
}

// SlaHistoryEntry archives a closed window. One entry is appended per
// monitored state visited, in visit order.
type SlaHistoryEntry struct {
	SlaWindow
	ClosedAt time.Time `json:"closedAt"`
}

// SlaState is the per-order SLA document persisted as JSONB.
type SlaState struct {
	Active  *SlaWindow        `json:"active,omitempty"`
	History []SlaHistoryEntry `json:"history,omitempty"`
}

// ActiveMatches reports whether the active window tracks the given status
// and started at the given time. Timers carry both so a stale timer for a
// previous visit to the same status is still rejected.
func (s *SlaState) ActiveMatches(status enums.OrderStatus, startedAt time.Time) bool {
	if s == nil || s.Active == nil {
		return false
	}
	return s.Active.Status == status && s.Active.StartedAt.Equal(startedAt)
}
