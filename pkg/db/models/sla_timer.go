package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// SlaTimer is a scheduled SLA callback. Delivery is at-least-once: the
// idempotency key dedupes scheduling and the handler revalidates that the
// order's active window still matches before acting.
type SlaTimer struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null"`
	OrderID          uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null"`
	EscalationIndex  *int              `gorm:"column:escalation_index"`
	IsThresholdCheck bool              `gorm:"column:is_threshold_check;not null"`
	WindowStartedAt  time.Time         `gorm:"column:window_started_at;not null"`
	RunAt            time.Time         `gorm:"column:run_at;not null;index"`
	ProcessedAt      *time.Time        `gorm:"column:processed_at"`
	IdempotencyKey   string            `gorm:"column:idempotency_key;not null;uniqueIndex"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
}
