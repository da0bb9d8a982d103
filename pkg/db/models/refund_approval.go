package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// RefundApproval is one decision at one level. Append-only; re-deciding a
// level after a needs_information round creates a new row.
type RefundApproval struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RefundRequestID uuid.UUID              `gorm:"column:refund_request_id;type:uuid;not null;index"`
	ApproverID      uuid.UUID              `gorm:"column:approver_id;type:uuid;not null"`
	ApprovalLevel   int                    `gorm:"column:approval_level;not null"`
	Decision        enums.ApprovalDecision `gorm:"column:decision;type:text;not null"`
	DecisionNotes   *string                `gorm:"column:decision_notes"`
	AdjustedAmount  *int64                 `gorm:"column:adjusted_amount"`
	DecidedAt       time.Time              `gorm:"column:decided_at;not null"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
}
