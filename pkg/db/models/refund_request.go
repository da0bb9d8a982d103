package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

// RefundRequest carries a refund through the approval workflow. The
// calculation snapshot is immutable once an approval references it; a
// resubmission after needs_information attaches a fresh snapshot.
type RefundRequest struct {
	ID                     uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID               uuid.UUID                 `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderID                uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	RequestNumber          string                    `gorm:"column:request_number;not null;uniqueIndex"`
	Reason                 enums.RefundReason        `gorm:"column:reason;type:text;not null"`
	QualityIssuePercentage *int                      `gorm:"column:quality_issue_percentage"`
	DelayDays              *int                      `gorm:"column:delay_days"`
	CustomerRequestAmount  *int64                    `gorm:"column:customer_request_amount"`
	FaultPartyOverride     *enums.FaultParty         `gorm:"column:fault_party_override;type:text"`
	Calculation            types.RefundCalculation   `gorm:"column:calculation;type:jsonb;serializer:json"`
	Status                 enums.RefundRequestStatus `gorm:"column:status;type:text;not null"`
	CurrentApproverID      *uuid.UUID                `gorm:"column:current_approver_id;type:uuid"`
	RequestedBy            uuid.UUID                 `gorm:"column:requested_by;type:uuid;not null"`
	RequestedAt            time.Time                 `gorm:"column:requested_at;not null"`
	ApprovedAt             *time.Time                `gorm:"column:approved_at"`
	CreatedAt              time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
