package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

// Order is the aggregate root for a made-to-order purchase. Amounts are
// rupiah. Orders are never deleted; terminal statuses end the lifecycle.
type Order struct {
	ID                   uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID             uuid.UUID                `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderNumber          string                   `gorm:"column:order_number;not null;uniqueIndex"`
	Status               enums.OrderStatus        `gorm:"column:status;type:text;not null;default:'draft'"`
	TotalAmount          int64                    `gorm:"column:total_amount;not null"`
	QuotationAmount      *int64                   `gorm:"column:quotation_amount"`
	TotalPaidAmount      int64                    `gorm:"column:total_paid_amount;not null;default:0"`
	TotalDisbursedAmount int64                    `gorm:"column:total_disbursed_amount;not null;default:0"`
	PaymentStatus        enums.PaymentStatus      `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	PaymentMethod        *string                  `gorm:"column:payment_method"`
	VendorID             *uuid.UUID               `gorm:"column:vendor_id;type:uuid"`
	TrackingNumber       *string                  `gorm:"column:tracking_number"`
	CancellationReason   *string                  `gorm:"column:cancellation_reason"`
	RefundAmount         *int64                   `gorm:"column:refund_amount"`
	RefundReason         *string                  `gorm:"column:refund_reason"`
	Sla                  types.SlaState           `gorm:"column:sla;type:jsonb;serializer:json"`
	Negotiation          types.NegotiationSummary `gorm:"column:negotiation;type:jsonb;serializer:json"`
	EstimatedDeliveryAt  *time.Time               `gorm:"column:estimated_delivery_at"`
	DownPaymentPaidAt    *time.Time               `gorm:"column:down_payment_paid_at"`
	QuotedAt             *time.Time               `gorm:"column:quoted_at"`
	ShippedAt            *time.Time               `gorm:"column:shipped_at"`
	DeliveredAt          *time.Time               `gorm:"column:delivered_at"`
	CompletedAt          *time.Time               `gorm:"column:completed_at"`
	CancelledAt          *time.Time               `gorm:"column:cancelled_at"`
	RefundedAt           *time.Time               `gorm:"column:refunded_at"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// OutstandingBalance is what the customer still owes.
func (o Order) OutstandingBalance() int64 {
	remaining := o.TotalAmount - o.TotalPaidAmount
	if remaining < 0 {
		return 0
	}
	return remaining
}
