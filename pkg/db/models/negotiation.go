package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

// Negotiation is the per-order vendor negotiation with an append-only
// offer log.
type Negotiation struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID          uuid.UUID               `gorm:"column:tenant_id;type:uuid;not null;index"`
	OrderID           uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID          uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null"`
	Status            enums.NegotiationStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Offers            types.NegotiationOffers `gorm:"column:offers;type:jsonb;serializer:json"`
	LatestOfferAmount *int64                  `gorm:"column:latest_offer_amount"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
