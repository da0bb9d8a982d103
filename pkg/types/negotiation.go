package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// NegotiationOffer is one round of a vendor negotiation. Offers are
// append-only; amendments create a new round.
type NegotiationOffer struct {
	Round     int       `json:"round"`
	Party     string    `json:"party"`
	Amount    int64     `json:"amount"`
	Note      string    `json:"note,omitempty"`
	OfferedAt time.Time `json:"offeredAt"`
}

// NegotiationOffers is the JSONB offer log on a negotiation row.
type NegotiationOffers []NegotiationOffer

// NegotiationSummary is the denormalized view embedded on the order.
type NegotiationSummary struct {
	NegotiationID     *uuid.UUID              `json:"negotiationId,omitempty"`
	VendorID          *uuid.UUID              `json:"vendorId,omitempty"`
	Status            enums.NegotiationStatus `json:"status,omitempty"`
	LatestOfferAmount *int64                  `json:"latestOfferAmount,omitempty"`
	RoundCount        int                     `json:"roundCount,omitempty"`
	UpdatedAt         *time.Time              `json:"updatedAt,omitempty"`
}
