package negotiation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

// StartInput opens a negotiation with the bound vendor.
type StartInput struct {
	VendorID     uuid.UUID
	InitialOffer *int64
	Note         string
}

// OfferInput appends one round to the offer log.
type OfferInput struct {
	Party  string
	Amount int64
	Note   string
}

// Service tracks vendor negotiations. Start runs inside the caller's
// transaction and mirrors a summary onto the order; the caller persists
// the order.
type Service interface {
	Start(ctx context.Context, tx *gorm.DB, order *models.Order, input StartInput) (*models.Negotiation, error)
	RecordOffer(ctx context.Context, orderID uuid.UUID, input OfferInput) (*models.Negotiation, error)
	Conclude(ctx context.Context, orderID uuid.UUID, status enums.NegotiationStatus) (*models.Negotiation, error)
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Negotiation, error)
}

type service struct {
	repo Repository
}

// NewService builds the negotiation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("negotiation repository required")
	}
	return &service{repo: repo}, nil
}

// Start opens a negotiation for the order. An existing active negotiation
// is returned as-is rather than duplicated.
func (s *service) Start(ctx context.Context, tx *gorm.DB, order *models.Order, input StartInput) (*models.Negotiation, error) {
	if order == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "order is required")
	}
	if input.VendorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeNoVendorAssigned, "negotiation requires a vendor")
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.GetByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == enums.NegotiationStatusActive {
		applySummary(order, existing)
		return existing, nil
	}

	now := time.Now()
	negotiation := &models.Negotiation{
		ID:       uuid.New(),
		TenantID: order.TenantID,
		OrderID:  order.ID,
		VendorID: input.VendorID,
		Status:   enums.NegotiationStatusActive,
	}
	if input.InitialOffer != nil {
		negotiation.Offers = types.NegotiationOffers{{
			Round:     1,
			Party:     "company",
			Amount:    *input.InitialOffer,
			Note:      input.Note,
			OfferedAt: now,
		}}
		negotiation.LatestOfferAmount = input.InitialOffer
	}
	if err := repo.Create(ctx, negotiation); err != nil {
		return nil, err
	}

	applySummary(order, negotiation)
	return negotiation, nil
}

// RecordOffer appends one round; only active negotiations accept offers.
func (s *service) RecordOffer(ctx context.Context, orderID uuid.UUID, input OfferInput) (*models.Negotiation, error) {
	if input.Amount <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidAmount, "offer amount must be positive")
	}

	negotiation, err := s.activeByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amount := input.Amount
	negotiation.Offers = append(negotiation.Offers, types.NegotiationOffer{
		Round:     len(negotiation.Offers) + 1,
		Party:     input.Party,
		Amount:    amount,
		Note:      input.Note,
		OfferedAt: time.Now(),
	})
	negotiation.LatestOfferAmount = &amount
	if err := s.repo.Update(ctx, negotiation); err != nil {
		return nil, err
	}
	return negotiation, nil
}

// Conclude settles an active negotiation as agreed or abandoned.
func (s *service) Conclude(ctx context.Context, orderID uuid.UUID, status enums.NegotiationStatus) (*models.Negotiation, error) {
	if status != enums.NegotiationStatusAgreed && status != enums.NegotiationStatusAbandoned {
		return nil, apperrors.New(apperrors.CodeValidation, "conclusion must be agreed or abandoned")
	}

	negotiation, err := s.activeByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	negotiation.Status = status
	if err := s.repo.Update(ctx, negotiation); err != nil {
		return nil, err
	}
	return negotiation, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Negotiation, error) {
	return s.repo.GetByOrder(ctx, orderID)
}

func (s *service) activeByOrder(ctx context.Context, orderID uuid.UUID) (*models.Negotiation, error) {
	negotiation, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if negotiation == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "negotiation not found")
	}
	if negotiation.Status != enums.NegotiationStatusActive {
		return nil, apperrors.New(apperrors.CodeStateConflict, "negotiation already concluded")
	}
	return negotiation, nil
}

func applySummary(order *models.Order, negotiation *models.Negotiation) {
	now := time.Now()
	order.Negotiation = types.NegotiationSummary{
		NegotiationID:     &negotiation.ID,
		VendorID:          &negotiation.VendorID,
		Status:            negotiation.Status,
		LatestOfferAmount: negotiation.LatestOfferAmount,
		RoundCount:        len(negotiation.Offers),
		UpdatedAt:         &now,
	}
}
