package tenants

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ptcex/orderguard-backend/pkg/config"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	apperrors "github.com/ptcex/orderguard-backend/pkg/errors"
)

// Service resolves tenants and their insurance contribution settings.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	RequireActive(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ContributionRate(tenant *models.Tenant) decimal.Decimal
}

type service struct {
	repo Repository
	cfg  config.InsuranceConfig
}

// NewService wires a tenant service with the provided repository.
func NewService(repo Repository, cfg config.InsuranceConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "tenant id is required")
	}
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading tenant")
	}
	if tenant == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "tenant not found")
	}
	return tenant, nil
}

// RequireActive fails with FORBIDDEN for suspended or closed tenants.
func (s *service) RequireActive(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.Status != enums.TenantStatusActive {
		return nil, apperrors.New(apperrors.CodeForbidden, fmt.Sprintf("tenant is %s", tenant.Status))
	}
	return tenant, nil
}

// ContributionRate returns the tenant's configured rate clamped to the
// platform bounds, falling back to the default when unset.
func (s *service) ContributionRate(tenant *models.Tenant) decimal.Decimal {
	rate := s.cfg.DefaultRate
	if tenant != nil && !tenant.ContributionRate.IsZero() {
		rate = tenant.ContributionRate
	}
	if rate.LessThan(s.cfg.MinRate) {
		return s.cfg.MinRate
	}
	if rate.GreaterThan(s.cfg.MaxRate) {
		return s.cfg.MaxRate
	}
	return rate
}
