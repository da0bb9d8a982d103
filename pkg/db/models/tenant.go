package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// Tenant is a platform customer. ContributionRate is the fraction of an
// order total diverted into the insurance fund on completion.
type Tenant struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name             string             `gorm:"column:name;not null"`
	Status           enums.TenantStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ContributionRate decimal.Decimal    `gorm:"column:contribution_rate;type:numeric(6,4);not null"`
	Currency         string             `gorm:"column:currency;type:text;not null;default:'IDR'"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
