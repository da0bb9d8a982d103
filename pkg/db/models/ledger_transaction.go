package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// LedgerTransaction is one immutable link in a per-(tenant, scope) balance
// chain. BalanceAfter of the latest row is the current balance; there is no
// separate mutable balance field. Sequence is dense per chain and guarded
// by a unique index, so a lost-update append fails instead of forking.
type LedgerTransaction struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID        uuid.UUID                   `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_ledger_chain,priority:1"`
	Scope           enums.LedgerScope           `gorm:"column:scope;type:text;not null;uniqueIndex:ux_ledger_chain,priority:2"`
	Sequence        int64                       `gorm:"column:sequence;not null;uniqueIndex:ux_ledger_chain,priority:3"`
	Type            enums.LedgerTransactionType `gorm:"column:type;type:text;not null"`
	Amount          int64                       `gorm:"column:amount;not null"`
	BalanceBefore   int64                       `gorm:"column:balance_before;not null"`
	BalanceAfter    int64                       `gorm:"column:balance_after;not null"`
	PaymentType     *enums.PaymentType          `gorm:"column:payment_type;type:text"`
	OrderID         *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	RefundRequestID *uuid.UUID                  `gorm:"column:refund_request_id;type:uuid"`
	VendorID        *uuid.UUID                  `gorm:"column:vendor_id;type:uuid"`
	Description     string                      `gorm:"column:description;not null"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
