package refunds

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	"github.com/ptcex/orderguard-backend/pkg/types"
)

func setupRefundTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS refund_requests (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  request_number TEXT NOT NULL UNIQUE,
  reason TEXT NOT NULL,
  quality_issue_percentage INTEGER,
  delay_days INTEGER,
  customer_request_amount INTEGER,
  fault_party_override TEXT,
  calculation TEXT,
  status TEXT NOT NULL,
  current_approver_id TEXT,
  requested_by TEXT NOT NULL,
  requested_at DATETIME NOT NULL,
  approved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS refund_approvals (
  id TEXT PRIMARY KEY,
  refund_request_id TEXT NOT NULL,
  approver_id TEXT NOT NULL,
  approval_level INTEGER NOT NULL,
  decision TEXT NOT NULL,
  decision_notes TEXT,
  adjusted_amount INTEGER,
  decided_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newStoredRequest(orderID uuid.UUID, number string) *models.RefundRequest {
	return &models.RefundRequest{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		OrderID:       orderID,
		RequestNumber: number,
		Reason:        enums.RefundReasonQualityIssue,
		Calculation: types.RefundCalculation{
			OrderTotal:           1_000_000,
			CustomerPaidAmount:   1_000_000,
			RefundableToCustomer: 500_000,
			RefundReason:         enums.RefundReasonQualityIssue,
			FaultParty:           enums.FaultPartyVendor,
			AppliedRules:         []string{"quality_proportional_refund"},
		},
		Status:      enums.RefundRequestStatusPendingFinance,
		RequestedBy: uuid.New(),
		RequestedAt: time.Now(),
	}
}

func TestRepositoryRequestRoundTrip(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	missing, err := repo.GetRequest(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	request := newStoredRequest(uuid.New(), "RFD-20260830-00001")
	require.NoError(t, repo.CreateRequest(ctx, request))

	loaded, err := repo.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, request.RequestNumber, loaded.RequestNumber)
	assert.Equal(t, int64(500_000), loaded.Calculation.RefundableToCustomer, "calculation snapshot survives serialization")
	assert.Equal(t, []string{"quality_proportional_refund"}, loaded.Calculation.AppliedRules)

	loaded.Status = enums.RefundRequestStatusApproved
	require.NoError(t, repo.UpdateRequest(ctx, loaded))

	byNumber, err := repo.GetRequestByNumber(ctx, request.RequestNumber)
	require.NoError(t, err)
	require.NotNil(t, byNumber)
	assert.Equal(t, enums.RefundRequestStatusApproved, byNumber.Status)
}

func TestRepositoryRejectsDuplicateRequestNumber(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateRequest(ctx, newStoredRequest(uuid.New(), "RFD-20260830-00002")))
	err := repo.CreateRequest(ctx, newStoredRequest(uuid.New(), "RFD-20260830-00002"))
	require.Error(t, err)
}

func TestRepositoryListRequestsByOrder(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	orderID := uuid.New()

	require.NoError(t, repo.CreateRequest(ctx, newStoredRequest(orderID, "RFD-20260830-00003")))
	require.NoError(t, repo.CreateRequest(ctx, newStoredRequest(uuid.New(), "RFD-20260830-00004")))

	requests, err := repo.ListRequestsByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, orderID, requests[0].OrderID)
}

func TestRepositoryApprovalsOrderedByDecision(t *testing.T) {
	db := setupRefundTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	request := newStoredRequest(uuid.New(), "RFD-20260830-00005")
	require.NoError(t, repo.CreateRequest(ctx, request))

	later := models.RefundApproval{
		ID:              uuid.New(),
		RefundRequestID: request.ID,
		ApproverID:      uuid.New(),
		ApprovalLevel:   2,
		Decision:        enums.ApprovalDecisionApproved,
		DecidedAt:       time.Now(),
	}
	earlier := models.RefundApproval{
		ID:              uuid.New(),
		RefundRequestID: request.ID,
		ApproverID:      uuid.New(),
		ApprovalLevel:   1,
		Decision:        enums.ApprovalDecisionApproved,
		DecidedAt:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.CreateApproval(ctx, &later))
	require.NoError(t, repo.CreateApproval(ctx, &earlier))

	approvals, err := repo.ListApprovals(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, 1, approvals[0].ApprovalLevel, "approvals come back in decision order")
	assert.Equal(t, 2, approvals[1].ApprovalLevel)
}
