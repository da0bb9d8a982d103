package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/internal/refunds"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	pkgerrors "github.com/ptcex/orderguard-backend/pkg/errors"
)

type stubRefundsService struct {
	createRequest   func(ctx context.Context, input refunds.CreateRequestInput) (*models.RefundRequest, error)
	getRequest      func(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error)
	getByNumber     func(ctx context.Context, requestNumber string) (*models.RefundRequest, error)
	listByOrder     func(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error)
	processApproval func(ctx context.Context, input refunds.ApprovalInput) (*models.RefundApproval, error)
	resubmit        func(ctx context.Context, requestID uuid.UUID) (*models.RefundRequest, error)
	workflowStatus  func(ctx context.Context, requestID uuid.UUID) (*refunds.WorkflowStatus, error)
}

func (s *stubRefundsService) CreateRequest(ctx context.Context, input refunds.CreateRequestInput) (*models.RefundRequest, error) {
	return s.createRequest(ctx, input)
}

func (s *stubRefundsService) GetRequest(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	if s.getRequest != nil {
		return s.getRequest(ctx, id)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
}

func (s *stubRefundsService) GetRequestByNumber(ctx context.Context, requestNumber string) (*models.RefundRequest, error) {
	if s.getByNumber != nil {
		return s.getByNumber(ctx, requestNumber)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
}

func (s *stubRefundsService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error) {
	return s.listByOrder(ctx, orderID)
}

func (s *stubRefundsService) ProcessApproval(ctx context.Context, input refunds.ApprovalInput) (*models.RefundApproval, error) {
	return s.processApproval(ctx, input)
}

func (s *stubRefundsService) Resubmit(ctx context.Context, requestID uuid.UUID) (*models.RefundRequest, error) {
	return s.resubmit(ctx, requestID)
}

func (s *stubRefundsService) WorkflowStatus(ctx context.Context, requestID uuid.UUID) (*refunds.WorkflowStatus, error) {
	return s.workflowStatus(ctx, requestID)
}

func TestCreateRefundParsesInput(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()
	orderID := uuid.New()

	svc := &stubRefundsService{
		createRequest: func(_ context.Context, input refunds.CreateRequestInput) (*models.RefundRequest, error) {
			if input.OrderID != orderID {
				t.Fatalf("expected order %s, got %s", orderID, input.OrderID)
			}
			if input.Reason != enums.RefundReasonQualityIssue {
				t.Fatalf("unexpected reason %s", input.Reason)
			}
			if input.QualityIssuePercentage == nil || *input.QualityIssuePercentage != 40 {
				t.Fatal("expected quality issue percentage threaded through")
			}
			if input.RequestedBy != actorID {
				t.Fatal("expected requester from actor header")
			}
			return &models.RefundRequest{ID: uuid.New(), TenantID: tenantID, OrderID: orderID}, nil
		},
	}

	body := `{"orderId":"` + orderID.String() + `","reason":"quality_issue","qualityIssuePercentage":40}`
	req := newTenantRequest(http.MethodPost, "/api/v1/refunds", body, tenantID, actorID, nil)
	rec := httptest.NewRecorder()
	CreateRefund(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateRefundRequiresActor(t *testing.T) {
	svc := &stubRefundsService{
		createRequest: func(context.Context, refunds.CreateRequestInput) (*models.RefundRequest, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := newTenantRequest(http.MethodPost, "/api/v1/refunds",
		`{"orderId":"`+uuid.NewString()+`","reason":"other"}`, uuid.New(), uuid.Nil, nil)
	rec := httptest.NewRecorder()
	CreateRefund(svc, nil)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateRefundRejectsUnknownReason(t *testing.T) {
	svc := &stubRefundsService{
		createRequest: func(context.Context, refunds.CreateRequestInput) (*models.RefundRequest, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := newTenantRequest(http.MethodPost, "/api/v1/refunds",
		`{"orderId":"`+uuid.NewString()+`","reason":"vibes"}`, uuid.New(), uuid.New(), nil)
	rec := httptest.NewRecorder()
	CreateRefund(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessApprovalThreadsApprover(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()
	requestID := uuid.New()

	svc := &stubRefundsService{
		processApproval: func(_ context.Context, input refunds.ApprovalInput) (*models.RefundApproval, error) {
			if input.RefundRequestID != requestID {
				t.Fatalf("unexpected request id %s", input.RefundRequestID)
			}
			if input.ApproverID != actorID || input.ApproverTenant != tenantID {
				t.Fatal("expected approver identity from headers")
			}
			if input.Decision != enums.ApprovalDecisionApproved {
				t.Fatalf("unexpected decision %s", input.Decision)
			}
			return &models.RefundApproval{ID: uuid.New(), RefundRequestID: requestID}, nil
		},
	}

	req := newTenantRequest(http.MethodPost, "/api/v1/refunds/"+requestID.String()+"/approvals",
		`{"decision":"approved"}`, tenantID, actorID, map[string]string{"requestId": requestID.String()})
	rec := httptest.NewRecorder()
	ProcessApproval(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRefundDetailRejectsForeignTenant(t *testing.T) {
	requestID := uuid.New()
	svc := &stubRefundsService{
		getRequest: func(_ context.Context, id uuid.UUID) (*models.RefundRequest, error) {
			return &models.RefundRequest{ID: id, TenantID: uuid.New()}, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/refunds/"+requestID.String(),
		"", uuid.New(), uuid.Nil, map[string]string{"requestId": requestID.String()})
	rec := httptest.NewRecorder()
	RefundDetail(svc, nil)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRefundWorkflowReturnsLadder(t *testing.T) {
	tenantID := uuid.New()
	requestID := uuid.New()
	svc := &stubRefundsService{
		getRequest: func(_ context.Context, id uuid.UUID) (*models.RefundRequest, error) {
			return &models.RefundRequest{ID: id, TenantID: tenantID, Status: enums.RefundRequestStatusPendingFinance}, nil
		},
		workflowStatus: func(_ context.Context, id uuid.UUID) (*refunds.WorkflowStatus, error) {
			return &refunds.WorkflowStatus{
				CurrentStatus:        enums.RefundRequestStatusPendingFinance,
				CompletionPercentage: 50,
			}, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/refunds/"+requestID.String()+"/workflow",
		"", tenantID, uuid.Nil, map[string]string{"requestId": requestID.String()})
	rec := httptest.NewRecorder()
	RefundWorkflow(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	data, ok := envelope["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", envelope)
	}
	if data["completionPercentage"] != float64(50) {
		t.Fatalf("expected 50 percent completion, got %v", data["completionPercentage"])
	}
}

func TestListRefundsRequiresOrderFilter(t *testing.T) {
	svc := &stubRefundsService{
		listByOrder: func(context.Context, uuid.UUID) ([]models.RefundRequest, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/refunds", "", uuid.New(), uuid.Nil, nil)
	rec := httptest.NewRecorder()
	ListRefundsByOrder(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListRefundsFindsByNumber(t *testing.T) {
	tenantID := uuid.New()
	svc := &stubRefundsService{
		getByNumber: func(_ context.Context, requestNumber string) (*models.RefundRequest, error) {
			if requestNumber != "RFD-2026-000007" {
				t.Fatalf("unexpected request number %q", requestNumber)
			}
			return &models.RefundRequest{
				ID:            uuid.New(),
				TenantID:      tenantID,
				RequestNumber: requestNumber,
			}, nil
		},
		listByOrder: func(context.Context, uuid.UUID) ([]models.RefundRequest, error) {
			t.Fatal("order listing should not be called on a number lookup")
			return nil, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/refunds?number=RFD-2026-000007",
		"", tenantID, uuid.Nil, nil)
	rec := httptest.NewRecorder()
	ListRefundsByOrder(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	list, ok := envelope["data"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected single refund request, got %v", envelope["data"])
	}
}

func TestListRefundsByNumberRejectsForeignTenant(t *testing.T) {
	svc := &stubRefundsService{
		getByNumber: func(context.Context, string) (*models.RefundRequest, error) {
			return &models.RefundRequest{
				ID:            uuid.New(),
				TenantID:      uuid.New(),
				RequestNumber: "RFD-2026-000007",
			}, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/refunds?number=RFD-2026-000007",
		"", uuid.New(), uuid.Nil, nil)
	rec := httptest.NewRecorder()
	ListRefundsByOrder(svc, nil)(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
