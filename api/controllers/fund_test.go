package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/internal/insurancefund"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
)

type stubFundService struct {
	balance    func(ctx context.Context, tenantID uuid.UUID) (int64, error)
	topUp      func(ctx context.Context, input insurancefund.TopUpInput) (*models.LedgerTransaction, error)
	health     func(ctx context.Context, tenantID uuid.UUID) (*insurancefund.HealthAssessment, error)
	statistics func(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*insurancefund.Statistics, error)
}

func (s *stubFundService) Balance(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.balance(ctx, tenantID)
}

func (s *stubFundService) ContributeForOrder(context.Context, *gorm.DB, *models.Order) (*models.LedgerTransaction, error) {
	panic("not used by controllers")
}

func (s *stubFundService) TopUp(ctx context.Context, input insurancefund.TopUpInput) (*models.LedgerTransaction, error) {
	return s.topUp(ctx, input)
}

func (s *stubFundService) Withdraw(context.Context, *gorm.DB, *models.RefundRequest, int64) (*models.LedgerTransaction, error) {
	panic("not used by controllers")
}

func (s *stubFundService) HealthAssessment(ctx context.Context, tenantID uuid.UUID) (*insurancefund.HealthAssessment, error) {
	return s.health(ctx, tenantID)
}

func (s *stubFundService) Statistics(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*insurancefund.Statistics, error) {
	return s.statistics(ctx, tenantID, from, to)
}

func TestFundBalanceReturnsTenantBalance(t *testing.T) {
	tenantID := uuid.New()
	svc := &stubFundService{
		balance: func(_ context.Context, id uuid.UUID) (int64, error) {
			if id != tenantID {
				t.Fatalf("expected tenant %s, got %s", tenantID, id)
			}
			return 25_000_000, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/fund/balance", "", tenantID, uuid.Nil, nil)
	rec := httptest.NewRecorder()
	FundBalance(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]any)
	if data["balance"] != float64(25_000_000) {
		t.Fatalf("expected balance in payload, got %v", data)
	}
}

func TestFundContributeRecordsTopUp(t *testing.T) {
	tenantID := uuid.New()
	actorID := uuid.New()
	svc := &stubFundService{
		topUp: func(_ context.Context, input insurancefund.TopUpInput) (*models.LedgerTransaction, error) {
			if input.TenantID != tenantID {
				t.Fatalf("expected tenant %s, got %s", tenantID, input.TenantID)
			}
			if input.Amount != 5_000_000 {
				t.Fatalf("unexpected amount %d", input.Amount)
			}
			if input.Actor == nil || input.Actor.UserID != actorID {
				t.Fatal("expected actor threaded from headers")
			}
			return &models.LedgerTransaction{ID: uuid.New(), TenantID: tenantID, Amount: input.Amount}, nil
		},
	}

	req := newTenantRequest(http.MethodPost, "/api/v1/fund/contributions",
		`{"amount":5000000,"description":"quarterly reserve"}`, tenantID, actorID, nil)
	rec := httptest.NewRecorder()
	FundContribute(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFundContributeRejectsNonPositiveAmount(t *testing.T) {
	svc := &stubFundService{
		topUp: func(context.Context, insurancefund.TopUpInput) (*models.LedgerTransaction, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := newTenantRequest(http.MethodPost, "/api/v1/fund/contributions",
		`{"amount":-100}`, uuid.New(), uuid.Nil, nil)
	rec := httptest.NewRecorder()
	FundContribute(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFundStatisticsDefaultsWindow(t *testing.T) {
	tenantID := uuid.New()
	svc := &stubFundService{
		statistics: func(_ context.Context, _ uuid.UUID, from, to time.Time) (*insurancefund.Statistics, error) {
			window := to.Sub(from)
			if window < 29*24*time.Hour || window > 31*24*time.Hour {
				t.Fatalf("expected a trailing 30 day window, got %s", window)
			}
			return &insurancefund.Statistics{TenantID: tenantID, From: from, To: to}, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/fund/statistics", "", tenantID, uuid.Nil, nil)
	rec := httptest.NewRecorder()
	FundStatistics(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestFundStatisticsRejectsInvertedRange(t *testing.T) {
	svc := &stubFundService{
		statistics: func(context.Context, uuid.UUID, time.Time, time.Time) (*insurancefund.Statistics, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := newTenantRequest(http.MethodGet,
		"/api/v1/fund/statistics?from=2026-08-01T00:00:00Z&to=2026-07-01T00:00:00Z",
		"", uuid.New(), uuid.Nil, nil)
	rec := httptest.NewRecorder()
	FundStatistics(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFundLedgerScopesToTenant(t *testing.T) {
	tenantID := uuid.New()
	ledgerSvc := &stubLedgerService{
		recentByScope: func(_ context.Context, gotTenant uuid.UUID, scope enums.LedgerScope, limit int) ([]models.LedgerTransaction, error) {
			if gotTenant != tenantID {
				t.Fatalf("expected tenant %s, got %s", tenantID, gotTenant)
			}
			if scope != enums.LedgerScopeInsuranceFund {
				t.Fatalf("expected insurance fund scope, got %s", scope)
			}
			if limit != 10 {
				t.Fatalf("expected limit 10, got %d", limit)
			}
			return []models.LedgerTransaction{{ID: uuid.New(), Amount: 250_000}}, nil
		},
	}

	req := newTenantRequest(http.MethodGet, "/api/v1/fund/ledger?limit=10",
		"", tenantID, uuid.Nil, nil)
	rec := httptest.NewRecorder()
	FundLedger(ledgerSvc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	list, ok := envelope["data"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("expected 1 ledger entry, got %v", envelope["data"])
	}
}
