package controllers

import (
	"net/http"
	"time"

	"github.com/ptcex/orderguard-backend/api/middleware"
	"github.com/ptcex/orderguard-backend/api/responses"
	"github.com/ptcex/orderguard-backend/api/validators"
	"github.com/ptcex/orderguard-backend/internal/insurancefund"
	"github.com/ptcex/orderguard-backend/internal/ledger"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	pkgerrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

type topUpRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}

type fundBalanceResponse struct {
	Balance int64 `json:"balance"`
}

// FundBalance returns the tenant's current insurance-fund balance.
func FundBalance(svc insurancefund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		balance, err := svc.Balance(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, fundBalanceResponse{Balance: balance})
	}
}

// FundHealth reports the fund's runway against its configured floor.
func FundHealth(svc insurancefund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		assessment, err := svc.HealthAssessment(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, assessment)
	}
}

// FundContribute records a manual top-up outside the per-order flow.
func FundContribute(svc insurancefund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		var body topUpRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.TopUp(r.Context(), insurancefund.TopUpInput{
			TenantID:    tenantID,
			Amount:      body.Amount,
			Description: body.Description,
			Actor:       actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// FundLedger returns the tenant's most recent insurance-fund ledger entries,
// newest first.
func FundLedger(ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := ledgerSvc.RecentByScope(r.Context(), tenantID, enums.LedgerScopeInsuranceFund, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entries)
	}
}

// FundStatistics aggregates fund movement over a period, defaulting to the
// trailing 30 days.
func FundStatistics(svc insurancefund.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		now := time.Now()
		from, err := validators.ParseQueryTime(r, "from", now.AddDate(0, 0, -30))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to", now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if to.Before(from) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "to must not precede from"))
			return
		}

		stats, err := svc.Statistics(r.Context(), tenantID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
