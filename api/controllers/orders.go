package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/api/middleware"
	"github.com/ptcex/orderguard-backend/api/responses"
	"github.com/ptcex/orderguard-backend/api/validators"
	"github.com/ptcex/orderguard-backend/internal/ledger"
	internalorders "github.com/ptcex/orderguard-backend/internal/orders"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	pkgerrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

type createOrderRequest struct {
	TotalAmount int64 `json:"totalAmount" validate:"required,gt=0"`
}

type transitionRequest struct {
	NewStatus string                            `json:"newStatus" validate:"required"`
	Metadata  internalorders.TransitionMetadata `json:"metadata"`
}

type validateTransitionResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// CreateOrder opens a draft order for the active tenant.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		var body createOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), internalorders.CreateOrderInput{
			TenantID:    tenantID,
			TotalAmount: body.TotalAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderDetail returns one order after checking tenant ownership.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadTenantOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns the tenant's orders, optionally filtered by status or
// looked up by order number.
func ListOrders(repo internalorders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}

		if number := strings.TrimSpace(r.URL.Query().Get("number")); number != "" {
			order, err := repo.GetByNumber(r.Context(), number)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by number"))
				return
			}
			if order == nil || order.TenantID != tenantID {
				responses.WriteSuccess(w, []models.Order{})
				return
			}
			responses.WriteSuccess(w, []models.Order{*order})
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var statuses []enums.OrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status, err := enums.ParseOrderStatus(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
		}

		list, err := repo.ListByTenant(r.Context(), tenantID, statuses, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders"))
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// TransitionOrder moves an order to a new status, applying the per-state
// side effects and emitting the transition events.
func TransitionOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadTenantOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transitionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newStatus, err := enums.ParseOrderStatus(body.NewStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		updated, err := svc.TransitionTo(r.Context(), internalorders.TransitionInput{
			OrderID:   order.ID,
			NewStatus: newStatus,
			Metadata:  body.Metadata,
			Actor:     actorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// ValidateTransition dry-runs a transition and reports the rule violations
// without touching the order.
func ValidateTransition(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadTenantOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transitionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		newStatus, err := enums.ParseOrderStatus(body.NewStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		violations := svc.ValidateTransition(order, newStatus, body.Metadata)
		responses.WriteSuccess(w, validateTransitionResponse{
			Valid:      len(violations) == 0,
			Violations: violations,
		})
	}
}

// OrderLedger returns every ledger entry recorded against one order, in
// chain order.
func OrderLedger(svc internalorders.Service, ledgerSvc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadTenantOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := ledgerSvc.HistoryByOrder(r.Context(), order.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}

// AvailableTransitions lists the statuses the order may move to next.
func AvailableTransitions(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadTenantOrder(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.AvailableTransitions(order))
	}
}

func loadTenantOrder(r *http.Request, svc internalorders.Service) (*models.Order, error) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing")
	}

	orderID, err := parseIDParam(r, "orderId")
	if err != nil {
		return nil, err
	}

	order, err := svc.GetOrder(r.Context(), orderID)
	if err != nil {
		return nil, err
	}
	if order.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to tenant")
	}
	return order, nil
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
