package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ptcex/orderguard-backend/api/middleware"
	"github.com/ptcex/orderguard-backend/api/responses"
	"github.com/ptcex/orderguard-backend/api/validators"
	"github.com/ptcex/orderguard-backend/internal/refunds"
	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
	pkgerrors "github.com/ptcex/orderguard-backend/pkg/errors"
	"github.com/ptcex/orderguard-backend/pkg/logger"
)

type createRefundRequest struct {
	OrderID                uuid.UUID `json:"orderId" validate:"required"`
	Reason                 string    `json:"reason" validate:"required"`
	QualityIssuePercentage *int      `json:"qualityIssuePercentage,omitempty"`
	DelayDays              *int      `json:"delayDays,omitempty"`
	CustomerRequestAmount  *int64    `json:"customerRequestAmount,omitempty"`
	FaultPartyOverride     *string   `json:"faultPartyOverride,omitempty"`
}

type approvalRequest struct {
	Decision       string  `json:"decision" validate:"required"`
	Notes          *string `json:"notes,omitempty"`
	AdjustedAmount *int64  `json:"adjustedAmount,omitempty"`
}

// CreateRefund opens a refund request and runs the fault-attribution
// calculation in the same call.
func CreateRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor missing"))
			return
		}

		var body createRefundRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reason, err := enums.ParseRefundReason(body.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund reason"))
			return
		}

		input := refunds.CreateRequestInput{
			OrderID:                body.OrderID,
			Reason:                 reason,
			QualityIssuePercentage: body.QualityIssuePercentage,
			DelayDays:              body.DelayDays,
			CustomerRequestAmount:  body.CustomerRequestAmount,
			RequestedBy:            actorID,
		}
		if body.FaultPartyOverride != nil {
			party, err := enums.ParseFaultParty(*body.FaultPartyOverride)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fault party"))
				return
			}
			input.FaultPartyOverride = &party
		}

		request, err := svc.CreateRequest(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// RefundDetail returns one refund request with its calculation breakdown.
func RefundDetail(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := loadTenantRefund(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// ListRefundsByOrder returns all refund requests raised against one order,
// or a single request when looked up by its request number.
func ListRefundsByOrder(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if number := r.URL.Query().Get("number"); number != "" {
			tenantID, ok := middleware.TenantIDFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
				return
			}
			request, err := svc.GetRequestByNumber(r.Context(), number)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if request.TenantID != tenantID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "refund request does not belong to tenant"))
				return
			}
			responses.WriteSuccess(w, []models.RefundRequest{*request})
			return
		}

		rawOrderID := r.URL.Query().Get("orderId")
		orderID, err := uuid.Parse(rawOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid orderId"))
			return
		}

		list, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refund requests"))
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// ProcessApproval records one approver decision at the request's current
// workflow level.
func ProcessApproval(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := middleware.TenantIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing"))
			return
		}
		actorID, ok := middleware.ActorIDFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor missing"))
			return
		}

		requestID, err := parseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body approvalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseApprovalDecision(body.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid approval decision"))
			return
		}

		approval, err := svc.ProcessApproval(r.Context(), refunds.ApprovalInput{
			RefundRequestID: requestID,
			ApproverID:      actorID,
			ApproverTenant:  tenantID,
			Decision:        decision,
			Notes:           body.Notes,
			AdjustedAmount:  body.AdjustedAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, approval)
	}
}

// ResubmitRefund sends a needs-information request back through the workflow.
func ResubmitRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := loadTenantRefund(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Resubmit(r.Context(), request.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, updated)
	}
}

// RefundWorkflow reports the approval ladder progress for one request.
func RefundWorkflow(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := loadTenantRefund(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.WorkflowStatus(r.Context(), request.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

func loadTenantRefund(r *http.Request, svc refunds.Service) (*models.RefundRequest, error) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant missing")
	}

	requestID, err := parseIDParam(r, "requestId")
	if err != nil {
		return nil, err
	}

	request, err := svc.GetRequest(r.Context(), requestID)
	if err != nil {
		return nil, err
	}
	if request.TenantID != tenantID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "refund request does not belong to tenant")
	}
	return request, nil
}
