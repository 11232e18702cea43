package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendora/vendora-backend/api/middleware"
	"github.com/vendora/vendora-backend/api/responses"
	"github.com/vendora/vendora-backend/api/validators"
	"github.com/vendora/vendora-backend/internal/disputes"
	"github.com/vendora/vendora-backend/pkg/enums"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/pagination"
)

type disputeOpenBody struct {
	OrderID  string `json:"order_id" validate:"required,uuid4"`
	Reason   string `json:"reason" validate:"required,max=2000"`
	Priority int    `json:"priority" validate:"min=0,max=10"`
}

type disputeResolveBody struct {
	Decision string `json:"decision" validate:"required,oneof=release refund"`
}

// BuyerDisputeOpen freezes a held order pending resolution.
func BuyerDisputeOpen(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		buyerKey := middleware.UserIDFromContext(r.Context())
		if buyerKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var body disputeOpenBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(body.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		dispute, err := svc.Open(r.Context(), disputes.OpenInput{
			OrderID:  orderID,
			BuyerKey: buyerKey,
			Reason:   body.Reason,
			Priority: body.Priority,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dispute)
	}
}

// AdminDisputeResolve settles an open dispute with a release or refund.
func AdminDisputeResolve(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		disputeID, err := uuidParam(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeResolveBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := enums.ParseDisputeDecision(body.Decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decision"))
			return
		}

		dispute, err := svc.Resolve(r.Context(), disputeID, decision)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// AdminDisputeDetail returns one dispute by id.
func AdminDisputeDetail(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		disputeID, err := uuidParam(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.GetDispute(r.Context(), disputeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// AdminDisputeListOpen lists open disputes by priority.
func AdminDisputeListOpen(svc disputes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispute service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListOpen(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open disputes"))
			return
		}
		responses.WriteSuccess(w, list)
	}
}
