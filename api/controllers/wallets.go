package controllers

import (
	"net/http"

	"github.com/vendora/vendora-backend/api/responses"
	"github.com/vendora/vendora-backend/internal/wallets"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// VendorWallet returns the materialized wallet for the authenticated business.
func VendorWallet(svc wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		businessID, err := businessIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetWallet(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
