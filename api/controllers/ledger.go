package controllers

import (
	"net/http"

	"github.com/vendora/vendora-backend/api/responses"
	"github.com/vendora/vendora-backend/api/validators"
	"github.com/vendora/vendora-backend/internal/ledger"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
	"github.com/vendora/vendora-backend/pkg/pagination"
)

// VendorLedger lists the business's ledger entries, newest first.
func VendorLedger(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		businessID, err := businessIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ListForBusiness(r.Context(), businessID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries"))
			return
		}
		responses.WriteSuccess(w, entries)
	}
}
