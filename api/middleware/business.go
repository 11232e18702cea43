package middleware

import (
	"net/http"

	"github.com/vendora/vendora-backend/api/responses"
	pkgerrors "github.com/vendora/vendora-backend/pkg/errors"
	"github.com/vendora/vendora-backend/pkg/logger"
)

// BusinessContext rejects vendor requests whose token carries no business claim.
func BusinessContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if BusinessIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
