package middleware

import (
	"fmt"
	"net/http"

	"github.com/smartcanteen/canteen-backend/api/responses"
	pkgerrors "github.com/smartcanteen/canteen-backend/pkg/errors"
	"github.com/smartcanteen/canteen-backend/pkg/logger"
)

// RequireRole gates a subtree on the role stored by Auth. The vendor and
// admin route groups mount it right after the auth middleware, so anything
// past it can trust the role claim.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				err := pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("%s role required", role))
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
