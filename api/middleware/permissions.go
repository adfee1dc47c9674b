package middleware

import (
	"net/http"

	"github.com/medibill/pos-backend/api/responses"
	"github.com/medibill/pos-backend/pkg/access"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
)

// RequirePermission lets the request through only when the authenticated
// role holds permission. It must run after Auth.
func RequirePermission(permission access.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, err := enums.ParseRole(RoleFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "role missing"))
				return
			}
			if !access.Authorize(role, permission) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "permission required").
					WithDetails(map[string]any{"permission": permission.String()}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
