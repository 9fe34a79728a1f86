package rbac

import (
	"log/slog"
	"net/http"

	"github.com/Africamobilier/erp/internal/shared"
)

// Middleware wires authorization checks into HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequirePermission checks the permission matrix for the current profile.
func (m Middleware) RequirePermission(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := shared.ProfileFromContext(r.Context())
			if profile == nil || !profile.Actif {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !HasPermission(Role(profile.Role), module, action) {
				if m.Logger != nil {
					m.Logger.Warn("accès refusé",
						slog.String("role", profile.Role),
						slog.String("module", string(module)),
						slog.String("action", string(action)))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole restricts a route to the given roles.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := shared.ProfileFromContext(r.Context())
			if profile == nil || !profile.Actif || !IsRole(Role(profile.Role), roles...) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
