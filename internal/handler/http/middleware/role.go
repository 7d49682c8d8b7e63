package middleware

import (
	"net/http"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
)

// RequireAdmin lets through workspace admins only
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(user.RoleAdmin)(next)
}

// RequireRole lets through callers holding one of roles
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			if len(roles) == 1 && roles[0] == user.RoleAdmin {
				response.HandleError(w, user.ErrAdminAccessRequired)
				return
			}
			response.HandleError(w, user.ErrInsufficientPermissions)
		})
	}
}

// RequirePermission lets through callers whose role grants permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, err)
				return
			}
			if !user.HasPermission(claims.Role, permission) {
				response.HandleError(w, user.ErrInsufficientPermissions)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
