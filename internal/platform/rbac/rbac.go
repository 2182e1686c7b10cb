// Package rbac checks a user's role against the linear role hierarchy
// freelancer < employee < manager < admin.
package rbac

import (
	"net/http"

	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/httpx"
	"rocr/backend/internal/server/middleware"
	"rocr/backend/internal/user/domain"
)

// HasAnyRole reports whether u holds exactly one of allowed. Fails closed on a nil user or unknown role.
func HasAnyRole(u *domain.User, allowed ...domain.Role) bool {
	if u == nil || !u.Role.Valid() {
		return false
	}
	for _, r := range allowed {
		if u.Role == r {
			return true
		}
	}
	return false
}

// HasMinRole reports whether u's role is at or above min. Fails closed on a nil user or unknown role.
func HasMinRole(u *domain.User, min domain.Role) bool {
	return u != nil && u.Role.AtLeast(min)
}

// RequireRole lets the request through only when the authenticated user holds one of roles.
// Responds 401 NO_USER when no user is attached and 403 FORBIDDEN otherwise.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	required := make([]string, len(roles))
	for i, r := range roles {
		required[i] = r.String()
	}
	return guard(func(u *domain.User) bool { return HasAnyRole(u, roles...) }, required)
}

// RequireMinRole lets the request through only when the authenticated user's role is at least min.
func RequireMinRole(min domain.Role) func(http.Handler) http.Handler {
	return guard(func(u *domain.User) bool { return HasMinRole(u, min) }, min.String()+" or higher")
}

// Common guards.
var (
	AdminOnly    = RequireRole(domain.RoleAdmin)
	ManagerOnly  = RequireRole(domain.RoleAdmin, domain.RoleManager)
	EmployeeOnly = RequireMinRole(domain.RoleEmployee)
)

func guard(allow func(*domain.User) bool, required any) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := middleware.UserFromContext(r.Context())
			if u == nil {
				httpx.WriteError(w, apperror.Unauthorized(apperror.CodeNoUser, "Unauthorized"))
				return
			}
			if !allow(u) {
				httpx.WriteError(w, apperror.Forbidden("Insufficient permissions").
					WithField("required", required).
					WithField("current", u.Role.String()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
