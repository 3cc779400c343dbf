package middleware

import (
	"context"
	"net/http"

	"github.com/tdcarpool/carpool/backend/internal/model/role"
	"github.com/tdcarpool/carpool/backend/pkg/utils"
)

// RoleHeader carries the caller's role. Nothing verifies it; the sign-in
// flow is a mock.
const RoleHeader = "X-Carpool-Role"

type roleKey struct{}

// CallerRole parses RoleHeader into the request context. Missing or unknown
// values become guest.
func CallerRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who := role.Parse(r.Header.Get(RoleHeader))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, who)))
	})
}

// RoleFrom returns the role CallerRole stored, or guest.
func RoleFrom(ctx context.Context) role.Role {
	if who, ok := ctx.Value(roleKey{}).(role.Role); ok {
		return who
	}
	return role.Guest
}

// RequireRole rejects callers whose role is not want with 403.
func RequireRole(want role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFrom(r.Context()) != want {
				utils.RespondError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
