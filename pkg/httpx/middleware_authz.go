package httpx

import (
	"net/http"
	"slices"

	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

// Require lets the request through only when allow accepts the caller.
// It must run after AuthnMiddleware.
func Require(allow func(Principal) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				shopsdk.ErrNoToken.WriteError(w)
				return
			}
			if !allow(p) {
				shopsdk.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits callers holding any of roles.
func RequireRole(roles ...string) Middleware {
	return Require(func(p Principal) bool {
		return slices.Contains(roles, p.Role)
	})
}
