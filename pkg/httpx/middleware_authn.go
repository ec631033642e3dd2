package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "token"

// Authenticator resolves a raw session token to a caller. Errors that are
// *shopsdk.APIError are written as is; anything else becomes invalid_token.
type Authenticator interface {
	AuthenticateToken(ctx context.Context, token string) (Principal, error)
}

// TokenFromRequest returns the session token from the cookie, falling back
// to an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := TokenFromRequest(r)
			if raw == "" {
				shopsdk.ErrNoToken.WriteError(w)
				return
			}

			p, err := a.AuthenticateToken(ctx, raw)
			if err != nil {
				var apiErr *shopsdk.APIError
				if errors.As(err, &apiErr) {
					apiErr.WriteError(w)
					return
				}
				slogx.FromContext(ctx).Warn("session token rejected", "err", err)
				shopsdk.ErrInvalidToken.WriteError(w)
				return
			}

			ctx = WithPrincipal(ctx, p)
			ctx = slogx.With(ctx, "user_id", p.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
