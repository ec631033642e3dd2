package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

// sessionAuthenticator adapts the credential service to httpx.AuthnMiddleware.
type sessionAuthenticator struct {
	creds *service.CredentialService
}

func (a sessionAuthenticator) AuthenticateToken(ctx context.Context, token string) (httpx.Principal, error) {
	id, err := a.creds.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrTransient) {
			return httpx.Principal{}, shopsdk.ErrUnavailable
		}
		return httpx.Principal{}, err
	}
	return httpx.Principal{Subject: id.UserID, Role: string(id.Role)}, nil
}

// identity returns the caller resolved by the authn middleware.
func identity(r *http.Request) domain.Identity {
	p, _ := httpx.PrincipalFromContext(r.Context())
	return domain.Identity{UserID: p.Subject, Role: domain.Role(p.Role)}
}

func requireCapability(c domain.Capability) httpx.Middleware {
	return httpx.Require(func(p httpx.Principal) bool {
		return domain.Identity{UserID: p.Subject, Role: domain.Role(p.Role)}.Can(c)
	})
}
