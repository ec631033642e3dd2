package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer mints session tokens.
type Issuer interface {
	Issue(userID string, now time.Time) (token string, expiresAt time.Time, err error)
}

// Verifier validates a session token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// IssueVerifier is both halves, which is what the credential service needs.
type IssueVerifier interface {
	Issuer
	Verifier
}

var _ IssueVerifier = (*HS256)(nil)

// HS256 signs and verifies session tokens with one process-wide shared
// secret. Changing the secret invalidates every token already issued.
type HS256 struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// Option tweaks an HS256.
type Option func(*HS256)

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(h *HS256) { h.leeway = d }
}

// WithClock replaces time.Now during verification.
func WithClock(now func() time.Time) Option {
	return func(h *HS256) { h.now = now }
}

// NewHS256 returns a signer/verifier for secret. A zero ttl falls back to
// DefaultSessionTTL.
func NewHS256(secret []byte, issuer string, ttl time.Duration, opts ...Option) (*HS256, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	h := &HS256{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// TTL is the lifetime given to newly issued tokens.
func (h *HS256) TTL() time.Duration { return h.ttl }

// Issue signs a token for userID.
func (h *HS256) Issue(userID string, now time.Time) (string, time.Time, error) {
	claims := NewSessionClaims(userID, h.issuer, h.ttl, now.UTC())
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, claims.ExpiresAt.Time, nil
}

// Verify parses token, checks the HS256 signature and the time-based claims.
// Every failure matches ErrInvalidToken.
func (h *HS256) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(h.leeway),
		jwt.WithTimeFunc(h.now),
	}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	var claims Claims
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return ErrInvalidClaim
	}
}
