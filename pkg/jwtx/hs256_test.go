package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenbite/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "greenbite-test"

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndVerify(t *testing.T) {
	h, err := jwtx.NewHS256(secret, exampleIssuer, 0)
	require.NoError(t, err)
	require.Equal(t, jwtx.DefaultSessionTTL, h.TTL())

	now := time.Now().UTC().Truncate(time.Second)
	tok, exp, err := h.Issue("user-1", now)
	require.NoError(t, err)
	require.Equal(t, now.Add(7*24*time.Hour), exp)

	claims, err := h.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, exampleIssuer, claims.Issuer)
	require.NotEmpty(t, claims.ID)
}

func TestNewHS256_EmptySecret(t *testing.T) {
	_, err := jwtx.NewHS256(nil, exampleIssuer, time.Hour)
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}

func TestVerifyFailures(t *testing.T) {
	now := time.Now().UTC()
	h, err := jwtx.NewHS256(secret, exampleIssuer, time.Hour)
	require.NoError(t, err)
	good, _, err := h.Issue("user-1", now)
	require.NoError(t, err)

	other, err := jwtx.NewHS256([]byte("another-secret"), exampleIssuer, time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue("user-1", now)
	require.NoError(t, err)

	wrongIss, err := jwtx.NewHS256(secret, "someone-else", time.Hour)
	require.NoError(t, err)
	foreign, _, err := wrongIss.Issue("user-1", now)
	require.NoError(t, err)

	expired, _, err := h.Issue("user-1", now.Add(-2*time.Hour))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewSessionClaims("user-1", exampleIssuer, time.Hour, now))
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-token", jwtx.ErrMalformed},
		{"empty", "", jwtx.ErrMalformed},
		{"wrong secret", forged, jwtx.ErrInvalidSig},
		{"wrong issuer", foreign, jwtx.ErrIssuer},
		{"expired", expired, jwtx.ErrExpired},
		{"alg none", unsigned, jwtx.ErrInvalidToken},
		{"tampered payload", tampered, jwtx.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify(tt.token)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		})
	}
}

func TestVerifyUsesClock(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt

	h, err := jwtx.NewHS256(secret, exampleIssuer, time.Hour, jwtx.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)
	tok, _, err := h.Issue("user-1", issuedAt)
	require.NoError(t, err)

	clock = issuedAt.Add(59 * time.Minute)
	_, err = h.Verify(tok)
	require.NoError(t, err)

	clock = issuedAt.Add(61 * time.Minute)
	_, err = h.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyLeeway(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt.Add(time.Hour + 20*time.Second)

	h, err := jwtx.NewHS256(secret, exampleIssuer, time.Hour,
		jwtx.WithClock(func() time.Time { return clock }),
		jwtx.WithLeeway(30*time.Second),
	)
	require.NoError(t, err)
	tok, _, err := h.Issue("user-1", issuedAt)
	require.NoError(t, err)

	_, err = h.Verify(tok)
	require.NoError(t, err)
}
