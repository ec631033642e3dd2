package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shophttp "github.com/aussiebroadwan/greenbite/internal/shop/http"
	"github.com/aussiebroadwan/greenbite/internal/shop/mail"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

func TestSignupSigninMe(t *testing.T) {
	env := setupServer(t)
	ctx := t.Context()

	client := shopsdk.NewClient(env.url)
	user, err := client.Signup(ctx, shopsdk.SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "ann@x.com", user.Email)
	require.NotEmpty(t, client.SessionCookie(), "signup sets the session cookie")

	me, err := client.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, "Ann", me.Name)
	assert.Nil(t, me.ProfileImageURL)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := shopsdk.NewClient(env.url).Signup(ctx, shopsdk.SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret2"})
		requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeEmailTaken)
	})

	t.Run("signin opens a new session", func(t *testing.T) {
		other := shopsdk.NewClient(env.url)
		u, err := other.Signin(ctx, shopsdk.SigninRequest{Email: "ann@x.com", Password: "secret1"})
		require.NoError(t, err)
		require.Equal(t, user.ID, u.ID)

		me, err := other.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, user.ID, me.ID)
	})

	t.Run("bearer token works without the cookie", func(t *testing.T) {
		bearer := &shopsdk.Client{BaseURL: env.url, HTTPClient: http.DefaultClient, Token: client.SessionCookie()}
		me, err := bearer.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, user.ID, me.ID)
	})

	t.Run("signout clears the cookie", func(t *testing.T) {
		c := shopsdk.NewClient(env.url)
		_, err := c.Signin(ctx, shopsdk.SigninRequest{Email: "ann@x.com", Password: "secret1"})
		require.NoError(t, err)

		require.NoError(t, c.Signout(ctx))
		require.Empty(t, c.SessionCookie())

		_, err = c.Me(ctx)
		requireAPIError(t, err, http.StatusUnauthorized, shopsdk.CodeNoToken)
	})
}

func TestSigninDoesNotRevealAccounts(t *testing.T) {
	env := setupServer(t)
	env.userClient(t, "Ann", "ann@x.com")

	c := shopsdk.NewClient(env.url)
	_, wrongPassword := c.Signin(t.Context(), shopsdk.SigninRequest{Email: "ann@x.com", Password: "wrong-pass"})
	_, unknownEmail := c.Signin(t.Context(), shopsdk.SigninRequest{Email: "nobody@x.com", Password: "wrong-pass"})

	a := requireAPIError(t, wrongPassword, http.StatusBadRequest, shopsdk.CodeInvalidCreds)
	b := requireAPIError(t, unknownEmail, http.StatusBadRequest, shopsdk.CodeInvalidCreds)
	require.Equal(t, a.Message, b.Message)
}

func TestSessionCookieAttributes(t *testing.T) {
	env := setupServer(t)

	body, _ := json.Marshal(shopsdk.SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	resp, err := http.Post(env.url+"/api/auth/signup", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == httpx.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.False(t, session.Secure)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, "/", session.Path)
	assert.InDelta(t, 7*24*3600, session.MaxAge, 5)
}

func TestMeFailures(t *testing.T) {
	env := setupServer(t)
	ctx := t.Context()

	_, err := shopsdk.NewClient(env.url).Me(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, shopsdk.CodeNoToken)

	garbage := &shopsdk.Client{BaseURL: env.url, HTTPClient: http.DefaultClient, Token: "not.a.jwt"}
	_, err = garbage.Me(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, shopsdk.CodeInvalidToken)
}

func TestRequestValidation(t *testing.T) {
	env := setupServer(t)
	c := shopsdk.NewClient(env.url)

	_, err := c.Signup(t.Context(), shopsdk.SignupRequest{Name: "A", Email: "not-an-email", Password: "123"})
	apiErr := requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeValidation)
	assert.Contains(t, apiErr.Details, "name")
	assert.Contains(t, apiErr.Details, "email")
	assert.Contains(t, apiErr.Details, "password")

	resp, err := http.Post(env.url+"/api/auth/signin", "application/json", bytes.NewBufferString(`{"email":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body shopsdk.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, shopsdk.CodeInvalidJSON, body.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	env := setupServer(t)
	ctx := t.Context()
	env.userClient(t, "Ann", "ann@x.com")

	c := shopsdk.NewClient(env.url)

	msg, err := c.ForgotPassword(ctx, "ann@x.com")
	require.NoError(t, err)
	require.Equal(t, "Reset code sent to email", msg.Message)

	code := env.outbox.lastCode(t, "ann@x.com")
	require.Regexp(t, `^[1-9][0-9]{5}$`, code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = c.VerifyCode(ctx, "ann@x.com", wrong)
	requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeInvalidCode)

	msg, err = c.VerifyCode(ctx, "ann@x.com", code)
	require.NoError(t, err)
	require.Equal(t, "Code verified", msg.Message)

	msg, err = c.ResetPassword(ctx, "ann@x.com", "brand-new")
	require.NoError(t, err)
	require.Equal(t, "Password reset successfully", msg.Message)

	// Codes are gone after a reset.
	_, err = c.VerifyCode(ctx, "ann@x.com", code)
	requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeInvalidCode)

	_, err = c.Signin(ctx, shopsdk.SigninRequest{Email: "ann@x.com", Password: "secret1"})
	requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeInvalidCreds)
	_, err = c.Signin(ctx, shopsdk.SigninRequest{Email: "ann@x.com", Password: "brand-new"})
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := c.ForgotPassword(ctx, "nobody@x.com")
		requireAPIError(t, err, http.StatusNotFound, shopsdk.CodeUserNotFound)

		_, err = c.ResetPassword(ctx, "nobody@x.com", "brand-new")
		requireAPIError(t, err, http.StatusNotFound, shopsdk.CodeUserNotFound)
	})
}

// stalledMailer never delivers and gives up only when its context does.
type stalledMailer struct{}

func (stalledMailer) Send(ctx context.Context, _ mail.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

type brokenMailer struct{}

func (brokenMailer) Send(context.Context, mail.Message) error {
	return errors.New("smtp: 554 rejected")
}

func TestForgotPasswordMailFailures(t *testing.T) {
	for name, d := range map[string]mail.Dispatcher{
		"timeout":  stalledMailer{},
		"rejected": brokenMailer{},
	} {
		t.Run(name, func(t *testing.T) {
			env := setupServer(t, withMailer(d, 20*time.Millisecond))
			c := shopsdk.NewClient(env.url)
			_, err := c.Signup(t.Context(), shopsdk.SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
			require.NoError(t, err)

			_, err = c.ForgotPassword(t.Context(), "ann@x.com")
			requireAPIError(t, err, http.StatusInternalServerError, shopsdk.CodeServerError)
		})
	}
}

func TestResetRequiresVerifiedCode(t *testing.T) {
	env := setupServer(t, withVerifiedCodes())
	ctx := t.Context()
	env.userClient(t, "Ann", "ann@x.com")

	c := shopsdk.NewClient(env.url)

	_, err := c.ResetPassword(ctx, "ann@x.com", "brand-new")
	requireAPIError(t, err, http.StatusForbidden, shopsdk.CodeCodeNotVerified)

	_, err = c.ForgotPassword(ctx, "ann@x.com")
	require.NoError(t, err)
	_, err = c.ResetPassword(ctx, "ann@x.com", "brand-new")
	requireAPIError(t, err, http.StatusForbidden, shopsdk.CodeCodeNotVerified)

	_, err = c.VerifyCode(ctx, "ann@x.com", env.outbox.lastCode(t, "ann@x.com"))
	require.NoError(t, err)
	_, err = c.ResetPassword(ctx, "ann@x.com", "brand-new")
	require.NoError(t, err)

	// The verified code was consumed.
	_, err = c.ResetPassword(ctx, "ann@x.com", "another-one")
	requireAPIError(t, err, http.StatusForbidden, shopsdk.CodeCodeNotVerified)
}

func TestCredentialRateLimits(t *testing.T) {
	limits := relaxed()
	limits.Strict.Requests, limits.Strict.Burst = 2, 2
	env := setupServer(t, withLimits(limits))

	c := shopsdk.NewClient(env.url)
	for range 2 {
		_, err := c.Signin(t.Context(), shopsdk.SigninRequest{Email: "ann@x.com", Password: "nope"})
		requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeInvalidCreds)
	}
	_, err := c.Signin(t.Context(), shopsdk.SigninRequest{Email: "ann@x.com", Password: "nope"})
	requireAPIError(t, err, http.StatusTooManyRequests, shopsdk.CodeRateLimited)

	// Signup is not on the strict budget.
	_, err = c.Signup(t.Context(), shopsdk.SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.NoError(t, err)
}

// signinVia posts a failing signin carrying the given X-Forwarded-For and
// returns the status code.
func signinVia(t *testing.T, url, forwardedFor string) int {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, url+"/api/auth/signin",
		bytes.NewBufferString(`{"email":"ann@x.com","password":"nope"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = res.Body.Close()
	return res.StatusCode
}

func TestSigninLimitIgnoresForwardedFor(t *testing.T) {
	limits := relaxed()
	limits.Strict.Requests, limits.Strict.Burst = 2, 2
	env := setupServer(t, withLimits(limits))

	statuses := make([]int, 0, 6)
	for i := range 6 {
		statuses = append(statuses, signinVia(t, env.url, fmt.Sprintf("10.0.0.%d", i+1)))
	}
	assert.Equal(t, []int{400, 400, 429, 429, 429, 429}, statuses)
}

func TestSigninLimitBehindTrustedProxy(t *testing.T) {
	proxies, err := httpx.ParseTrustedProxies([]string{"127.0.0.1", "::1"})
	require.NoError(t, err)

	limits := relaxed()
	limits.Strict.Requests, limits.Strict.Burst = 1, 1
	limits.TrustedProxies = proxies
	env := setupServer(t, withLimits(limits))

	// The test server is the trusted hop, so each forwarded client gets its
	// own budget.
	assert.Equal(t, http.StatusBadRequest, signinVia(t, env.url, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, signinVia(t, env.url, "203.0.113.1"))
	assert.Equal(t, http.StatusBadRequest, signinVia(t, env.url, "203.0.113.2"))
}

func TestProfileImageUploadDisabled(t *testing.T) {
	env := setupServer(t)
	c, _ := env.userClient(t, "Ann", "ann@x.com")

	_, err := c.RequestProfileImageUpload(t.Context(), "image/png")
	requireAPIError(t, err, http.StatusNotFound, shopsdk.CodeNotFound)

	_, err = c.RequestProfileImageUpload(t.Context(), "text/html")
	requireAPIError(t, err, http.StatusBadRequest, shopsdk.CodeValidation)

	_, err = shopsdk.NewClient(env.url).RequestProfileImageUpload(t.Context(), "image/png")
	requireAPIError(t, err, http.StatusUnauthorized, shopsdk.CodeNoToken)
}

var _ http.Handler = (*shophttp.Router)(nil)
