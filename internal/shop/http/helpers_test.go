package http_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/greenbite/internal/shop/domain"
	shophttp "github.com/aussiebroadwan/greenbite/internal/shop/http"
	"github.com/aussiebroadwan/greenbite/internal/shop/mail"
	"github.com/aussiebroadwan/greenbite/internal/shop/metrics"
	"github.com/aussiebroadwan/greenbite/internal/shop/service"
	"github.com/aussiebroadwan/greenbite/internal/shop/store"
	"github.com/aussiebroadwan/greenbite/internal/shop/store/drivers/sqlite"
	"github.com/aussiebroadwan/greenbite/pkg/cryptox"
	"github.com/aussiebroadwan/greenbite/pkg/httpx"
	"github.com/aussiebroadwan/greenbite/pkg/idx"
	"github.com/aussiebroadwan/greenbite/pkg/jwtx"
	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
	"github.com/aussiebroadwan/greenbite/pkg/slogx"
)

const (
	adminEmail    = "admin@greenbite.test"
	adminPassword = "admin-pass"
)

// outbox keeps every message the service tried to send.
type outbox struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

// lastCode returns the most recent reset code mailed to email.
func (o *outbox) lastCode(t *testing.T, email string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.msgs) - 1; i >= 0; i-- {
		if o.msgs[i].To == email {
			return strings.TrimPrefix(o.msgs[i].Body, "Your reset code is: ")
		}
	}
	t.Fatalf("no mail sent to %s", email)
	return ""
}

type testEnv struct {
	url    string
	store  store.Store
	outbox *outbox
	reg    *prometheus.Registry
}

type envOption func(*shophttp.Router, *service.CredentialService)

func withLimits(l shophttp.Limits) envOption {
	return func(r *shophttp.Router, _ *service.CredentialService) { r.Limits = l }
}

func withMailer(d mail.Dispatcher, timeout time.Duration) envOption {
	return func(_ *shophttp.Router, c *service.CredentialService) {
		c.Mailer = d
		c.MailTimeout = timeout
	}
}

func withVerifiedCodes() envOption {
	return func(_ *shophttp.Router, c *service.CredentialService) { c.RequireVerifiedCode = true }
}

func relaxed() shophttp.Limits {
	loose := httpx.RateLimitConfig{Requests: 10000, Window: time.Minute, Burst: 10000}
	return shophttp.Limits{Global: loose, Strict: loose}
}

func setupServer(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := jwtx.NewHS256([]byte("e2e-secret-e2e-secret-e2e-secret"), "greenbite-test", jwtx.DefaultSessionTTL)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	box := &outbox{}

	creds := &service.CredentialService{
		Store:        st,
		Tokens:       tokens,
		Mailer:       box,
		Metrics:      collector,
		CodeKey:      []byte("e2e-code-key-e2e-code-key-e2e-01"),
		MailTimeout:  time.Second,
		StoreTimeout: 5 * time.Second,
	}

	router := shophttp.NewRouter("test", st, slogx.Discard(), false)
	router.Limits = relaxed()
	router.Metrics = collector
	router.Gatherer = reg
	router.CredentialService = creds
	router.CatalogService = service.NewCatalogService(st, 5*time.Second)
	router.CartService = &service.CartService{Store: st}
	router.OrderService = &service.OrderService{Store: st}
	router.ProfileImageService = &service.ProfileImageService{Store: st}

	for _, opt := range opts {
		opt(router, creds)
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{url: srv.URL, store: st, outbox: box, reg: reg}
}

// seedAdmin inserts an ADMIN account directly, since signup only creates
// USER accounts.
func (e *testEnv) seedAdmin(t *testing.T) {
	t.Helper()
	hash, err := cryptox.HashPassword(adminPassword)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, e.store.Users().CreateUser(t.Context(), domain.User{
		ID: idx.New().String(), Name: "Admin", Email: adminEmail, PasswordHash: hash,
		Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	}))
}

func (e *testEnv) adminClient(t *testing.T) *shopsdk.Client {
	t.Helper()
	e.seedAdmin(t)
	c := shopsdk.NewClient(e.url)
	_, err := c.Signin(t.Context(), shopsdk.SigninRequest{Email: adminEmail, Password: adminPassword})
	require.NoError(t, err)
	return c
}

func (e *testEnv) userClient(t *testing.T, name, email string) (*shopsdk.Client, *shopsdk.User) {
	t.Helper()
	c := shopsdk.NewClient(e.url)
	u, err := c.Signup(t.Context(), shopsdk.SignupRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return c, u
}

// requireAPIError asserts err is an API error with the given status and code.
func requireAPIError(t *testing.T, err error, status int, code string) *shopsdk.APIError {
	t.Helper()
	var apiErr *shopsdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected *shopsdk.APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}
