package http_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/greenbite/pkg/shopsdk"
)

func TestHealth(t *testing.T) {
	env := setupServer(t)
	c := shopsdk.NewClient(env.url)

	live, err := c.Livez(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ok", live.Status)
	assert.Equal(t, "test", live.Version)

	ready, err := c.Readyz(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "ok", ready.Checks["database"])
}

func TestReadyzDegradedWhenStoreClosed(t *testing.T) {
	env := setupServer(t)
	require.NoError(t, env.store.Close())

	_, err := shopsdk.NewClient(env.url).Readyz(t.Context())
	var apiErr *shopsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupServer(t)
	c := shopsdk.NewClient(env.url)

	_, err := c.ListProducts(t.Context())
	require.NoError(t, err)
	_, err = c.Signin(t.Context(), shopsdk.SigninRequest{Email: "a@x.com", Password: "nope"})
	require.Error(t, err)

	resp, err := http.Get(env.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `greenbite_http_requests_total{method="GET",route="GET /api/products",status="200"} 1`)
	assert.Contains(t, string(body), `greenbite_auth_events_total{event="signin",outcome="rejected"} 1`)
}

func TestSecurityAndRequestIDHeaders(t *testing.T) {
	env := setupServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, env.url+"/livez", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestUnknownRoute(t *testing.T) {
	env := setupServer(t)

	resp, err := http.Get(env.url + "/api/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
