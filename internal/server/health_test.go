package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	rec, body := serve(t, h.LivenessHandler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc, err := NewServerContext(context.Background(), testConfig(), Options{Provider: &stubProvider{status: "sent"}})
	require.NoError(t, err)
	h := NewHealthChecker(sc)

	rec, body := serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	h.SetReady(false)
	assert.False(t, h.IsReady())
	rec, _ = serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec, body = serve(t, h.ReadinessHandler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "shutting down", checks["shutdown"])
}

func TestHealthChecker_DetailedNeverLeaksCredentials(t *testing.T) {
	cfg := testConfig()
	sc, err := NewServerContext(context.Background(), cfg, Options{Provider: &stubProvider{status: "sent"}})
	require.NoError(t, err)
	h := NewHealthChecker(sc)

	rec, body := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "set", body["twilio_account_sid"])
	assert.Equal(t, "set", body["twilio_auth_token"])
	assert.Equal(t, float64(3), body["max_attempts"])
	assert.NotContains(t, rec.Body.String(), cfg.AuthToken)
	assert.NotContains(t, rec.Body.String(), cfg.AccountSID)
	assert.False(t, strings.Contains(rec.Body.String(), cfg.FromNumber), "sender number should be masked")
}

func TestHealthChecker_RegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker(nil).RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
