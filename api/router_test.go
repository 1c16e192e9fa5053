package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/config"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/session"
)

type idleStats struct{}

func (idleStats) Stats() scraper.Stats { return scraper.Stats{} }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mgr := session.NewManager(time.Hour)
	t.Cleanup(mgr.Close)

	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Auth:      config.AuthConfig{Enabled: true, APIKeys: []string{"secret"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1},
	}
	return NewRouter(Deps{Stats: idleStats{}, Sessions: mgr}, cfg, time.Now())
}

func get(h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/api/v1/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "harvest_http_requests_total")
}

func TestRouter_Auth(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/api/v1/models")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)

	w = get(r, "/api/v1/models", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/api/v1/models", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/api/v1/sessions/none", "X-API-Key", "secret")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(r, "/api/v1/sessions/none", "X-API-Key", "secret")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"RATE_LIMITED"`)
}
