package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/use-agent/harvest/config"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.POST("/sessions/:id/launch", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(APIKeyContextKey))
	})
	return r
}

func launch(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sessions/abc/launch", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", ""}))

	tests := []struct {
		name   string
		header string
		value  string
		status int
		body   string
	}{
		{"missing", "", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized, "invalid API key"},
		{"header key", "X-API-Key", "k1", http.StatusOK, "k1"},
		{"bearer", "Authorization", "Bearer k1", http.StatusOK, "k1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := launch(r, tt.header, tt.value)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth([]string{""}))
	assert.Equal(t, http.StatusOK, launch(r, "", "").Code)
}

func TestRateLimit_PerKeyWithRetryAfter(t *testing.T) {
	r := newEngine(
		Auth([]string{"k1", "k2"}),
		RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.1, Burst: 1}),
	)

	assert.Equal(t, http.StatusOK, launch(r, "X-API-Key", "k1").Code)

	w := launch(r, "X-API-Key", "k1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// a second key has its own bucket
	assert.Equal(t, http.StatusOK, launch(r, "X-API-Key", "k2").Code)
}
