package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/plenzo-app/plenzo/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func rateLimitedRouter(cfg config.RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(RateLimit(cfg))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	r := rateLimitedRouter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"), "request %d within burst", i+1)
	}
}

func TestRateLimit_BlocksBeyondBurst(t *testing.T) {
	r := rateLimitedRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:12345"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error": "Rate limit exceeded, please slow down."}`, w.Body.String())
}

func TestRateLimit_BucketsAreSeparatePerIP(t *testing.T) {
	r := rateLimitedRouter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.3"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.3"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.4"), "a fresh IP gets its own bucket")
}
