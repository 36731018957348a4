package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func router(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger(zap.NewNop().Sugar()), rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func get(r http.Handler, client string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if client != "" {
		req.Header.Set("X-Client-ID", client)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterPerClient(t *testing.T) {
	now := time.Unix(0, 0)
	rl := NewRateLimiter(time.Second)
	rl.now = func() time.Time { return now }
	r := router(rl)

	assert.Equal(t, http.StatusNoContent, get(r, "a"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "a"))
	assert.Equal(t, http.StatusNoContent, get(r, "b"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, get(r, "a"))
}

func TestRateLimiterFallsBackToAddress(t *testing.T) {
	r := router(NewRateLimiter(time.Hour))
	assert.Equal(t, http.StatusNoContent, get(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, get(r, ""))
}

func TestRateLimiterDisabled(t *testing.T) {
	r := router(NewRateLimiter(0))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, get(r, "a"))
	}
}
