package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("generates an ID when none is provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		headerID := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("keeps a caller-supplied UUID", func(t *testing.T) {
		existing := uuid.New().String()
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existing)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, existing, w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces a non-UUID value", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "totally-not-a-uuid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		headerID := w.Header().Get(RequestIDHeader)
		assert.NotEqual(t, "totally-not-a-uuid", headerID)
		_, err := uuid.Parse(headerID)
		assert.NoError(t, err)
	})
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest("GET", "/boom", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

type fakeLimiter struct {
	allowed   bool
	remaining int
	err       error
}

func (f *fakeLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return f.allowed, f.err
}

func (f *fakeLimiter) GetRemaining(context.Context, string, int, time.Duration) (int, error) {
	return f.remaining, nil
}

func newRateLimitRouter(limiter RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(RateLimit(limiter, RateLimitConfig{Limit: 10, Window: time.Minute}))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed request passes with headers", func(t *testing.T) {
		router := newRateLimitRouter(&fakeLimiter{allowed: true, remaining: 7})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Header().Get(RateLimitLimit))
		assert.Equal(t, "7", w.Header().Get(RateLimitRemaining))
	})

	t.Run("denied request gets 429 with retry header", func(t *testing.T) {
		router := newRateLimitRouter(&fakeLimiter{allowed: false})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMITED")
		assert.Equal(t, "60", w.Header().Get(RetryAfter))
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		router := newRateLimitRouter(&fakeLimiter{err: errors.New("redis down")})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("nil limiter passes through", func(t *testing.T) {
		router := newRateLimitRouter(nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
