package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Robertorri/HopVerk1/pkg/contextkeys"
)

func newTestLimiter(limit int, window time.Duration) *RateLimiter {
	return NewRateLimiter(RateLimiterConfig{
		Limit:          limit,
		Window:         window,
		MaxTrackedKeys: 64,
	}, nil)
}

func TestRateLimiter_Allow(t *testing.T) {
	t.Run("admits up to the limit", func(t *testing.T) {
		limiter := newTestLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.Allow("1.2.3.4")
			assert.True(t, allowed, "request %d", i+1)
		}

		allowed, retryAfter := limiter.Allow("1.2.3.4")
		assert.False(t, allowed)
		assert.Greater(t, retryAfter, time.Duration(0))
	})

	t.Run("window slides", func(t *testing.T) {
		limiter := newTestLimiter(2, time.Minute)

		base := time.Now()
		limiter.now = func() time.Time { return base }

		allowed, _ := limiter.Allow("1.2.3.4")
		assert.True(t, allowed)
		limiter.now = func() time.Time { return base.Add(30 * time.Second) }
		allowed, _ = limiter.Allow("1.2.3.4")
		assert.True(t, allowed)

		allowed, _ = limiter.Allow("1.2.3.4")
		assert.False(t, allowed)

		// The first request leaves the window after 60s
		limiter.now = func() time.Time { return base.Add(61 * time.Second) }
		allowed, _ = limiter.Allow("1.2.3.4")
		assert.True(t, allowed)
	})

	t.Run("rejected requests do not extend the window", func(t *testing.T) {
		limiter := newTestLimiter(1, time.Minute)

		base := time.Now()
		limiter.now = func() time.Time { return base }

		allowed, _ := limiter.Allow("1.2.3.4")
		assert.True(t, allowed)

		// Hammering while limited must not push the unlock time out
		for i := 1; i < 10; i++ {
			limiter.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
			allowed, _ := limiter.Allow("1.2.3.4")
			assert.False(t, allowed)
		}

		limiter.now = func() time.Time { return base.Add(61 * time.Second) }
		allowed, _ = limiter.Allow("1.2.3.4")
		assert.True(t, allowed)
	})

	t.Run("clients are independent", func(t *testing.T) {
		limiter := newTestLimiter(1, time.Minute)

		allowed, _ := limiter.Allow("1.2.3.4")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow("1.2.3.4")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow("5.6.7.8")
		assert.True(t, allowed)
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Run("limits by client IP and sets Retry-After", func(t *testing.T) {
		limiter := newTestLimiter(2, time.Minute)
		handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "1.2.3.4:5678"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	})

	t.Run("honors X-Forwarded-For", func(t *testing.T) {
		limiter := newTestLimiter(1, time.Minute)
		handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		makeReq := func(forwarded string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			req.Header.Set("X-Forwarded-For", forwarded)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		assert.Equal(t, http.StatusOK, makeReq("1.1.1.1").Code)
		assert.Equal(t, http.StatusTooManyRequests, makeReq("1.1.1.1").Code)
		assert.Equal(t, http.StatusOK, makeReq("2.2.2.2").Code)
	})

	t.Run("stores client IP in context", func(t *testing.T) {
		limiter := newTestLimiter(10, time.Minute)

		var gotIP string
		handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotIP, _ = r.Context().Value(contextkeys.ClientIPKey).(string)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "1.2.3.4", gotIP)
	})
}
