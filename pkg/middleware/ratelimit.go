package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Robertorri/HopVerk1/pkg/contextkeys"
	"github.com/Robertorri/HopVerk1/pkg/httputil"
	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// RateLimiterConfig controls the sliding-window rate limiter
type RateLimiterConfig struct {
	// Limit is the maximum number of requests allowed per window
	Limit int
	// Window is the sliding window length
	Window time.Duration
	// MaxTrackedKeys bounds the number of client IPs tracked at once
	MaxTrackedKeys int
}

// DefaultRateLimiterConfig returns the production defaults
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		Limit:          100,
		Window:         time.Minute,
		MaxTrackedKeys: 16384,
	}
}

// clientWindow holds one client's request timestamps within the window.
// The mutex serializes the prune-then-decide sequence per client.
type clientWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

// RateLimiter enforces a per-client-IP sliding window. A request is counted
// only when admitted; rejected requests do not extend the window.
type RateLimiter struct {
	config  RateLimiterConfig
	mu      sync.Mutex
	windows *lru.LRU[string, *clientWindow]
	metrics *observability.Metrics
	now     func() time.Time
}

// NewRateLimiter creates a sliding-window rate limiter. Idle clients are
// evicted once their whole window has elapsed.
func NewRateLimiter(config RateLimiterConfig, metrics *observability.Metrics) *RateLimiter {
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimiterConfig().Limit
	}
	if config.Window <= 0 {
		config.Window = DefaultRateLimiterConfig().Window
	}
	if config.MaxTrackedKeys <= 0 {
		config.MaxTrackedKeys = DefaultRateLimiterConfig().MaxTrackedKeys
	}

	return &RateLimiter{
		config:  config,
		windows: lru.NewLRU[string, *clientWindow](config.MaxTrackedKeys, nil, config.Window),
		metrics: metrics,
		now:     time.Now,
	}
}

// Allow decides whether one more request from the given key fits in the
// window right now. On rejection it returns the wait until the oldest
// counted request leaves the window.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	window, ok := rl.windows.Get(key)
	if !ok {
		window = &clientWindow{}
	}
	// Re-adding refreshes the entry TTL so active clients are never
	// evicted mid-window.
	rl.windows.Add(key, window)
	rl.mu.Unlock()

	window.mu.Lock()
	defer window.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.config.Window)

	kept := window.stamps[:0]
	for _, ts := range window.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	window.stamps = kept

	if len(window.stamps) >= rl.config.Limit {
		retryAfter := window.stamps[0].Add(rl.config.Window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	window.stamps = append(window.stamps, now)
	return true, 0
}

// Middleware applies the rate limit per client IP and stores the IP in the
// request context for downstream consumers.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r)
		ctx := context.WithValue(r.Context(), contextkeys.ClientIPKey, ip)
		r = r.WithContext(ctx)

		allowed, retryAfter := rl.Allow(ip)
		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RateLimitRejections.Inc()
			}
			seconds := int(retryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			httputil.WriteTooManyRequests(w, "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}
