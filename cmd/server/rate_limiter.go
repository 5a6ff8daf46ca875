// rate_limiter.go - Per-IP rate limiting for codec endpoint abuse prevention.

package main

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"git.uuxo.net/uuxo/mime-resolver/internal/config"
	"git.uuxo.net/uuxo/mime-resolver/internal/metrics"
	"git.uuxo.net/uuxo/mime-resolver/internal/utils"
)

// tokenBucket implements a simple token bucket rate limiter per key.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// RateLimiter manages per-IP rate limiting using token buckets.
type RateLimiter struct {
	config    *config.RateLimitConfig
	buckets   sync.Map // map[string]*tokenBucket
	whitelist map[string]bool
}

var (
	rateLimiter     *RateLimiter
	rateLimiterOnce sync.Once
)

// InitRateLimiter initializes the global rate limiter.
func InitRateLimiter(cfg *config.RateLimitConfig) {
	rateLimiterOnce.Do(func() {
		if cfg == nil || !cfg.Enabled {
			log.Info("Rate limiter is disabled")
			return
		}

		if cfg.RequestsPerMin <= 0 {
			cfg.RequestsPerMin = 60
		}
		if cfg.BurstSize <= 0 {
			cfg.BurstSize = cfg.RequestsPerMin / 2
			if cfg.BurstSize < 5 {
				cfg.BurstSize = 5
			}
		}

		wl := make(map[string]bool, len(cfg.WhitelistedIPs))
		for _, ip := range cfg.WhitelistedIPs {
			wl[ip] = true
		}
		// Always whitelist localhost
		wl["127.0.0.1"] = true
		wl["::1"] = true

		rateLimiter = &RateLimiter{
			config:    cfg,
			whitelist: wl,
		}

		// Start cleanup goroutine to evict stale buckets
		cleanupInterval := 5 * time.Minute
		if cfg.CleanupInterval != "" {
			if d, err := utils.ParseTTL(cfg.CleanupInterval); err == nil {
				cleanupInterval = d
			}
		}
		go rateLimiter.cleanupLoop(cleanupInterval)

		log.Infof("Rate limiter initialized: %d req/min, burst=%d", cfg.RequestsPerMin, cfg.BurstSize)
	})
}

// GetRateLimiter returns the global rate limiter (may be nil if disabled).
func GetRateLimiter() *RateLimiter {
	return rateLimiter
}

// Allow checks if a request should be allowed based on rate limits.
func (rl *RateLimiter) Allow(r *http.Request) bool {
	if rl == nil || !rl.config.Enabled {
		return true
	}

	clientIP := utils.GetClientIP(r)

	if rl.whitelist[clientIP] {
		return true
	}

	return rl.allowKey("ip:" + clientIP)
}

// allowKey checks the token bucket for a given key.
func (rl *RateLimiter) allowKey(key string) bool {
	now := time.Now()

	val, loaded := rl.buckets.Load(key)
	if !loaded {
		bucket := &tokenBucket{
			tokens:     float64(rl.config.BurstSize),
			maxTokens:  float64(rl.config.BurstSize),
			refillRate: float64(rl.config.RequestsPerMin) / 60.0,
			lastRefill: now,
		}
		val, _ = rl.buckets.LoadOrStore(key, bucket)
	}

	bucket := val.(*tokenBucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.tokens += elapsed * bucket.refillRate
	if bucket.tokens > bucket.maxTokens {
		bucket.tokens = bucket.maxTokens
	}
	bucket.lastRefill = now

	if bucket.tokens >= 1.0 {
		bucket.tokens -= 1.0
		return true
	}

	return false
}

// cleanupLoop periodically removes stale token buckets.
func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		staleThreshold := time.Now().Add(-10 * time.Minute)
		var deleted int

		rl.buckets.Range(func(key, val interface{}) bool {
			bucket := val.(*tokenBucket)
			bucket.mu.Lock()
			stale := bucket.lastRefill.Before(staleThreshold)
			bucket.mu.Unlock()
			if stale {
				rl.buckets.Delete(key)
				deleted++
			}
			return true
		})

		if deleted > 0 {
			log.Debugf("Rate limiter: cleaned up %d stale buckets", deleted)
		}
	}
}

// RateLimitMiddleware returns an HTTP middleware that enforces rate limits.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl := GetRateLimiter()
		if rl == nil || !rl.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		// Only rate-limit payload-carrying methods
		if r.Method != http.MethodPut && r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.Allow(r) {
			clientIP := utils.GetClientIP(r)
			log.Warnf("Rate limit exceeded: ip=%s, path=%s", clientIP, r.URL.Path)
			metrics.RateLimitedTotal.Inc()

			w.Header().Set("Retry-After", "60")
			w.Header().Set("X-RateLimit-Limit", formatIntHeader(rl.config.RequestsPerMin))
			w.Header().Set("X-RateLimit-Reset", formatIntHeader(int(time.Now().Add(60*time.Second).Unix())))
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// formatIntHeader formats an int as a string for HTTP headers.
func formatIntHeader(v int) string {
	return fmt.Sprintf("%d", v)
}
