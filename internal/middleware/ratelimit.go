package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apperrors "medireach/internal/errors"
)

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration
}

// DefaultRateLimitConfig allows 100 requests per 10 minutes per client with
// a burst of the same size.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100.0 / (10 * 60),
		Burst:             100,
		IdleTTL:           10 * time.Minute,
	}
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	cfg     RateLimitConfig
	now     func() time.Time
}

// NewRateLimiter builds a limiter. Call Sweep periodically to drop idle
// clients; Run does that until ctx is cancelled.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if c, ok := rl.clients[key]; ok {
		c.seen = rl.now()
		return c.lim
	}
	l := rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	rl.clients[key] = &client{lim: l, seen: rl.now()}
	return l
}

// Sweep removes clients idle for longer than IdleTTL.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if rl.now().Sub(c.seen) > rl.cfg.IdleTTL {
			delete(rl.clients, key)
		}
	}
}

// Run sweeps idle clients every minute until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Middleware limits requests keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lim := rl.get(c.RealIP())
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Burst))
			if !lim.Allow() {
				wait := time.Second
				if rl.cfg.RequestsPerSecond > 0 {
					wait = time.Duration(float64(time.Second) / rl.cfg.RequestsPerSecond)
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
					Error: "too many requests from this IP, please try again later",
					Code:  "RATE_LIMITED",
				})
			}
			return next(c)
		}
	}
}
