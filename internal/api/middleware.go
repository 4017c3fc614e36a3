package api

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordnytt/aggregator/internal/logger"
)

// RequestLogger logs one line per request with method, path, status and
// latency.
func RequestLogger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		log.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(started),
			"client_ip", c.ClientIP(),
		)
	}
}

// CORS allows cross-origin requests from the configured origins only.
// Requests without an Origin header pass through untouched.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !slices.Contains(allowedOrigins, origin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// rateLimitWindow is the fixed window requests are counted over.
const rateLimitWindow = time.Minute

// sweepInterval is how often expired client windows are evicted.
const sweepInterval = time.Minute

// rateWindow tracks request counts for one client within the current
// window.
type rateWindow struct {
	count       int
	windowStart time.Time
}

// rateLimiter counts requests per client in fixed windows and evicts
// clients whose window has expired so the map stays bounded under IP
// churn.
type rateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*rateWindow
	limit     int
	lastSweep time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*rateWindow),
		limit:   limit,
	}
}

// allow records one request for the client and reports whether it stays
// within the limit.
func (l *rateLimiter) allow(client string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepInterval {
		l.sweep(now)
	}

	w, ok := l.clients[client]
	if !ok || now.Sub(w.windowStart) >= rateLimitWindow {
		w = &rateWindow{windowStart: now}
		l.clients[client] = w
	}
	w.count++

	return w.count <= l.limit
}

// sweep drops clients whose window has expired. Callers hold the lock.
func (l *rateLimiter) sweep(now time.Time) {
	for client, w := range l.clients {
		if now.Sub(w.windowStart) >= rateLimitWindow {
			delete(l.clients, client)
		}
	}

	l.lastSweep = now
}

// RateLimit caps requests per client IP per minute. A non-positive limit
// disables the middleware.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newRateLimiter(perMinute)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
