package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/brokerflow/internal/logger"
	"github.com/guttosm/brokerflow/internal/metrics"
)

// RequestLogger logs one line per request and counts it by route template
// and status code.
//
// Example log output:
//
//	{"component":"http","request_id":"...","method":"POST","route":"/api/v1/pipelines/:name/runs","status":202,"latency_ms":3}
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		rid, _ := c.Get(RequestIDKey)
		l := logger.With("http")
		l.Info().
			Str("request_id", toString(rid)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status", status).
			Int64("latency_ms", time.Since(start).Milliseconds()).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// RateLimiter allows at most limit requests per window for each client IP,
// refilled evenly across the window. Run triggers start heavy background
// work, so the ops API guards them.
//
// Response when the limit is exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"message":"rate limit exceeded", ...}
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	clients := newIPLimiters(limit, window)

	return func(c *gin.Context) {
		if !clients.allow(c.ClientIP(), time.Now()) {
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}

type ipLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiters keeps one token bucket per client IP. Buckets idle for a whole
// window are full again, so they are dropped on the next sweep.
type ipLimiters struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	window    time.Duration
	clients   map[string]*ipLimiter
	lastSweep time.Time
}

func newIPLimiters(limit int, window time.Duration) *ipLimiters {
	limit = max(limit, 1)
	return &ipLimiters{
		every:     rate.Every(window / time.Duration(limit)),
		burst:     limit,
		window:    window,
		clients:   make(map[string]*ipLimiter),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiters) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		for k, cl := range l.clients {
			if now.Sub(cl.seen) >= l.window {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[ip]
	if !ok {
		cl = &ipLimiter{lim: rate.NewLimiter(l.every, l.burst)}
		l.clients[ip] = cl
	}
	cl.seen = now
	return cl.lim.AllowN(now, 1)
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
