package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/alarino/dictweb/internal/observability"
)

// maxTrackedClients bounds the per-client limiter map.
const maxTrackedClients = 10000

// MessageTooManyRequests is the message of the 429 envelope.
const MessageTooManyRequests = "Too many requests."

// RateLimiter hands out token buckets, either one shared bucket or one per
// client IP.
type RateLimiter struct {
	rps       rate.Limit
	burst     int
	perClient bool
	shared    *rate.Limiter

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// bursts of up to burst requests.
func NewRateLimiter(rps float64, burst int, perClient bool) *RateLimiter {
	return &RateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		perClient: perClient,
		shared:    rate.NewLimiter(rate.Limit(rps), burst),
		clients:   make(map[string]*rate.Limiter),
	}
}

// Allow reports whether a request from clientIP may proceed.
func (rl *RateLimiter) Allow(clientIP string) bool {
	if !rl.perClient {
		return rl.shared.Allow()
	}

	rl.mu.Lock()
	limiter, ok := rl.clients[clientIP]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			rl.clients = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.clients[clientIP] = limiter
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// RateLimit rejects requests over the limit with 429 and a JSON envelope.
// recorder may be nil.
func RateLimit(limiter *RateLimiter, logger observability.Logger, recorder RateLimitRecorder) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		logger.Warn("rate limit exceeded",
			observability.String("client_ip", c.ClientIP()),
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.String("request_id", GetRequestID(c)),
		)
		if recorder != nil {
			recorder.RecordRateLimited(observability.EndpointLabel(c.Request.URL.Path))
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"status":  http.StatusTooManyRequests,
			"message": MessageTooManyRequests,
			"data":    nil,
		})
	}
}
