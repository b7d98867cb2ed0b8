package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alarino/dictweb/internal/observability"
)

// RateLimitRecorder counts requests rejected by RateLimit.
type RateLimitRecorder interface {
	RecordRateLimited(endpoint string)
}

// RequestRecorder receives request observations. *observability.Metrics
// satisfies it.
type RequestRecorder interface {
	RateLimitRecorder
	RecordRequest(method, endpoint string, status int, duration time.Duration)
	TrackInFlight() func()
}

// Metrics records every request under its backend endpoint label, so
// /api/translate/<word> and /api/translate/<other> share one series.
func Metrics(recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		done := recorder.TrackInFlight()
		defer done()

		c.Next()

		recorder.RecordRequest(c.Request.Method, observability.EndpointLabel(c.Request.URL.Path),
			c.Writer.Status(), time.Since(start))
	}
}
