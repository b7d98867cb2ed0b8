package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alarino/dictweb/internal/observability"
)

// AccessLog writes one line per request once the response is done. Relayed
// /api calls log as "api request" with the endpoint name; anything else
// logs as "request". The level follows the status class. Paths in skip are
// not logged.
func AccessLog(logger observability.Logger, skip ...string) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skipped[path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []observability.Field{
			observability.String("method", c.Request.Method),
			observability.String("path", path),
			observability.Int("status", status),
			observability.Duration("latency", time.Since(start)),
			observability.Int("bytes", c.Writer.Size()),
			observability.String("client_ip", c.ClientIP()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, observability.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, observability.String("errors", c.Errors.String()))
		}

		msg := "request"
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			msg = "api request"
			fields = append(fields, observability.String("endpoint", apiEndpoint(path)))
		}

		log := logger.WithContext(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			log.Error(msg, fields...)
		case status >= http.StatusBadRequest:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
	}
}
