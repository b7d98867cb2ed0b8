package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alarino/dictweb/internal/observability"
)

// BodyLimit rejects requests whose declared Content-Length exceeds maxSize
// and caps the readable body of the rest. A non-positive maxSize disables
// the limit.
func BodyLimit(maxSize int64, logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		if maxSize <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			logger.Warn("request body too large",
				observability.Int64("content_length", c.Request.ContentLength),
				observability.Int64("max_size", maxSize),
				observability.String("path", c.Request.URL.Path),
				observability.String("request_id", GetRequestID(c)),
			)
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}

		c.Next()
	}
}
