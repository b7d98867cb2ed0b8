package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTracerName names the tracer when TracingConfig.ServiceName is empty.
const DefaultTracerName = "alarino-gateway"

// TracingConfig configures server spans.
type TracingConfig struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	ServiceName    string
	// SkipPaths are exact paths that never get a span, e.g. probes.
	SkipPaths []string
}

// TracingWithConfig starts a server span per request, continuing any trace
// propagated by the caller. The span is stored in the request context so the
// proxy's client span becomes its child.
func TracingWithConfig(config TracingConfig) gin.HandlerFunc {
	provider := config.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	propagators := config.Propagators
	if propagators == nil {
		propagators = otel.GetTextMapPropagator()
	}
	name := config.ServiceName
	if name == "" {
		name = DefaultTracerName
	}
	tracer := provider.Tracer(name)

	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := propagators.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(c.Request.Method),
				semconv.URLPath(c.Request.URL.Path),
				semconv.HTTPRoute(route),
				semconv.ClientAddress(c.ClientIP()),
				semconv.UserAgentOriginal(c.Request.UserAgent()),
				attribute.String("alarino.api.endpoint", apiEndpoint(c.Request.URL.Path)),
			),
		)
		defer span.End()

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPResponseStatusCode(status),
			attribute.Int("http.response.body.size", c.Writer.Size()),
		)
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// apiEndpoint returns the first path segment after /api, such as
// "translate" or "daily-word", or "" for other paths.
func apiEndpoint(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return ""
	}
	endpoint, _, _ := strings.Cut(rest, "/")
	return endpoint
}

// GetSpan returns the span active for the request. It is a no-op span when
// tracing is disabled.
func GetSpan(c *gin.Context) trace.Span {
	return trace.SpanFromContext(c.Request.Context())
}
