// Package observability provides logging, metrics, and tracing for the
// dictionary gateway and its clients.
//
// # Logging
//
// Logger is a small structured logging interface backed by zap. Field
// constructors are re-exported so callers never import zap directly:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	logger.Info("gateway started", observability.String("listen", ":3000"))
//
// # Metrics
//
// Metrics owns a private Prometheus registry with the gateway request,
// upstream, rate limit and reload series. Request series are labelled with
// EndpointLabel, which folds unknown /api paths into "other". Handler
// exposes the registry for scraping.
//
// # Tracing
//
// Tracer wraps an OpenTelemetry TracerProvider. When tracing is disabled
// a no-op provider is used, so spans are always safe to start.
package observability
