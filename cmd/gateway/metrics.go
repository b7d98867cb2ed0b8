package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/alarino/dictweb/internal/config"
	"github.com/alarino/dictweb/internal/observability"
)

// newMetricsServer serves metrics on a listener separate from the gateway.
func newMetricsServer(cfg config.MetricsConfig, metrics *observability.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

// startMetricsServer serves metrics in the background when enabled.
func startMetricsServer(app *application) {
	if app.metrics == nil || !app.config.Metrics.Enabled {
		return
	}

	srv := newMetricsServer(app.config.Metrics, app.metrics)
	app.metricsServer = srv
	app.logger.Info("serving metrics",
		observability.String("address", srv.Addr),
		observability.String("path", app.config.Metrics.Path),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("metrics server failed", observability.Error(err))
		}
	}()
}
