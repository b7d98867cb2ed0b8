package main

import (
	"context"
	"time"

	"github.com/alarino/dictweb/internal/observability"
)

// run serves until ctx is cancelled or the server fails, then shuts down.
func run(ctx context.Context, app *application, configPath string) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.server.Start(context.WithoutCancel(ctx))
	}()

	startMetricsServer(app)

	watchCtx, stopWatching := context.WithCancel(ctx)
	defer stopWatching()
	watcher := startConfigWatcher(watchCtx, app, configPath)

	var err error
	select {
	case <-ctx.Done():
		app.logger.Info("received shutdown signal")
	case err = <-serveErr:
		if err != nil {
			app.logger.Error("server stopped unexpectedly", observability.Error(err))
		}
	}

	stopWatching()
	if watcher != nil {
		watcher.Wait()
	}

	shutdown(app)
	return err
}

// shutdown drains and stops every component.
func shutdown(app *application) {
	timeout := app.config.Server.ShutdownTimeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app.health.SetDraining(true)

	if app.metricsServer != nil {
		app.logger.Info("stopping metrics server")
		if err := app.metricsServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.Error("failed to stop gateway gracefully", observability.Error(err))
	}

	if err := app.tracer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	app.logger.Info("gateway stopped")
}
