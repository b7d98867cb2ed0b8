package main

import (
	"context"
	"strings"

	"github.com/alarino/dictweb/internal/config"
	"github.com/alarino/dictweb/internal/observability"
)

// applyReload swaps the backend base address of the running forwarder.
// Every other section is read at startup only.
func applyReload(app *application, change config.Change) {
	if change.BackendChanged() {
		if err := app.forwarder.SetBackendURL(change.Current.BackendURL); err != nil {
			app.logger.Error("failed to apply backend URL", observability.Error(err))
			app.recordReload(false)
			return
		}
		app.logger.Info("backend URL updated",
			observability.String("backend", change.Current.BackendURL),
		)
	}

	if sections := change.RestartRequired(); len(sections) > 0 {
		app.logger.Warn("configuration changes take effect after restart",
			observability.String("sections", strings.Join(sections, ",")),
		)
	}

	app.config = change.Current
	app.recordReload(true)
}

func (app *application) recordReload(success bool) {
	if app.metrics != nil {
		app.metrics.RecordConfigReload(success)
	}
}

// startConfigWatcher watches configPath until ctx ends. It returns nil when
// no file is in use or the watcher cannot start.
func startConfigWatcher(ctx context.Context, app *application, configPath string) *config.Watcher {
	if configPath == "" {
		return nil
	}

	watcher, err := config.NewWatcher(configPath,
		func(change config.Change) { applyReload(app, change) },
		config.WithLogger(app.logger),
		config.WithErrorCallback(func(error) { app.recordReload(false) }),
	)
	if err != nil {
		app.logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		app.logger.Warn("failed to start config watcher", observability.Error(err))
		return nil
	}
	return watcher
}
