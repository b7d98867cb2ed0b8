package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alarino/dictweb/internal/observability"
)

// ErrNoConfigPath is returned when a watcher is created without a file.
var ErrNoConfigPath = errors.New("config path is required for watching")

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Change is one successful reload.
type Change struct {
	Previous *GatewayConfig
	Current  *GatewayConfig
}

// BackendChanged reports whether the backend base address moved.
func (c Change) BackendChanged() bool {
	return c.Previous == nil || c.Previous.BackendURL != c.Current.BackendURL
}

// RestartRequired names the changed sections that are only read at startup.
func (c Change) RestartRequired() []string {
	if c.Previous == nil {
		return nil
	}
	p, n := c.Previous, c.Current

	var sections []string
	add := func(changed bool, name string) {
		if changed {
			sections = append(sections, name)
		}
	}
	add(p.Listen != n.Listen, "listen")
	add(p.SiteURL != n.SiteURL, "siteURL")
	add(p.Server != n.Server, "server")
	add(p.Upstream != n.Upstream, "upstream")
	add(p.Logging != n.Logging, "logging")
	add(p.Metrics != n.Metrics, "metrics")
	add(p.Tracing != n.Tracing, "tracing")
	add(p.RateLimit != n.RateLimit, "rateLimit")
	return sections
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long the watcher waits for writes to settle.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback is invoked for every rejected reload.
func WithErrorCallback(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithLoader sets the loader used for every read of the file.
func WithLoader(loader *Loader) WatcherOption {
	return func(w *Watcher) {
		w.loader = loader
	}
}

// Watcher reloads the gateway file when it changes on disk. A file that
// fails to parse or validate is reported and the last good configuration
// stays in effect.
type Watcher struct {
	path     string
	loader   *Loader
	onChange func(Change)
	onError  func(error)
	logger   observability.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *GatewayConfig
	done    chan struct{}
}

// NewWatcher creates a watcher for path. onChange runs on the watcher's
// goroutine after each successful reload.
func NewWatcher(path string, onChange func(Change), opts ...WatcherOption) (*Watcher, error) {
	if path == "" {
		return nil, ErrNoConfigPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	w := &Watcher{
		path:     abs,
		loader:   NewLoader(),
		onChange: onChange,
		logger:   observability.NopLogger(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start reads the file once and then watches it until ctx is done. The
// initial read must succeed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.done != nil {
		w.mu.Unlock()
		return errors.New("config watcher already started")
	}
	w.mu.Unlock()

	cfg, err := w.read()
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	// Editors save by rename, so the directory is watched, not the file.
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	done := make(chan struct{})
	w.mu.Lock()
	w.current = cfg
	w.done = done
	w.mu.Unlock()

	w.logger.Info("watching configuration file", observability.String("path", w.path))
	go w.loop(ctx, fsw, done)
	return nil
}

// Wait blocks until the watch loop has exited. It returns immediately when
// the watcher was never started.
func (w *Watcher) Wait() {
	w.mu.RLock()
	done := w.done
	w.mu.RUnlock()
	if done != nil {
		<-done
	}
}

// Current returns the configuration now in effect.
func (w *Watcher) Current() *GatewayConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	defer func() { _ = fsw.Close() }()

	settle := time.NewTimer(w.debounce)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped watching configuration file")
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.logger.Debug("configuration file event",
				observability.String("op", ev.Op.String()),
			)
			settle.Reset(w.debounce)
		case <-settle.C:
			w.reload()
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.fail("file watcher error", err)
		}
	}
}

func (w *Watcher) reload() {
	next, err := w.read()
	if err != nil {
		w.fail("configuration reload rejected", err)
		return
	}

	w.mu.Lock()
	change := Change{Previous: w.current, Current: next}
	w.current = next
	w.mu.Unlock()

	w.logger.Info("configuration reloaded",
		observability.String("path", w.path),
		observability.Bool("backend_changed", change.BackendChanged()),
	)
	if w.onChange != nil {
		w.onChange(change)
	}
}

func (w *Watcher) read() (*GatewayConfig, error) {
	cfg, err := w.loader.Load(w.path)
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w *Watcher) fail(msg string, err error) {
	w.logger.Error(msg, observability.String("path", w.path), observability.Error(err))
	if w.onError != nil {
		w.onError(err)
	}
}
