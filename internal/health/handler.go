package health

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alarino/dictweb/internal/observability"
)

// Probe routes served on the main engine.
const (
	PathLive   = "/livez"
	PathHealth = "/healthz"
	PathReady  = "/readyz"
)

// ProbePaths lists every probe route, e.g. for log and span filters.
var ProbePaths = []string{PathLive, PathHealth, PathReady}

// DefaultReadinessProbeTimeout bounds one readiness evaluation.
const DefaultReadinessProbeTimeout = 5 * time.Second

// Probe status values.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDraining = "draining"
)

// Report is the body of every probe response.
type Report struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Uptime    string                  `json:"uptime,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
	Checks    map[string]*CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// Handler serves the probes.
type Handler struct {
	logger   observability.Logger
	version  string
	started  time.Time
	timeout  time.Duration
	draining atomic.Bool

	mu     sync.RWMutex
	checks []Check
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger logs failed readiness checks.
func WithLogger(logger observability.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithVersion sets the version reported by /healthz.
func WithVersion(version string) Option {
	return func(h *Handler) {
		h.version = version
	}
}

// WithReadinessTimeout bounds a readiness evaluation.
func WithReadinessTimeout(timeout time.Duration) Option {
	return func(h *Handler) {
		h.timeout = timeout
	}
}

// NewHandler creates a handler with no readiness checks.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		logger:  observability.NopLogger(),
		started: time.Now(),
		timeout: DefaultReadinessProbeTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddCheck registers a readiness dependency.
func (h *Handler) AddCheck(check Check) {
	h.mu.Lock()
	h.checks = append(h.checks, check)
	h.mu.Unlock()
}

// SetDraining makes /readyz fail while /livez keeps answering.
func (h *Handler) SetDraining(draining bool) {
	h.draining.Store(draining)
}

// IsDraining reports whether the gateway is shutting down.
func (h *Handler) IsDraining() bool {
	return h.draining.Load()
}

// RegisterRoutes mounts the probe routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(PathLive, h.live)
	r.GET(PathHealth, h.health)
	r.GET(PathReady, h.ready)
}

func (h *Handler) live(c *gin.Context) {
	c.JSON(http.StatusOK, Report{Status: StatusOK, Timestamp: time.Now().UTC()})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, Report{
		Status:    StatusOK,
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) ready(c *gin.Context) {
	if h.IsDraining() {
		c.JSON(http.StatusServiceUnavailable, Report{Status: StatusDraining, Timestamp: time.Now().UTC()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	report := h.evaluate(ctx)
	code := http.StatusOK
	if report.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}

// evaluate runs the checks concurrently.
func (h *Handler) evaluate(ctx context.Context) Report {
	h.mu.RLock()
	checks := append([]Check(nil), h.checks...)
	h.mu.RUnlock()

	results := make([]*CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := check.Check(ctx)
			elapsed := time.Since(start)

			res := &CheckResult{Status: StatusOK, Duration: elapsed.String()}
			if err != nil {
				res.Status, res.Error = StatusError, err.Error()
				h.logger.Warn("readiness check failed",
					observability.String("check", check.Name()),
					observability.Duration("duration", elapsed),
					observability.Error(err),
				)
			}
			results[i] = res
		}()
	}
	wg.Wait()

	report := Report{Status: StatusOK, Timestamp: time.Now().UTC(), Checks: make(map[string]*CheckResult, len(checks))}
	for i, check := range checks {
		report.Checks[check.Name()] = results[i]
		if results[i].Status != StatusOK {
			report.Status = StatusError
		}
	}
	return report
}
