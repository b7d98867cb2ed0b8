package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/alarino/dictweb/internal/api"
)

// Check is one readiness dependency.
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Check.
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheckFunc names fn as a readiness check.
func NewCheckFunc(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (f *CheckFunc) Name() string                    { return f.name }
func (f *CheckFunc) Check(ctx context.Context) error { return f.fn(ctx) }

// BackendCheck asks the translation backend for its /api/health envelope.
// The base address is read on every probe so a reloaded configuration is
// picked up.
type BackendCheck struct {
	baseURL    func() string
	httpClient *http.Client

	mu     sync.Mutex
	base   string
	client *api.Client
}

// NewBackendCheck creates the backend probe. A nil httpClient gets a
// default one bounded by timeout.
func NewBackendCheck(baseURL func() string, httpClient *http.Client, timeout time.Duration) *BackendCheck {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &BackendCheck{baseURL: baseURL, httpClient: httpClient}
}

// Name implements Check.
func (b *BackendCheck) Name() string {
	return "backend"
}

// Check passes when the backend answers with a successful envelope.
func (b *BackendCheck) Check(ctx context.Context) error {
	client, err := b.clientFor(b.baseURL())
	if err != nil {
		return err
	}
	return client.Health(ctx)
}

// clientFor reuses the api client until the base address changes.
func (b *BackendCheck) clientFor(base string) (*api.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client != nil && b.base == base {
		return b.client, nil
	}
	// Probes report every failure; the breaker would mask recovery.
	client, err := api.NewClient(base,
		api.WithHTTPClient(b.httpClient),
		api.WithCircuitBreaker(0, time.Second),
	)
	if err != nil {
		return nil, err
	}
	b.base, b.client = base, client
	return client, nil
}
