package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alarino/dictweb/internal/observability"
)

const (
	tracerName = "github.com/alarino/dictweb/internal/proxy"
	copyBuffer = 32 * 1024
)

// AllowedMethods lists the methods the gateway relays.
var AllowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
}

// bodyMethods are the methods whose request body is forwarded.
var bodyMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// Forwarder relays requests to the translation backend. It holds no
// per-request state; the backend base address is a snapshot that can be
// swapped at runtime.
type Forwarder struct {
	backend   atomic.Pointer[url.URL]
	client    *http.Client
	transport http.RoundTripper
	logger    observability.Logger
	metrics   MetricsRecorder
	tracer    trace.Tracer
}

// Option is a functional option for configuring the forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger for the forwarder.
func WithLogger(logger observability.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithMetrics sets the recorder for upstream observations.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(f *Forwarder) {
		f.metrics = metrics
	}
}

// WithTransport sets the round tripper used to reach the backend.
func WithTransport(transport http.RoundTripper) Option {
	return func(f *Forwarder) {
		f.transport = transport
	}
}

// WithTracerProvider sets the provider for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(f *Forwarder) {
		f.tracer = tp.Tracer(tracerName)
	}
}

// TransportConfig holds the upstream transport settings.
type TransportConfig struct {
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConnsPerHost   int
}

// NewTransport returns a transport that never negotiates compression on
// its own, so bodies and Content-Encoding pass through untouched.
func NewTransport(cfg TransportConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}
}

// New creates a forwarder for the given backend base address.
func New(backendURL string, opts ...Option) (*Forwarder, error) {
	f := &Forwarder{
		logger:  observability.NopLogger(),
		metrics: nopRecorder{},
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.transport == nil {
		f.transport = NewTransport(TransportConfig{
			DialTimeout:         10 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			IdleConnTimeout:     90 * time.Second,
		})
	}

	f.client = &http.Client{
		Transport: f.transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if err := f.SetBackendURL(backendURL); err != nil {
		return nil, err
	}

	return f, nil
}

// SetBackendURL swaps the backend base address. In-flight requests keep
// the address they started with.
func (f *Forwarder) SetBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return NewInvalidBackendError(raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewInvalidBackendError(raw, errors.New("absolute http(s) URL required"))
	}
	u.RawQuery = ""
	u.Fragment = ""
	f.backend.Store(u)
	return nil
}

// BackendURL returns the current backend base address.
func (f *Forwarder) BackendURL() string {
	u := f.backend.Load()
	if u == nil {
		return ""
	}
	return u.String()
}

// ServeHTTP implements http.Handler for requests under /api.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(r.Method) {
		w.Header().Set("Allow", allowHeader())
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	f.Forward(w, r, SegmentsFromRequestPath(r.URL.EscapedPath()))
}

// Forward relays r to the backend under the given decoded path segments.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, segments []string) {
	start := time.Now()

	if len(segments) == 0 {
		f.logger.Debug("rejecting request without API path",
			observability.String("method", r.Method),
			observability.String("path", r.URL.Path),
		)
		f.metrics.RecordUpstream(r.Method, observability.OutcomeMissingPath, 0)
		WriteMissingPath(w)
		return
	}

	base := f.backend.Load()
	target := TargetURL(base.String(), segments, r.URL.RawQuery)

	ctx, span := f.tracer.Start(r.Context(), "proxy "+r.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("server.address", base.Host),
			attribute.Int("proxy.segments", len(segments)),
		),
	)
	defer span.End()

	resp, err := f.roundTrip(ctx, r, target)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		f.metrics.RecordUpstream(r.Method, observability.OutcomeRejected, time.Since(start))
		span.SetStatus(codes.Error, "request body too large")
		http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		f.metrics.RecordUpstream(r.Method, observability.OutcomeUnreachable, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, MessageBackendUnreachable)
		f.logUnreachable(r, target, err)
		WriteUnreachable(w)
		return
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if err := streamBody(w, resp.Body); err != nil {
		f.logger.Warn("response stream interrupted",
			observability.String("method", r.Method),
			observability.String("target", target),
			observability.String("request_id", observability.RequestIDFromContext(ctx)),
			observability.Error(err),
		)
	}

	f.metrics.RecordUpstream(r.Method, observability.OutcomeRelayed, time.Since(start))
}

// roundTrip builds the outbound request and performs it.
func (f *Forwarder) roundTrip(ctx context.Context, r *http.Request, target string) (*http.Response, error) {
	var body io.Reader
	if _, ok := bodyMethods[r.Method]; ok && r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}

	outReq, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, NewUnreachableError(target, err)
	}
	if body != nil {
		outReq.ContentLength = r.ContentLength
	}

	copyHeaders(outReq.Header, r.Header)
	if _, ok := outReq.Header["User-Agent"]; !ok {
		// Keep the client from inventing one.
		outReq.Header.Set("User-Agent", "")
	}

	resp, err := f.client.Do(outReq)
	if err != nil {
		return nil, NewUnreachableError(target, err)
	}
	return resp, nil
}

func (f *Forwarder) logUnreachable(r *http.Request, target string, err error) {
	kind := ClassifyFailure(err)
	fields := []observability.Field{
		observability.String("method", r.Method),
		observability.String("target", target),
		observability.String("failure", kind),
		observability.String("request_id", observability.RequestIDFromContext(r.Context())),
		observability.Error(err),
	}
	if kind == FailureCanceled {
		f.logger.Debug("client went away before backend answered", fields...)
		return
	}
	f.logger.Error("backend unreachable", fields...)
}

// streamBody copies src to w, flushing after every chunk.
func streamBody(w http.ResponseWriter, src io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, copyBuffer)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func methodAllowed(method string) bool {
	for _, m := range AllowedMethods {
		if m == method {
			return true
		}
	}
	return false
}

func allowHeader() string {
	return strings.Join(AllowedMethods, ", ")
}
