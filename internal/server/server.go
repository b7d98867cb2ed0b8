// Package server hosts the gateway's gin engine: the /api relay, the
// probe endpoints and the middleware chain around them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alarino/dictweb/internal/health"
	"github.com/alarino/dictweb/internal/middleware"
	"github.com/alarino/dictweb/internal/observability"
	"github.com/alarino/dictweb/internal/proxy"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// Config holds configuration for the HTTP server.
type Config struct {
	Address            string
	ReadHeaderTimeout  time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxHeaderBytes     int
	MaxRequestBodySize int64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Address:            ":3000",
		ReadHeaderTimeout:  10 * time.Second,
		ReadTimeout:        30 * time.Second,
		IdleTimeout:        120 * time.Second,
		MaxHeaderBytes:     1 << 20,
		MaxRequestBodySize: 10 << 20,
	}
}

// Server represents the gateway HTTP server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	forwarder  *proxy.Forwarder
	health     *health.Handler
	logger     observability.Logger
	metrics    middleware.RequestRecorder
	tracing    *middleware.TracingConfig
	limiter    *middleware.RateLimiter
	config     *Config
	mu         sync.RWMutex
	running    bool
}

// Option is a functional option for the server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables request metrics.
func WithMetrics(recorder middleware.RequestRecorder) Option {
	return func(s *Server) {
		s.metrics = recorder
	}
}

// WithTracing enables server spans.
func WithTracing(cfg middleware.TracingConfig) Option {
	return func(s *Server) {
		s.tracing = &cfg
	}
}

// WithRateLimit throttles /api requests with limiter.
func WithRateLimit(limiter *middleware.RateLimiter) Option {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// WithHealth mounts probe routes served by h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) {
		s.health = h
	}
}

// New creates the server and wires its routes.
func New(config *Config, forwarder *proxy.Forwarder, opts ...Option) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	ginModeOnce.Do(func() {
		if gin.Mode() == gin.DebugMode {
			gin.SetMode(gin.ReleaseMode)
		}
	})

	s := &Server{
		engine:    gin.New(),
		forwarder: forwarder,
		logger:    observability.NopLogger(),
		config:    config,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engine.HandleMethodNotAllowed = true
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Recovery(s.logger))
	if s.tracing != nil {
		s.engine.Use(middleware.TracingWithConfig(*s.tracing))
	}
	if s.metrics != nil {
		s.engine.Use(middleware.Metrics(s.metrics))
	}
	s.engine.Use(middleware.AccessLog(s.logger, health.ProbePaths...))
	s.engine.Use(middleware.BodyLimit(s.config.MaxRequestBodySize, s.logger))
}

func (s *Server) setupRoutes() {
	handlers := []gin.HandlerFunc{s.relay()}
	if s.limiter != nil {
		handlers = append([]gin.HandlerFunc{middleware.RateLimit(s.limiter, s.logger, s.metrics)}, handlers...)
	}
	for _, method := range proxy.AllowedMethods {
		s.engine.Handle(method, proxy.APIPrefix, handlers...)
		s.engine.Handle(method, proxy.APIPrefix+"/*path", handlers...)
	}

	if s.health != nil {
		s.health.RegisterRoutes(s.engine)
	}
}

// relay hands the escaped path to the forwarder; gin's decoded param
// would merge %2F into a separator.
func (s *Server) relay() gin.HandlerFunc {
	return func(c *gin.Context) {
		segments := proxy.SegmentsFromRequestPath(c.Request.URL.EscapedPath())
		s.forwarder.Forward(c.Writer, c.Request, segments)
	}
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server already running")
	}

	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		MaxHeaderBytes:    s.config.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", ln.Addr().String()),
		observability.String("backend", s.forwarder.BackendURL()),
		observability.Duration("read_timeout", s.config.ReadTimeout),
		observability.Duration("write_timeout", s.config.WriteTimeout),
	)

	err := s.httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop stops the HTTP server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
