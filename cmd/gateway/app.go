package main

import (
	"net/http"

	"github.com/alarino/dictweb/internal/config"
	"github.com/alarino/dictweb/internal/health"
	"github.com/alarino/dictweb/internal/middleware"
	"github.com/alarino/dictweb/internal/observability"
	"github.com/alarino/dictweb/internal/proxy"
	"github.com/alarino/dictweb/internal/server"
)

// application holds all application components.
type application struct {
	config        *config.GatewayConfig
	logger        observability.Logger
	forwarder     *proxy.Forwarder
	server        *server.Server
	health        *health.Handler
	metrics       *observability.Metrics
	tracer        *observability.Tracer
	metricsServer *http.Server
}

// newApplication wires the gateway components from configuration.
func newApplication(cfg *config.GatewayConfig, logger observability.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, err
	}
	app.tracer = tracer

	fwdOpts := []proxy.Option{
		proxy.WithLogger(logger),
		proxy.WithTransport(proxy.NewTransport(proxy.TransportConfig{
			DialTimeout:           cfg.Upstream.DialTimeout.Duration(),
			TLSHandshakeTimeout:   cfg.Upstream.TLSHandshakeTimeout.Duration(),
			ResponseHeaderTimeout: cfg.Upstream.ResponseHeaderTimeout.Duration(),
			IdleConnTimeout:       cfg.Upstream.IdleConnTimeout.Duration(),
			MaxIdleConnsPerHost:   cfg.Upstream.MaxIdleConnsPerHost,
		})),
		proxy.WithTracerProvider(tracer.TracerProvider()),
	}

	var srvOpts []server.Option
	if cfg.Metrics.Enabled {
		app.metrics = observability.NewMetrics("")
		app.metrics.SetBuildInfo(version, gitCommit, buildTime)
		fwdOpts = append(fwdOpts, proxy.WithMetrics(app.metrics))
		srvOpts = append(srvOpts, server.WithMetrics(app.metrics))
	}

	app.forwarder, err = proxy.New(cfg.BackendURL, fwdOpts...)
	if err != nil {
		return nil, err
	}

	app.health = health.NewHandler(
		health.WithLogger(logger),
		health.WithVersion(version),
	)
	app.health.AddCheck(health.NewBackendCheck(app.forwarder.BackendURL, nil, health.DefaultReadinessProbeTimeout))

	srvOpts = append(srvOpts,
		server.WithLogger(logger),
		server.WithHealth(app.health),
	)
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			observability.Any("requests_per_second", cfg.RateLimit.RequestsPerSecond),
			observability.Int("burst", cfg.RateLimit.Burst),
			observability.Bool("per_client", cfg.RateLimit.PerClient),
		)
		srvOpts = append(srvOpts, server.WithRateLimit(middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			cfg.RateLimit.PerClient,
		)))
	}
	if cfg.Tracing.Enabled {
		srvOpts = append(srvOpts, server.WithTracing(middleware.TracingConfig{
			TracerProvider: tracer.TracerProvider(),
			ServiceName:    cfg.Tracing.ServiceName,
			SkipPaths:      health.ProbePaths,
		}))
	}

	app.server = server.New(&server.Config{
		Address:            cfg.Listen,
		ReadHeaderTimeout:  cfg.Server.ReadHeaderTimeout.Duration(),
		ReadTimeout:        cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:       cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:        cfg.Server.IdleTimeout.Duration(),
		MaxHeaderBytes:     1 << 20,
		MaxRequestBodySize: cfg.Server.MaxRequestBodySize,
	}, app.forwarder, srvOpts...)

	return app, nil
}
