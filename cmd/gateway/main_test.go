package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alarino/dictweb/internal/config"
	"github.com/alarino/dictweb/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(backendURL string) *config.GatewayConfig {
	cfg := config.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.BackendURL = backendURL
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = config.Duration(5 * time.Second)
	return cfg
}

func parsedFlags(t *testing.T, args ...string) cliFlags {
	t.Helper()

	var got cliFlags
	cmd := newRootCommand(func(_ context.Context, flags cliFlags) error {
		got = flags
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.Execute())
	return got
}

func TestRootCommand_Flags(t *testing.T) {
	t.Setenv(envConfigPath, "/etc/gateway.yaml")
	t.Setenv(envLogLevel, "warn")
	t.Setenv(envLogFormat, "")

	flags := parsedFlags(t, "--log-format", "console")
	assert.Equal(t, "/etc/gateway.yaml", flags.configPath)
	assert.Equal(t, "warn", flags.logLevel)
	assert.Equal(t, "console", flags.logFormat)

	flags = parsedFlags(t, "--config", "other.yaml")
	assert.Equal(t, "other.yaml", flags.configPath)
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	cmd := newRootCommand(func(context.Context, cliFlags) error {
		t.Fatal("run should not be called")
		return nil
	})
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	assert.Error(t, cmd.Execute())
}

func TestRootCommand_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand(func(context.Context, cliFlags) error {
		t.Fatal("run should not be called")
		return nil
	})
	cmd.SetArgs([]string{"--version"})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), version)
}

func TestServe_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

	err := serve(context.Background(), cliFlags{configPath: path})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))
	t.Setenv(config.EnvBackendURL, "")

	cfg, err := loadConfig(cliFlags{configPath: path, logLevel: "debug", logFormat: "console"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	_, err = loadConfig(cliFlags{configPath: path, logLevel: "loud"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestInitLogger(t *testing.T) {
	logger, err := initLogger(config.LoggingConfig{Level: "debug", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = initLogger(config.LoggingConfig{Level: "nope"})
	assert.Error(t, err)
}

func TestNewApplication_RelaysThroughServer(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"status":200,"message":"ok","data":null}`)
	}))
	defer backend.Close()

	app, err := newApplication(testConfig(backend.URL), observability.NopLogger())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	count, err := testutil.GatherAndCount(app.metrics.Registry(), "alarino_gateway_upstream_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewApplication_MetricsDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:5001")
	cfg.Metrics.Enabled = false

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	assert.Nil(t, app.metrics)

	startMetricsServer(app)
	assert.Nil(t, app.metricsServer)
}

func TestNewApplication_TracingEnabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig("http://127.0.0.1:5001")
	cfg.Tracing.Enabled = true
	cfg.Tracing.SamplingRate = 1
	cfg.Tracing.OTLPEndpoint = ""

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)
	assert.True(t, app.tracer.Enabled())
	require.NoError(t, app.tracer.Shutdown(context.Background()))
}

func TestApplyReload(t *testing.T) {
	t.Parallel()

	app, err := newApplication(testConfig("http://one:5001"), observability.NopLogger())
	require.NoError(t, err)

	next := testConfig("http://two:5001")
	applyReload(app, config.Change{Previous: app.config, Current: next})

	assert.Equal(t, "http://two:5001", app.forwarder.BackendURL())
	assert.Same(t, next, app.config)

	bad := testConfig("not-a-url")
	applyReload(app, config.Change{Previous: next, Current: bad})
	assert.Equal(t, "http://two:5001", app.forwarder.BackendURL())
	assert.Same(t, next, app.config)
}

func TestNewMetricsServer(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("metrics_server_test")
	srv := newMetricsServer(config.MetricsConfig{Enabled: true, Address: ":0", Path: "/metrics"}, metrics)
	assert.Equal(t, ":0", srv.Addr)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "metrics_server_test_")
}

func TestStartConfigWatcher_NoPath(t *testing.T) {
	t.Parallel()

	app, err := newApplication(testConfig("http://one:5001"), observability.NopLogger())
	require.NoError(t, err)
	assert.Nil(t, startConfigWatcher(context.Background(), app, ""))
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	t.Parallel()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	defer backend.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	cfg := testConfig(backend.URL)
	cfg.Listen = addr
	cfg.Metrics.Enabled = false

	app, err := newApplication(cfg, observability.NopLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, app, "") }()

	require.Eventually(t, app.server.IsRunning, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
	assert.True(t, app.health.IsDraining())
	assert.False(t, app.server.IsRunning())
}
