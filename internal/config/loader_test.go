package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoader_EmptyPathUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(WithLookupEnv(envMap(nil))).Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, DefaultSiteURL, cfg.SiteURL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Parallel()

	yamlContent := `
listen: ":8080"
backendURL: "${BACKEND_HOST:-http://backend:5001}/"
server:
  writeTimeout: "0s"
  maxRequestBodySize: 1024
logging:
  level: debug
  format: console
metrics:
  enabled: false
tracing:
  enabled: true
  otlpEndpoint: "collector:4317"
  samplingRate: 0.25
`
	loader := NewLoader(WithLookupEnv(envMap(nil)))
	cfg, err := loader.LoadFromReader(strings.NewReader(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "http://backend:5001", cfg.BackendURL)
	assert.Equal(t, DefaultSiteURL, cfg.SiteURL)
	assert.Equal(t, int64(1024), cfg.Server.MaxRequestBodySize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SamplingRate)
	// Untouched defaults survive a partial file.
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout.Duration())
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Parallel()

	loader := NewLoader(WithLookupEnv(envMap(map[string]string{
		EnvBackendURL: "http://internal:9000",
		EnvSiteURL:    "https://example.org/",
		EnvListen:     ":4000",
	})))

	cfg, err := loader.LoadFromReader(strings.NewReader(`backendURL: "http://from-file:5001"`))
	require.NoError(t, err)

	assert.Equal(t, "http://internal:9000", cfg.BackendURL)
	assert.Equal(t, "https://example.org", cfg.SiteURL)
	assert.Equal(t, ":4000", cfg.Listen)
}

func TestLoader_Expand(t *testing.T) {
	t.Parallel()

	loader := NewLoader(WithLookupEnv(envMap(map[string]string{"NAME": "value"})))

	tests := []struct {
		input string
		want  string
	}{
		{input: "${NAME}", want: "value"},
		{input: "${MISSING:-fallback}", want: "fallback"},
		{input: "${MISSING}", want: ""},
		{input: "$${NAME}", want: "${NAME}"},
		{input: "$NAME/x", want: "value/x"},
		{input: "http://${HOST:-backend:5001}/api", want: "http://backend:5001/api"},
		{input: "plain", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, loader.expand(tt.input))
		})
	}
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	loader := NewLoader(WithLookupEnv(envMap(nil)))

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loader.LoadFromReader(strings.NewReader("listen: [unclosed"))
	assert.Error(t, err)

	_, err = loader.LoadFromReader(strings.NewReader("unknownField: true"))
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":7000\"\n# comment only otherwise\n"), 0o600))

	t.Setenv(EnvBackendURL, "")
	t.Setenv(EnvListen, "")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
}

func TestLoader_CommentOnlyFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(WithLookupEnv(envMap(nil))).LoadFromReader(strings.NewReader("# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultListen, cfg.Listen)
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	cfg, err := NewLoader(WithLookupEnv(envMap(nil))).Load(filepath.Join("..", "..", "configs", "gateway.yaml"))
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, 2*time.Minute, cfg.Server.IdleTimeout.Duration())
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}
