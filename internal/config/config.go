package config

import (
	"time"
)

// Defaults for the gateway configuration.
const (
	DefaultListen             = ":3000"
	DefaultBackendURL         = "http://127.0.0.1:5001"
	DefaultSiteURL            = "https://alarino.com"
	DefaultMetricsAddress     = ":9090"
	DefaultMetricsPath        = "/metrics"
	DefaultMaxRequestBodySize = 10 << 20
)

// Environment variables that override file values.
const (
	EnvBackendURL = "BACKEND_INTERNAL_URL"
	EnvSiteURL    = "FRONTEND_SITE_URL"
	EnvListen     = "GATEWAY_LISTEN"
)

// GatewayConfig is the root gateway configuration.
type GatewayConfig struct {
	// Listen is the address the public HTTP server binds to.
	Listen string `yaml:"listen" json:"listen"`

	// BackendURL is the internal base address of the translation backend.
	// Requests to /api/{path} are forwarded to {BackendURL}/api/{path}.
	BackendURL string `yaml:"backendURL" json:"backendURL"`

	// SiteURL is the public origin of the dictionary site.
	SiteURL string `yaml:"siteURL" json:"siteURL"`

	Server    ServerConfig    `yaml:"server" json:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream" json:"upstream"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
}

// ServerConfig holds inbound HTTP server settings.
type ServerConfig struct {
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout" json:"readHeaderTimeout"`
	ReadTimeout       Duration `yaml:"readTimeout" json:"readTimeout"`
	// WriteTimeout of zero leaves streamed responses unbounded.
	WriteTimeout       Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout        Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout    Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
	MaxRequestBodySize int64    `yaml:"maxRequestBodySize" json:"maxRequestBodySize"`
}

// UpstreamConfig holds settings of the transport used to reach the backend.
type UpstreamConfig struct {
	DialTimeout           Duration `yaml:"dialTimeout" json:"dialTimeout"`
	TLSHandshakeTimeout   Duration `yaml:"tlsHandshakeTimeout" json:"tlsHandshakeTimeout"`
	ResponseHeaderTimeout Duration `yaml:"responseHeaderTimeout" json:"responseHeaderTimeout"`
	IdleConnTimeout       Duration `yaml:"idleConnTimeout" json:"idleConnTimeout"`
	MaxIdleConnsPerHost   int      `yaml:"maxIdleConnsPerHost" json:"maxIdleConnsPerHost"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint" json:"otlpEndpoint"`
	SamplingRate float64 `yaml:"samplingRate" json:"samplingRate"`
	ServiceName  string  `yaml:"serviceName" json:"serviceName"`
}

// RateLimitConfig configures the token bucket applied to /api requests.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
	// PerClient keeps one bucket per client IP instead of one shared bucket.
	PerClient bool `yaml:"perClient" json:"perClient"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *GatewayConfig {
	return &GatewayConfig{
		Listen:     DefaultListen,
		BackendURL: DefaultBackendURL,
		SiteURL:    DefaultSiteURL,
		Server: ServerConfig{
			ReadHeaderTimeout:  Duration(10 * time.Second),
			ReadTimeout:        Duration(30 * time.Second),
			IdleTimeout:        Duration(120 * time.Second),
			ShutdownTimeout:    Duration(30 * time.Second),
			MaxRequestBodySize: DefaultMaxRequestBodySize,
		},
		Upstream: UpstreamConfig{
			DialTimeout:         Duration(10 * time.Second),
			TLSHandshakeTimeout: Duration(10 * time.Second),
			IdleConnTimeout:     Duration(90 * time.Second),
			MaxIdleConnsPerHost: 32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: DefaultMetricsAddress,
			Path:    DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			SamplingRate: 1.0,
			ServiceName:  "alarino-gateway",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			PerClient:         true,
		},
	}
}
