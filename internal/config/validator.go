package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e[i].Error())
	}
	return sb.String()
}

// Is reports ErrInvalidConfig so callers can test with errors.Is.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(config *GatewayConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *GatewayConfig) error {
	v.errors = make(ValidationErrors, 0)

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	if strings.TrimSpace(config.Listen) == "" {
		v.addError("listen", "listen address is required")
	}
	v.validateBaseURL("backendURL", config.BackendURL)
	v.validateBaseURL("siteURL", config.SiteURL)
	v.validateServer(&config.Server)
	v.validateUpstream(&config.Upstream)
	v.validateLogging(&config.Logging)
	v.validateMetrics(&config.Metrics)
	v.validateTracing(&config.Tracing)
	v.validateRateLimit(&config.RateLimit)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

// validateBaseURL requires an absolute http(s) URL without query or fragment.
func (v *Validator) validateBaseURL(path, raw string) {
	if raw == "" {
		v.addError(path, "URL is required")
		return
	}

	u, err := url.Parse(raw)
	if err != nil {
		v.addError(path, fmt.Sprintf("invalid URL: %v", err))
		return
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		v.addError(path, "scheme must be http or https")
	}
	if u.Host == "" {
		v.addError(path, "host is required")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		v.addError(path, "query and fragment are not allowed")
	}
}

func (v *Validator) validateServer(server *ServerConfig) {
	if server.MaxRequestBodySize < 0 {
		v.addError("server.maxRequestBodySize", "must not be negative")
	}
	durations := map[string]Duration{
		"server.readHeaderTimeout": server.ReadHeaderTimeout,
		"server.readTimeout":       server.ReadTimeout,
		"server.writeTimeout":      server.WriteTimeout,
		"server.idleTimeout":       server.IdleTimeout,
		"server.shutdownTimeout":   server.ShutdownTimeout,
	}
	for path, d := range durations {
		if d < 0 {
			v.addError(path, "must not be negative")
		}
	}
}

func (v *Validator) validateUpstream(upstream *UpstreamConfig) {
	if upstream.MaxIdleConnsPerHost < 0 {
		v.addError("upstream.maxIdleConnsPerHost", "must not be negative")
	}
	if upstream.DialTimeout < 0 || upstream.ResponseHeaderTimeout < 0 ||
		upstream.TLSHandshakeTimeout < 0 || upstream.IdleConnTimeout < 0 {
		v.addError("upstream", "timeouts must not be negative")
	}
}

func (v *Validator) validateLogging(logging *LoggingConfig) {
	switch logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", "must be one of debug, info, warn, error")
	}
	switch logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", "must be json or console")
	}
	switch logging.Output {
	case "", "stdout", "stderr":
	default:
		v.addError("logging.output", "must be stdout or stderr")
	}
}

func (v *Validator) validateMetrics(metrics *MetricsConfig) {
	if !metrics.Enabled {
		return
	}
	if metrics.Address == "" {
		v.addError("metrics.address", "address is required when metrics are enabled")
	}
	if !strings.HasPrefix(metrics.Path, "/") {
		v.addError("metrics.path", "path must start with '/'")
	}
}

func (v *Validator) validateTracing(tracing *TracingConfig) {
	if tracing.SamplingRate < 0 || tracing.SamplingRate > 1 {
		v.addError("tracing.samplingRate", "must be between 0 and 1")
	}
}

func (v *Validator) validateRateLimit(rl *RateLimitConfig) {
	if !rl.Enabled {
		return
	}
	if rl.RequestsPerSecond <= 0 {
		v.addError("rateLimit.requestsPerSecond", "must be positive when rate limiting is enabled")
	}
	if rl.Burst <= 0 {
		v.addError("rateLimit.burst", "must be positive when rate limiting is enabled")
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
