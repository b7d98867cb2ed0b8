package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LookupEnvFunc resolves an environment variable.
type LookupEnvFunc func(key string) (string, bool)

// Loader reads gateway configuration files. Values are expanded from the
// environment ($VAR, ${VAR}, ${VAR:-default}, $$ for a literal dollar),
// decoded over DefaultConfig and then overridden by the deployment
// variables EnvBackendURL, EnvSiteURL and EnvListen.
type Loader struct {
	lookupEnv LookupEnvFunc
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn LookupEnvFunc) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = fn
	}
}

// NewLoader creates a loader reading the process environment.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadConfig loads path with a default Loader. An empty path yields the
// defaults with environment overrides applied.
func LoadConfig(path string) (*GatewayConfig, error) {
	return NewLoader().Load(path)
}

// Load reads and decodes path. An empty path yields the defaults.
func (l *Loader) Load(path string) (*GatewayConfig, error) {
	if path == "" {
		return l.decode(nil)
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := l.decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes configuration read from r.
func (l *Loader) LoadFromReader(r io.Reader) (*GatewayConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return l.decode(data)
}

func (l *Loader) decode(data []byte) (*GatewayConfig, error) {
	cfg := DefaultConfig()

	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(strings.NewReader(l.expand(string(data))))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	}

	for _, o := range []struct {
		env   string
		field *string
	}{
		{EnvBackendURL, &cfg.BackendURL},
		{EnvSiteURL, &cfg.SiteURL},
		{EnvListen, &cfg.Listen},
	} {
		if v, ok := l.lookupEnv(o.env); ok && v != "" {
			*o.field = v
		}
	}

	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return cfg, nil
}

// expand substitutes environment references in content.
func (l *Loader) expand(content string) string {
	return os.Expand(content, func(ref string) string {
		if ref == "$" {
			return "$"
		}
		name, fallback, _ := strings.Cut(ref, ":-")
		if v, ok := l.lookupEnv(name); ok {
			return v
		}
		return fallback
	})
}
