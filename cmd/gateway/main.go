// Package main is the entry point for the Alarino dictionary gateway.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alarino/dictweb/internal/config"
	"github.com/alarino/dictweb/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// Environment variables backing the command line flags.
const (
	envConfigPath = "GATEWAY_CONFIG_PATH"
	envLogLevel   = "GATEWAY_LOG_LEVEL"
	envLogFormat  = "GATEWAY_LOG_FORMAT"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(serve).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the gateway command; runFn receives the parsed flags.
func newRootCommand(runFn func(context.Context, cliFlags) error) *cobra.Command {
	flags := cliFlags{}

	cmd := &cobra.Command{
		Use:   "alarino-gateway",
		Short: "Serve the Alarino site and relay /api to the dictionary backend",
		Long: `alarino-gateway forwards every /api request to the dictionary backend
unchanged and answers liveness and readiness probes.

Flags fall back to GATEWAY_CONFIG_PATH, GATEWAY_LOG_LEVEL and
GATEWAY_LOG_FORMAT. Without a config file the built-in defaults apply.`,
		Version:      fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildTime),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFn(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", os.Getenv(envConfigPath),
		"Path to configuration file (optional)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", os.Getenv(envLogLevel),
		"Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", os.Getenv(envLogFormat),
		"Log format (json, console)")

	return cmd
}

// serve runs the gateway until ctx is cancelled.
func serve(ctx context.Context, flags cliFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting alarino gateway",
		observability.String("version", version),
		observability.String("config", cmp.Or(flags.configPath, "<defaults>")),
		observability.String("listen", cfg.Listen),
		observability.String("backend", cfg.BackendURL),
	)

	app, err := newApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize gateway", observability.Error(err))
		return err
	}

	if err := run(ctx, app, flags.configPath); err != nil {
		logger.Error("gateway failed", observability.Error(err))
		return err
	}
	return nil
}

// loadConfig loads the file, applies flag overrides and validates the result.
func loadConfig(flags cliFlags) (*config.GatewayConfig, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	cfg.Logging.Level = cmp.Or(flags.logLevel, cfg.Logging.Level)
	cfg.Logging.Format = cmp.Or(flags.logFormat, cfg.Logging.Format)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogger(cfg config.LoggingConfig) (observability.Logger, error) {
	return observability.NewLogger(observability.LogConfig{
		Level:  cfg.Level,
		Format: cfg.Format,
		Output: cfg.Output,
	})
}
