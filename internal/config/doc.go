// Package config provides configuration types and loading for the
// dictionary gateway.
//
// Configuration is read from an optional YAML file with ${VAR} and
// ${VAR:-default} substitution, completed with defaults, then overridden by
// the well-known environment variables BACKEND_INTERNAL_URL,
// FRONTEND_SITE_URL and GATEWAY_LISTEN:
//
//	cfg, err := config.LoadConfig("configs/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// Watcher observes the file with fsnotify and hands each valid new
// configuration to a callback as a Change. Only the backend URL is applied
// live; Change.RestartRequired names the sections that need a restart.
// An invalid file is logged and the last good configuration stays current.
package config
