// Package health serves the gateway's own probes: /livez and /healthz
// report that the process is up, /readyz additionally asks the
// translation backend for its /api/health and reports not ready while the
// gateway is draining for shutdown.
package health
