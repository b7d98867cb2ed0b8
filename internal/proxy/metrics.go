package proxy

import (
	"time"

	"github.com/alarino/dictweb/internal/observability"
)

// MetricsRecorder receives one observation per forwarded call.
// *observability.Metrics satisfies it.
type MetricsRecorder interface {
	RecordUpstream(method, outcome string, duration time.Duration)
}

var _ MetricsRecorder = (*observability.Metrics)(nil)

type nopRecorder struct{}

func (nopRecorder) RecordUpstream(string, string, time.Duration) {}
