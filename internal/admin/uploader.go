// Package admin drives the bulk word upload flow.
package admin

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/alarino/dictweb/internal/api"
	"github.com/alarino/dictweb/internal/observability"
)

// Failure texts used when the backend gives no message.
const (
	FailedLine          = "bulk-upload"
	DefaultFailedReason = "Bulk upload failed"
	DefaultErrorMessage = "Bulk upload failed."
)

// Backend is the part of the API client the uploader calls.
type Backend interface {
	BulkUpload(ctx context.Context, textInput string, dryRun bool, apiKey string) (api.BulkUploadResult, error)
}

// Outcome is the result of one submission.
type Outcome struct {
	SuccessfulPairs []api.WordPair
	FailedPairs     []api.FailedLine
	DryRun          bool
}

// Successful returns the number of accepted pairs.
func (o Outcome) Successful() int { return len(o.SuccessfulPairs) }

// Failed returns the number of rejected lines.
func (o Outcome) Failed() int { return len(o.FailedPairs) }

// Total returns accepted plus rejected.
func (o Outcome) Total() int { return o.Successful() + o.Failed() }

// RunMode describes whether the outcome was a dry run.
func (o Outcome) RunMode() string {
	if o.DryRun {
		return "Dry run"
	}
	return "Live"
}

func (o Outcome) clone() Outcome {
	o.SuccessfulPairs = slices.Clone(o.SuccessfulPairs)
	o.FailedPairs = slices.Clone(o.FailedPairs)
	return o
}

// State is everything the upload screen shows.
type State struct {
	Outcome      Outcome
	ErrorMessage string
	Loading      bool
	HasSubmitted bool
}

// Uploader submits bulk uploads and keeps the latest outcome.
type Uploader struct {
	backend Backend
	logger  observability.Logger

	mu    sync.Mutex
	state State
	seq   uint64
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// NewUploader creates an uploader with an empty dry-run outcome.
func NewUploader(backend Backend, opts ...Option) *Uploader {
	u := &Uploader{
		backend: backend,
		logger:  observability.NopLogger(),
		state:   State{Outcome: Outcome{DryRun: true}},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// State returns a copy of the current state.
func (u *Uploader) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.state
	s.Outcome = s.Outcome.clone()
	return s
}

// Submit uploads textInput and replaces the outcome with the result. A
// failed call produces a single failed line carrying the backend message.
// When submissions overlap only the latest one updates the state.
func (u *Uploader) Submit(ctx context.Context, textInput string, dryRun bool, apiKey string) Outcome {
	u.mu.Lock()
	u.seq++
	seq := u.seq
	u.state.HasSubmitted = true
	u.state.Loading = true
	u.state.ErrorMessage = ""
	u.mu.Unlock()

	result, err := u.backend.BulkUpload(ctx, textInput, dryRun, apiKey)

	var outcome Outcome
	var errorMessage string
	if err != nil {
		message := api.MessageOf(err)
		reason := message
		if reason == "" {
			reason = DefaultFailedReason
		}
		errorMessage = message
		if errorMessage == "" {
			errorMessage = DefaultErrorMessage
		}
		outcome = Outcome{
			SuccessfulPairs: []api.WordPair{},
			FailedPairs:     []api.FailedLine{{Line: FailedLine, Reason: reason}},
			DryRun:          dryRun,
		}
		u.logger.Warn("bulk upload failed",
			observability.Int("lines", CountLines(textInput)),
			observability.Bool("dry_run", dryRun),
			observability.Error(err),
		)
	} else {
		outcome = Outcome{
			SuccessfulPairs: result.SuccessfulPairs,
			FailedPairs:     result.FailedPairs,
			DryRun:          result.DryRun,
		}
		u.logger.Info("bulk upload completed",
			observability.Int("successful", outcome.Successful()),
			observability.Int("failed", outcome.Failed()),
			observability.Bool("dry_run", outcome.DryRun),
		)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if seq == u.seq {
		u.state.Outcome = outcome
		u.state.ErrorMessage = errorMessage
		u.state.Loading = false
	}
	return outcome.clone()
}

// CountLines returns the number of non-blank lines in textInput.
func CountLines(textInput string) int {
	n := 0
	for _, line := range strings.Split(textInput, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
