package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alarino/dictweb/internal/admin"
	"github.com/alarino/dictweb/internal/api"
	"github.com/alarino/dictweb/internal/document"
	"github.com/alarino/dictweb/internal/observability"
	"github.com/alarino/dictweb/internal/route"
	"github.com/alarino/dictweb/internal/viewstate"
)

// session wires the API client, history, document and controllers that a
// command works with.
type session struct {
	logger     observability.Logger
	client     *api.Client
	history    *route.History
	doc        *document.Document
	controller *viewstate.Controller
	uploader   *admin.Uploader
}

func newSession(opts *rootOptions, out io.Writer, initialPath string) (*session, error) {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  opts.logLevel,
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	client, err := api.NewClient(opts.apiURL,
		api.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
		api.WithLogger(logger),
		api.WithRetry(api.RetryConfig{MaxRetries: opts.retries}),
	)
	if err != nil {
		return nil, err
	}

	history := route.NewHistory(initialPath)
	doc := document.New(document.SiteTitle)

	controller := viewstate.New(client, history,
		viewstate.WithLogger(logger),
		viewstate.WithDocument(doc),
		viewstate.WithPopState(history),
		viewstate.WithFocuser(&terminalFocuser{out: out}),
	)

	return &session{
		logger:     logger,
		client:     client,
		history:    history,
		doc:        doc,
		controller: controller,
		uploader:   admin.NewUploader(client, admin.WithLogger(logger)),
	}, nil
}

func (s *session) close() {
	s.controller.Unmount()
	_ = s.logger.Sync()
}

// terminalFocuser separates a route-initialized result from earlier output.
// The highlight itself is drawn from the snapshot by renderTranslation.
type terminalFocuser struct {
	out io.Writer
}

func (f *terminalFocuser) ScrollIntoView() {
	_, _ = fmt.Fprintln(f.out, divider)
}

func (f *terminalFocuser) Highlight(time.Duration) {}
