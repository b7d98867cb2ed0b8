package admin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alarino/dictweb/internal/api"
	"github.com/alarino/dictweb/internal/observability"
)

type fakeBackend struct {
	result  api.BulkUploadResult
	err     error
	text    string
	dryRun  bool
	apiKey  string
	started chan struct{}
	release chan struct{}
}

func (f *fakeBackend) BulkUpload(_ context.Context, textInput string, dryRun bool, apiKey string) (api.BulkUploadResult, error) {
	f.text, f.dryRun, f.apiKey = textInput, dryRun, apiKey
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

func TestNewUploader_InitialState(t *testing.T) {
	t.Parallel()

	u := NewUploader(&fakeBackend{})
	state := u.State()

	assert.False(t, state.HasSubmitted)
	assert.False(t, state.Loading)
	assert.True(t, state.Outcome.DryRun)
	assert.Zero(t, state.Outcome.Total())
	assert.Equal(t, "Dry run", state.Outcome.RunMode())
}

func TestUploader_Success(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{result: api.BulkUploadResult{
		SuccessfulPairs: []api.WordPair{{English: "water", Yoruba: "omi"}, {English: "fire", Yoruba: "iná"}},
		FailedPairs:     []api.FailedLine{{Line: "bad", Reason: "missing separator"}},
		DryRun:          false,
	}}
	u := NewUploader(backend)

	outcome := u.Submit(context.Background(), "water, omi\nfire, iná\nbad", false, "key")

	assert.Equal(t, "water, omi\nfire, iná\nbad", backend.text)
	assert.False(t, backend.dryRun)
	assert.Equal(t, "key", backend.apiKey)

	assert.Equal(t, 2, outcome.Successful())
	assert.Equal(t, 1, outcome.Failed())
	assert.Equal(t, 3, outcome.Total())
	assert.Equal(t, "Live", outcome.RunMode())

	state := u.State()
	assert.True(t, state.HasSubmitted)
	assert.False(t, state.Loading)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, outcome, state.Outcome)
}

func TestUploader_Failure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		err          error
		wantReason   string
		wantErrorMsg string
	}{
		{
			name:         "backend message",
			err:          &api.APIError{Status: http.StatusUnauthorized, Message: "Invalid API key"},
			wantReason:   "Invalid API key",
			wantErrorMsg: "Invalid API key",
		},
		{
			name:         "no message",
			err:          &api.APIError{Status: http.StatusInternalServerError},
			wantReason:   DefaultFailedReason,
			wantErrorMsg: DefaultErrorMessage,
		},
		{
			name:         "plain error",
			err:          errors.New("boom"),
			wantReason:   DefaultFailedReason,
			wantErrorMsg: DefaultErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			u := NewUploader(&fakeBackend{err: tt.err},
				WithLogger(observability.NewZapLogger(zap.New(core))))

			outcome := u.Submit(context.Background(), "water, omi\n\n", true, "key")

			assert.Equal(t, Outcome{
				SuccessfulPairs: []api.WordPair{},
				FailedPairs:     []api.FailedLine{{Line: FailedLine, Reason: tt.wantReason}},
				DryRun:          true,
			}, outcome)

			state := u.State()
			assert.Equal(t, tt.wantErrorMsg, state.ErrorMessage)
			assert.False(t, state.Loading)

			entries := logs.FilterMessage("bulk upload failed").All()
			require.Len(t, entries, 1)
			assert.Equal(t, int64(1), entries[0].ContextMap()["lines"])
		})
	}
}

func TestUploader_ReplacesPreviousOutcome(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{result: api.BulkUploadResult{
		SuccessfulPairs: []api.WordPair{{English: "water", Yoruba: "omi"}},
		DryRun:          true,
	}}
	u := NewUploader(backend)
	u.Submit(context.Background(), "water, omi", true, "key")

	backend.err = &api.APIError{Status: http.StatusBadGateway, Message: "Backend is unreachable."}
	u.Submit(context.Background(), "water, omi", true, "key")

	state := u.State()
	assert.Zero(t, state.Outcome.Successful())
	assert.Equal(t, 1, state.Outcome.Failed())
	assert.Equal(t, "Backend is unreachable.", state.ErrorMessage)

	backend.err = nil
	u.Submit(context.Background(), "water, omi", true, "key")
	assert.Empty(t, u.State().ErrorMessage)
	assert.Equal(t, 1, u.State().Outcome.Successful())
}

func TestUploader_LoadingWhileInFlight(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	u := NewUploader(backend)

	done := make(chan struct{})
	go func() {
		defer close(done)
		u.Submit(context.Background(), "a, b", true, "key")
	}()

	<-backend.started
	assert.True(t, u.State().Loading)
	close(backend.release)
	<-done
	assert.False(t, u.State().Loading)
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 0, CountLines("\n  \n"))
	assert.Equal(t, 2, CountLines("a, b\n\n c, d \n"))
}
