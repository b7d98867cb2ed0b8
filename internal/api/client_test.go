package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://example.com", "http://", "://bad"} {
		_, err := NewClient(raw)
		assert.Error(t, err, raw)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	client, err := NewClient("http://127.0.0.1:3000/")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:3000", client.BaseURL())
}

func TestClient_Translate(t *testing.T) {
	t.Parallel()

	var got TranslationRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathTranslate, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"ok",`+
			`"data":{"translation":["bawo"],"source_word":"hello","to_language":"yo"}}`)
	})

	result, err := client.Translate(context.Background(), NewTranslationRequest("hello"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bawo"}, result.Lines)
	assert.Equal(t, "hello", result.SourceWord)
	assert.Equal(t, Yoruba, result.ToLanguage)
	assert.Equal(t, TranslationRequest{Text: "hello", SourceLang: English, TargetLang: Yoruba}, got)
}

func TestClient_Translate_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound,
			`{"success":false,"status":404,"message":"No translation for xyz","data":null}`)
	})

	_, err := client.Translate(context.Background(), NewTranslationRequest("xyz"))
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "No translation for xyz", apiErr.Message)
	assert.True(t, apiErr.IsNotFound())
	assert.False(t, apiErr.IsTransport())
	assert.True(t, IsNotFound(err))
}

func TestClient_SuccessWithoutData(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"empty","data":null}`)
	})

	_, err := client.DailyWord(context.Background())
	require.Error(t, err)
	assert.Equal(t, "empty", MessageOf(err))
}

func TestClient_DailyWordAndProverb(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case PathDailyWord:
			writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"",`+
				`"data":{"yoruba_word":"omi","english_word":"water"}}`)
		case PathProverb:
			writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"",`+
				`"data":{"yoruba_text":"Ìwà l'ẹwà","english_text":"Character is beauty"}}`)
		default:
			http.NotFound(w, r)
		}
	})

	word, err := client.DailyWord(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DailyWord{YorubaWord: "omi", EnglishWord: "water"}, word)

	proverb, err := client.RandomProverb(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Character is beauty", proverb.EnglishText)
}

func TestClient_BulkUpload(t *testing.T) {
	t.Parallel()

	var got BulkUploadRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathBulkUpload, r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"",`+
			`"data":{"successful_pairs":[{"english":"water","yoruba":"omi"}],`+
			`"failed_pairs":[{"line":"bad","reason":"missing separator"}],"dry_run":true}}`)
	})

	result, err := client.BulkUpload(context.Background(), "water, omi\nbad", true, "secret-key")
	require.NoError(t, err)
	assert.Equal(t, BulkUploadRequest{TextInput: "water, omi\nbad", DryRun: true}, got)
	assert.Equal(t, []WordPair{{English: "water", Yoruba: "omi"}}, result.SuccessfulPairs)
	assert.Equal(t, []FailedLine{{Line: "bad", Reason: "missing separator"}}, result.FailedPairs)
	assert.True(t, result.DryRun)
}

func TestClient_Health(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	healthy.Store(true)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathHealth, r.URL.Path)
		if healthy.Load() {
			writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"healthy","data":null}`)
			return
		}
		writeEnvelope(w, http.StatusOK, `{"success":false,"status":200,"message":"degraded","data":null}`)
	})

	require.NoError(t, client.Health(context.Background()))

	healthy.Store(false)
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, "degraded", MessageOf(err))
}

func TestClient_NonJSONResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "body becomes message", body: "Bad Gateway", message: "Bad Gateway"},
		{name: "empty body uses fallback", body: "", message: MessageUnexpectedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.DailyWord(context.Background())
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.True(t, apiErr.IsTransport())
			assert.ErrorIs(t, err, ErrUnexpectedContentType)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	client, err := NewClient(baseURL)
	require.NoError(t, err)

	_, err = client.Translate(context.Background(), NewTranslationRequest("hello"))
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.NotEmpty(t, apiErr.Message)
	assert.ErrorIs(t, err, ErrTransport)
	assert.False(t, IsNotFound(err))
}

func TestClient_GatewayUnreachableEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusBadGateway,
			`{"success":false,"status":502,"message":"Backend is unreachable.","data":null}`)
	})

	_, err := client.RandomProverb(context.Background())
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Backend is unreachable.", apiErr.Message)
}

func TestClient_CircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusBadGateway,
			`{"success":false,"status":502,"message":"Backend is unreachable.","data":null}`)
	}, WithCircuitBreaker(2, time.Minute))

	for range 2 {
		_, err := client.DailyWord(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	_, err := client.DailyWord(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusNotFound, `{"success":false,"status":404,"message":"nope","data":null}`)
	}, WithCircuitBreaker(1, time.Minute))

	for range 3 {
		_, err := client.Translate(context.Background(), NewTranslationRequest("x"))
		require.True(t, IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, http.StatusOK, `{"success":true,"status":200,"message":"","data":{}}`)
	}, WithCircuitBreaker(1, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.DailyWord(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestEnvelope_Result(t *testing.T) {
	t.Parallel()

	data := DailyWord{YorubaWord: "ìfẹ́", EnglishWord: "love"}
	word, err := Envelope[DailyWord]{Success: true, Status: 200, Data: &data}.Result()
	require.NoError(t, err)
	assert.Equal(t, data, word)

	_, err = Envelope[DailyWord]{Success: false, Status: 500, Message: "boom"}.Result()
	require.Error(t, err)
	assert.EqualError(t, err, "api error: status 500: boom")

	_, err = Envelope[DailyWord]{Success: false, Status: 503}.Result()
	assert.EqualError(t, err, "api error: status 503")
}
