package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alarino/dictweb/internal/observability"
)

// BasePath is the path prefix the gateway serves the backend under.
const BasePath = "/api"

// Endpoint paths relative to the site origin.
const (
	PathDailyWord  = BasePath + "/daily-word"
	PathProverb    = BasePath + "/proverb"
	PathTranslate  = BasePath + "/translate"
	PathBulkUpload = BasePath + "/admin/bulk-upload"
	PathHealth     = BasePath + "/health"
)

// Defaults for the client.
const (
	DefaultTimeout          = 15 * time.Second
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second

	maxTextBody = 64 << 10
)

// Client calls the backend endpoints through the gateway.
type Client struct {
	baseURL          *url.URL
	httpClient       *http.Client
	logger           observability.Logger
	breaker          *gobreaker.CircuitBreaker
	breakerThreshold uint32
	breakerTimeout   time.Duration
	retry            RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCircuitBreaker sets the number of consecutive transport failures that
// opens the circuit and how long it stays open.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Client) {
		c.breakerThreshold = safeIntToUint32(threshold)
		c.breakerTimeout = timeout
	}
}

// NewClient creates a client for the site at baseURL, e.g. http://127.0.0.1:3000.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https with a host", baseURL)
	}

	c := &Client{
		baseURL:          u,
		httpClient:       &http.Client{Timeout: DefaultTimeout},
		logger:           observability.NopLogger(),
		breakerThreshold: DefaultBreakerThreshold,
		breakerTimeout:   DefaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alarino-api",
		Timeout: c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return c.breakerThreshold > 0 && counts.ConsecutiveFailures >= c.breakerThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
		IsSuccessful: isBreakerSuccess,
	})

	return c, nil
}

// BaseURL returns the site origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// DailyWord fetches the word of the day.
func (c *Client) DailyWord(ctx context.Context) (DailyWord, error) {
	env, err := call[DailyWord](ctx, c, http.MethodGet, PathDailyWord, nil, nil)
	if err != nil {
		return DailyWord{}, err
	}
	return env.Result()
}

// RandomProverb fetches a random proverb.
func (c *Client) RandomProverb(ctx context.Context) (Proverb, error) {
	env, err := call[Proverb](ctx, c, http.MethodGet, PathProverb, nil, nil)
	if err != nil {
		return Proverb{}, err
	}
	return env.Result()
}

// Translate looks up a word.
func (c *Client) Translate(ctx context.Context, req TranslationRequest) (Translation, error) {
	env, err := call[Translation](ctx, c, http.MethodPost, PathTranslate, req, nil)
	if err != nil {
		return Translation{}, err
	}
	return env.Result()
}

// BulkUpload submits newline separated word pairs. apiKey is sent as a
// bearer token and is otherwise opaque to the client.
func (c *Client) BulkUpload(ctx context.Context, textInput string, dryRun bool, apiKey string) (BulkUploadResult, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)

	body := BulkUploadRequest{TextInput: textInput, DryRun: dryRun}
	env, err := call[BulkUploadResult](ctx, c, http.MethodPost, PathBulkUpload, body, header)
	if err != nil {
		return BulkUploadResult{}, err
	}
	return env.Result()
}

// Health checks the backend health endpoint. Only the success flag matters.
func (c *Client) Health(ctx context.Context) error {
	env, err := call[json.RawMessage](ctx, c, http.MethodGet, PathHealth, nil, nil)
	if err != nil {
		return err
	}
	if !env.Success {
		return &APIError{Status: env.Status, Message: env.Message}
	}
	return nil
}

// call performs a request through the circuit breaker, retrying GETs when
// configured, and decodes the envelope. The returned error is always an
// *APIError.
func call[T any](
	ctx context.Context,
	c *Client,
	method, path string,
	body any,
	header http.Header,
) (Envelope[T], error) {
	start := time.Now()

	var env Envelope[T]
	apiErr := c.withRetry(ctx, method, path, func() *APIError {
		result, err := c.breaker.Execute(func() (interface{}, error) {
			return roundTrip[T](ctx, c, method, path, body, header)
		})
		if err != nil {
			return toAPIError(err)
		}
		env = result.(Envelope[T])
		return nil
	})
	if apiErr != nil {
		c.logger.Debug("api call failed",
			observability.String("method", method),
			observability.String("path", path),
			observability.Int("status", apiErr.Status),
			observability.Duration("duration", time.Since(start)),
			observability.Error(apiErr),
		)
		return Envelope[T]{}, apiErr
	}

	c.logger.Debug("api call completed",
		observability.String("method", method),
		observability.String("path", path),
		observability.Int("status", env.Status),
		observability.Bool("success", env.Success),
		observability.Duration("duration", time.Since(start)),
	)
	return env, nil
}

func roundTrip[T any](
	ctx context.Context,
	c *Client,
	method, path string,
	body any,
	header http.Header,
) (Envelope[T], error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Envelope[T]{}, newTransportError(err.Error(), err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return Envelope[T]{}, newTransportError(err.Error(), err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope[T]{}, newTransportError(err.Error(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	return decodeEnvelope[T](resp)
}

func decodeEnvelope[T any](resp *http.Response) (Envelope[T], error) {
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxTextBody))
		message := string(raw)
		if message == "" {
			message = MessageUnexpectedResponse
		}
		return Envelope[T]{}, newTransportError(message, ErrUnexpectedContentType)
	}

	var env Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return Envelope[T]{}, newTransportError(err.Error(), err)
	}
	if env.Status == 0 {
		env.Status = resp.StatusCode
	}

	// A gateway or server fault still counts against the breaker.
	if !env.Success && env.Status >= http.StatusInternalServerError {
		return env, &APIError{Status: env.Status, Message: env.Message}
	}
	return env, nil
}

// toAPIError maps breaker rejections to transport failures and passes
// *APIError values through.
func toAPIError(err error) *APIError {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return newTransportError(err.Error(), fmt.Errorf("%w: %w", ErrCircuitOpen, err))
	}
	return newTransportError(err.Error(), err)
}

// isBreakerSuccess treats cancellation by the caller as neutral.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
