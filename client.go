package tedee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultBaseURL is the Tedee API base URL.
	DefaultBaseURL = "https://api.tedee.com/api/v1.15"

	// DefaultTokenURL is the Tedee OAuth2 password-grant token endpoint.
	DefaultTokenURL = "https://tedee.b2clogin.com/tedee.onmicrosoft.com/B2C_1_SignIn_Ropc/oauth2/v2.0/token"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the default delay between operation status polls.
	DefaultPollInterval = time.Second
)

// RetryConfig configures the bounded fixed-interval retry applied to API calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first (default: 3).
	MaxAttempts int
	// Interval is the fixed delay between attempts (default: 5s).
	Interval time.Duration
}

// DefaultRetryConfig returns the retry defaults for resource calls.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Interval:    5 * time.Second,
	}
}

// DefaultTokenRetryConfig returns the retry defaults for token acquisition.
func DefaultTokenRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		Interval:    5 * time.Second,
	}
}

// Credentials holds the password-grant credentials for the Tedee API.
type Credentials struct {
	Username string
	Password string
	ClientID string
}

// Client is a Tedee API client.
type Client struct {
	baseURL      string
	tokenURL     string
	creds        Credentials
	httpClient   *http.Client
	retry        *RetryConfig
	tokenRetry   *RetryConfig
	pollInterval time.Duration
	logger       *slog.Logger
	cache        Cache
	cacheTTL     time.Duration

	// token is the cached bearer token, guarded by mu. Refreshes are
	// deduplicated through refreshGroup so overlapping callers at expiry
	// trigger a single token request.
	mu           sync.Mutex
	token        *accessToken
	refreshGroup singleflight.Group

	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTokenURL sets a custom OAuth2 token endpoint.
func WithTokenURL(url string) Option {
	return func(c *Client) {
		c.tokenURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
// This option can be applied in any order relative to other options.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithRetry sets the retry configuration for resource calls.
// A nil config leaves the defaults in place.
func WithRetry(config *RetryConfig) Option {
	return func(c *Client) {
		if config != nil {
			c.retry = config
		}
	}
}

// WithTokenRetry sets the retry configuration for token acquisition.
// A nil config leaves the defaults in place.
func WithTokenRetry(config *RetryConfig) Option {
	return func(c *Client) {
		if config != nil {
			c.tokenRetry = config
		}
	}
}

// WithPollInterval sets the delay between operation status polls.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient creates a new Tedee API client.
// Returns ErrNoCredentials if any credential field is empty.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if creds.Username == "" || creds.Password == "" || creds.ClientID == "" {
		return nil, ErrNoCredentials
	}

	c := &Client{
		baseURL:  DefaultBaseURL,
		tokenURL: DefaultTokenURL,
		creds:    creds,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		retry:        DefaultRetryConfig(),
		tokenRetry:   DefaultTokenRetryConfig(),
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// apiResponse is the envelope every Tedee API response is wrapped in.
type apiResponse struct {
	Success       bool            `json:"success"`
	ErrorMessages []string        `json:"errorMessages"`
	StatusCode    int             `json:"statusCode"`
	Result        json.RawMessage `json:"result"`
}

// do performs a single HTTP request attempt and returns the envelope's
// result payload. It acquires a bearer token first, so a token failure
// surfaces as a failure of the call.
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.LogResponse(ctx, method, path, 0, time.Since(start), err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.LogResponse(ctx, method, path, resp.StatusCode, time.Since(start), nil)

	if resp.StatusCode >= 400 {
		return nil, c.handleError(resp.StatusCode, respBody)
	}

	if len(respBody) == 0 {
		return nil, nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w (body: %s)", err, truncatePreview(respBody))
	}

	if !envelope.Success {
		status := envelope.StatusCode
		if status == 0 {
			status = resp.StatusCode
		}
		return nil, &APIError{StatusCode: status, Messages: envelope.ErrorMessages}
	}

	return envelope.Result, nil
}

// handleError converts HTTP error responses to appropriate errors.
func (c *Client) handleError(statusCode int, body []byte) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		// The envelope shape is kept even for errors; fall back to the
		// raw body when it isn't.
		var envelope apiResponse
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.ErrorMessages) > 0 {
			return &APIError{StatusCode: statusCode, Messages: envelope.ErrorMessages}
		}
		if len(body) > 0 {
			return &APIError{StatusCode: statusCode, Messages: []string{truncatePreview(body)}}
		}
		return &APIError{StatusCode: statusCode}
	}
}

// get performs a GET request with the resource retry policy.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.doWithRetry(ctx, http.MethodGet, path, nil)
}

// post performs a POST request with the resource retry policy.
func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.doWithRetry(ctx, http.MethodPost, path, body)
}

// doWithRetry performs a request, retrying failed attempts a bounded
// number of times with a fixed delay. All failures are retried alike;
// the last error is returned unchanged once attempts are exhausted.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return withRetry(ctx, c.retry, func() (json.RawMessage, error) {
		return c.do(ctx, method, path, body)
	})
}

// withRetry runs fn up to cfg.MaxAttempts times, sleeping cfg.Interval
// between attempts. Context cancellation is never retried.
func withRetry[T any](ctx context.Context, cfg *RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}

		lastErr = err

		if attempt >= attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(cfg.Interval):
		}
	}

	return zero, lastErr
}
