package tedee

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// WithLogger configures a structured logger for the client.
// When set, the client will log API requests, responses, and lock commands.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, _ := tedee.NewClient(creds, tedee.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// LoggingTransport wraps an http.RoundTripper and logs requests/responses.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper with logging.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	if t.Logger != nil {
		t.Logger.LogAttrs(req.Context(), slog.LevelDebug, "api_request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
		)
	}

	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start)

	if t.Logger != nil {
		if err != nil {
			t.Logger.LogAttrs(req.Context(), slog.LevelError, "api_error",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()),
			)
		} else {
			level := slog.LevelDebug
			if resp.StatusCode >= 400 {
				level = slog.LevelWarn
			}
			if resp.StatusCode >= 500 {
				level = slog.LevelError
			}

			t.Logger.LogAttrs(req.Context(), level, "api_response",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
		}
	}

	return resp, err
}

// LogResponse logs an API response. This is the low-level logging method
// used internally and can be used for custom response logging.
func (c *Client) LogResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration, err error) {
	if c.logger == nil {
		return
	}

	level := slog.LevelDebug
	if statusCode >= 400 {
		level = slog.LevelWarn
	}
	if statusCode >= 500 || err != nil {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", statusCode),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	c.logger.LogAttrs(ctx, level, "api_response", attrs...)
}

// LogLockCommand logs a lock command execution and its outcome.
func (c *Client) LogLockCommand(ctx context.Context, deviceID int, action string, err error) {
	if c.logger == nil {
		return
	}

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.Int("device_id", deviceID),
		slog.String("action", action),
	}

	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	c.logger.LogAttrs(ctx, level, "lock_command", attrs...)
}

// NewLoggingClient creates a client with request/response logging enabled.
// This is a convenience function that wraps the HTTP transport with logging.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client, err := tedee.NewLoggingClient(creds, logger)
func NewLoggingClient(creds Credentials, logger *slog.Logger, opts ...Option) (*Client, error) {
	transport := &LoggingTransport{
		Base: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
			ForceAttemptHTTP2:   true,
		},
		Logger: logger,
	}

	httpClient := &http.Client{
		Timeout:   DefaultTimeout,
		Transport: transport,
	}

	allOpts := append([]Option{WithHTTPClient(httpClient), WithLogger(logger)}, opts...)

	return NewClient(creds, allOpts...)
}
