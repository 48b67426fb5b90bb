package cosynight

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// WithLogger configures a structured logger for the client.
// When set, the client will log API calls and session transitions.
// Credentials and tokens are never logged.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, _ := cosynight.NewClient(store, cosynight.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// LoggingTransport wraps an http.RoundTripper and logs requests/responses.
// Install it on the *http.Client given to WithHTTPClient to see wire-level
// timing beneath the client's own logging.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// RoundTrip implements http.RoundTripper with logging.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()

	if t.Logger != nil {
		t.Logger.LogAttrs(req.Context(), slog.LevelDebug, "http_request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
		)
	}

	resp, err := base.RoundTrip(req)
	duration := time.Since(start)

	if t.Logger != nil {
		if err != nil {
			t.Logger.LogAttrs(req.Context(), slog.LevelError, "http_error",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()),
			)
		} else {
			t.Logger.LogAttrs(req.Context(), statusLevel(resp.StatusCode, nil), "http_response",
				slog.String("method", req.Method),
				slog.String("url", req.URL.String()),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
		}
	}

	return resp, err
}

func statusLevel(statusCode int, err error) slog.Level {
	switch {
	case statusCode >= 500 || err != nil:
		return slog.LevelError
	case statusCode >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// LogRequest logs an API request. This is the low-level logging method
// used internally and can be used for custom request logging.
func (c *Client) LogRequest(ctx context.Context, method, url, requestID string) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, slog.LevelDebug, "api_request",
		slog.String("method", method),
		slog.String("url", url),
		slog.String("request_id", requestID),
	)
}

// LogResponse logs an API response. This is the low-level logging method
// used internally and can be used for custom response logging.
func (c *Client) LogResponse(ctx context.Context, method, url string, statusCode int, duration time.Duration, err error) {
	if c.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", statusCode),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	c.logger.LogAttrs(ctx, statusLevel(statusCode, err), "api_response", attrs...)
}

// LogQuickstart logs a quickstart command.
func (c *Client) LogQuickstart(ctx context.Context, req QuickstartRequest, err error) {
	if c.logger == nil {
		return
	}

	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("device_id", req.ID),
		slog.Int("body_setting", req.BodySetting),
		slog.Int("feet_setting", req.FeetSetting),
		slog.Duration("timespan", req.Timespan),
	}

	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	c.logger.LogAttrs(ctx, level, "device_quickstart", attrs...)
}

// logSession logs a token lifecycle event.
func (c *Client) logSession(ctx context.Context, level slog.Level, event string, attrs ...slog.Attr) {
	if c.logger == nil {
		return
	}
	c.logger.LogAttrs(ctx, level, event, attrs...)
}
