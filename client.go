package cosynight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the CosyNight API base URL.
	DefaultBaseURL = "https://cosynight.azurewebsites.net"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every request unless overridden.
	DefaultUserAgent = "cosynight-go"

	headerRequestID = "X-Request-ID"
)

// Client is a CosyNight API client. It owns the session for one stored
// token: a single Client per TokenStore record per process is supported.
// Calls on one Client are safe for concurrent use; the token refresh and its
// persistence are serialized.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	transport  Transport
	store      TokenStore
	logger     *slog.Logger
	now        func() time.Time

	mu    sync.Mutex
	token *Token
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client for the default transport.
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
			c.httpClient = defaultHTTPClient()
		}
		c.httpClient.Timeout = timeout
	}
}

// WithTransport replaces the HTTP transport entirely, e.g. with a fake in tests.
// WithHTTPClient and WithTimeout have no effect when a transport is set.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithClock sets the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new CosyNight API client and loads any token held by
// store. A missing or unreadable token leaves the client unauthenticated.
// Returns ErrNilTokenStore if store is nil.
func NewClient(store TokenStore, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, ErrNilTokenStore
	}

	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		store:     store,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewHTTPTransport(c.httpClient)
	}

	c.loadToken(context.Background())

	return c, nil
}

// send stamps the common headers on req and hands it to the transport.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := c.now()
	c.LogRequest(ctx, req.Method, req.URL, req.Header.Get(headerRequestID))
	resp, err := c.transport.Send(ctx, req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.LogResponse(ctx, req.Method, req.URL, status, c.now().Sub(start), err)
	return resp, err
}

// do performs an authorized device API call and returns the response body.
// The token must already be valid.
func (c *Client) do(ctx context.Context, method, path string, tok *Token, body any) ([]byte, error) {
	req := &Request{
		Method: method,
		URL:    c.baseURL + path,
		Header: http.Header{},
	}
	if body != nil {
		var data []byte
		switch b := body.(type) {
		case []byte:
			data = b
		default:
			var err error
			data, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
		}
		req.Body = data
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", tok.authorization())
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := c.handleError(resp)
		if apiErr.RequestID == "" {
			apiErr.RequestID = req.Header.Get(headerRequestID)
		}
		return nil, apiErr
	}

	return resp.Body, nil
}

// get performs an authorized GET request.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	tok, err := c.ensureValid(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, tok, nil)
}

// post performs an authorized POST request.
func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	tok, err := c.ensureValid(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, tok, body)
}

// handleError converts a non-success response to an *APIError.
func (c *Client) handleError(resp *Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get(headerRequestID),
	}

	// The token endpoint answers OAuth style, the device API ASP.NET style.
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &errResp); err == nil {
		switch {
		case errResp.ErrorDescription != "":
			apiErr.Message = errResp.Error + ": " + errResp.ErrorDescription
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case errResp.Error != "":
			apiErr.Message = errResp.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = truncatePreview(bytes.TrimSpace(resp.Body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
