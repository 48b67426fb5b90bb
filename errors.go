package cosynight

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the CosyNight client.
// All errors are defined here for easy discovery and consistent organization.
var (
	// Session errors
	ErrNotAuthenticated = errors.New("cosynight: not authenticated (call Authenticate first)")
	ErrEmptyCredentials = errors.New("cosynight: username and password cannot be empty")

	// Token storage errors
	ErrNilTokenStore = errors.New("cosynight: token store is required")
	ErrNoToken       = errors.New("cosynight: no token stored")

	// Request validation errors
	ErrEmptyDeviceID     = errors.New("cosynight: device ID cannot be empty")
	ErrInvalidQuickstart = errors.New("cosynight: invalid quickstart request")
)

// Grant types accepted by the token endpoint.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// APIError represents a non-success response from the CosyNight API.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("cosynight: API error %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("cosynight: API error %d: %s", e.StatusCode, e.Message)
}

// AuthenticationError is returned when a password or refresh token exchange
// fails. Err holds the underlying cause: an *APIError for a rejected
// exchange, a transport error, or a *DecodeError for an unusable body.
type AuthenticationError struct {
	Grant      string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cosynight: %s grant failed with status %d: %v", e.Grant, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("cosynight: %s grant failed: %v", e.Grant, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body is malformed or lacks a
// field the client requires.
type DecodeError struct {
	Resource string
	Field    string
	Err      error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("cosynight: decode %s: missing field %q", e.Resource, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("cosynight: decode %s: %v", e.Resource, e.Err)
	default:
		return fmt.Sprintf("cosynight: decode %s failed", e.Resource)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNotAuthenticated returns true if the operation needs a prior Authenticate.
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

// IsAuthenticationError returns true if a token exchange was rejected or failed.
func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsUnauthorized returns true if the server answered 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound returns true if the server answered 404, e.g. for an unknown device ID.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsDecodeError returns true if a response body could not be decoded.
func IsDecodeError(err error) bool {
	var decErr *DecodeError
	return errors.As(err, &decErr)
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StatusCode extracts the HTTP status code carried by err, or 0 if none.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	return 0
}
