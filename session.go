package cosynight

import (
	"context"
	"errors"
	"log/slog"
)

// SessionState describes the client's token lifecycle.
type SessionState int

const (
	// Unauthenticated means no token is held; Authenticate must be called.
	Unauthenticated SessionState = iota
	// AuthenticatedValid means a token is held and has not expired.
	AuthenticatedValid
	// AuthenticatedStale means a token is held but its expiry has passed;
	// the next API call refreshes it.
	AuthenticatedStale
)

// String implements fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AuthenticatedValid:
		return "authenticated"
	case AuthenticatedStale:
		return "stale"
	default:
		return "unknown"
	}
}

// loadToken adopts the stored token, if any. Called once from NewClient.
func (c *Client) loadToken(ctx context.Context) {
	tok, err := c.store.LoadToken(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			c.logSession(ctx, slog.LevelWarn, "token_load_failed", slog.String("error", err.Error()))
		}
		return
	}
	if tok == nil {
		return
	}
	if missing := tok.complete(); missing != "" {
		c.logSession(ctx, slog.LevelWarn, "token_load_failed", slog.String("missing_field", missing))
		return
	}
	c.token = tok
}

// State returns the current session state.
func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Client) stateLocked() SessionState {
	switch {
	case c.token == nil:
		return Unauthenticated
	case c.token.IsStale(c.now()):
		return AuthenticatedStale
	default:
		return AuthenticatedValid
	}
}

// Token returns a copy of the held token, or nil when unauthenticated.
func (c *Client) Token() *Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil
	}
	tokenCopy := *c.token
	return &tokenCopy
}

// IsAuthenticated returns true if a token is held, stale or not.
func (c *Client) IsAuthenticated() bool {
	return c.State() != Unauthenticated
}

// Authenticate exchanges username and password for a token and persists it.
// It does nothing when the client already holds a token, even a stale one;
// stale tokens are refreshed on the next API call. Credentials are not
// retained. Empty credentials fail with ErrEmptyCredentials only when a
// token is actually needed.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil {
		return nil
	}
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}

	tok, err := c.passwordGrant(ctx, username, password)
	if err != nil {
		c.logSession(ctx, slog.LevelWarn, "authentication_failed", slog.String("error", err.Error()))
		return err
	}

	c.setTokenLocked(ctx, tok, "token_issued")
	return nil
}

// ensureValid returns a token that may authorize a request, refreshing a
// stale one first. A refresh the server rejects discards the token: later
// calls fail with ErrNotAuthenticated until Authenticate succeeds again.
// A refresh that never reached the server keeps the stale token.
func (c *Client) ensureValid(ctx context.Context) (*Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil, ErrNotAuthenticated
	}

	if !c.token.IsStale(c.now()) {
		tok := *c.token
		return &tok, nil
	}

	c.logSession(ctx, slog.LevelInfo, "token_refreshing", slog.Time("expired", c.token.Expires))
	newToken, err := c.refreshGrant(ctx, c.token.RefreshToken)
	if err != nil {
		c.logSession(ctx, slog.LevelWarn, "token_refresh_failed", slog.String("error", err.Error()))
		if StatusCode(err) != 0 || IsDecodeError(err) {
			c.clearTokenLocked(ctx)
		}
		return nil, err
	}

	c.setTokenLocked(ctx, newToken, "token_refreshed")
	tok := *c.token
	return &tok, nil
}

// Logout discards the held token, in memory and in the store.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = nil
	if deleter, ok := c.store.(TokenDeleter); ok {
		return deleter.Delete(ctx)
	}
	return nil
}

// setTokenLocked installs tok and persists it. A persistence failure is
// logged, not returned: the in-memory token stays usable and the next
// exchange writes the store again.
func (c *Client) setTokenLocked(ctx context.Context, tok *Token, event string) {
	c.token = tok
	if err := c.store.SaveToken(ctx, tok); err != nil {
		c.logSession(ctx, slog.LevelWarn, "token_save_failed", slog.String("error", err.Error()))
	}
	c.logSession(ctx, slog.LevelInfo, event,
		slog.String("user_id", tok.UserID),
		slog.Time("expires", tok.Expires),
	)
}

func (c *Client) clearTokenLocked(ctx context.Context) {
	c.token = nil
	if deleter, ok := c.store.(TokenDeleter); ok {
		if err := deleter.Delete(ctx); err != nil {
			c.logSession(ctx, slog.LevelWarn, "token_delete_failed", slog.String("error", err.Error()))
		}
	}
}
