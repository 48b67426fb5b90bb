package cosynight

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TimestampLayout is the format of the `.issued` and `.expires` fields sent
// by the token endpoint.
const TimestampLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// Token is the bearer token pair issued by the CosyNight token endpoint.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	Issued       time.Time `json:"issued"`
	Expires      time.Time `json:"expires"`
	ExpiresIn    int       `json:"expires_in"`
	UserID       string    `json:"user_id"`
	UserEmail    string    `json:"user_email"`
}

// IsStale reports whether the token's server-declared expiry is at or
// before now.
func (t *Token) IsStale(now time.Time) bool {
	if t == nil {
		return true
	}
	return !now.Before(t.Expires)
}

// complete returns the name of the first missing field, or "" if none.
func (t *Token) complete() string {
	switch {
	case t.AccessToken == "":
		return "access_token"
	case t.TokenType == "":
		return "token_type"
	case t.RefreshToken == "":
		return "refresh_token"
	case t.Issued.IsZero():
		return "issued"
	case t.Expires.IsZero():
		return "expires"
	case t.UserID == "":
		return "user_id"
	case t.UserEmail == "":
		return "user_email"
	}
	return ""
}

// authorization returns the Authorization header value.
func (t *Token) authorization() string {
	return t.TokenType + " " + t.AccessToken
}

// passwordGrant exchanges credentials for a new token.
func (c *Client) passwordGrant(ctx context.Context, username, password string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", GrantPassword)
	data.Set("username", username)
	data.Set("password", password)

	return c.doTokenRequest(ctx, GrantPassword, data)
}

// refreshGrant exchanges a refresh token for a new token.
func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", GrantRefreshToken)
	data.Set("refresh_token", refreshToken)

	return c.doTokenRequest(ctx, GrantRefreshToken, data)
}

// doTokenRequest posts a form to the token endpoint. Every failure is
// returned as an *AuthenticationError.
func (c *Client) doTokenRequest(ctx context.Context, grant string, data url.Values) (*Token, error) {
	req := &Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/token",
		Header: http.Header{},
		Body:   []byte(data.Encode()),
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, &AuthenticationError{Grant: grant, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthenticationError{
			Grant:      grant,
			StatusCode: resp.StatusCode,
			Err:        c.handleError(resp),
		}
	}

	tok, err := decodeToken(resp.Body)
	if err != nil {
		return nil, &AuthenticationError{Grant: grant, StatusCode: resp.StatusCode, Err: err}
	}
	return tok, nil
}

// parseTimestamp parses a token endpoint timestamp. The zone abbreviation is
// always GMT in practice; the wall clock is taken as UTC.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}
