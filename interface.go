package cosynight

import "context"

// CosyNightClient defines the caller-facing operations of the client.
// Client implements it; host integrations can depend on the interface and
// substitute a mock in their own tests.
type CosyNightClient interface {
	Authenticate(ctx context.Context, username, password string) error
	ListDevices(ctx context.Context) ([]Device, error)
	GetStatus(ctx context.Context, deviceID string) (*Status, error)
	Quickstart(ctx context.Context, req QuickstartRequest) error
	Logout(ctx context.Context) error
	State() SessionState
}

var _ CosyNightClient = (*Client)(nil)
