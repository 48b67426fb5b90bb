// Package cosynight provides a Go client library for the Beurer CosyNight
// cloud API, the service behind the CosyNight heated mattress pads.
//
// The client signs in with the account's username and password, keeps the
// resulting bearer token in a TokenStore so it survives restarts, and
// refreshes it transparently when it expires.
//
// # Authentication
//
//	store := cosynight.NewFileTokenStore("/path/to/token.json")
//	client, err := cosynight.NewClient(store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Authenticate(ctx, username, password); err != nil {
//	    log.Fatal(err)
//	}
//
// Authenticate does nothing when a token was loaded from the store. If the
// server later rejects the refresh token the client drops it and every call
// returns ErrNotAuthenticated until Authenticate is called again; the
// client never keeps the password to sign in silently.
//
// # Basic Usage
//
// List devices:
//
//	devices, err := client.ListDevices(ctx)
//	for _, d := range devices {
//	    fmt.Printf("Device: %s (%s)\n", d.Name, d.ID)
//	}
//
// Get device status:
//
//	status, err := client.GetStatus(ctx, deviceID)
//	fmt.Printf("body %d, feet %d\n", status.BodySetting, status.FeetSetting)
//
// Start heating:
//
//	err := client.Quickstart(ctx, cosynight.QuickstartRequest{
//	    ID:          deviceID,
//	    BodySetting: 5,
//	    FeetSetting: 3,
//	    Timespan:    time.Hour,
//	})
//
// Quickstart is not idempotent; do not retry it blindly after a timeout.
//
// # Error Handling
//
//	if cosynight.IsNotAuthenticated(err) {
//	    // Call Authenticate again
//	}
//	if cosynight.IsNotFound(err) {
//	    // Unknown device ID
//	}
//
// # Concurrency
//
// A Client is safe for concurrent use; token refreshes are serialized.
// Two processes sharing one token file are not coordinated and the last
// writer wins.
package cosynight
