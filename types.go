package cosynight

import "time"

// Zone settings accepted by the heating pad.
const (
	MinSetting = 0
	MaxSetting = 9

	// DefaultTimespan is the heating program length used when only one zone
	// is changed.
	DefaultTimespan = time.Hour
)

// Device is a bedwarmer registered to the account.
type Device struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	RequiresUpdate bool   `json:"requiresUpdate"`
}

// Status is a snapshot of one device's current state.
type Status struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	BodySetting    int    `json:"bodySetting"`
	FeetSetting    int    `json:"feetSetting"`
	Heartbeat      int    `json:"heartbeat"`
	Timer          int    `json:"timer"`
	RequiresUpdate bool   `json:"requiresUpdate"`
}

// QuickstartRequest starts a timed heating program on a device.
// Timespan is sent to the server rounded to the nearest whole second;
// the JSON form of a QuickstartRequest is that wire form.
type QuickstartRequest struct {
	ID          string        `validate:"required"`
	BodySetting int           `validate:"min=0,max=9"`
	FeetSetting int           `validate:"min=0,max=9"`
	Timespan    time.Duration `validate:"min=1s"`
}

// QuickstartFromStatus builds a request for the device in st with the given
// zone settings and DefaultTimespan. Use the current setting from st for a
// zone that should not change.
func QuickstartFromStatus(st Status, bodySetting, feetSetting int) QuickstartRequest {
	return QuickstartRequest{
		ID:          st.ID,
		BodySetting: bodySetting,
		FeetSetting: feetSetting,
		Timespan:    DefaultTimespan,
	}
}
