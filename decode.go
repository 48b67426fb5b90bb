package cosynight

import (
	"encoding/json"
	"time"
)

// The server's payloads carry two quirks that are corrected here and only
// here: token timestamps use the keys ".issued" and ".expires", and device
// records spell requiresUpdate as "requieresUpdate". The correctly spelled
// key is also accepted so a server-side fix needs no client change.

type tokenWire struct {
	AccessToken  *string `json:"access_token"`
	TokenType    *string `json:"token_type"`
	RefreshToken *string `json:"refresh_token"`
	ExpiresIn    *int    `json:"expires_in"`
	UserID       *string `json:"user_id"`
	UserEmail    *string `json:"user_email"`
	Issued       *string `json:".issued"`
	Expires      *string `json:".expires"`
}

type deviceWire struct {
	ID             *string `json:"id"`
	Name           *string `json:"name"`
	Active         *bool   `json:"active"`
	RequiresUpdate *bool   `json:"requieresUpdate"`
	Fixed          *bool   `json:"requiresUpdate"`
}

type deviceListWire struct {
	Devices *[]json.RawMessage `json:"devices"`
}

type statusWire struct {
	deviceWire
	BodySetting *int `json:"bodySetting"`
	FeetSetting *int `json:"feetSetting"`
	Heartbeat   *int `json:"heartbeat"`
	Timer       *int `json:"timer"`
}

type quickstartWire struct {
	ID          string `json:"id"`
	BodySetting int    `json:"bodySetting"`
	FeetSetting int    `json:"feetSetting"`
	Timespan    int64  `json:"timespan"`
}

// field reports the first missing field of a decoded payload.
type field struct {
	name    string
	present bool
}

func firstMissing(fields ...field) string {
	for _, f := range fields {
		if !f.present {
			return f.name
		}
	}
	return ""
}

func decodeToken(data []byte) (*Token, error) {
	var w tokenWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Resource: "token", Err: err}
	}
	if missing := firstMissing(
		field{"access_token", w.AccessToken != nil},
		field{"token_type", w.TokenType != nil},
		field{"refresh_token", w.RefreshToken != nil},
		field{"expires_in", w.ExpiresIn != nil},
		field{"user_id", w.UserID != nil},
		field{"user_email", w.UserEmail != nil},
		field{".issued", w.Issued != nil},
		field{".expires", w.Expires != nil},
	); missing != "" {
		return nil, &DecodeError{Resource: "token", Field: missing}
	}

	issued, err := parseTimestamp(*w.Issued)
	if err != nil {
		return nil, &DecodeError{Resource: "token", Err: err}
	}
	expires, err := parseTimestamp(*w.Expires)
	if err != nil {
		return nil, &DecodeError{Resource: "token", Err: err}
	}

	return &Token{
		AccessToken:  *w.AccessToken,
		TokenType:    *w.TokenType,
		RefreshToken: *w.RefreshToken,
		Issued:       issued,
		Expires:      expires,
		ExpiresIn:    *w.ExpiresIn,
		UserID:       *w.UserID,
		UserEmail:    *w.UserEmail,
	}, nil
}

func (w *deviceWire) requiresUpdate() *bool {
	if w.RequiresUpdate != nil {
		return w.RequiresUpdate
	}
	return w.Fixed
}

func (w *deviceWire) toDevice(resource string) (Device, error) {
	if missing := firstMissing(
		field{"id", w.ID != nil},
		field{"name", w.Name != nil},
		field{"active", w.Active != nil},
		field{"requieresUpdate", w.requiresUpdate() != nil},
	); missing != "" {
		return Device{}, &DecodeError{Resource: resource, Field: missing}
	}
	return Device{
		ID:             *w.ID,
		Name:           *w.Name,
		Active:         *w.Active,
		RequiresUpdate: *w.requiresUpdate(),
	}, nil
}

func decodeDeviceList(data []byte) ([]Device, error) {
	var w deviceListWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Resource: "device list", Err: err}
	}
	if w.Devices == nil {
		return nil, &DecodeError{Resource: "device list", Field: "devices"}
	}

	devices := make([]Device, 0, len(*w.Devices))
	for _, raw := range *w.Devices {
		var dw deviceWire
		if err := json.Unmarshal(raw, &dw); err != nil {
			return nil, &DecodeError{Resource: "device", Err: err}
		}
		d, err := dw.toDevice("device")
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

func decodeStatus(data []byte) (*Status, error) {
	var w statusWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Resource: "status", Err: err}
	}
	d, err := w.toDevice("status")
	if err != nil {
		return nil, err
	}
	if missing := firstMissing(
		field{"bodySetting", w.BodySetting != nil},
		field{"feetSetting", w.FeetSetting != nil},
		field{"heartbeat", w.Heartbeat != nil},
		field{"timer", w.Timer != nil},
	); missing != "" {
		return nil, &DecodeError{Resource: "status", Field: missing}
	}

	return &Status{
		ID:             d.ID,
		Name:           d.Name,
		Active:         d.Active,
		BodySetting:    *w.BodySetting,
		FeetSetting:    *w.FeetSetting,
		Heartbeat:      *w.Heartbeat,
		Timer:          *w.Timer,
		RequiresUpdate: d.RequiresUpdate,
	}, nil
}

func encodeQuickstart(req QuickstartRequest) ([]byte, error) {
	return json.Marshal(quickstartWire{
		ID:          req.ID,
		BodySetting: req.BodySetting,
		FeetSetting: req.FeetSetting,
		Timespan:    int64(req.Timespan.Round(time.Second) / time.Second),
	})
}

// MarshalJSON encodes the request in the server's wire form, with the
// timespan in whole seconds.
func (r QuickstartRequest) MarshalJSON() ([]byte, error) {
	return encodeQuickstart(r)
}

// UnmarshalJSON decodes the server's wire form.
func (r *QuickstartRequest) UnmarshalJSON(data []byte) error {
	var w quickstartWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = QuickstartRequest{
		ID:          w.ID,
		BodySetting: w.BodySetting,
		FeetSetting: w.FeetSetting,
		Timespan:    time.Duration(w.Timespan) * time.Second,
	}
	return nil
}
