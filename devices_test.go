package cosynight

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDevices(t *testing.T) {
	t.Run("decodes devices in server order", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodGet, pathDeviceList, http.StatusOK, `{"devices":[
			{"id":"b","name":"Guest room","active":false,"requieresUpdate":true},
			{"id":"a","name":"Bedroom","active":true,"requieresUpdate":false}
		]}`)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		devices, err := client.ListDevices(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []Device{
			{ID: "b", Name: "Guest room", Active: false, RequiresUpdate: true},
			{ID: "a", Name: "Bedroom", Active: true, RequiresUpdate: false},
		}, devices)
	})

	t.Run("empty list", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodGet, pathDeviceList, http.StatusOK, `{"devices":[]}`)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		devices, err := client.ListDevices(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, devices)
		assert.Empty(t, devices)
	})

	t.Run("missing devices key", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodGet, pathDeviceList, http.StatusOK, `{}`)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		_, err := client.ListDevices(context.Background())
		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, "devices", decErr.Field)
	})

	t.Run("stale token refreshes before listing", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodPost, "/token", http.StatusOK, tokenBody("renewed", testNow))
		ft.respond(http.MethodGet, pathDeviceList, http.StatusOK, `{"devices":[{"id":"a","name":"Bedroom","active":true,"requieresUpdate":false}]}`)
		client := newTestClient(t, NewMemoryTokenStore(staleToken()), ft)

		devices, err := client.ListDevices(context.Background())
		require.NoError(t, err)
		assert.Len(t, devices, 1)

		require.Equal(t, 2, ft.total())
		assert.Equal(t, "https://cosy.test/token", ft.requests[0].URL)
		assert.Equal(t, "bearer renewed", ft.requests[1].Header.Get("Authorization"))
	})

	t.Run("not authenticated", func(t *testing.T) {
		ft := newFakeTransport()
		client := newTestClient(t, NewMemoryTokenStore(nil), ft)

		_, err := client.ListDevices(context.Background())
		assert.True(t, IsNotAuthenticated(err))
		assert.Zero(t, ft.total())
	})
}

func TestGetStatus(t *testing.T) {
	t.Run("sends id and decodes status", func(t *testing.T) {
		ft := newFakeTransport()
		ft.handle(http.MethodPost, pathDeviceStatus, func(req *Request) (*Response, error) {
			var body map[string]string
			require.NoError(t, json.Unmarshal(req.Body, &body))
			assert.Equal(t, map[string]string{"id": "dev1"}, body)
			return &Response{StatusCode: http.StatusOK, Body: []byte(`{
				"id":"dev1","name":"Bedroom","active":true,"bodySetting":5,"feetSetting":3,
				"heartbeat":17,"timer":1800,"requieresUpdate":true}`)}, nil
		})
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		st, err := client.GetStatus(context.Background(), "dev1")
		require.NoError(t, err)
		assert.Equal(t, &Status{
			ID: "dev1", Name: "Bedroom", Active: true, BodySetting: 5, FeetSetting: 3,
			Heartbeat: 17, Timer: 1800, RequiresUpdate: true,
		}, st)
	})

	t.Run("unknown device is 404", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodPost, pathDeviceStatus, http.StatusNotFound, `{"message":"Device not found"}`)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		_, err := client.GetStatus(context.Background(), "unknown-id")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.True(t, IsNotFound(err))
	})

	t.Run("empty device id", func(t *testing.T) {
		ft := newFakeTransport()
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		_, err := client.GetStatus(context.Background(), "")
		assert.ErrorIs(t, err, ErrEmptyDeviceID)
		assert.Zero(t, ft.total())
	})

	t.Run("missing field", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodPost, pathDeviceStatus, http.StatusOK, `{"id":"dev1","name":"Bedroom","active":true,"requieresUpdate":false,"bodySetting":1}`)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		_, err := client.GetStatus(context.Background(), "dev1")
		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr)
		assert.Equal(t, "feetSetting", decErr.Field)
	})
}

func TestQuickstart(t *testing.T) {
	t.Run("sends full payload", func(t *testing.T) {
		ft := newFakeTransport()
		ft.handle(http.MethodPost, pathDeviceQuickstart, func(req *Request) (*Response, error) {
			assert.JSONEq(t, `{"id":"dev1","bodySetting":5,"feetSetting":3,"timespan":3600}`, string(req.Body))
			return &Response{StatusCode: http.StatusOK}, nil
		})
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		err := client.Quickstart(context.Background(), QuickstartRequest{ID: "dev1", BodySetting: 5, FeetSetting: 3, Timespan: time.Hour})
		require.NoError(t, err)
		assert.Equal(t, 1, ft.calls(pathDeviceQuickstart))
	})

	t.Run("ignores response body", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodPost, pathDeviceQuickstart, http.StatusOK, `not json at all`)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		err := client.Quickstart(context.Background(), QuickstartRequest{ID: "dev1", BodySetting: 1, FeetSetting: 1, Timespan: time.Minute})
		assert.NoError(t, err)
	})

	t.Run("server error is not retried", func(t *testing.T) {
		ft := newFakeTransport()
		ft.respond(http.MethodPost, pathDeviceQuickstart, http.StatusBadGateway, ``)
		client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

		err := client.Quickstart(context.Background(), QuickstartRequest{ID: "dev1", BodySetting: 1, FeetSetting: 1, Timespan: time.Minute})
		assert.Equal(t, http.StatusBadGateway, StatusCode(err))
		assert.Equal(t, 1, ft.total())
	})

	t.Run("invalid requests are not sent", func(t *testing.T) {
		tests := []struct {
			name string
			req  QuickstartRequest
		}{
			{"missing id", QuickstartRequest{BodySetting: 1, FeetSetting: 1, Timespan: time.Hour}},
			{"body too high", QuickstartRequest{ID: "d", BodySetting: 10, FeetSetting: 1, Timespan: time.Hour}},
			{"feet negative", QuickstartRequest{ID: "d", BodySetting: 1, FeetSetting: -1, Timespan: time.Hour}},
			{"zero timespan", QuickstartRequest{ID: "d", BodySetting: 1, FeetSetting: 1}},
			{"sub-second timespan", QuickstartRequest{ID: "d", BodySetting: 1, FeetSetting: 1, Timespan: time.Millisecond}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ft := newFakeTransport()
				client := newTestClient(t, NewMemoryTokenStore(validToken()), ft)

				err := client.Quickstart(context.Background(), tt.req)
				assert.ErrorIs(t, err, ErrInvalidQuickstart)
				assert.Zero(t, ft.total())
			})
		}
	})
}

func TestQuickstartFromStatus(t *testing.T) {
	st := Status{ID: "dev1", Name: "Bedroom", BodySetting: 2, FeetSetting: 4}

	req := QuickstartFromStatus(st, 7, st.FeetSetting)
	assert.Equal(t, QuickstartRequest{ID: "dev1", BodySetting: 7, FeetSetting: 4, Timespan: DefaultTimespan}, req)
	assert.NoError(t, ValidateQuickstart(req))
}
