package cosynight

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	pathDeviceList       = "/api/v1/Device/List"
	pathDeviceStatus     = "/api/v1/Device/GetStatus"
	pathDeviceQuickstart = "/api/v1/Device/Quickstart"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ListDevices returns all devices registered to the account, in server order.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	data, err := c.get(ctx, pathDeviceList)
	if err != nil {
		return nil, err
	}

	return decodeDeviceList(data)
}

// GetStatus returns the current state of one device.
// An unknown device ID surfaces as an *APIError; see IsNotFound.
func (c *Client) GetStatus(ctx context.Context, deviceID string) (*Status, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}

	data, err := c.post(ctx, pathDeviceStatus, map[string]string{"id": deviceID})
	if err != nil {
		return nil, err
	}

	return decodeStatus(data)
}

// Quickstart starts a timed heating program, replacing any running one.
// It is not idempotent: do not retry blindly after an ambiguous failure
// such as a timeout, the server may have accepted the first attempt.
func (c *Client) Quickstart(ctx context.Context, req QuickstartRequest) error {
	if err := ValidateQuickstart(req); err != nil {
		return err
	}

	body, err := encodeQuickstart(req)
	if err != nil {
		return fmt.Errorf("failed to marshal quickstart: %w", err)
	}

	_, err = c.post(ctx, pathDeviceQuickstart, body)
	c.LogQuickstart(ctx, req, err)
	return err
}

// ValidateQuickstart checks a request before it is sent: the device ID is
// set, both settings lie within MinSetting..MaxSetting and the timespan is
// at least one second.
func ValidateQuickstart(req QuickstartRequest) error {
	if err := requestValidator().Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuickstart, err)
	}
	return nil
}
