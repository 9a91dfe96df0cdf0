package main

import (
	"context"
	"errors"

	"github.com/srg/oxim/internal/device"
	"github.com/srg/oxim/internal/pulseox"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the BLE connection was unexpectedly lost during operation.
	// This is distinct from device.ErrNotConnected, which indicates an attempt to use
	// a device that was never connected or was already disconnected.
	ErrConnectionLost = errors.New("connection lost")
)

// FormatUserError turns internal errors into messages suitable for stderr.
// Unknown errors pass through with their original text.
func FormatUserError(err error) string {
	var notFound *pulseox.NotFoundError
	switch {
	case errors.Is(err, device.ErrBluetoothOff):
		return "Bluetooth is turned off - enable it and try again"
	case errors.Is(err, device.ErrNotConnected):
		return "device is not connected"
	case errors.Is(err, ErrConnectionLost):
		return "connection to the device was lost"
	case errors.Is(err, context.DeadlineExceeded):
		return "operation timed out"
	case errors.As(err, &notFound):
		return notFound.Error() + " - is this a supported pulse oximeter?"
	default:
		return err.Error()
	}
}
