package goble

import (
	"strings"

	"github.com/bluenav/navlink/internal/device"
)

// NormalizeError maps known go-ble error strings to classified device errors.
// It ensures consistent handling even if the upstream library changes messages slightly.
// The original error stays in the chain.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := device.KindOf(err); ok {
		return err
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "is Bluetooth turned on"),
		containsIgnoreCase(msg, "bluetooth is turned off"),
		containsIgnoreCase(msg, "central manager has invalid state"),
		containsIgnoreCase(msg, "can't init hci"):
		return device.NewError(device.TransportUnavailable, err, "bluetooth radio unavailable")
	case containsIgnoreCase(msg, "device already connected"):
		return device.NewError(device.AlreadyConnected, err, "")
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "disconnected"):
		return device.NewError(device.NotConnected, err, "")
	default:
		return err
	}
}

// containsIgnoreCase checks the substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
