//go:build !darwin && !linux

package goble

import (
	"runtime"

	"github.com/go-ble/ble"

	"github.com/bluenav/navlink/internal/device"
)

func newPlatformDevice() (ble.Device, error) {
	return nil, device.NewError(device.TransportUnavailable, nil, "no BLE support on %s", runtime.GOOS)
}
