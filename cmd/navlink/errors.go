package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluenav/navlink/internal/device"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the autopilot became unreachable while a command
	// was running. device.ErrNotConnected instead means no connection was held.
	ErrConnectionLost = errors.New("connection lost")
)

// FormatUserError turns a classified error into a one-line message for the terminal
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrConnectionLost) {
		return "connection to the autopilot was lost"
	}

	var de *device.Error
	if !errors.As(err, &de) {
		if errors.Is(err, context.DeadlineExceeded) {
			return "operation timed out"
		}
		return err.Error()
	}

	detail := de.Msg
	if de.Err != nil {
		if detail != "" {
			detail += ": "
		}
		detail += de.Err.Error()
	}

	switch de.Kind {
	case device.PermissionDenied:
		return "Bluetooth permission was not granted"
	case device.TransportUnavailable:
		return withDetail("Bluetooth is unavailable, is it turned on?", detail)
	case device.ScanFailed:
		return withDetail("scan failed", detail)
	case device.ConnectFailed:
		return withDetail("could not connect to the autopilot", detail)
	case device.MalformedPayload:
		return withDetail("the autopilot sent malformed data", detail)
	case device.NotConnected:
		return "no autopilot is connected"
	case device.AlreadyConnected:
		return "an autopilot is already connected"
	case device.WriteAckFailed:
		return withDetail("the autopilot did not acknowledge the command", detail)
	default:
		return err.Error()
	}
}

func withDetail(msg, detail string) string {
	if detail == "" {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, detail)
}
