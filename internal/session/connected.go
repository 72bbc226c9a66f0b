package session

import (
	"context"
	"strings"

	"github.com/bluenav/navlink/internal/device"
)

// ProgressCallback is called when the connection phase changes
type ProgressCallback func(phase string)

// ConnectedCallback processes a session holding a live connection and produces output of type R
type ConnectedCallback[R any] func(*Session) (R, error)

// FindDevice scans until a device matching address is discovered. An empty
// address accepts the first autopilot found. The scan is left running; Connect
// stops it.
func FindDevice(ctx context.Context, s *Session, address string) (device.PeripheralDevice, error) {
	stream, err := s.Scan(ctx)
	if err != nil {
		return device.PeripheralDevice{}, err
	}

	for {
		select {
		case dev, ok := <-stream.C():
			if !ok {
				if err := stream.Err(); err != nil {
					return device.PeripheralDevice{}, err
				}
				if ctx.Err() != nil {
					return device.PeripheralDevice{}, ctx.Err()
				}
				return device.PeripheralDevice{}, device.NewError(device.ConnectFailed, nil, "no autopilot %q found", address)
			}
			if address == "" || strings.EqualFold(dev.ID, address) {
				return dev, nil
			}
		case <-ctx.Done():
			stream.Stop()
			return device.PeripheralDevice{}, ctx.Err()
		}
	}
}

// WithConnected connects s to dev, runs callback and disconnects afterwards.
// The connection lifecycle is managed automatically.
func WithConnected[R any](ctx context.Context, s *Session, dev device.PeripheralDevice, progressCallback ProgressCallback, callback ConnectedCallback[R]) (R, error) {
	var zero R
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	progressCallback("Connecting")
	if err := s.Connect(ctx, dev); err != nil {
		progressCallback("Failed")
		return zero, err
	}
	progressCallback("Connected")

	defer func() {
		if err := s.Disconnect(); err != nil && !device.IsKind(err, device.NotConnected) {
			s.logger.WithError(err).Error("failed to disconnect device")
		}
	}()

	return callback(s)
}
