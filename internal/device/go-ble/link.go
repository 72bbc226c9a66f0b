package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/groutine"
)

// Link is a discovered go-ble connection implementing device.Link
type Link struct {
	address string
	client  ble.Client
	profile *ble.Profile
	logger  *logrus.Logger

	writeMutex   sync.Mutex
	disconnected chan struct{}
	closeOnce    sync.Once
}

func newLink(address string, client ble.Client, profile *ble.Profile, logger *logrus.Logger) *Link {
	l := &Link{
		address:      address,
		client:       client,
		profile:      profile,
		logger:       logger,
		disconnected: make(chan struct{}),
	}

	// Not every platform client exposes Disconnected()
	if dc, ok := client.(interface{ Disconnected() <-chan struct{} }); ok {
		groutine.Go(context.Background(), "ble-connection-monitor", func(ctx context.Context) {
			select {
			case <-dc.Disconnected():
				l.logger.WithField("address", l.address).Warn("Platform reported disconnection")
				l.markDisconnected()
			case <-l.disconnected:
			}
		})
	} else {
		l.logger.Debug("Client does not support Disconnected() channel")
	}
	return l
}

func (l *Link) Address() string {
	return l.address
}

// Disconnected is closed once the peripheral is gone
func (l *Link) Disconnected() <-chan struct{} {
	return l.disconnected
}

func (l *Link) markDisconnected() {
	l.closeOnce.Do(func() { close(l.disconnected) })
}

func (l *Link) isDisconnected() bool {
	select {
	case <-l.disconnected:
		return true
	default:
		return false
	}
}

// characteristic finds a discovered characteristic by service and characteristic UUID.
// Returns a NotFoundError if the service or characteristic is not in the profile.
func (l *Link) characteristic(serviceUUID, charUUID string) (*ble.Characteristic, error) {
	svcID, err := ble.Parse(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid service UUID %q: %w", serviceUUID, err)
	}
	charID, err := ble.Parse(charUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID %q: %w", charUUID, err)
	}

	for _, svc := range l.profile.Services {
		if !svc.UUID.Equal(svcID) {
			continue
		}
		for _, c := range svc.Characteristics {
			if c.UUID.Equal(charID) {
				return c, nil
			}
		}
		return nil, &device.NotFoundError{Resource: "characteristic", UUIDs: []string{serviceUUID, charUUID}}
	}
	return nil, &device.NotFoundError{Resource: "service", UUIDs: []string{serviceUUID}}
}

// Subscribe enables notifications (not indications) on the characteristic.
// Payloads are copied before handler sees them.
func (l *Link) Subscribe(serviceUUID, charUUID string, handler device.NotificationHandler) error {
	if l.isDisconnected() {
		return device.ErrNotConnected
	}
	c, err := l.characteristic(serviceUUID, charUUID)
	if err != nil {
		return err
	}

	err = NormalizeError(l.client.Subscribe(c, false, func(data []byte) {
		payload := make([]byte, len(data))
		copy(payload, data)
		handler(device.Notification{Data: payload})
	}))
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"service_uuid": serviceUUID,
			"char_uuid":    charUUID,
			"error":        err,
		}).Error("Failed to enable BLE notifications")
		return fmt.Errorf("failed to enable BLE notifications: %w", err)
	}
	return nil
}

// WriteWithResponse writes data as a single write request and waits for the
// peripheral's acknowledgment, ctx cancellation, or link loss.
func (l *Link) WriteWithResponse(ctx context.Context, serviceUUID, charUUID string, data []byte) error {
	if l.isDisconnected() {
		return device.ErrNotConnected
	}
	c, err := l.characteristic(serviceUUID, charUUID)
	if err != nil {
		return err
	}

	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	errc := make(chan error, 1)
	groutine.Go(ctx, "ble-write", func(context.Context) {
		errc <- l.client.WriteCharacteristic(c, data, false)
	})

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("failed to write to characteristic %s in service %s: %w", charUUID, serviceUUID, NormalizeError(err))
		}
		return nil
	case <-l.disconnected:
		return device.ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect cancels the connection. It is safe to call more than once.
func (l *Link) Disconnect() error {
	if l.isDisconnected() {
		l.logger.Debug("Disconnect called but already disconnected")
		return nil
	}
	l.markDisconnected()

	l.logger.WithField("address", l.address).Info("Disconnecting BLE device...")
	return NormalizeError(l.client.CancelConnection())
}
