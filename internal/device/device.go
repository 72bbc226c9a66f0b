package device

import (
	"context"
	"fmt"
	"time"
)

// NotFoundError represents an error when a GATT resource is not found on a connected peripheral
type NotFoundError struct {
	Resource string   // "service", "characteristic"
	UUIDs    []string // [serviceUUID] or [serviceUUID, charUUID]
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// Advertisement is a single advertising report delivered by a scan
type Advertisement interface {
	LocalName() string
	RSSI() int
	Addr() string
	Connectable() bool
	Services() []string
}

// PeripheralDevice is a discovered advertisement record. It only lives for the
// duration of a scan session or while the device is connected.
type PeripheralDevice struct {
	ID     string
	Name   string
	RSSI   int
	SeenAt time.Time
}

// NewPeripheralDevice builds a PeripheralDevice from an advertising report
func NewPeripheralDevice(adv Advertisement) PeripheralDevice {
	return PeripheralDevice{
		ID:     adv.Addr(),
		Name:   adv.LocalName(),
		RSSI:   adv.RSSI(),
		SeenAt: time.Now(),
	}
}

// DisplayName returns the advertised name, falling back to the identifier
func (p PeripheralDevice) DisplayName() string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name
}

// Notification is one event from a characteristic subscription.
// Exactly one of Data or Err is meaningful; an empty Data with nil Err means
// the peripheral notified without a payload.
type Notification struct {
	Data []byte
	Err  error
}

// NotificationHandler consumes subscription events in transport order
type NotificationHandler func(Notification)

// Transport is the BLE radio capability consumed by a session.
type Transport interface {
	// Scan blocks delivering advertisements to handler until ctx is done or the radio fails.
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error

	// Connect dials the peripheral and completes full service/characteristic
	// discovery before returning.
	Connect(ctx context.Context, address string) (Link, error)
}

// Link is a live, discovered connection to one peripheral
type Link interface {
	Address() string

	// Subscribe registers handler for notifications of a characteristic
	Subscribe(serviceUUID, charUUID string, handler NotificationHandler) error

	// WriteWithResponse writes data and waits for the peripheral's acknowledgment.
	WriteWithResponse(ctx context.Context, serviceUUID, charUUID string, data []byte) error

	// Disconnected is closed when the peripheral becomes unreachable or Disconnect is called
	Disconnected() <-chan struct{}

	Disconnect() error
}
