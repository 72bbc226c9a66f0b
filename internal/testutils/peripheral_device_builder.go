package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
	"gopkg.in/yaml.v3"

	"github.com/bluenav/navlink/internal/gatt"
	"github.com/bluenav/navlink/internal/testutils/mocks"
)

// CharacteristicConfig represents a BLE characteristic configuration for mocking
type CharacteristicConfig struct {
	UUID       string `yaml:"uuid"`
	Properties string `yaml:"properties,omitempty"` // e.g., "read,write,notify"
}

// ServiceConfig represents a BLE service configuration for mocking
type ServiceConfig struct {
	UUID            string                 `yaml:"uuid"`
	Characteristics []CharacteristicConfig `yaml:"characteristics,omitempty"`
}

// DeviceProfileConfig represents the complete device profile for mocking
type DeviceProfileConfig struct {
	Services []ServiceConfig `yaml:"services"`
}

// PeripheralDeviceBuilder builds a mocked go-ble Device with full service/characteristic support
type PeripheralDeviceBuilder struct {
	profile            DeviceProfileConfig
	scanAdvertisements []ble.Advertisement
	dialErr            error
	discoverErr        error
	writeErr           error
	subscribeErr       error
}

// NewPeripheralDeviceBuilder creates a new peripheral device builder
func NewPeripheralDeviceBuilder() *PeripheralDeviceBuilder {
	return &PeripheralDeviceBuilder{}
}

// NewAutopilotPeripheralBuilder returns a builder preloaded with the autopilot's
// Battery, Autopilot and Navigation services.
func NewAutopilotPeripheralBuilder() *PeripheralDeviceBuilder {
	return NewPeripheralDeviceBuilder().
		WithService(gatt.Resolve(gatt.ServiceBattery).String()).
		WithCharacteristic(gatt.Resolve(gatt.CharBatteryLevel).String(), "read,notify").
		WithService(gatt.Resolve(gatt.ServiceAutopilot).String()).
		WithCharacteristic(gatt.Resolve(gatt.CharSetHeading).String(), "write").
		WithCharacteristic(gatt.Resolve(gatt.CharSetAnchor).String(), "write").
		WithService(gatt.Resolve(gatt.ServiceNavigation).String()).
		WithCharacteristic(gatt.Resolve(gatt.CharSog).String(), "read,notify")
}

// WithService adds a service to the device profile
func (b *PeripheralDeviceBuilder) WithService(uuid string) *PeripheralDeviceBuilder {
	b.profile.Services = append(b.profile.Services, ServiceConfig{UUID: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service
func (b *PeripheralDeviceBuilder) WithCharacteristic(uuid, properties string) *PeripheralDeviceBuilder {
	if len(b.profile.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}
	last := len(b.profile.Services) - 1
	b.profile.Services[last].Characteristics = append(b.profile.Services[last].Characteristics,
		CharacteristicConfig{UUID: uuid, Properties: properties})
	return b
}

// FromYAML fills the device profile from a YAML (or JSON) document
func (b *PeripheralDeviceBuilder) FromYAML(docFmt string, args ...interface{}) *PeripheralDeviceBuilder {
	var config DeviceProfileConfig
	if err := yaml.Unmarshal([]byte(fmt.Sprintf(docFmt, args...)), &config); err != nil {
		panic(fmt.Sprintf("PeripheralDeviceBuilder.FromYAML: failed to unmarshal: %v", err))
	}
	b.profile = config
	return b
}

// WithScanAdvertisements sets the advertisements reported by Scan
func (b *PeripheralDeviceBuilder) WithScanAdvertisements(ads ...ble.Advertisement) *PeripheralDeviceBuilder {
	b.scanAdvertisements = append(b.scanAdvertisements, ads...)
	return b
}

// WithDialError makes Dial fail
func (b *PeripheralDeviceBuilder) WithDialError(err error) *PeripheralDeviceBuilder {
	b.dialErr = err
	return b
}

// WithDiscoverError makes DiscoverProfile fail
func (b *PeripheralDeviceBuilder) WithDiscoverError(err error) *PeripheralDeviceBuilder {
	b.discoverErr = err
	return b
}

// WithWriteError makes every WriteCharacteristic fail
func (b *PeripheralDeviceBuilder) WithWriteError(err error) *PeripheralDeviceBuilder {
	b.writeErr = err
	return b
}

// WithSubscribeError makes every Subscribe fail
func (b *PeripheralDeviceBuilder) WithSubscribeError(err error) *PeripheralDeviceBuilder {
	b.subscribeErr = err
	return b
}

// parseCharacteristicProperties converts a property list to ble.Property flags
func parseCharacteristicProperties(props string) ble.Property {
	if props == "" {
		return ble.CharRead | ble.CharWrite | ble.CharNotify
	}

	var property ble.Property
	for _, p := range strings.Split(props, ",") {
		switch strings.TrimSpace(p) {
		case "read":
			property |= ble.CharRead
		case "write":
			property |= ble.CharWrite
		case "notify":
			property |= ble.CharNotify
		case "indicate":
			property |= ble.CharIndicate
		}
	}
	return property
}

// Write is one recorded WriteCharacteristic call
type Write struct {
	CharUUID string
	Data     []byte
	NoRsp    bool
}

// MockPeripheral is the built mock: a go-ble Device whose Dial returns Client
type MockPeripheral struct {
	Device  *mocks.MockDevice
	Client  *mocks.MockClient
	Profile *ble.Profile

	mu           sync.Mutex
	handlers     map[string]ble.NotificationHandler
	writes       []Write
	disconnected chan struct{}
	once         sync.Once
}

// Notify delivers data to the handler subscribed on charUUID.
// It reports whether a subscription existed.
func (p *MockPeripheral) Notify(charUUID string, data []byte) bool {
	p.mu.Lock()
	h, ok := p.handlers[strings.ToLower(ble.MustParse(charUUID).String())]
	p.mu.Unlock()
	if ok {
		h(data)
	}
	return ok
}

// Subscribed reports whether a notification handler is registered on charUUID
func (p *MockPeripheral) Subscribed(charUUID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.handlers[strings.ToLower(ble.MustParse(charUUID).String())]
	return ok
}

// Writes returns the recorded writes in call order
func (p *MockPeripheral) Writes() []Write {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Write(nil), p.writes...)
}

// DropLink simulates the peripheral going out of range
func (p *MockPeripheral) DropLink() {
	p.once.Do(func() { close(p.disconnected) })
}

// Build creates a mocked ble.Device with the configured profile.
// Scan reports every configured advertisement and then blocks until its context is done.
func (b *PeripheralDeviceBuilder) Build() *MockPeripheral {
	p := &MockPeripheral{
		Device:       &mocks.MockDevice{},
		Client:       &mocks.MockClient{},
		handlers:     make(map[string]ble.NotificationHandler),
		disconnected: make(chan struct{}),
	}

	var bleServices []*ble.Service
	for _, svcConfig := range b.profile.Services {
		bleService := &ble.Service{UUID: ble.MustParse(svcConfig.UUID)}
		for _, charConfig := range svcConfig.Characteristics {
			bleService.Characteristics = append(bleService.Characteristics, &ble.Characteristic{
				UUID:     ble.MustParse(charConfig.UUID),
				Property: parseCharacteristicProperties(charConfig.Properties),
			})
		}
		bleServices = append(bleServices, bleService)
	}
	p.Profile = &ble.Profile{Services: bleServices}

	if b.dialErr != nil {
		p.Device.On("Dial", mock.Anything, mock.Anything).Return(nil, b.dialErr)
	} else {
		p.Device.On("Dial", mock.Anything, mock.Anything).Return(p.Client, nil)
	}

	if b.discoverErr != nil {
		p.Client.On("DiscoverProfile", true).Return(nil, b.discoverErr)
	} else {
		p.Client.On("DiscoverProfile", true).Return(p.Profile, nil)
	}

	p.Client.On("CancelConnection").Run(func(mock.Arguments) { p.DropLink() }).Return(nil)
	p.Client.On("Disconnected").Return(p.disconnected)

	p.Client.On("Subscribe", mock.Anything, false, mock.Anything).Run(func(args mock.Arguments) {
		if b.subscribeErr != nil {
			return
		}
		c := args.Get(0).(*ble.Characteristic)
		h := args.Get(2).(ble.NotificationHandler)
		p.mu.Lock()
		p.handlers[strings.ToLower(c.UUID.String())] = h
		p.mu.Unlock()
	}).Return(b.subscribeErr)

	p.Client.On("WriteCharacteristic", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		c := args.Get(0).(*ble.Characteristic)
		data := append([]byte(nil), args.Get(1).([]byte)...)
		p.mu.Lock()
		p.writes = append(p.writes, Write{CharUUID: c.UUID.String(), Data: data, NoRsp: args.Bool(2)})
		p.mu.Unlock()
	}).Return(b.writeErr)

	p.Device.On("Scan", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		handler := args.Get(2).(ble.AdvHandler)
		for _, adv := range b.scanAdvertisements {
			handler(adv)
		}
		<-ctx.Done()
	}).Return(nil)

	return p
}
