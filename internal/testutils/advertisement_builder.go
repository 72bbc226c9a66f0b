package testutils

import (
	"fmt"

	"github.com/go-ble/ble"
	"gopkg.in/yaml.v3"

	"github.com/bluenav/navlink/internal/device"
	goble "github.com/bluenav/navlink/internal/device/go-ble"
	"github.com/bluenav/navlink/internal/testutils/mocks"
)

// AdvertisementBuilder builds mocked BLE advertisements for testing.
// Only explicitly set fields get mock expectations.
type AdvertisementBuilder struct {
	name        string
	address     string
	rssi        int
	services    []string
	connectable bool

	nameSet        bool
	addressSet     bool
	rssiSet        bool
	servicesSet    bool
	connectableSet bool
}

// NewAdvertisementBuilder creates a new AdvertisementBuilder with connectable=true
func NewAdvertisementBuilder() *AdvertisementBuilder {
	return &AdvertisementBuilder{connectable: true}
}

// WithName sets the local name for the advertisement.
func (b *AdvertisementBuilder) WithName(name string) *AdvertisementBuilder {
	b.name = name
	b.nameSet = true
	return b
}

// WithAddress sets the device address for the advertisement.
func (b *AdvertisementBuilder) WithAddress(addr string) *AdvertisementBuilder {
	b.address = addr
	b.addressSet = true
	return b
}

// WithRSSI sets the signal strength for the advertisement.
func (b *AdvertisementBuilder) WithRSSI(rssi int) *AdvertisementBuilder {
	b.rssi = rssi
	b.rssiSet = true
	return b
}

// WithServices adds service UUIDs to the advertisement.
func (b *AdvertisementBuilder) WithServices(uuids ...string) *AdvertisementBuilder {
	b.services = append(b.services, uuids...)
	b.servicesSet = true
	return b
}

// WithConnectable sets whether the device accepts connections.
func (b *AdvertisementBuilder) WithConnectable(c bool) *AdvertisementBuilder {
	b.connectable = c
	b.connectableSet = true
	return b
}

// FromYAML fills builder fields from a YAML (or JSON) document with format support.
// Panics on invalid input as this is intended for test data setup.
func (b *AdvertisementBuilder) FromYAML(docFmt string, args ...interface{}) *AdvertisementBuilder {
	var data struct {
		Name        *string  `yaml:"name"`
		Address     *string  `yaml:"address"`
		RSSI        *int     `yaml:"rssi"`
		Services    []string `yaml:"services"`
		Connectable *bool    `yaml:"connectable"`
	}
	if err := yaml.Unmarshal([]byte(fmt.Sprintf(docFmt, args...)), &data); err != nil {
		panic(fmt.Sprintf("FromYAML: failed to unmarshal: %v", err))
	}

	if data.Name != nil {
		b.WithName(*data.Name)
	}
	if data.Address != nil {
		b.WithAddress(*data.Address)
	}
	if data.RSSI != nil {
		b.WithRSSI(*data.RSSI)
	}
	if data.Services != nil {
		b.WithServices(data.Services...)
	}
	if data.Connectable != nil {
		b.WithConnectable(*data.Connectable)
	}
	return b
}

// Build creates a MockAdvertisement that implements ble.Advertisement interface.
func (b *AdvertisementBuilder) Build() *mocks.MockAdvertisement {
	adv := &mocks.MockAdvertisement{}

	if b.addressSet {
		addr := &mocks.MockAddr{}
		addr.On("String").Return(b.address)
		adv.On("Addr").Return(addr)
	}
	if b.nameSet {
		adv.On("LocalName").Return(b.name)
	}
	if b.rssiSet {
		adv.On("RSSI").Return(b.rssi)
	}
	if b.servicesSet {
		var bleServices []ble.UUID
		for _, s := range b.services {
			bleServices = append(bleServices, ble.MustParse(s))
		}
		adv.On("Services").Return(bleServices)
	}
	if b.connectableSet {
		adv.On("Connectable").Return(b.connectable)
	}
	return adv
}

// BuildDevice wraps the built advertisement as a device.Advertisement
func (b *AdvertisementBuilder) BuildDevice() device.Advertisement {
	return goble.NewBLEAdvertisement(b.Build())
}
