package testutils

import (
	"time"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	goble "github.com/bluenav/navlink/internal/device/go-ble"
)

// MockBLEPeripheralSuite provides a reusable test suite with mock BLE peripheral support.
//
// The suite swaps goble.DeviceFactory for the lifetime of each test, so anything
// built on goble.NewTransport talks to the mocked peripheral.
//
// Basic usage (automatic setup with the autopilot profile):
//
//	type TransportSuite struct {
//	    testutils.MockBLEPeripheralSuite
//	}
//
//	func TestTransportSuite(t *testing.T) {
//	    suite.Run(t, new(TransportSuite))
//	}
//
// Custom profile or advertisements:
//
//	func (s *ScanSuite) SetupTest() {
//	    s.WithPeripheral().WithScanAdvertisements(
//	        testutils.CreateMockAdvertisement("BlueNav", "AA:BB", -40).Build(),
//	    )
//	    s.MockBLEPeripheralSuite.SetupTest() // Call parent last to apply configuration
//	}
type MockBLEPeripheralSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	OriginalDeviceFactory func() (ble.Device, error)
	TestTimeout           time.Duration

	PeripheralBuilder *PeripheralDeviceBuilder
	Peripheral        *MockPeripheral // built in SetupTest
}

// SetupSuite initializes the test suite.
// Called once before all tests in the suite.
func (s *MockBLEPeripheralSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.TestTimeout = 5 * time.Second

	s.OriginalDeviceFactory = goble.DeviceFactory
	s.T().Cleanup(func() {
		if s.OriginalDeviceFactory != nil {
			goble.DeviceFactory = s.OriginalDeviceFactory
			s.Logger.Debug("Device factory restored via t.Cleanup")
		}
	})
}

// SetupTest builds the configured peripheral and installs it as the device factory.
// Called before each test method.
func (s *MockBLEPeripheralSuite) SetupTest() {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewAutopilotPeripheralBuilder()
	}

	s.Peripheral = s.PeripheralBuilder.Build()
	peripheral := s.Peripheral
	goble.DeviceFactory = func() (ble.Device, error) {
		return peripheral.Device, nil
	}

	s.Logger.Debug("Test setup completed - ready for execution")
}

// TearDownTest restores the device factory and resets the builder.
// Called after each test method.
func (s *MockBLEPeripheralSuite) TearDownTest() {
	if s.OriginalDeviceFactory != nil {
		goble.DeviceFactory = s.OriginalDeviceFactory
	}
	s.PeripheralBuilder = nil
	s.Peripheral = nil
}

// WithPeripheral returns the peripheral builder for fluent configuration.
// An unconfigured builder starts from the autopilot profile.
func (s *MockBLEPeripheralSuite) WithPeripheral() *PeripheralDeviceBuilder {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewAutopilotPeripheralBuilder()
	}
	return s.PeripheralBuilder
}
