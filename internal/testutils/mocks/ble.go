// Package mocks holds testify mocks of the go-ble interfaces and of the
// device transport contract.
package mocks

import (
	"context"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
)

// MockDevice is a mock type for the ble.Device type.
// Methods that are not overridden panic through the nil embedded interface.
type MockDevice struct {
	mock.Mock
	ble.Device
}

// Scan provides a mock function with given fields: ctx, allowDup, h
func (_m *MockDevice) Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error {
	ret := _m.Called(ctx, allowDup, h)
	return ret.Error(0)
}

// Dial provides a mock function with given fields: ctx, a
func (_m *MockDevice) Dial(ctx context.Context, a ble.Addr) (ble.Client, error) {
	ret := _m.Called(ctx, a)

	var r0 ble.Client
	if rf, ok := ret.Get(0).(func(context.Context, ble.Addr) ble.Client); ok {
		r0 = rf(ctx, a)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(ble.Client)
	}
	return r0, ret.Error(1)
}

// MockClient is a mock type for the ble.Client type
type MockClient struct {
	mock.Mock
	ble.Client
}

// DiscoverProfile provides a mock function with given fields: force
func (_m *MockClient) DiscoverProfile(force bool) (*ble.Profile, error) {
	ret := _m.Called(force)

	var r0 *ble.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ble.Profile)
	}
	return r0, ret.Error(1)
}

// Subscribe provides a mock function with given fields: c, ind, h
func (_m *MockClient) Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error {
	ret := _m.Called(c, ind, h)
	return ret.Error(0)
}

// WriteCharacteristic provides a mock function with given fields: c, value, noRsp
func (_m *MockClient) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	ret := _m.Called(c, value, noRsp)
	return ret.Error(0)
}

// CancelConnection provides a mock function with no fields
func (_m *MockClient) CancelConnection() error {
	ret := _m.Called()
	return ret.Error(0)
}

// Disconnected provides a mock function with no fields
func (_m *MockClient) Disconnected() <-chan struct{} {
	ret := _m.Called()

	var r0 <-chan struct{}
	switch v := ret.Get(0).(type) {
	case chan struct{}:
		r0 = v
	case <-chan struct{}:
		r0 = v
	}
	return r0
}

// MockAdvertisement is a mock type for the ble.Advertisement type
type MockAdvertisement struct {
	mock.Mock
	ble.Advertisement
}

// LocalName provides a mock function with no fields
func (_m *MockAdvertisement) LocalName() string {
	ret := _m.Called()
	return ret.String(0)
}

// RSSI provides a mock function with no fields
func (_m *MockAdvertisement) RSSI() int {
	ret := _m.Called()
	return ret.Int(0)
}

// Connectable provides a mock function with no fields
func (_m *MockAdvertisement) Connectable() bool {
	ret := _m.Called()
	return ret.Bool(0)
}

// Addr provides a mock function with no fields
func (_m *MockAdvertisement) Addr() ble.Addr {
	ret := _m.Called()

	var r0 ble.Addr
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(ble.Addr)
	}
	return r0
}

// Services provides a mock function with no fields
func (_m *MockAdvertisement) Services() []ble.UUID {
	ret := _m.Called()

	var r0 []ble.UUID
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ble.UUID)
	}
	return r0
}
