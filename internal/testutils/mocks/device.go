package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bluenav/navlink/internal/device"
)

// MockTransport is a mock type for the device.Transport type
type MockTransport struct {
	mock.Mock
}

// Scan provides a mock function with given fields: ctx, allowDup, handler
func (_m *MockTransport) Scan(ctx context.Context, allowDup bool, handler func(device.Advertisement)) error {
	ret := _m.Called(ctx, allowDup, handler)
	return ret.Error(0)
}

// Connect provides a mock function with given fields: ctx, address
func (_m *MockTransport) Connect(ctx context.Context, address string) (device.Link, error) {
	ret := _m.Called(ctx, address)

	var r0 device.Link
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(device.Link)
	}
	return r0, ret.Error(1)
}

// MockLink is a mock type for the device.Link type
type MockLink struct {
	mock.Mock
}

// Address provides a mock function with no fields
func (_m *MockLink) Address() string {
	ret := _m.Called()
	return ret.String(0)
}

// Subscribe provides a mock function with given fields: serviceUUID, charUUID, handler
func (_m *MockLink) Subscribe(serviceUUID, charUUID string, handler device.NotificationHandler) error {
	ret := _m.Called(serviceUUID, charUUID, handler)
	return ret.Error(0)
}

// WriteWithResponse provides a mock function with given fields: ctx, serviceUUID, charUUID, data
func (_m *MockLink) WriteWithResponse(ctx context.Context, serviceUUID, charUUID string, data []byte) error {
	ret := _m.Called(ctx, serviceUUID, charUUID, data)
	return ret.Error(0)
}

// Disconnected provides a mock function with no fields
func (_m *MockLink) Disconnected() <-chan struct{} {
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

// Disconnect provides a mock function with no fields
func (_m *MockLink) Disconnect() error {
	ret := _m.Called()
	return ret.Error(0)
}

// MockAddr is a mock type for the ble.Addr type
type MockAddr struct {
	mock.Mock
}

// String provides a mock function with no fields
func (_m *MockAddr) String() string {
	ret := _m.Called()
	return ret.String(0)
}
