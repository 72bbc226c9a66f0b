package goble_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/bluenav/navlink/internal/device"
	goble "github.com/bluenav/navlink/internal/device/go-ble"
	"github.com/bluenav/navlink/internal/gatt"
	"github.com/bluenav/navlink/internal/testutils"
)

type TransportTestSuite struct {
	testutils.MockBLEPeripheralSuite
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(TransportTestSuite))
}

func (s *TransportTestSuite) connect() device.Link {
	link, err := goble.NewTransport(s.Logger).Connect(context.Background(), "AA:BB:CC:DD:EE:FF")
	s.Require().NoError(err, "MUST connect to the mocked autopilot")
	return link
}

func (s *TransportTestSuite) TestScanWrapsAdvertisements() {
	// GOAL: Verify scan results reach the handler as device.Advertisement
	//
	// TEST SCENARIO: Two advertisements configured → scan until cancelled → both reported with address and name

	s.WithPeripheral().WithScanAdvertisements(
		testutils.CreateMockAdvertisement("BlueNav", "AA:BB", -40).Build(),
		testutils.CreateMockAdvertisement("Other", "CC:DD", -70).Build(),
	)
	s.MockBLEPeripheralSuite.SetupTest()

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- goble.NewTransport(s.Logger).Scan(ctx, false, func(adv device.Advertisement) {
			mu.Lock()
			got = append(got, adv.Addr()+"/"+adv.LocalName())
			mu.Unlock()
		})
	}()

	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, s.TestTimeout, 5*time.Millisecond)
	cancel()

	s.Require().NoError(<-done)
	s.Equal([]string{"AA:BB/BlueNav", "CC:DD/Other"}, got)
}

func (s *TransportTestSuite) TestConnectDiscoversProfile() {
	// GOAL: Verify Connect dials and discovers the full profile before returning
	//
	// TEST SCENARIO: Autopilot profile → Connect → Dial and DiscoverProfile(true) called once

	link := s.connect()

	s.Equal("AA:BB:CC:DD:EE:FF", link.Address())
	s.Peripheral.Device.AssertNumberOfCalls(s.T(), "Dial", 1)
	s.Peripheral.Client.AssertCalled(s.T(), "DiscoverProfile", true)
}

func (s *TransportTestSuite) TestConnectFailures() {
	// GOAL: Verify dial and discovery failures are reported, and a failed discovery cancels the connection

	s.Run("dial error", func() {
		s.PeripheralBuilder = testutils.NewAutopilotPeripheralBuilder().WithDialError(errors.New("timeout"))
		s.MockBLEPeripheralSuite.SetupTest()

		_, err := goble.NewTransport(s.Logger).Connect(context.Background(), "AA:BB")
		s.Require().Error(err)
		s.Contains(err.Error(), "timeout")
		s.Peripheral.Client.AssertNotCalled(s.T(), "DiscoverProfile", true)
	})

	s.Run("discovery error", func() {
		s.PeripheralBuilder = testutils.NewAutopilotPeripheralBuilder().WithDiscoverError(errors.New("att error"))
		s.MockBLEPeripheralSuite.SetupTest()

		_, err := goble.NewTransport(s.Logger).Connect(context.Background(), "AA:BB")
		s.Require().Error(err)
		s.Contains(err.Error(), "failed to discover profile")
		s.Peripheral.Client.AssertCalled(s.T(), "CancelConnection")
	})

	s.Run("empty address", func() {
		s.MockBLEPeripheralSuite.SetupTest()

		_, err := goble.NewTransport(s.Logger).Connect(context.Background(), "  ")
		s.Require().Error(err)
		s.Peripheral.Device.AssertNumberOfCalls(s.T(), "Dial", 0)
	})
}

func (s *TransportTestSuite) TestSubscribeDeliversCopies() {
	// GOAL: Verify notifications on the SOG characteristic reach the handler in order
	//
	// TEST SCENARIO: Subscribe → peripheral notifies twice → handler sees both payloads in transport order

	link := s.connect()
	svc := gatt.Resolve(gatt.ServiceNavigation).String()
	chr := gatt.Resolve(gatt.CharSog).String()

	var mu sync.Mutex
	var got [][]byte
	s.Require().NoError(link.Subscribe(svc, chr, func(n device.Notification) {
		mu.Lock()
		got = append(got, n.Data)
		mu.Unlock()
	}))

	buf := []byte{1, 2, 3}
	s.Require().True(s.Peripheral.Notify(chr, buf), "subscription MUST be registered with the client")
	buf[0] = 9
	s.Require().True(s.Peripheral.Notify(chr, []byte{4}))

	mu.Lock()
	defer mu.Unlock()
	s.Equal([][]byte{{1, 2, 3}, {4}}, got, "payload MUST be copied before delivery")
	s.Peripheral.Client.AssertCalled(s.T(), "Subscribe", mock.Anything, false, mock.Anything)
}

func (s *TransportTestSuite) TestSubscribeUnknownCharacteristic() {
	// GOAL: Verify lookups of absent GATT resources fail with NotFoundError

	link := s.connect()

	err := link.Subscribe(gatt.Resolve(gatt.ServiceVersion).String(), gatt.Resolve(gatt.CharSog).String(), func(device.Notification) {})
	var nf *device.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal("service", nf.Resource)

	err = link.Subscribe(gatt.Resolve(gatt.ServiceNavigation).String(), gatt.Resolve(gatt.CharSetSpeed).String(), func(device.Notification) {})
	s.Require().ErrorAs(err, &nf)
	s.Equal("characteristic", nf.Resource)
}

func (s *TransportTestSuite) TestWriteWithResponse() {
	// GOAL: Verify commands are written as a single write request (noRsp=false)
	//
	// TEST SCENARIO: Write anchor payload → client records one acknowledged write to SetAnchor

	link := s.connect()
	payload := []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}

	err := link.WriteWithResponse(context.Background(),
		gatt.Resolve(gatt.ServiceAutopilot).String(), gatt.Resolve(gatt.CharSetAnchor).String(), payload)
	s.Require().NoError(err)

	writes := s.Peripheral.Writes()
	s.Require().Len(writes, 1)
	s.True(ble.MustParse(writes[0].CharUUID).Equal(gatt.Resolve(gatt.CharSetAnchor).BLE()))
	s.Equal(payload, writes[0].Data)
	s.False(writes[0].NoRsp, "write MUST request an acknowledgment")
}

func (s *TransportTestSuite) TestWriteFailureIsReturned() {
	// GOAL: Verify a rejected write surfaces its cause

	s.PeripheralBuilder = testutils.NewAutopilotPeripheralBuilder().WithWriteError(errors.New("att: write not permitted"))
	s.MockBLEPeripheralSuite.SetupTest()
	link := s.connect()

	err := link.WriteWithResponse(context.Background(),
		gatt.Resolve(gatt.ServiceAutopilot).String(), gatt.Resolve(gatt.CharSetHeading).String(), []byte{0x18, 0x01})
	s.Require().Error(err)
	s.Contains(err.Error(), "write not permitted")
}

func (s *TransportTestSuite) TestLinkLossAndDisconnect() {
	// GOAL: Verify platform disconnection closes Disconnected() and later operations report NotConnected

	link := s.connect()
	s.Peripheral.DropLink()

	select {
	case <-link.Disconnected():
	case <-time.After(s.TestTimeout):
		s.FailNow("Disconnected() MUST close after platform disconnection")
	}

	err := link.WriteWithResponse(context.Background(),
		gatt.Resolve(gatt.ServiceAutopilot).String(), gatt.Resolve(gatt.CharSetAnchor).String(), []byte{1})
	s.True(device.IsKind(err, device.NotConnected), "MUST report not_connected, got %v", err)
	s.NoError(link.Disconnect(), "Disconnect MUST be idempotent")
}

func (s *TransportTestSuite) TestExplicitDisconnect() {
	link := s.connect()

	s.Require().NoError(link.Disconnect())
	s.Peripheral.Client.AssertNumberOfCalls(s.T(), "CancelConnection", 1)

	_, open := <-link.Disconnected()
	s.False(open)
	s.NoError(link.Disconnect())
	s.Peripheral.Client.AssertNumberOfCalls(s.T(), "CancelConnection", 1)
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		msg  string
		kind device.ErrorKind
	}{
		{"central manager has invalid state: have=4 want=5: is Bluetooth turned on?", device.TransportUnavailable},
		{"Bluetooth is turned off", device.TransportUnavailable},
		{"device not connected", device.NotConnected},
		{"peripheral disconnected", device.NotConnected},
		{"device already connected", device.AlreadyConnected},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := goble.NormalizeError(errors.New(tt.msg))
			kind, ok := device.KindOf(err)
			if !ok || kind != tt.kind {
				t.Fatalf("NormalizeError(%q) kind = %q, want %q", tt.msg, kind, tt.kind)
			}
		})
	}

	plain := errors.New("something else")
	if got := goble.NormalizeError(plain); got != plain {
		t.Fatalf("unknown errors MUST pass through unchanged, got %v", got)
	}
	if goble.NormalizeError(nil) != nil {
		t.Fatal("nil MUST stay nil")
	}
}
