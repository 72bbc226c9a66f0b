package main

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/gatt"
	"github.com/bluenav/navlink/internal/testutils"
)

// Test device addresses for consistent mock device identification
const (
	TestDeviceAddress1 = "00:00:00:00:00:01"
	TestDeviceAddress2 = "00:00:00:00:00:02"
	TestOtherAddress   = "00:00:00:00:00:99"
)

var (
	sogUUID       = gatt.Resolve(gatt.CharSog).String()
	setAnchorUUID = gatt.Resolve(gatt.CharSetAnchor).String()
	headingUUID   = gatt.Resolve(gatt.CharSetHeading).String()
)

// CommandTestSuite extends MockBLEPeripheralSuite with command testing utilities.
// Every command is executed through rootCmd against the real go-ble transport
// talking to the mocked peripheral.
type CommandTestSuite struct {
	testutils.MockBLEPeripheralSuite
}

// SetupTest advertises two autopilots and one unrelated device, then resets
// all command flags.
func (s *CommandTestSuite) SetupTest() {
	s.WithPeripheral().WithScanAdvertisements(
		testutils.CreateMockAdvertisement("BlueNav", TestDeviceAddress1, -40).Build(),
		testutils.CreateMockAdvertisement("Speaker", TestOtherAddress, -60).Build(),
		testutils.CreateMockAdvertisement("BlueNav", TestDeviceAddress1, -38).Build(),
		testutils.CreateMockAdvertisement("BlueNav", TestDeviceAddress2, -75).Build(),
	)
	s.MockBLEPeripheralSuite.SetupTest()
	resetCommandFlags()
}

func resetCommandFlags() {
	for _, reset := range []struct {
		cmd  *cobra.Command
		init func()
	}{
		{scanCmd, initScanFlags},
		{monitorCmd, initMonitorFlags},
		{anchorCmd, initAnchorFlags},
		{headingCmd, initHeadingFlags},
		{resolveCmd, initResolveFlags},
	} {
		reset.cmd.ResetFlags()
		reset.init()
	}

	for _, name := range []string{"log-level", "verbose", "config"} {
		f := rootCmd.PersistentFlags().Lookup(name)
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
}

// ExecuteCommand runs rootCmd with args, returns output and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

// WriteConfig writes a YAML config file and returns its path
func (s *CommandTestSuite) WriteConfig(body string) string {
	path := filepath.Join(s.T().TempDir(), "navlink.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(body), 0o600))
	return path
}

// WaitSubscribed blocks until the command under test subscribed to SOG
func (s *CommandTestSuite) WaitSubscribed() {
	s.Require().Eventually(func() bool {
		return s.Peripheral.Subscribed(sogUUID)
	}, s.TestTimeout, 5*time.Millisecond, "command MUST subscribe to SOG")
}
