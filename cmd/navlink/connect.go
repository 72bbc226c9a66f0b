package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bluenav/navlink/internal/device"
	goble "github.com/bluenav/navlink/internal/device/go-ble"
	"github.com/bluenav/navlink/internal/session"
	"github.com/bluenav/navlink/pkg/config"
)

// newTransport builds the BLE transport for a command run
var newTransport = func(logger *logrus.Logger) device.Transport {
	return goble.NewTransport(logger)
}

// commandEnv is what every device command needs
type commandEnv struct {
	cfg     *config.Config
	logger  *logrus.Logger
	session *session.Session
}

// newCommandEnv loads configuration, configures logging and opens an idle session
func newCommandEnv(cmd *cobra.Command, filterName *string) (*commandEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	opts := cfg.SessionOptions()
	if filterName != nil {
		opts.FilterName = *filterName
	}

	return &commandEnv{
		cfg:     cfg,
		logger:  logger,
		session: session.New(newTransport(logger), opts, logger),
	}, nil
}

func (e *commandEnv) Close() {
	_ = e.session.Close()
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// findAutopilot scans for up to scanTimeout for the autopilot at address, or the
// first one found when address is empty.
func findAutopilot(ctx context.Context, e *commandEnv, address string, progress session.ProgressCallback) (device.PeripheralDevice, error) {
	timeout := e.cfg.ScanTimeout
	scanCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	progress("Scanning")
	dev, err := session.FindDevice(scanCtx, e.session, address)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			if address == "" {
				return dev, device.NewError(device.ConnectFailed, nil, "no BlueNav autopilot found within %s", timeout)
			}
			return dev, device.NewError(device.ConnectFailed, nil, "autopilot %s not found within %s", address, timeout)
		}
		return dev, err
	}
	return dev, nil
}

// runConnected finds the autopilot, connects, runs fn and disconnects
func runConnected[R any](cmd *cobra.Command, e *commandEnv, address string, fn session.ConnectedCallback[R]) (R, error) {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	progress, stop := startProgress(cmd.ErrOrStderr(), "Looking for autopilot", "Scanning", e.cfg.ScanTimeout, "Connected", "Failed")
	defer stop()

	dev, err := findAutopilot(ctx, e, address, progress)
	if err != nil {
		var zero R
		return zero, err
	}
	return session.WithConnected(ctx, e.session, dev, progress, fn)
}
