package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"

	"github.com/bluenav/navlink/internal/device"
	"github.com/bluenav/navlink/internal/gatt"
	"github.com/bluenav/navlink/internal/groutine"
	"github.com/bluenav/navlink/internal/ringchan"
	"github.com/bluenav/navlink/internal/wire"
)

// DefaultFilterName is the advertised name of every BlueNav autopilot
const DefaultFilterName = "BlueNav"

// Options configures a Session
type Options struct {
	FilterName      string        // advertised local name to accept; empty accepts all
	AllowDuplicates bool          // ask the transport to report repeated advertisements
	ScanBuffer      int           // discovered-device stream capacity
	StateBuffer     int           // state-change stream capacity
	WriteTimeout    time.Duration // 0 waits for the acknowledgment indefinitely
	Permissions     PermissionChecker
}

// DefaultOptions returns the options used when New is given nil
func DefaultOptions() *Options {
	return &Options{
		FilterName:  DefaultFilterName,
		ScanBuffer:  32,
		StateBuffer: 16,
		Permissions: AlwaysGranted,
	}
}

// Snapshot is what the UI collaborator renders
type Snapshot struct {
	State      State
	Reading    *wire.Reading
	Peripheral *device.PeripheralDevice
	Err        error
}

// Session owns at most one connection to an autopilot peripheral. Scan events
// and notifications arrive on transport goroutines; the session serializes all
// mutations of the connection reference.
type Session struct {
	transport device.Transport
	opts      Options
	logger    *logrus.Logger
	machine   *Machine

	states    *ringchan.RingChannel[StateChange]
	telemetry *ringchan.RingChannel[wire.Reading]

	mu            sync.Mutex
	link          device.Link
	peripheral    *device.PeripheralDevice
	monitorCancel context.CancelFunc
	scan          *ScanStream
	seen          *hashmap.Map[string, device.PeripheralDevice]
	order         []string
	latest        *wire.Reading
	lastErr       error
}

// New creates an idle session on top of transport
func New(transport device.Transport, opts *Options, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	o := *DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.ScanBuffer <= 0 {
		o.ScanBuffer = 32
	}
	if o.StateBuffer <= 0 {
		o.StateBuffer = 16
	}
	if o.Permissions == nil {
		o.Permissions = AlwaysGranted
	}

	s := &Session{
		transport: transport,
		opts:      o,
		logger:    logger,
		states:    ringchan.New[StateChange](o.StateBuffer),
		telemetry: ringchan.New[wire.Reading](1),
		seen:      hashmap.New[string, device.PeripheralDevice](),
	}
	s.machine = NewMachine(logger, func(c StateChange) { s.states.Send(c) })
	return s
}

// State returns the current connection state
func (s *Session) State() State {
	return s.machine.State()
}

// States streams every state change. Slow consumers lose the oldest changes.
func (s *Session) States() <-chan StateChange {
	return s.states.C()
}

// Telemetry streams SOG readings with "latest value wins" buffering
func (s *Session) Telemetry() <-chan wire.Reading {
	return s.telemetry.C()
}

// Latest returns the most recent reading, if any
func (s *Session) Latest() (wire.Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return wire.Reading{}, false
	}
	return *s.latest, true
}

// Peripheral returns the connected device, if any
func (s *Session) Peripheral() (device.PeripheralDevice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peripheral == nil {
		return device.PeripheralDevice{}, false
	}
	return *s.peripheral, true
}

// LastError returns the last classified failure
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Snapshot returns a consistent view for rendering
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.machine.State(), Err: s.lastErr}
	if s.latest != nil {
		r := *s.latest
		snap.Reading = &r
	}
	if s.peripheral != nil {
		p := *s.peripheral
		snap.Peripheral = &p
	}
	return snap
}

// Devices returns the de-duplicated devices of the current scan in discovery order
func (s *Session) Devices() []device.PeripheralDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	devs := make([]device.PeripheralDevice, 0, len(s.order))
	for _, id := range s.order {
		if d, ok := s.seen.Get(id); ok {
			devs = append(devs, d)
		}
	}
	return devs
}

// Scan starts discovery of autopilots. A scan already in progress is stopped
// first. From NoData or ErrorReceiving the stale link is released before scanning.
func (s *Session) Scan(ctx context.Context) (*ScanStream, error) {
	if !s.opts.Permissions.Granted(ctx) {
		err := device.NewError(device.PermissionDenied, nil, "bluetooth permissions were not granted")
		s.setLastError(err)
		s.logger.Warn("Scan not started: permissions denied")
		return nil, err
	}

	s.stopScan()

	if st := s.machine.State(); st != Scanning {
		if !s.machine.CanFire(EventScanStarted) {
			if s.hasLink() {
				return nil, device.NewError(device.AlreadyConnected, nil, "cannot scan while %s", st)
			}
			return nil, &TransitionError{From: st, Event: EventScanStarted}
		}
		s.releaseLink()
		// a concurrent Scan may have fired first
		if _, err := s.machine.Fire(EventScanStarted); err != nil && s.machine.State() != Scanning {
			return nil, err
		}
	}

	scanCtx, cancel := context.WithCancel(ctx)
	stream := newScanStream(s.opts.ScanBuffer, cancel)
	seen := hashmap.New[string, device.PeripheralDevice]()

	s.mu.Lock()
	replaced := s.scan
	s.scan = stream
	s.seen = seen
	s.order = nil
	s.mu.Unlock()

	if replaced != nil {
		replaced.Stop()
	}

	s.logger.WithFields(logrus.Fields{
		"filter":           s.opts.FilterName,
		"allow_duplicates": s.opts.AllowDuplicates,
	}).Info("Starting BLE scan...")

	groutine.Go(scanCtx, "navlink-scan", func(ctx context.Context) {
		err := s.transport.Scan(ctx, s.opts.AllowDuplicates, func(adv device.Advertisement) {
			s.handleAdvertisement(seen, stream, adv)
		})
		err = classifyScanError(err)
		if err != nil {
			s.setLastError(err)
			s.machine.Report(EventScanFailed, err)
			s.logger.WithError(err).Error("BLE scan failed")
		} else {
			s.logger.WithField("device_count", seen.Len()).Info("BLE scan completed")
		}
		stream.finish(err)
	})

	return stream, nil
}

func (s *Session) handleAdvertisement(seen *hashmap.Map[string, device.PeripheralDevice], stream *ScanStream, adv device.Advertisement) {
	if s.opts.FilterName != "" && adv.LocalName() != s.opts.FilterName {
		return
	}

	dev := device.NewPeripheralDevice(adv)
	if _, loaded := seen.GetOrInsert(dev.ID, dev); loaded {
		// refresh RSSI, never re-emit
		seen.Set(dev.ID, dev)
		return
	}

	s.mu.Lock()
	if s.seen == seen {
		s.order = append(s.order, dev.ID)
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"device":  dev.DisplayName(),
		"address": dev.ID,
		"rssi":    dev.RSSI,
	}).Info("Discovered new device")

	stream.devices.Send(dev)
}

func classifyScanError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if _, ok := device.KindOf(err); ok {
		return err
	}
	return device.NewError(device.ScanFailed, err, "scan failed")
}

func (s *Session) stopScan() {
	s.mu.Lock()
	stream := s.scan
	s.scan = nil
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
}

// Connect dials dev and completes discovery. Only one connection is held at a
// time; a successful connect stops the active scan.
func (s *Session) Connect(ctx context.Context, dev device.PeripheralDevice) error {
	if s.hasLink() || s.machine.State() == Connecting {
		return device.NewError(device.AlreadyConnected, nil, "a connection is already held")
	}
	if _, err := s.machine.Fire(EventConnectStarted); err != nil {
		return err
	}

	log := s.logger.WithField("address", dev.ID)
	log.Info("Connecting to device...")

	link, err := s.transport.Connect(ctx, dev.ID)
	if err != nil {
		if !device.IsKind(err, device.TransportUnavailable) {
			err = device.NewError(device.ConnectFailed, err, "failed to connect to %s", dev.ID)
		}
		s.setLastError(err)
		_, _ = s.machine.FireWithErr(EventConnectFailed, err)
		log.WithError(err).Error("Connection failed")
		return err
	}

	s.stopScan()

	monitorCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.link = link
	s.peripheral = &dev
	s.monitorCancel = cancel
	s.mu.Unlock()

	if _, err := s.machine.Fire(EventConnectSucceeded); err != nil {
		// torn down while dialing
		s.releaseLink()
		return err
	}

	groutine.Go(monitorCtx, "navlink-link-monitor", func(ctx context.Context) {
		select {
		case <-link.Disconnected():
			s.handleLinkLost(link)
		case <-ctx.Done():
		}
	})

	log.Info("Connected to device")
	return nil
}

func (s *Session) handleLinkLost(link device.Link) {
	s.mu.Lock()
	if s.link != link {
		s.mu.Unlock()
		return
	}
	s.clearLinkLocked()
	s.mu.Unlock()

	s.logger.WithField("address", link.Address()).Warn("Device became unreachable")
	_, _ = s.machine.Fire(EventLinkLost)
}

// SubscribeTelemetry registers for SOG notifications. The state moves to
// Streaming on the first notification, not on registration.
func (s *Session) SubscribeTelemetry() error {
	s.mu.Lock()
	link := s.link
	s.mu.Unlock()
	if link == nil {
		return device.NewError(device.NotConnected, nil, "cannot subscribe to telemetry in state %s", s.machine.State())
	}

	svc := gatt.Resolve(gatt.ServiceNavigation).String()
	chr := gatt.Resolve(gatt.CharSog).String()
	log := s.logger.WithFields(logrus.Fields{
		"address":      link.Address(),
		"service_uuid": svc,
		"char_uuid":    chr,
	})

	if err := link.Subscribe(svc, chr, func(n device.Notification) { s.onNotification(link, n) }); err != nil {
		err = fmt.Errorf("subscribe to telemetry: %w", err)
		s.setLastError(err)
		_, _ = s.machine.FireWithErr(EventReceiveError, err)
		log.WithError(err).Error("Telemetry subscription failed")
		return err
	}

	log.Info("Subscribed to telemetry")
	return nil
}

func (s *Session) onNotification(link device.Link, n device.Notification) {
	s.mu.Lock()
	stale := s.link != link
	s.mu.Unlock()
	if stale {
		return
	}

	switch {
	case n.Err != nil:
		s.setLastError(n.Err)
		_, _ = s.machine.FireWithErr(EventReceiveError, n.Err)
		s.logger.WithError(n.Err).Error("Telemetry notification error")
		return
	case len(n.Data) == 0:
		s.logger.Warn("No data was received")
		_, _ = s.machine.Fire(EventEmptyPayload)
		return
	}

	reading, err := wire.NewReading(n.Data, time.Now())
	if err != nil {
		s.setLastError(err)
		_, _ = s.machine.FireWithErr(EventReceiveError, err)
		s.logger.WithError(err).Warn("Dropped malformed telemetry")
		return
	}

	s.mu.Lock()
	s.latest = &reading
	s.mu.Unlock()

	s.logger.WithField("sog", reading.String()).Debug("Telemetry received")
	// state first, so consumers of the reading observe Streaming
	_, _ = s.machine.Fire(EventPayloadReceived)
	s.telemetry.Send(reading)
}

// ActivateAnchor writes the anchor command to Autopilot/SetAnchor
func (s *Session) ActivateAnchor(ctx context.Context) error {
	return s.command(ctx, "anchor", gatt.CharSetAnchor, wire.EncodeAnchorActivate())
}

// SetHeading writes cmd to Autopilot/SetHeading
func (s *Session) SetHeading(ctx context.Context, cmd wire.HeadingCommand) error {
	return s.command(ctx, "heading", gatt.CharSetHeading, wire.EncodeHeading(cmd))
}

// command writes payload with acknowledgment. Commands outside Connected or
// Streaming never reach the transport; a rejection stops an active scan and
// moves to Disconnected. While Connecting the dial is left to finish.
func (s *Session) command(ctx context.Context, name string, char gatt.ID, payload []byte) error {
	s.mu.Lock()
	link := s.link
	s.mu.Unlock()

	st := s.machine.State()
	if link == nil || !st.CanCommand() {
		err := device.NewError(device.NotConnected, nil, "%s command requires a connected autopilot (state %s)", name, st)
		s.setLastError(err)
		if s.machine.CanFire(EventCommandRejected) {
			s.stopScan()
			s.releaseLink()
			_, _ = s.machine.FireWithErr(EventCommandRejected, err)
		}
		s.logger.WithField("state", st.String()).Warn("No device connected to " + name)
		return err
	}

	svc := gatt.Resolve(gatt.ServiceAutopilot).String()
	chr := gatt.Resolve(char).String()
	log := s.logger.WithFields(logrus.Fields{
		"address":      link.Address(),
		"service_uuid": svc,
		"char_uuid":    chr,
		"command":      name,
	})

	if s.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.WriteTimeout)
		defer cancel()
	}

	if err := link.WriteWithResponse(ctx, svc, chr, payload); err != nil {
		werr := device.NewError(device.WriteAckFailed, err, "%s command was not acknowledged", name)
		s.setLastError(werr)
		s.machine.Report(EventWriteFailed, werr)
		log.WithError(err).Error("Command write failed")
		return werr
	}

	log.WithField("bytes", len(payload)).Info("Command acknowledged")
	return nil
}

// Disconnect drops the connection explicitly and moves to Disconnected
func (s *Session) Disconnect() error {
	s.mu.Lock()
	link := s.link
	if link != nil {
		s.clearLinkLocked()
	}
	s.mu.Unlock()

	if link == nil {
		return device.NewError(device.NotConnected, nil, "no connection to drop")
	}

	_, _ = s.machine.Fire(EventLinkLost)
	s.logger.WithField("address", link.Address()).Info("Disconnecting from device")
	if err := link.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", link.Address(), err)
	}
	return nil
}

// Teardown stops scanning, drops any connection, clears the last reading and
// returns to Idle. The session stays usable.
func (s *Session) Teardown() {
	s.stopScan()
	s.releaseLink()

	s.mu.Lock()
	s.latest = nil
	s.lastErr = nil
	s.mu.Unlock()

	_, _ = s.machine.Fire(EventTeardown)
}

// Close tears the session down and closes its streams
func (s *Session) Close() error {
	s.Teardown()
	s.telemetry.Close()
	s.states.Close()

	readings, changes := s.telemetry.GetMetrics(), s.states.GetMetrics()
	s.logger.WithFields(logrus.Fields{
		"readings":              readings.Written,
		"readings_dropped":      readings.Overwritten,
		"state_changes":         changes.Written,
		"state_changes_dropped": changes.Overwritten,
	}).Debug("Session closed")
	return nil
}

func (s *Session) hasLink() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.link != nil
}

// releaseLink drops the held link, if any, without a state transition
func (s *Session) releaseLink() {
	s.mu.Lock()
	link := s.link
	if link != nil {
		s.clearLinkLocked()
	}
	s.mu.Unlock()

	if link != nil {
		if err := link.Disconnect(); err != nil {
			s.logger.WithError(err).Error("failed to disconnect device")
		}
	}
}

func (s *Session) clearLinkLocked() {
	if s.monitorCancel != nil {
		s.monitorCancel()
		s.monitorCancel = nil
	}
	s.link = nil
	s.peripheral = nil
}

func (s *Session) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
