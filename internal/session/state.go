package session

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a device session. It is a closed set;
// presentation attributes are derived elsewhere.
type State int

const (
	Idle State = iota
	Scanning
	Connecting
	Connected
	Streaming
	NoData
	ErrorReceiving
	ConnectFailed
	Disconnected
)

var stateNames = [...]string{
	Idle:           "idle",
	Scanning:       "scanning",
	Connecting:     "connecting",
	Connected:      "connected",
	Streaming:      "streaming",
	NoData:         "no_data",
	ErrorReceiving: "error_receiving",
	ConnectFailed:  "connect_failed",
	Disconnected:   "disconnected",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CanCommand reports whether autopilot commands may be written in this state
func (s State) CanCommand() bool {
	return s == Connected || s == Streaming
}

// Event drives the state machine
type Event int

const (
	EventScanStarted Event = iota
	EventConnectStarted
	EventConnectSucceeded
	EventConnectFailed
	EventPayloadReceived
	EventEmptyPayload
	EventReceiveError
	EventLinkLost
	EventCommandRejected
	EventTeardown

	// Reported events never move the machine; they only publish a failure
	EventScanFailed
	EventWriteFailed
)

var eventNames = [...]string{
	EventScanStarted:      "scan_started",
	EventConnectStarted:   "connect_started",
	EventConnectSucceeded: "connect_succeeded",
	EventConnectFailed:    "connect_failed",
	EventPayloadReceived:  "payload_received",
	EventEmptyPayload:     "empty_payload",
	EventReceiveError:     "receive_error",
	EventLinkLost:         "link_lost",
	EventCommandRejected:  "command_rejected",
	EventTeardown:         "teardown",
	EventScanFailed:       "scan_failed",
	EventWriteFailed:      "write_failed",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// transitions[from][event] = to. Teardown is accepted from every state.
var transitions = map[State]map[Event]State{
	Idle: {
		EventScanStarted:     Scanning,
		EventConnectStarted:  Connecting,
		EventCommandRejected: Disconnected,
	},
	Scanning: {
		EventConnectStarted:  Connecting,
		EventCommandRejected: Disconnected,
	},
	Connecting: {
		EventConnectSucceeded: Connected,
		EventConnectFailed:    ConnectFailed,
	},
	Connected: {
		EventPayloadReceived: Streaming,
		EventEmptyPayload:    NoData,
		EventReceiveError:    ErrorReceiving,
		EventLinkLost:        Disconnected,
	},
	Streaming: {
		EventPayloadReceived: Streaming,
		EventEmptyPayload:    NoData,
		EventReceiveError:    ErrorReceiving,
		EventLinkLost:        Disconnected,
	},
	NoData: {
		EventScanStarted:     Scanning,
		EventPayloadReceived: NoData,
		EventEmptyPayload:    NoData,
		EventReceiveError:    ErrorReceiving,
		EventLinkLost:        Disconnected,
		EventCommandRejected: Disconnected,
	},
	ErrorReceiving: {
		EventScanStarted:     Scanning,
		EventReceiveError:    ErrorReceiving,
		EventLinkLost:        Disconnected,
		EventCommandRejected: Disconnected,
	},
	ConnectFailed: {
		EventScanStarted:     Scanning,
		EventCommandRejected: Disconnected,
	},
	Disconnected: {
		EventScanStarted:     Scanning,
		EventCommandRejected: Disconnected,
	},
}

// TransitionError reports an event that is not legal in the current state
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s is not allowed in state %s", e.Event, e.From)
}

// StateChange is published for every accepted event
type StateChange struct {
	From  State
	To    State
	Event Event
	Err   error // classified cause, if the event reports a failure
}

// Machine tracks the session lifecycle and gates which operations are legal.
// It is safe for concurrent use.
type Machine struct {
	mu       sync.RWMutex
	state    State
	logger   *logrus.Logger
	onChange func(StateChange)
}

// NewMachine returns a machine in Idle. onChange, if set, is called after every
// accepted event, outside the machine's lock.
func NewMachine(logger *logrus.Logger, onChange func(StateChange)) *Machine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Machine{state: Idle, logger: logger, onChange: onChange}
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CanFire reports whether ev is legal in the current state without applying it
func (m *Machine) CanFire(ev Event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := next(m.state, ev)
	return ok
}

// Fire applies ev. Illegal events return a *TransitionError and leave the state unchanged.
func (m *Machine) Fire(ev Event) (State, error) {
	return m.FireWithErr(ev, nil)
}

// FireWithErr applies ev and attaches cause to the published StateChange
func (m *Machine) FireWithErr(ev Event, cause error) (State, error) {
	m.mu.Lock()
	from := m.state
	to, ok := next(from, ev)
	if !ok {
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{
			"state": from.String(),
			"event": ev.String(),
		}).Debug("Rejected state machine event")
		return from, &TransitionError{From: from, Event: ev}
	}
	m.state = to
	m.mu.Unlock()

	entry := m.logger.WithFields(logrus.Fields{
		"from":  from.String(),
		"to":    to.String(),
		"event": ev.String(),
	})
	if cause != nil {
		entry = entry.WithField("error", cause)
	}
	entry.Debug("Session state transition")

	if m.onChange != nil {
		m.onChange(StateChange{From: from, To: to, Event: ev, Err: cause})
	}
	return to, nil
}

// Report publishes a failure as a StateChange with To == From without moving the machine
func (m *Machine) Report(ev Event, cause error) {
	from := m.State()
	m.logger.WithFields(logrus.Fields{
		"state": from.String(),
		"event": ev.String(),
		"error": cause,
	}).Debug("Session failure reported")

	if m.onChange != nil {
		m.onChange(StateChange{From: from, To: from, Event: ev, Err: cause})
	}
}

func next(from State, ev Event) (State, bool) {
	if ev == EventTeardown {
		return Idle, true
	}
	to, ok := transitions[from][ev]
	return to, ok
}
