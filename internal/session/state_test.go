package session_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenav/navlink/internal/session"
)

var allStates = []session.State{
	session.Idle, session.Scanning, session.Connecting, session.Connected, session.Streaming,
	session.NoData, session.ErrorReceiving, session.ConnectFailed, session.Disconnected,
}

var allEvents = []session.Event{
	session.EventScanStarted, session.EventConnectStarted, session.EventConnectSucceeded,
	session.EventConnectFailed, session.EventPayloadReceived, session.EventEmptyPayload,
	session.EventReceiveError, session.EventLinkLost, session.EventCommandRejected, session.EventTeardown,
}

// machineIn drives a fresh machine into st along legal edges
func machineIn(t *testing.T, st session.State, onChange func(session.StateChange)) *session.Machine {
	t.Helper()
	paths := map[session.State][]session.Event{
		session.Idle:           nil,
		session.Scanning:       {session.EventScanStarted},
		session.Connecting:     {session.EventConnectStarted},
		session.Connected:      {session.EventConnectStarted, session.EventConnectSucceeded},
		session.Streaming:      {session.EventConnectStarted, session.EventConnectSucceeded, session.EventPayloadReceived},
		session.NoData:         {session.EventConnectStarted, session.EventConnectSucceeded, session.EventEmptyPayload},
		session.ErrorReceiving: {session.EventConnectStarted, session.EventConnectSucceeded, session.EventReceiveError},
		session.ConnectFailed:  {session.EventConnectStarted, session.EventConnectFailed},
		session.Disconnected:   {session.EventCommandRejected},
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)
	m := session.NewMachine(logger, onChange)
	for _, ev := range paths[st] {
		_, err := m.Fire(ev)
		require.NoError(t, err, "setup path to %s MUST be legal", st)
	}
	require.Equal(t, st, m.State())
	return m
}

func TestMachine_TransitionTable(t *testing.T) {
	legal := map[session.State]map[session.Event]session.State{
		session.Idle: {
			session.EventScanStarted:     session.Scanning,
			session.EventConnectStarted:  session.Connecting,
			session.EventCommandRejected: session.Disconnected,
		},
		session.Scanning: {
			session.EventConnectStarted:  session.Connecting,
			session.EventCommandRejected: session.Disconnected,
		},
		session.Connecting: {
			session.EventConnectSucceeded: session.Connected,
			session.EventConnectFailed:    session.ConnectFailed,
		},
		session.Connected: {
			session.EventPayloadReceived: session.Streaming,
			session.EventEmptyPayload:    session.NoData,
			session.EventReceiveError:    session.ErrorReceiving,
			session.EventLinkLost:        session.Disconnected,
		},
		session.Streaming: {
			session.EventPayloadReceived: session.Streaming,
			session.EventEmptyPayload:    session.NoData,
			session.EventReceiveError:    session.ErrorReceiving,
			session.EventLinkLost:        session.Disconnected,
		},
		session.NoData: {
			session.EventScanStarted:     session.Scanning,
			session.EventPayloadReceived: session.NoData,
			session.EventEmptyPayload:    session.NoData,
			session.EventReceiveError:    session.ErrorReceiving,
			session.EventLinkLost:        session.Disconnected,
			session.EventCommandRejected: session.Disconnected,
		},
		session.ErrorReceiving: {
			session.EventScanStarted:     session.Scanning,
			session.EventReceiveError:    session.ErrorReceiving,
			session.EventLinkLost:        session.Disconnected,
			session.EventCommandRejected: session.Disconnected,
		},
		session.ConnectFailed: {
			session.EventScanStarted:     session.Scanning,
			session.EventCommandRejected: session.Disconnected,
		},
		session.Disconnected: {
			session.EventScanStarted:     session.Scanning,
			session.EventCommandRejected: session.Disconnected,
		},
	}

	for _, from := range allStates {
		for _, ev := range allEvents {
			t.Run(fmt.Sprintf("%s+%s", from, ev), func(t *testing.T) {
				m := machineIn(t, from, nil)
				got, err := m.Fire(ev)

				want, ok := legal[from][ev]
				if ev == session.EventTeardown {
					want, ok = session.Idle, true
				}

				if ok {
					require.NoError(t, err)
					assert.Equal(t, want, got)
					assert.Equal(t, want, m.State())
					return
				}

				var te *session.TransitionError
				require.ErrorAs(t, err, &te, "illegal event MUST return *TransitionError")
				assert.Equal(t, from, te.From)
				assert.Equal(t, ev, te.Event)
				assert.Equal(t, from, m.State(), "illegal event MUST leave the state unchanged")
			})
		}
	}
}

func TestMachine_NoTerminalState(t *testing.T) {
	// Every error state recovers only through a rescan
	for _, st := range []session.State{session.NoData, session.ErrorReceiving, session.ConnectFailed, session.Disconnected} {
		m := machineIn(t, st, nil)
		assert.True(t, m.CanFire(session.EventScanStarted), "%s MUST accept a rescan", st)
		assert.False(t, m.CanFire(session.EventConnectSucceeded), "%s MUST NOT reconnect on its own", st)
	}
}

func TestMachine_PublishesChanges(t *testing.T) {
	var changes []session.StateChange
	m := machineIn(t, session.Connected, func(c session.StateChange) { changes = append(changes, c) })
	changes = nil

	cause := errors.New("gatt error")
	_, err := m.FireWithErr(session.EventReceiveError, cause)
	require.NoError(t, err)
	_, err = m.Fire(session.EventConnectSucceeded)
	require.Error(t, err)

	require.Len(t, changes, 1, "rejected events MUST NOT be published")
	assert.Equal(t, session.StateChange{
		From:  session.Connected,
		To:    session.ErrorReceiving,
		Event: session.EventReceiveError,
		Err:   cause,
	}, changes[0])
}

func TestMachine_Report(t *testing.T) {
	var changes []session.StateChange
	m := machineIn(t, session.Streaming, func(c session.StateChange) { changes = append(changes, c) })
	changes = nil

	cause := errors.New("ack timeout")
	m.Report(session.EventWriteFailed, cause)

	require.Len(t, changes, 1)
	assert.Equal(t, session.Streaming, changes[0].From)
	assert.Equal(t, session.Streaming, changes[0].To, "reported failures MUST NOT move the machine")
	assert.Equal(t, session.EventWriteFailed, changes[0].Event)
	assert.Equal(t, session.Streaming, m.State())
}

func TestState_CanCommand(t *testing.T) {
	for _, st := range allStates {
		want := st == session.Connected || st == session.Streaming
		assert.Equal(t, want, st.CanCommand(), st.String())
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "error_receiving", session.ErrorReceiving.String())
	assert.Equal(t, "State(42)", session.State(42).String())
	assert.Equal(t, "command_rejected", session.EventCommandRejected.String())
	assert.Equal(t, "Event(-1)", session.Event(-1).String())
}
