// Package client implements the relay's client side: a connection manager
// owning one transport session per active room, a reconciliation store that
// merges optimistic sends, paginated history, and live pushes into one
// duplicate-free collection, and a fetcher for the history HTTP API.
package client

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/nfrund/pairchat/internal/chat"
)

// State is the connection lifecycle state owned by the Manager for the
// duration of one room binding.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateError        State = "error"
)

var (
	// ErrNotConnected is returned by Send when no connected session exists.
	// The message is dropped: there is no queue and no retry.
	ErrNotConnected = errors.New("not connected to a room")

	// ErrNoRoom is returned by Bind when the room id is absent or the
	// sentinel value. There is nothing to connect to.
	ErrNoRoom = errors.New("no room to bind to")
)

// ReconnectExhaustedMessage is the terminal error message recorded when the
// transport gives up reconnecting.
const ReconnectExhaustedMessage = "Unable to connect after multiple attempts"

// genericConnectError is recorded when the transport supplies no message.
const genericConnectError = "Connection failed"

// MessageHandler receives every message pushed on the bound room, verbatim.
// Deduplication is the reconciliation store's job, not the manager's.
type MessageHandler func(msg chat.Message)

// Manager owns at most one transport session, bound to at most one room at a
// time. Transport events drive its state machine; all transitions are
// serialized on a single dispatch goroutine per session.
type Manager struct {
	dial Dialer

	mu        sync.RWMutex
	room      string
	state     State
	attempts  int
	lastErr   string
	transport Transport
	onMessage MessageHandler

	// gen fences dispatch loops: events from a session torn down by Unbind
	// or rebinding are discarded rather than mutating fresh state.
	gen uint64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDialer replaces how the manager opens sessions. Tests use this to
// substitute a scripted transport.
func WithDialer(d Dialer) ManagerOption {
	return func(m *Manager) {
		m.dial = d
	}
}

// NewManager creates a manager that dials the given ws:// URL with the
// supplied transport options.
func NewManager(url string, opts ...ManagerOption) *Manager {
	m := &Manager{
		state: StateDisconnected,
		dial: func() Transport {
			return DialWebSocket(url)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind connects the manager to a room. Binding the current room again is a
// no-op beyond refreshing the message handler; binding a different room
// tears the old session down completely before the new one is opened, so a
// stale session can never deliver into the new room.
func (m *Manager) Bind(room string, onMessage MessageHandler) error {
	if room == "" || room == chat.NoRoom {
		return ErrNoRoom
	}

	m.mu.Lock()
	if m.room == room && m.transport != nil {
		m.onMessage = onMessage
		m.mu.Unlock()
		return nil
	}

	m.teardownLocked()
	m.room = room
	m.onMessage = onMessage
	m.state = StateConnecting
	m.attempts = 0
	m.lastErr = ""
	m.gen++
	gen := m.gen
	t := m.dial()
	m.transport = t
	m.mu.Unlock()

	go m.dispatch(gen, t, room)
	return nil
}

// Unbind releases the transport and resets the state machine. It runs on
// every teardown path and is safe to call repeatedly.
func (m *Manager) Unbind() {
	m.mu.Lock()
	m.teardownLocked()
	m.room = ""
	m.onMessage = nil
	m.state = StateDisconnected
	m.attempts = 0
	m.lastErr = ""
	m.mu.Unlock()
}

// teardownLocked closes the current session and fences its dispatch loop.
// Callers must hold m.mu.
func (m *Manager) teardownLocked() {
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	m.gen++
}

// Send transmits a message on the bound room. It succeeds only while
// connected; otherwise the message is dropped and ErrNotConnected reports
// the local failure. Validation runs before any network involvement.
func (m *Manager) Send(msg chat.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	m.mu.RLock()
	state, room, t := m.state, m.room, m.transport
	m.mu.RUnlock()

	if state != StateConnected || room == "" || t == nil {
		return ErrNotConnected
	}
	return t.Emit(chat.EventSendMessage, chat.SendPayload{Room: room, Message: msg})
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ReconnectAttempts returns the current reconnect attempt number, reset to
// zero on every successful connect.
func (m *Manager) ReconnectAttempts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attempts
}

// LastError returns the most recent connection error message, empty while
// healthy.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Room returns the currently bound room, or empty when unbound.
func (m *Manager) Room() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room
}

// dispatch consumes one session's events until its channel closes. It always
// drains to the end so the transport never blocks, discarding events once
// the session generation has been superseded.
func (m *Manager) dispatch(gen uint64, t Transport, room string) {
	for ev := range t.Events() {
		m.handleEvent(gen, t, room, ev)
	}
}

func (m *Manager) handleEvent(gen uint64, t Transport, room string, ev Event) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}

	switch ev.Kind {
	case EventConnect, EventReconnect:
		m.state = StateConnected
		m.attempts = 0
		m.lastErr = ""
		m.mu.Unlock()
		// Joining is a side effect of every successful (re)connect: the
		// server's room membership did not survive the old session.
		if err := t.Emit(chat.EventJoinRoom, room); err != nil {
			slog.Error("Failed to join room after connect", "room", room, "error", err)
		}
		return

	case EventConnectError:
		m.state = StateError
		m.lastErr = errMessage(ev.Err)

	case EventReconnectError:
		// State stays reconnecting; only the message is worth keeping.
		m.lastErr = errMessage(ev.Err)

	case EventReconnectAttempt:
		m.state = StateReconnecting
		m.attempts = ev.Attempt

	case EventDisconnect:
		if ev.Graceful {
			m.state = StateDisconnected
		} else {
			m.state = StateReconnecting
		}

	case EventReconnectFailed:
		m.state = StateError
		m.lastErr = ReconnectExhaustedMessage

	case EventMessage:
		cb := m.onMessage
		m.mu.Unlock()
		m.deliver(cb, ev.Payload)
		return
	}
	m.mu.Unlock()
}

// deliver forwards a pushed receive_message to the bound handler, verbatim.
func (m *Manager) deliver(cb MessageHandler, payload []byte) {
	env, err := chat.DecodeEnvelope(payload)
	if err != nil {
		slog.Error("Dropping malformed push", "error", err)
		return
	}
	if env.Event != chat.EventReceiveMessage || cb == nil {
		return
	}

	var msg chat.Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		slog.Error("Dropping malformed receive_message", "error", err)
		return
	}
	cb(msg)
}

func errMessage(err error) string {
	if err == nil || err.Error() == "" {
		return genericConnectError
	}
	return err.Error()
}
