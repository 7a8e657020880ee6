package client

// EventKind identifies a transport lifecycle or data event.
type EventKind int

const (
	// EventConnect fires once when the initial dial succeeds.
	EventConnect EventKind = iota
	// EventDisconnect fires when an established session ends. Graceful
	// distinguishes an intentional close from a network drop.
	EventDisconnect
	// EventConnectError fires when the initial dial fails.
	EventConnectError
	// EventReconnectAttempt fires before each reconnect attempt, carrying
	// the attempt number.
	EventReconnectAttempt
	// EventReconnect fires when a reconnect attempt succeeds.
	EventReconnect
	// EventReconnectError fires when a reconnect attempt fails but attempts
	// remain.
	EventReconnectError
	// EventReconnectFailed fires once the attempt bound is exhausted. The
	// transport gives up; recovery requires a fresh session.
	EventReconnectFailed
	// EventMessage carries a raw envelope payload received from the server.
	EventMessage
)

// Event is one occurrence on a transport session.
type Event struct {
	Kind     EventKind
	Graceful bool   // set on EventDisconnect
	Attempt  int    // set on EventReconnectAttempt and EventReconnect
	Err      error  // set on EventConnectError and EventReconnectError
	Payload  []byte // set on EventMessage
}

// Transport is one session against the relay server. It owns the connection
// and its reconnection policy: fixed initial backoff, capped maximum
// backoff, a bounded number of attempts, then EventReconnectFailed and
// nothing more. The connection manager consumes its events and never
// inspects the wire directly.
type Transport interface {
	// Events returns the session's event stream. The channel is closed when
	// the session is over, whether by Close, graceful server close, or
	// reconnection exhaustion.
	Events() <-chan Event

	// Emit marshals and transmits one event envelope. It fails if the
	// session is not currently connected.
	Emit(event string, data any) error

	// Close ends the session gracefully. It is idempotent.
	Close() error
}

// Dialer opens a new transport session. The manager calls it once per bind,
// so every binding gets a fresh session with freshly registered handlers.
type Dialer func() Transport
