package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nfrund/pairchat/internal/chat"
)

// Reconnection defaults, matching the relay's expected client behavior:
// fixed initial backoff doubling up to a cap, a bounded number of attempts.
const (
	DefaultInitialBackoff = 1 * time.Second
	DefaultMaxBackoff     = 5 * time.Second
	DefaultMaxAttempts    = 5
	DefaultDialTimeout    = 20 * time.Second

	emitTimeout = 10 * time.Second
)

// ErrTransportClosed is returned by Emit when the session has no live
// connection to write to.
var ErrTransportClosed = errors.New("transport is not connected")

// TransportOption configures a websocket transport.
type TransportOption func(*wsTransport)

// WithBackoff overrides the reconnect backoff bounds.
func WithBackoff(initial, max time.Duration) TransportOption {
	return func(t *wsTransport) {
		t.initialBackoff = initial
		t.maxBackoff = max
	}
}

// WithMaxAttempts overrides the reconnect attempt bound.
func WithMaxAttempts(n int) TransportOption {
	return func(t *wsTransport) {
		t.maxAttempts = n
	}
}

// WithDialTimeout overrides the per-dial timeout, the only timeout in the
// system: there is no per-send timeout beyond the write deadline.
func WithDialTimeout(d time.Duration) TransportOption {
	return func(t *wsTransport) {
		t.dialTimeout = d
	}
}

// wsTransport is the gorilla/websocket implementation of Transport.
type wsTransport struct {
	url string

	initialBackoff time.Duration
	maxBackoff     time.Duration
	dialTimeout    time.Duration
	maxAttempts    int

	events chan Event
	done   chan struct{}

	closeOnce sync.Once

	// mu guards conn for writers; the run goroutine is the only reader.
	mu   sync.Mutex
	conn *websocket.Conn
}

// DialWebSocket opens a transport session against a ws:// or wss:// URL.
// The dial itself happens on a background goroutine; progress is reported
// through the event stream.
func DialWebSocket(url string, opts ...TransportOption) Transport {
	t := &wsTransport{
		url:            url,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
		dialTimeout:    DefaultDialTimeout,
		maxAttempts:    DefaultMaxAttempts,
		events:         make(chan Event, 16),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	go t.run()
	return t
}

// Events implements Transport.
func (t *wsTransport) Events() <-chan Event {
	return t.events
}

// Emit implements Transport.
func (t *wsTransport) Emit(event string, data any) error {
	payload, err := chat.EncodeEvent(event, data)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return ErrTransportClosed
	}
	t.conn.SetWriteDeadline(time.Now().Add(emitTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close implements Transport. The session ends with a graceful disconnect.
func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
		t.mu.Lock()
		if t.conn != nil {
			deadline := time.Now().Add(time.Second)
			t.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			t.conn.Close()
		}
		t.mu.Unlock()
	})
	return nil
}

// run drives the whole session: initial dial, read loop, and the reconnect
// loop after non-graceful drops. It is the only goroutine that emits events,
// so consumers observe transitions in order.
func (t *wsTransport) run() {
	defer close(t.events)

	conn, err := t.dial()
	if err != nil {
		t.events <- Event{Kind: EventConnectError, Err: err}
		if conn = t.retry(); conn == nil {
			return
		}
	} else {
		t.events <- Event{Kind: EventConnect}
	}

	for {
		t.setConn(conn)
		graceful := t.readLoop(conn)
		t.setConn(nil)

		t.events <- Event{Kind: EventDisconnect, Graceful: graceful}
		if graceful {
			return
		}

		if conn = t.retry(); conn == nil {
			return
		}
	}
}

// retry runs the bounded reconnect loop. It returns the new connection, or
// nil when the session is over (attempts exhausted or Close was called).
func (t *wsTransport) retry() *websocket.Conn {
	backoff := t.initialBackoff
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		t.events <- Event{Kind: EventReconnectAttempt, Attempt: attempt}

		select {
		case <-t.done:
			return nil
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > t.maxBackoff {
			backoff = t.maxBackoff
		}

		conn, err := t.dial()
		if err != nil {
			slog.Debug("Reconnect attempt failed", "attempt", attempt, "error", err)
			t.events <- Event{Kind: EventReconnectError, Err: err}
			continue
		}

		t.events <- Event{Kind: EventReconnect, Attempt: attempt}
		return conn
	}

	t.events <- Event{Kind: EventReconnectFailed}
	return nil
}

func (t *wsTransport) dial() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	return conn, err
}

func (t *wsTransport) setConn(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	if conn != nil {
		// Close may have raced the dial; don't keep a connection alive past it.
		select {
		case <-t.done:
			conn.Close()
		default:
		}
	}
	t.mu.Unlock()
}

// readLoop reads frames until the connection fails, reporting whether the
// failure was a graceful close.
func (t *wsTransport) readLoop(conn *websocket.Conn) (graceful bool) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
				// Local Close tore the connection down.
				return true
			default:
			}
			return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
		}
		t.events <- Event{Kind: EventMessage, Payload: payload}
	}
}
