package websocket

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/nfrund/pairchat/internal/chat"
)

// writeTimeout bounds a single outbound frame write.
const writeTimeout = 10 * time.Second

// Client is one WebSocket session as seen by the bridge.
type Client struct {
	// id is the unique session identifier, assigned at upgrade time.
	id string
	// conn is the underlying WebSocket connection.
	conn *websocket.Conn
	// send is a buffered channel of outbound payloads for this session.
	send chan []byte
	// bridge is a reference back to the bridge that manages this session.
	bridge *Bridge
}

// readPump pumps events from the WebSocket connection into the bridge.
//
// The application runs one readPump per connection, guaranteeing at most one
// reader on a connection.
func (c *Client) readPump() {
	defer func() {
		c.bridge.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, payload, err := c.conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally", "sessionID", c.id)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "sessionID", c.id, "error", err)
			}
			break
		}

		env, err := chat.DecodeEnvelope(payload)
		if err != nil {
			slog.Error("Ignoring malformed envelope", "sessionID", c.id, "error", err)
			continue
		}
		c.bridge.handleEnvelope(c, env)
	}
}

// writePump pumps payloads from the session's send channel to the WebSocket
// connection, guaranteeing at most one writer on a connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for payload := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "sessionID", c.id, "error", err)
			return
		}
	}
}
