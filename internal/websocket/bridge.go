// Package websocket implements the server side of the real-time channel: it
// upgrades HTTP connections, tracks which room each session has joined, and
// fans accepted messages out to a room's sessions. Inbound send_message
// events are published to the message bus; the broadcast router decides what
// becomes of them. The bridge itself performs no deduplication and never
// touches history.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/pairchat/internal/chat"
	"github.com/nfrund/pairchat/internal/pubsub"
)

// joinRequest asks the bridge to bind a session to a room.
type joinRequest struct {
	client *Client
	room   string
}

// roomMessage is a payload destined for every session joined to a room.
type roomMessage struct {
	room    string
	payload []byte
}

// Bridge manages all WebSocket sessions and routes messages between
// connected clients, the room broadcast groups, and the pub/sub bus.
type Bridge struct {
	publisher pubsub.Publisher

	// rooms maps a room id to the set of sessions joined to it.
	rooms map[string]map[*Client]bool

	// joined maps a session to the single room it is currently joined to.
	// A session belongs to at most one broadcast group at a time; rejoining
	// replaces the previous membership.
	joined map[*Client]string

	register   chan *Client
	unregister chan *Client
	join       chan joinRequest
	broadcast  chan roomMessage

	// Protects rooms and joined; membership is mutated only by Run, but
	// read-side accessors may be called from other goroutines.
	mu sync.RWMutex
}

// NewBridge initializes a new Bridge, ready to handle connections.
func NewBridge(pub pubsub.Publisher) *Bridge {
	return &Bridge{
		publisher:  pub,
		rooms:      make(map[string]map[*Client]bool),
		joined:     make(map[*Client]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan joinRequest),
		broadcast:  make(chan roomMessage, 256),
	}
}

// Run starts the main bridge goroutine managing session lifecycle and room
// fanout. Each channel event is handled as one atomic unit; no message
// interleaves mid-processing.
func (b *Bridge) Run() {
	slog.Info("WebSocket bridge runner started")
	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.joined[client] = ""
			b.mu.Unlock()
			slog.Info("Session registered", "sessionID", client.id)

		case client := <-b.unregister:
			b.mu.Lock()
			if room, ok := b.joined[client]; ok {
				b.leaveRoomLocked(client, room)
				delete(b.joined, client)
				close(client.send)
				slog.Info("Session unregistered", "sessionID", client.id, "room", room)
			}
			b.mu.Unlock()

		case req := <-b.join:
			b.mu.Lock()
			if prev, ok := b.joined[req.client]; ok {
				b.leaveRoomLocked(req.client, prev)
				if b.rooms[req.room] == nil {
					b.rooms[req.room] = make(map[*Client]bool)
				}
				b.rooms[req.room][req.client] = true
				b.joined[req.client] = req.room
				slog.Info("Session joined room", "sessionID", req.client.id, "room", req.room)
			}
			b.mu.Unlock()

		case msg := <-b.broadcast:
			b.mu.RLock()
			for client := range b.rooms[msg.room] {
				select {
				case client.send <- msg.payload:
				default:
					// Drop the message if the session's send buffer is full.
					slog.Warn("Session send channel full, dropping message",
						"sessionID", client.id, "room", msg.room)
				}
			}
			b.mu.RUnlock()
		}
	}
}

// leaveRoomLocked removes a session from its room's broadcast group. The
// caller must hold b.mu.
func (b *Bridge) leaveRoomLocked(client *Client, room string) {
	if room == "" {
		return
	}
	if members, ok := b.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(b.rooms, room)
		}
	}
}

// BroadcastRoom delivers a payload to every session currently joined to the
// room, including the sender's own session. The sender relies on the echo to
// reconcile its optimistic entry.
func (b *Bridge) BroadcastRoom(room string, payload []byte) {
	b.broadcast <- roomMessage{room: room, payload: payload}
}

// RoomSize reports the number of sessions joined to a room.
func (b *Bridge) RoomSize(room string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rooms[room])
}

// Handler returns an echo.HandlerFunc that upgrades the request and runs the
// session's pumps.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		client := &Client{
			id:     uuid.NewString(),
			conn:   conn,
			send:   make(chan []byte, 256),
			bridge: b,
		}
		b.register <- client

		go client.writePump()
		go client.readPump()

		return nil
	}
}

// handleEnvelope dispatches a decoded client event. Malformed events are
// logged and dropped; they never take the session down.
func (b *Bridge) handleEnvelope(client *Client, env chat.Envelope) {
	switch env.Event {
	case chat.EventJoinRoom:
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil || room == "" || room == chat.NoRoom {
			slog.Warn("Ignoring invalid join_room payload", "sessionID", client.id, "error", err)
			return
		}
		b.join <- joinRequest{client: client, room: room}

	case chat.EventSendMessage:
		// Best-effort peek at the room for bus metadata; the router does
		// the authoritative unmarshal and validation.
		var payload chat.SendPayload
		_ = json.Unmarshal(env.Data, &payload)

		msg := pubsub.Message{
			Topic:   chat.TopicMessageSend,
			RoomID:  payload.Room,
			Payload: env.Data,
		}
		if err := b.publisher.Publish(context.Background(), msg); err != nil {
			slog.Error("Failed to publish inbound message",
				"sessionID", client.id, "room", payload.Room, "error", err)
		}

	default:
		slog.Debug("Ignoring unknown event", "sessionID", client.id, "event", env.Event)
	}
}
