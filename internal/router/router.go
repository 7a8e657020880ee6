// Package router implements the server's broadcast router: the single
// consumer of inbound send_message events. Each event is validated, accepted
// into history and fanned out as one atomic unit, so no message interleaves
// mid-processing.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nfrund/pairchat/internal/chat"
	"github.com/nfrund/pairchat/internal/history"
	"github.com/nfrund/pairchat/internal/pubsub"
)

// Fanout delivers an accepted payload to every session joined to a room.
// It is implemented by the websocket bridge.
type Fanout interface {
	BroadcastRoom(room string, payload []byte)
}

// Router accepts inbound messages from the bus, appends them to room history
// and fans them out. The sender gets the echo too; its reconciliation
// depends on it.
type Router struct {
	history *history.Store
	fanout  Fanout
}

// New creates a router over the given history store and fanout.
func New(store *history.Store, fanout Fanout) *Router {
	return &Router{
		history: store,
		fanout:  fanout,
	}
}

// Start subscribes the router to the send topic. It returns once the
// subscription is active; handling happens on the subscriber's goroutine.
func (r *Router) Start(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, chat.TopicMessageSend, r.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", chat.TopicMessageSend, err)
	}
	return nil
}

// handle routes one inbound send_message event. Invalid events are rejected
// with an error (logged by the bus) and never reach history or the room.
func (r *Router) handle(ctx context.Context, msg pubsub.Message) error {
	var payload chat.SendPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("malformed send_message payload: %w", err)
	}

	if payload.Room == "" || payload.Room == chat.NoRoom {
		return fmt.Errorf("send_message without a room")
	}

	accepted := payload.Message
	if err := accepted.Validate(); err != nil {
		return fmt.Errorf("rejected message for room %s: %w", payload.Room, err)
	}

	// The server owns identity: assign the id here, at the point of durable
	// acceptance. ClientID passes through untouched so the sender can
	// reconcile the echo.
	if accepted.ID == "" {
		accepted.ID = uuid.NewString()
	}
	accepted = r.history.Append(payload.Room, accepted)

	out, err := chat.EncodeEvent(chat.EventReceiveMessage, accepted)
	if err != nil {
		return fmt.Errorf("failed to encode receive_message: %w", err)
	}
	r.fanout.BroadcastRoom(payload.Room, out)

	slog.Debug("Routed message", "room", payload.Room, "id", accepted.ID)
	return nil
}
