// Package pubsub defines the contracts for the server's internal message bus
// and an in-memory implementation backed by watermill. The websocket bridge
// publishes inbound client events here; the broadcast router consumes them.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "chat.message.send").
	Topic string
	// RoomID identifies the conversation the message belongs to, when known.
	RoomID string
	// Payload contains the raw message data (JSON).
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., timestamps).
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the Pub/Sub system.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the Pub/Sub system.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages
	// with the handler. Delivery on a single subscription is sequential: a
	// handler invocation finishes before the next message is dispatched.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
