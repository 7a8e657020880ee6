package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrEmptyContent is returned when a message's content is empty or
	// whitespace-only after trimming.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrMissingParticipant is returned when a message lacks a valid sender
	// or recipient identifier.
	ErrMissingParticipant = errors.New("message is missing a participant")
)

// validate is the shared validator instance for message drafts.
var validate = validator.New()

// Message is a single chat message exchanged between two participants.
//
// ID is assigned by the server at the point of durable acceptance and is
// stable once set. ClientID is an optional correlation key assigned by the
// sender at creation time; it exists purely so the sender can reconcile the
// server's echo against its optimistic copy and is never shown to users.
type Message struct {
	ID          string `json:"id,omitempty"`
	ClientID    string `json:"clientId,omitempty"`
	SenderID    int    `json:"senderId" validate:"required,gt=0"`
	RecipientID int    `json:"recipientId" validate:"required,gt=0"`
	Content     string `json:"content" validate:"required"`

	// CreatedAt is milliseconds since the Unix epoch, set once when the
	// message is durably accepted and never mutated afterward.
	CreatedAt int64 `json:"createdAt,omitempty"`

	// Optimistic marks a locally-inserted message that has not yet been
	// confirmed by the server. It never crosses the wire.
	Optimistic bool `json:"-"`
}

// Validate checks a message draft before it is transmitted or routed.
// Content is trimmed in place; empty or whitespace-only content is rejected,
// as is a missing sender or recipient. Validation failures never reach the
// network.
func (m *Message) Validate() error {
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return ErrEmptyContent
	}
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingParticipant, err)
	}
	return nil
}

// Same reports whether two messages are the same logical message. Equality
// is decided first by ID, falling back to ClientID.
func (m Message) Same(other Message) bool {
	if m.ID != "" && m.ID == other.ID {
		return true
	}
	return m.ClientID != "" && m.ClientID == other.ClientID
}
