package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Validate(t *testing.T) {
	msg := Message{SenderID: 1, RecipientID: 2, Content: "  hello  "}
	require.NoError(t, msg.Validate())
	// Content is trimmed in place during validation.
	assert.Equal(t, "hello", msg.Content)
}

func TestMessage_Validate_EmptyContent(t *testing.T) {
	msg := Message{SenderID: 1, RecipientID: 2, Content: "   \t\n "}
	err := msg.Validate()
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestMessage_Validate_MissingParticipant(t *testing.T) {
	msg := Message{SenderID: 1, Content: "hi"}
	err := msg.Validate()
	assert.ErrorIs(t, err, ErrMissingParticipant)

	msg = Message{RecipientID: 2, Content: "hi"}
	err = msg.Validate()
	assert.ErrorIs(t, err, ErrMissingParticipant)
}

func TestMessage_Same(t *testing.T) {
	a := Message{ID: "m1", ClientID: "c1"}

	// Same ID wins outright.
	assert.True(t, a.Same(Message{ID: "m1"}))

	// Falls back to ClientID when IDs don't match.
	assert.True(t, a.Same(Message{ID: "m2", ClientID: "c1"}))

	assert.False(t, a.Same(Message{ID: "m2", ClientID: "c2"}))

	// Two messages without identity are never the same.
	assert.False(t, Message{}.Same(Message{}))
}
