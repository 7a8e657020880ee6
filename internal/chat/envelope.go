package chat

import (
	"encoding/json"
	"fmt"
)

// Event names carried on the real-time channel.
const (
	// EventJoinRoom is sent client→server with the room id as its data.
	EventJoinRoom = "join_room"
	// EventSendMessage is sent client→server with a SendPayload as its data.
	EventSendMessage = "send_message"
	// EventReceiveMessage is sent server→client with the accepted Message,
	// delivered to every session joined to the room, including the sender.
	EventReceiveMessage = "receive_message"
)

// Topics on the server's internal message bus.
const (
	// TopicMessageSend carries inbound send_message payloads from the
	// websocket bridge to the broadcast router.
	TopicMessageSend = "chat.message.send"
)

// Envelope is the wire framing for every event on the real-time channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendPayload is the data carried by a send_message event.
type SendPayload struct {
	Room    string  `json:"room"`
	Message Message `json:"message"`
}

// EncodeEvent marshals an event name and its data into envelope bytes ready
// for the wire.
func EncodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s data: %w", event, err)
	}
	payload, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", event, err)
	}
	return payload, nil
}

// DecodeEnvelope unmarshals envelope bytes received from the wire.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return env, nil
}
