package chat

import "fmt"

// NoRoom is the sentinel returned when a room cannot be derived because a
// participant identifier is absent. Callers must treat it as "do not connect".
const NoRoom = "no room"

// RoomID derives the canonical room identifier for a two-party conversation.
// The two participant identifiers are sorted ascending and joined with a
// dash, so RoomID(a, b) == RoomID(b, a) regardless of who initiates.
func RoomID(a, b int) string {
	if a <= 0 || b <= 0 {
		return NoRoom
	}
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}
