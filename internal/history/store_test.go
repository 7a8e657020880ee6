package history

import (
	"fmt"
	"testing"

	"github.com/nfrund/pairchat/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMsg(id string, createdAt int64) chat.Message {
	return chat.Message{
		ID:          id,
		SenderID:    1,
		RecipientID: 2,
		Content:     "msg " + id,
		CreatedAt:   createdAt,
	}
}

func TestStore_AppendAssignsCreatedAt(t *testing.T) {
	s := New()

	stored := s.Append("1-2", newMsg("a", 0))
	assert.NotZero(t, stored.CreatedAt, "Append must stamp CreatedAt when absent")

	// A supplied timestamp is kept as-is.
	stored = s.Append("1-2", newMsg("b", stored.CreatedAt+100))
	assert.NotZero(t, stored.CreatedAt)
}

func TestStore_AppendMonotonicTimestamps(t *testing.T) {
	s := New()

	var last int64
	for i := 0; i < 10; i++ {
		stored := s.Append("1-2", newMsg(fmt.Sprintf("m%d", i), 0))
		assert.Greater(t, stored.CreatedAt, last, "timestamps must be strictly increasing within a room")
		last = stored.CreatedAt
	}
}

func TestStore_CapEviction(t *testing.T) {
	const capacity = 5
	const overflow = 3
	s := New(WithCapacity(capacity))

	for i := 0; i < capacity+overflow; i++ {
		s.Append("1-2", newMsg(fmt.Sprintf("m%d", i), int64(1000+i)))
	}

	assert.Equal(t, capacity, s.Len("1-2"), "store must never hold more than its capacity")

	// Exactly the oldest entries are gone.
	page := s.Page("1-2", 0, MaxPageLimit)
	require.Len(t, page, capacity)
	assert.Equal(t, fmt.Sprintf("m%d", capacity+overflow-1), page[0].ID)
	assert.Equal(t, fmt.Sprintf("m%d", overflow), page[len(page)-1].ID)
}

func TestStore_PageOrderingAndCursor(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.Append("1-2", newMsg(fmt.Sprintf("m%d", i), int64(1000+i)))
	}

	// Most-recent-first, strictly before the cursor.
	page := s.Page("1-2", 1005, 3)
	require.Len(t, page, 3)
	assert.Equal(t, "m4", page[0].ID)
	assert.Equal(t, "m3", page[1].ID)
	assert.Equal(t, "m2", page[2].ID)
	for _, m := range page {
		assert.Less(t, m.CreatedAt, int64(1005))
	}
}

func TestStore_PageDefaults(t *testing.T) {
	s := New()
	for i := 0; i < 30; i++ {
		s.Append("1-2", newMsg(fmt.Sprintf("m%d", i), int64(1000+i)))
	}

	// Zero cursor means "now", zero limit means the default page size.
	page := s.Page("1-2", 0, 0)
	assert.Len(t, page, DefaultPageLimit)
	assert.Equal(t, "m29", page[0].ID)
}

func TestStore_PageLimitClamp(t *testing.T) {
	s := New()
	for i := 0; i < 150; i++ {
		s.Append("1-2", newMsg(fmt.Sprintf("m%d", i), int64(1000+i)))
	}

	page := s.Page("1-2", 0, 1000)
	assert.Len(t, page, MaxPageLimit, "limit must be clamped to the hard cap")
}

func TestStore_UnknownRoom(t *testing.T) {
	s := New()
	page := s.Page("9-10", 0, 20)
	assert.NotNil(t, page)
	assert.Empty(t, page, "unknown room yields an empty page, not an error")
}

func TestStore_RoomsAreIndependent(t *testing.T) {
	s := New(WithCapacity(2))
	s.Append("1-2", newMsg("a", 1000))
	s.Append("3-4", newMsg("b", 1000))
	s.Append("1-2", newMsg("c", 1001))
	s.Append("1-2", newMsg("d", 1002))

	assert.Equal(t, 2, s.Len("1-2"))
	assert.Equal(t, 1, s.Len("3-4"))
}
