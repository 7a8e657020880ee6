// Package history implements the server's per-room message log: a bounded,
// insertion-ordered append log with time-cursor pagination. History is
// memory-resident by design; rooms are created lazily on first append and
// live for the process lifetime.
package history

import (
	"sync"
	"time"

	"github.com/nfrund/pairchat/internal/chat"
)

const (
	// DefaultCapacity is the maximum number of messages retained per room
	// before the oldest entries are evicted.
	DefaultCapacity = 500

	// DefaultPageLimit is the page size used when a caller omits the limit.
	DefaultPageLimit = 20

	// MaxPageLimit is the hard cap on a single page, regardless of what the
	// caller requested.
	MaxPageLimit = 100
)

// Store is a bounded, in-memory append log keyed by room id. It is safe for
// concurrent use: the broadcast router appends while the HTTP pagination
// handler reads.
type Store struct {
	mu       sync.RWMutex
	rooms    map[string][]chat.Message
	capacity int
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides the per-room retention cap. Values below 1 fall
// back to the default.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		rooms:    make(map[string][]chat.Message),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append inserts a message at the tail of the room's log, creating the room
// if it has never been seen. CreatedAt is assigned here if the message does
// not already carry one, and is kept monotonic within the room so pagination
// cursors never skip entries. When the cap is exceeded the oldest entry is
// evicted. The stored message is returned.
func (s *Store) Append(roomID string, msg chat.Message) chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.rooms[roomID]
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().UnixMilli()
	}
	if n := len(log); n > 0 && msg.CreatedAt <= log[n-1].CreatedAt {
		msg.CreatedAt = log[n-1].CreatedAt + 1
	}

	log = append(log, msg)
	if len(log) > s.capacity {
		log = log[len(log)-s.capacity:]
	}
	s.rooms[roomID] = log

	return msg
}

// Page returns up to min(limit, MaxPageLimit) messages with CreatedAt
// strictly before the cursor, ordered most-recent-first. A non-positive
// cursor means "now" and a non-positive limit means the default. An unknown
// room yields an empty page, not an error: "no history" and "unknown room"
// are indistinguishable by design.
func (s *Store) Page(roomID string, before int64, limit int) []chat.Message {
	if before <= 0 {
		before = time.Now().UnixMilli()
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.rooms[roomID]
	page := make([]chat.Message, 0, limit)
	for i := len(log) - 1; i >= 0 && len(page) < limit; i-- {
		if log[i].CreatedAt < before {
			page = append(page, log[i])
		}
	}
	return page
}

// Len reports the number of messages currently retained for a room.
func (s *Store) Len(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[roomID])
}
