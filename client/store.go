package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfrund/pairchat/internal/chat"
)

// Store is the authoritative client-side message collection for the active
// room. It is fed by optimistic local inserts, by live pushes from the
// connection manager, and by paginated history fetches, and guarantees each
// logical message appears exactly once, whatever order the sources arrive
// in.
//
// Internally the collection is a list of pages, newest page first, each page
// ordered most-recent-first. Pages 1..n mirror history fetches; page 0 is
// the live page where optimistic inserts and pushes land.
type Store struct {
	mu      sync.RWMutex
	pages   [][]chat.Message
	cursor  int64
	hasMore bool
}

// NewStore creates an empty store ready for its first fetch.
func NewStore() *Store {
	return &Store{
		pages:   make([][]chat.Message, 1),
		hasMore: true,
	}
}

// RecordOptimistic stamps a draft with a fresh correlation id and a
// provisional timestamp, marks it optimistic, and prepends it to the live
// page. The stamped message is returned and must be the one transmitted, so
// the server echo carries the same clientId back.
func (s *Store) RecordOptimistic(draft chat.Message) chat.Message {
	draft.ClientID = uuid.NewString()
	draft.CreatedAt = time.Now().UnixMilli()
	draft.Optimistic = true

	s.mu.Lock()
	s.pages[0] = append([]chat.Message{draft}, s.pages[0]...)
	s.mu.Unlock()
	return draft
}

// Reconcile merges an authoritative message into the store. An optimistic
// entry with the same clientId is replaced in place, preserving its
// position; a message already present by id or clientId is ignored;
// anything else is prepended to the live page as new.
func (s *Store) Reconcile(incoming chat.Message) {
	incoming.Optimistic = false

	s.mu.Lock()
	defer s.mu.Unlock()

	for pi := range s.pages {
		for mi := range s.pages[pi] {
			entry := &s.pages[pi][mi]
			if incoming.ClientID != "" && entry.ClientID == incoming.ClientID {
				*entry = incoming
				return
			}
			if incoming.ID != "" && entry.ID == incoming.ID {
				return
			}
		}
	}

	s.pages[0] = append([]chat.Message{incoming}, s.pages[0]...)
}

// AppendPage extends the older end of the collection with one fetched page
// (most-recent-first, as the history API returns it). Entries already known
// by id or clientId are skipped. The pagination cursor advances to the
// oldest timestamp in the page; a page shorter than the requested size means
// there are no more pages.
func (s *Store) AppendPage(older []chat.Message, pageSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := make([]chat.Message, 0, len(older))
	for _, msg := range older {
		if s.containsLocked(msg) {
			continue
		}
		page = append(page, msg)
	}
	if len(page) > 0 {
		s.pages = append(s.pages, page)
	}

	if len(older) > 0 {
		oldest := older[0].CreatedAt
		for _, msg := range older[1:] {
			if msg.CreatedAt < oldest {
				oldest = msg.CreatedAt
			}
		}
		s.cursor = oldest
	}
	s.hasMore = pageSize > 0 && len(older) >= pageSize
}

// Cursor returns the createdAt boundary for the next older fetch and
// whether another page is worth requesting. A zero cursor means "now".
func (s *Store) Cursor() (before int64, hasMore bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor, s.hasMore
}

// Messages returns the collection flattened newest-first.
func (s *Store) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Message, 0, s.lenLocked())
	for _, page := range s.pages {
		out = append(out, page...)
	}
	return out
}

// Ordered returns the collection sorted ascending by createdAt, the order
// the grouping engine and any renderer want.
func (s *Store) Ordered() []chat.Message {
	out := s.Messages()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// Len reports the number of messages currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lenLocked()
}

func (s *Store) lenLocked() int {
	n := 0
	for _, page := range s.pages {
		n += len(page)
	}
	return n
}

func (s *Store) containsLocked(msg chat.Message) bool {
	for _, page := range s.pages {
		for _, entry := range page {
			if entry.Same(msg) {
				return true
			}
		}
	}
	return false
}
