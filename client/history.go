package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nfrund/pairchat/internal/chat"
)

// DefaultPageLimit mirrors the server's default page size. FetchOlder needs
// a concrete size to judge whether a returned page was full, so a zero limit
// resolves to this before anything is fetched.
const DefaultPageLimit = 20

// HistoryClient fetches paginated room history from the relay's HTTP API.
type HistoryClient struct {
	// BaseURL is the relay's HTTP root, e.g. "http://localhost:3001".
	BaseURL string
	// HTTPClient is the client used for requests.
	HTTPClient *http.Client
}

// NewHistoryClient creates a fetcher for the given relay.
func NewHistoryClient(baseURL string) *HistoryClient {
	return &HistoryClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch retrieves one page of messages with createdAt strictly before the
// cursor, most-recent-first. Zero values for before and limit let the server
// apply its defaults.
func (h *HistoryClient) Fetch(ctx context.Context, room string, before int64, limit int) ([]chat.Message, error) {
	endpoint := fmt.Sprintf("%s/rooms/%s/messages", h.BaseURL, url.PathEscape(room))

	query := url.Values{}
	if before > 0 {
		query.Set("before", strconv.FormatInt(before, 10))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history fetch failed: %s", resp.Status)
	}

	var messages []chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("failed to decode history page: %w", err)
	}
	return messages, nil
}

// FetchOlder pulls the next older page at the store's cursor and merges it
// in. It returns the number of messages fetched; zero with a nil error means
// there was nothing left to fetch.
func (h *HistoryClient) FetchOlder(ctx context.Context, store *Store, room string, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	before, hasMore := store.Cursor()
	if !hasMore {
		return 0, nil
	}

	page, err := h.Fetch(ctx, room, before, limit)
	if err != nil {
		return 0, err
	}
	store.AppendPage(page, limit)
	return len(page), nil
}
