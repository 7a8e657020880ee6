package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/nfrund/pairchat/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryClient_Fetch(t *testing.T) {
	page := []chat.Message{
		{ID: "m2", SenderID: 1, RecipientID: 2, Content: "later", CreatedAt: 200},
		{ID: "m1", SenderID: 2, RecipientID: 1, Content: "earlier", CreatedAt: 100},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rooms/1-2/messages", r.URL.Path)
		assert.Equal(t, "300", r.URL.Query().Get("before"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	hc := NewHistoryClient(srv.URL + "/")
	got, err := hc.Fetch(context.Background(), "1-2", 300, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[0].ID)
	assert.Equal(t, "earlier", got[1].Content)
}

func TestHistoryClient_FetchOmitsZeroParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery, "zero cursor and limit defer to server defaults")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	hc := NewHistoryClient(srv.URL)
	got, err := hc.Fetch(context.Background(), "1-2", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHistoryClient_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	hc := NewHistoryClient(srv.URL)
	_, err := hc.Fetch(context.Background(), "1-2", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHistoryClient_FetchOlderDefaultLimitKeepsPaging(t *testing.T) {
	fullPage := make([]chat.Message, DefaultPageLimit)
	for i := range fullPage {
		fullPage[i] = chat.Message{
			ID: fmt.Sprintf("m%d", DefaultPageLimit-i), SenderID: 1, RecipientID: 2,
			Content: "msg", CreatedAt: int64((DefaultPageLimit - i) * 100),
		}
	}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, strconv.Itoa(DefaultPageLimit), r.URL.Query().Get("limit"))
		if calls.Add(1) == 1 {
			json.NewEncoder(w).Encode(fullPage)
			return
		}
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	hc := NewHistoryClient(srv.URL)
	store := NewStore()

	// A zero limit defers to the server's default page size. A full default
	// page must still read as "more history behind it".
	n, err := hc.FetchOlder(context.Background(), store, "1-2", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, n)
	_, hasMore := store.Cursor()
	require.True(t, hasMore, "a full default-sized page must not end pagination")

	// So the next fetch actually goes out.
	n, err = hc.FetchOlder(context.Background(), store, "1-2", 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 2, calls.Load())
}

func TestHistoryClient_FetchOlderWalksPages(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			assert.Empty(t, r.URL.Query().Get("before"))
			json.NewEncoder(w).Encode([]chat.Message{
				{ID: "m4", SenderID: 1, RecipientID: 2, Content: "d", CreatedAt: 400},
				{ID: "m3", SenderID: 2, RecipientID: 1, Content: "c", CreatedAt: 300},
			})
		case 2:
			assert.Equal(t, "300", r.URL.Query().Get("before"))
			json.NewEncoder(w).Encode([]chat.Message{
				{ID: "m2", SenderID: 1, RecipientID: 2, Content: "b", CreatedAt: 200},
			})
		default:
			t.Error("fetched past the end of history")
		}
	}))
	defer srv.Close()

	hc := NewHistoryClient(srv.URL)
	store := NewStore()

	n, err := hc.FetchOlder(context.Background(), store, "1-2", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Second page is short, so history is exhausted after it.
	n, err = hc.FetchOlder(context.Background(), store, "1-2", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// No further request goes out once the store says there is nothing left.
	n, err = hc.FetchOlder(context.Background(), store, "1-2", 2)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, 3, store.Len())
}
