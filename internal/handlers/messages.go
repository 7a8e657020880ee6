package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/pairchat/internal/history"
)

// MessagesHandler serves paginated room history over HTTP.
type MessagesHandler struct {
	history *history.Store
}

// NewMessagesHandler creates a handler over the given history store.
func NewMessagesHandler(store *history.Store) *MessagesHandler {
	return &MessagesHandler{history: store}
}

// GetMessages handles GET /rooms/:room/messages?before=<ms>&limit=<n>.
// Messages are returned most-recent-first with createdAt strictly before the
// cursor. Malformed or missing pagination params fall back to their defaults
// rather than failing the request, and an unknown room yields an empty array.
func (h *MessagesHandler) GetMessages(c echo.Context) error {
	room := c.Param("room")

	var before int64
	if v := c.QueryParam("before"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			before = parsed
		}
	}

	var limit int
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	return c.JSON(http.StatusOK, h.history.Page(room, before, limit))
}
