package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nfrund/pairchat/internal/handlers"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	messagesHandler := handlers.NewMessagesHandler(s.History)

	s.E.GET("/rooms/:room/messages", messagesHandler.GetMessages)
	s.E.GET("/ws", s.Bridge.Handler())

	s.E.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
