package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/pairchat/internal/config"
	"github.com/nfrund/pairchat/internal/history"
	"github.com/nfrund/pairchat/internal/logging"
	"github.com/nfrund/pairchat/internal/pubsub"
	"github.com/nfrund/pairchat/internal/router"
	"github.com/nfrund/pairchat/internal/websocket"
)

// Server holds the dependencies for the relay: the HTTP server, the
// websocket bridge, the in-memory bus, and the room history store.
type Server struct {
	E       *echo.Echo
	Cfg     *config.Config
	PubSub  *pubsub.WatermillBridge
	Bridge  *websocket.Bridge
	History *history.Store
	Router  *router.Router
}

// New creates a fully wired Server instance and starts its background loops.
func New() *Server {
	logging.New() // Initialize the structured logger
	cfg := config.New()

	// The in-memory bus connecting the websocket bridge to the router.
	ps := pubsub.NewWatermillBridge()

	// One history store per process; capacity is injectable for tests.
	store := history.New(history.WithCapacity(cfg.HistoryCapacity))

	bridge := websocket.NewBridge(ps)
	go bridge.Run()

	rt := router.New(store, bridge)
	if err := rt.Start(context.Background(), ps); err != nil {
		slog.Error("Failed to start broadcast router", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	return &Server{
		E:       e,
		Cfg:     cfg,
		PubSub:  ps,
		Bridge:  bridge,
		History: store,
		Router:  rt,
	}
}
