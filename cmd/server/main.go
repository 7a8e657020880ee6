package main

import (
	"github.com/nfrund/pairchat/internal/server"
)

func main() {
	// Create a new relay instance.
	s := server.New()

	// Register all application routes.
	s.RegisterRoutes()

	// Start the server.
	s.Start()
}
