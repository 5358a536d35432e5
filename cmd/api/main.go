package main

import (
	"os"

	"github.com/cantinaverde/cantina/internal/pkg/logger"
	"github.com/cantinaverde/cantina/internal/server"
)

// @title Cantina Verde Local API
// @version 1.0
// @description Local backend for the Cantina Verde school canteen: authentication, table CRUD, stock RPC, canteen functions and a realtime feed.

// @host localhost:4000
// @BasePath /
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session token as "Bearer <token>"

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
