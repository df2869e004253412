package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"pixel-plagiarist/internal/config"
	"pixel-plagiarist/internal/db"
	"pixel-plagiarist/internal/server"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		logger.Warn().Err(err).Msg("running without persistence")
		conn = nil
	} else if err := db.ConfigurePool(conn, cfg); err != nil {
		logger.Warn().Err(err).Msg("failed to configure db pool")
	}

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}

	srv := server.New(conn, cfg)
	defer srv.Shutdown()

	logger.Info().Str("addr", addr).Msg("pixel plagiarist server listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
