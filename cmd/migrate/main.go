// migrate runs DB migrations from embedded SQL; use with go run ./cmd/migrate -direction up.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"rocr/backend/internal/config"
	"rocr/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	steps := flag.Int("steps", 0, "Number of migrations to apply (0 = all)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("cmd", "migrate").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set; create a .env or export DATABASE_URL")
	}
	dir, err := migrate.ParseDirection(*direction)
	if err != nil {
		logger.Fatal().Err(err).Msg("flags")
	}

	if err := migrate.Run(cfg.DatabaseURL, dir, *steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("already at target version")
			return
		}
		logger.Fatal().Err(err).Msg("migrate")
	}
	logger.Info().Str("direction", string(dir)).Int("steps", *steps).Msg("migrations applied")
}
