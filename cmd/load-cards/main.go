package main

import (
	"flag"

	"fill-the-blank/internal/config"
	"fill-the-blank/internal/db"
	"fill-the-blank/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "cards.csv", "path to a card csv (kind,text,pick,deck)")
	flag.Parse()

	dotenvErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)
	if dotenvErr != nil {
		log.Warn().Err(dotenvErr).Msg("failed to load .env")
	}

	conn, err := db.Open(cfg.DatabaseURL, db.Pool{MaxOpenConns: 2})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
	}

	inserted, err := db.LoadCards(conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Int("inserted", inserted).Msg("failed to load cards")
	}
	log.Info().Int("inserted", inserted).Str("file", *filePath).Msg("loaded cards")
}
