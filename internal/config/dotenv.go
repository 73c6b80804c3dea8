package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"fill-the-blank/internal/game"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port        string
	DatabaseURL string
	AutoMigrate bool
	LogLevel    string
	LogPretty   bool
	CardsPath   string

	MaxPlayers             int
	MinPlayers             int
	HandSize               int
	RoundSeconds           int
	AutoAdvanceSeconds     int
	DisconnectGraceSeconds int
	RoomIdleSeconds        int

	EventBacklog       int
	SubscriberBuffer   int
	RateLimitPerSecond float64
	RateLimitBurst     int

	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
}

func Default() Config {
	return Config{
		Port:                     "8080",
		AutoMigrate:              true,
		LogLevel:                 "info",
		MaxPlayers:               15,
		MinPlayers:               3,
		HandSize:                 10,
		RoundSeconds:             90,
		AutoAdvanceSeconds:       3,
		DisconnectGraceSeconds:   30,
		RoomIdleSeconds:          300,
		EventBacklog:             512,
		SubscriberBuffer:         256,
		RateLimitPerSecond:       10,
		RateLimitBurst:           20,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("AUTO_MIGRATE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.AutoMigrate = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	if raw := os.Getenv("CARDS_PATH"); raw != "" {
		cfg.CardsPath = raw
	}

	positive("MAX_PLAYERS", &cfg.MaxPlayers)
	positive("MIN_PLAYERS", &cfg.MinPlayers)
	positive("HAND_SIZE", &cfg.HandSize)
	nonNegative("ROUND_SECONDS", &cfg.RoundSeconds)
	nonNegative("AUTO_ADVANCE_SECONDS", &cfg.AutoAdvanceSeconds)
	nonNegative("DISCONNECT_GRACE_SECONDS", &cfg.DisconnectGraceSeconds)
	nonNegative("ROOM_IDLE_SECONDS", &cfg.RoomIdleSeconds)
	positive("EVENT_BACKLOG", &cfg.EventBacklog)
	positive("SUBSCRIBER_BUFFER", &cfg.SubscriberBuffer)
	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.RateLimitPerSecond = value
		}
	}
	positive("RATE_LIMIT_BURST", &cfg.RateLimitBurst)
	positive("DB_MAX_OPEN_CONNS", &cfg.DBMaxOpenConns)
	positive("DB_MAX_IDLE_CONNS", &cfg.DBMaxIdleConns)
	positive("DB_CONN_MAX_LIFETIME_SECONDS", &cfg.DBConnMaxLifetimeSeconds)
	positive("DB_CONN_MAX_IDLE_SECONDS", &cfg.DBConnMaxIdleTimeSeconds)

	if cfg.MinPlayers > cfg.MaxPlayers {
		cfg.MinPlayers = Default().MinPlayers
		cfg.MaxPlayers = Default().MaxPlayers
	}
	return cfg
}

func positive(key string, dest *int) {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			*dest = value
		}
	}
}

func nonNegative(key string, dest *int) {
	if raw := os.Getenv(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			*dest = value
		}
	}
}

// Rules projects the room tunables the engine needs.
func (c Config) Rules() game.Rules {
	return game.Rules{
		HandSize:   c.HandSize,
		MinPlayers: c.MinPlayers,
		MaxPlayers: c.MaxPlayers,
		AutoStart:  true,
	}
}

func (c Config) RoundTimeout() time.Duration {
	return time.Duration(c.RoundSeconds) * time.Second
}

func (c Config) AutoAdvanceDelay() time.Duration {
	return time.Duration(c.AutoAdvanceSeconds) * time.Second
}

func (c Config) DisconnectGrace() time.Duration {
	return time.Duration(c.DisconnectGraceSeconds) * time.Second
}

func (c Config) RoomIdle() time.Duration {
	return time.Duration(c.RoomIdleSeconds) * time.Second
}
