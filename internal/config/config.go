package config

import (
	"fmt"
	"os"
	"pvp-tracker/internal/constants"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	ClientID      string
	ClientSecret  string
	Region        string
	Realm         string
	CharacterName string
	Brackets      []string
	DBPath        string
	PollInterval  time.Duration
	LogLevel      string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	interval := constants.DefaultPollInterval
	if raw := getEnv("POLL_INTERVAL", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q: %w", raw, err)
		}
		interval = parsed
	}

	cfg := &Config{
		ClientID:      getEnv("BNET_CLIENT_ID", ""),
		ClientSecret:  getEnv("BNET_CLIENT_SECRET", ""),
		Region:        getEnv("BNET_REGION", "us"),
		Realm:         getEnv("CHARACTER_REALM", ""),
		CharacterName: getEnv("CHARACTER_NAME", ""),
		Brackets:      splitList(getEnv("BRACKETS", "2v2,3v3,rbg")),
		DBPath:        getEnv("DB_PATH", "pvp.db"),
		PollInterval:  interval,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("BNET_CLIENT_ID and BNET_CLIENT_SECRET are required")
	}
	if cfg.Realm == "" || cfg.CharacterName == "" {
		return nil, fmt.Errorf("CHARACTER_REALM and CHARACTER_NAME are required")
	}
	if len(cfg.Brackets) == 0 {
		return nil, fmt.Errorf("BRACKETS must name at least one bracket")
	}

	logger.Info().
		Str("region", cfg.Region).
		Str("realm", cfg.Realm).
		Str("character", cfg.CharacterName).
		Strs("brackets", cfg.Brackets).
		Str("db_path", cfg.DBPath).
		Dur("poll_interval", cfg.PollInterval).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var Module = fx.Provide(Load)
