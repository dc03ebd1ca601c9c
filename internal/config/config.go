package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-driven settings for the game server.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Dialogue endpoint (OpenAI-style chat completions, usually a
	// locally hosted inference server). An unreachable endpoint is a
	// per-request failure, never a startup error.
	LLMBaseURL string `env:"LLM_BASE_URL" envDefault:"http://localhost:1234"`
	ModelName  string `env:"LLM_MODEL" envDefault:"local-model"`

	// Emotion classifier endpoint and its model assets.
	VisionBaseURL string `env:"VISION_BASE_URL" envDefault:"http://localhost:5005"`
	ModelAssetDir string `env:"MODEL_ASSET_DIR" envDefault:"./models"`

	RedisURL string `env:"REDIS_URL" envDefault:"localhost:6379"`
	DataDir  string `env:"DATA_DIR" envDefault:"./data"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts the configured log level string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
