// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/flboard and cmd/flboard-export.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"flboard/internal/api"
	"flboard/internal/api/memory"
	"flboard/internal/api/rest"
	"flboard/internal/config"
	"flboard/internal/core"
	"flboard/internal/session"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitSession opens the persisted session for the rest backend, or an
// ephemeral one for the memory backend.
func InitSession(logger *slog.Logger, cfg *config.Config) *session.Session {
	if cfg.DataBackend == "memory" {
		return session.NewEphemeral()
	}
	sess, err := session.Open(session.FileStore{Path: cfg.TokenFile})
	if err != nil {
		logger.Error("Failed to open session store", "error", err, "path", cfg.TokenFile)
		os.Exit(1)
	}
	return sess
}

// InitBackend selects and constructs the configured backend. The memory
// backend is seeded with a demo admin so the console works offline.
func InitBackend(logger *slog.Logger, cfg *config.Config, sess *session.Session) api.Backend {
	switch cfg.DataBackend {
	case "memory":
		store := memory.New()
		store.SeedUser("admin@example.com", "admin", "Demo Admin", core.RoleAdmin, 0, false)
		logger.Info("Using in-memory backend", "login", "admin@example.com / admin")
		return store
	default:
		client, err := rest.New(cfg.APIBaseURL, sess, cfg.HTTPTimeout)
		if err != nil {
			logger.Error("Failed to initialize REST backend", "error", err, "url", cfg.APIBaseURL)
			os.Exit(1)
		}
		return client
	}
}
