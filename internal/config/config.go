// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ericfisherdev/keycausa/internal/domain/model"
)

// DotEnvFile is read from the working directory, if present, before the
// environment is inspected. Variables already set in the environment win.
const DotEnvFile = ".env"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DataDir         string
	ListenAddr      string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	// SessionIdleTimeout ends an unlocked session that has not been used for
	// this long.
	SessionIdleTimeout time.Duration
}

// Files returns the paths of the vault artifacts inside DataDir.
func (c *Config) Files() model.VaultFiles {
	return model.VaultFilesIn(c.DataDir)
}

// Load reads configuration from the environment and returns a validated Config.
// Optional variables with defaults: KEYCAUSA_DATA_DIR (<user config dir>/keycausa),
// KEYCAUSA_LISTEN_ADDR (127.0.0.1:7411), KEYCAUSA_LOG_LEVEL (info),
// KEYCAUSA_SHUTDOWN_TIMEOUT (10s), KEYCAUSA_SESSION_IDLE_TIMEOUT (15m).
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	dataDir, ok := os.LookupEnv("KEYCAUSA_DATA_DIR")
	if !ok || strings.TrimSpace(dataDir) == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("KEYCAUSA_DATA_DIR is unset and no user config dir is available: %w", err)
		}
		dataDir = filepath.Join(base, "keycausa")
	}

	listenAddr := "127.0.0.1:7411"
	if v, ok := os.LookupEnv("KEYCAUSA_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("KEYCAUSA_LOG_LEVEL"); ok && v != "" {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("KEYCAUSA_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	shutdownTimeout, err := positiveDuration("KEYCAUSA_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	sessionIdleTimeout, err := positiveDuration("KEYCAUSA_SESSION_IDLE_TIMEOUT", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		DataDir:            dataDir,
		ListenAddr:         listenAddr,
		LogLevel:           logLevel,
		ShutdownTimeout:    shutdownTimeout,
		SessionIdleTimeout: sessionIdleTimeout,
	}, nil
}

// positiveDuration reads key as a time.Duration, returning def when unset.
func positiveDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def, nil
	}

	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, parsed)
	}
	return parsed, nil
}
