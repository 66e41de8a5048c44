// Package config loads runtime settings for the TailorCV CLI.
//
// Sources are applied in order, later ones winning:
//
//  1. built-in defaults
//  2. a .env file in the working directory, if present
//  3. environment variables
//  4. a JSON config file (-c path)
//  5. command-line flags
//
// Missing required values (backend URL, Google client id) are not an error
// here: the features that need them surface a configuration error when
// used, so the rest of the application stays usable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store names accepted in SessionStore.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config holds all runtime settings for the CLI.
type Config struct {
	// BackendBaseURL is the TailorCV REST API root, e.g. "https://api.tailorcv.app".
	BackendBaseURL string `env:"TAILORCV_API_URL"`

	// GoogleClientID identifies the app to the Google sign-in flow.
	GoogleClientID string `env:"TAILORCV_GOOGLE_CLIENT_ID"`

	// CallbackAddr is the loopback address the sign-in flow listens on.
	CallbackAddr string `env:"TAILORCV_CALLBACK_ADDR"`

	// SessionStore selects the persisted session backend: "file" or "redis".
	SessionStore string `env:"TAILORCV_SESSION_STORE"`

	// SessionFile is the session record path for the file store.
	SessionFile string `env:"TAILORCV_SESSION_FILE"`

	RedisAddr     string `env:"TAILORCV_REDIS_ADDR"`
	RedisPassword string `env:"TAILORCV_REDIS_PASSWORD"`

	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration `env:"TAILORCV_REQUEST_TIMEOUT"`

	// DownloadDir is where generated resumes are saved.
	DownloadDir string `env:"TAILORCV_DOWNLOAD_DIR"`

	LogLevel string `env:"TAILORCV_LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults. Paths are derived from
// the user's home directory when available, the working directory otherwise.
func (c *Config) LoadDefaults() {
	base := "."
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, ".tailorcv")
	}
	c.CallbackAddr = "127.0.0.1:49786"
	c.SessionStore = StoreFile
	c.SessionFile = filepath.Join(base, "session.json")
	c.DownloadDir = filepath.Join(base, "downloads")
	c.RequestTimeout = 60 * time.Second
	c.LogLevel = "info"
}

// Load constructs a Config from all sources. args is the raw command line
// (usually os.Args[1:]).
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	// A missing .env file is fine; a present one feeds the env step below.
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if cfg.SessionStore != StoreFile && cfg.SessionStore != StoreRedis {
		return nil, fmt.Errorf("config: unknown session store %q", cfg.SessionStore)
	}
	return cfg, nil
}
