package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Config is the server configuration, read from the environment
type Config struct {
	Host     string     `env:"HOST"`
	Port     int        `env:"PORT"      envDefault:"5001"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"partyquiz.db"`

	SessionTTL    time.Duration `env:"SESSION_TTL"     envDefault:"24h"`
	LoginStateTTL time.Duration `env:"LOGIN_STATE_TTL" envDefault:"10m"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:5001/auth/google/callback"`

	// FrontendURL is the SPA origin: allowed by CORS and the post-login redirect target
	FrontendURL    string   `env:"FRONTEND_URL"    envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	CookieSecure   bool     `env:"COOKIE_SECURE"   envDefault:"false"`

	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
	HubReapInterval        time.Duration `env:"HUB_REAP_INTERVAL"        envDefault:"1m"`
	ShutdownTimeout        time.Duration `env:"SHUTDOWN_TIMEOUT"         envDefault:"30s"`
}

// Load reads the given .env files (default ".env") into the process
// environment without overriding variables that are already set, then
// parses the environment. Missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory, StorageTypeSQLite:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid FRONTEND_URL %q", c.FrontendURL)
	}
	if c.SessionTTL <= 0 || c.LoginStateTTL <= 0 {
		return errors.New("SESSION_TTL and LOGIN_STATE_TTL must be positive")
	}
	if c.SessionCleanupInterval <= 0 || c.HubReapInterval <= 0 {
		return errors.New("SESSION_CLEANUP_INTERVAL and HUB_REAP_INTERVAL must be positive")
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GoogleEnabled reports whether Google login credentials are present
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Origins lists the browser origins allowed by CORS and the WebSocket origin check
func (c *Config) Origins() []string {
	origins := slices.Clone(c.AllowedOrigins)
	if !slices.Contains(origins, c.FrontendURL) {
		origins = append(origins, c.FrontendURL)
	}
	return origins
}
