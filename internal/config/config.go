package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"Zaiqa/internal/handoff"
	"Zaiqa/internal/storage"
)

const (
	EnvPrefix   = "ZAIQA_"
	DefaultPath = "zaiqa.yml"

	minSecretLen = 32
)

type Config struct {
	LogLevel  string          `koanf:"log_level"`
	HTTP      HTTPConfig      `koanf:"http"`
	Storage   StorageConfig   `koanf:"storage"`
	Contact   ContactConfig   `koanf:"contact"`
	Session   SessionConfig   `koanf:"session"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

type HTTPConfig struct {
	Addr           string   `koanf:"addr"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type ContactConfig struct {
	BaseURL string `koanf:"base_url"`
	Phone   string `koanf:"phone"`
}

type SessionConfig struct {
	Secret       string        `koanf:"secret"`
	TTL          time.Duration `koanf:"ttl"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	SweepEvery   time.Duration `koanf:"sweep_every"`
	SecureCookie bool          `koanf:"secure_cookie"`
}

type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	TokenHash string `koanf:"token_hash"`
}

// RateLimitConfig caps hand-offs per client IP. Zero disables a limit.
type RateLimitConfig struct {
	Reservations int           `koanf:"reservations"`
	Checkouts    int           `koanf:"checkouts"`
	Window       time.Duration `koanf:"window"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Storage: StorageConfig{
			Driver: storage.DriverSQLite,
			DSN:    "data/zaiqa.db",
		},
		Contact: ContactConfig{
			BaseURL: handoff.DefaultBaseURL,
			Phone:   handoff.DefaultPhone,
		},
		Session: SessionConfig{
			TTL:         365 * 24 * time.Hour,
			IdleTimeout: 30 * time.Minute,
			SweepEvery:  time.Minute,
		},
		Metrics: MetricsConfig{Enabled: true},
		RateLimit: RateLimitConfig{
			Reservations: 5,
			Checkouts:    10,
			Window:       time.Minute,
		},
	}
}

// Load layers defaults, the YAML file at path (if present) and ZAIQA_*
// environment overrides. Nested keys use a double underscore:
// ZAIQA_STORAGE__DRIVER sets storage.driver.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validDrivers = map[string]bool{
	storage.DriverMemory:   true,
	storage.DriverSQLite:   true,
	storage.DriverPostgres: true,
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}

	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("invalid storage.driver %q: must be one of memory, sqlite, postgres", c.Storage.Driver)
	}
	if c.Storage.Driver != storage.DriverMemory && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
	}

	if err := c.HandoffContact().Validate(); err != nil {
		return fmt.Errorf("contact: %w", err)
	}

	if len(c.Session.Secret) < minSecretLen {
		return fmt.Errorf("session.secret is required and must be at least %d chars", minSecretLen)
	}
	if c.Session.TTL <= 0 || c.Session.IdleTimeout <= 0 || c.Session.SweepEvery <= 0 {
		return fmt.Errorf("session ttl, idle_timeout and sweep_every must be positive")
	}

	if c.RateLimit.Reservations < 0 || c.RateLimit.Checkouts < 0 {
		return fmt.Errorf("rate limits must be non-negative")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}

	return nil
}

func (c *Config) HandoffContact() handoff.Contact {
	return handoff.Contact{BaseURL: c.Contact.BaseURL, Phone: c.Contact.Phone}
}

func (c *Config) StorageConfig() storage.Config {
	return storage.Config{Driver: c.Storage.Driver, DSN: c.Storage.DSN}
}
