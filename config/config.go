// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	GinMode     string
	AppEnv      string
	StoreDriver string
	DSN         string

	// PublicOrigin prefixes every URL encoded into a QR code.
	PublicOrigin string
	JWTSecret    string

	SessionPollInterval time.Duration
	SessionCheckTimeout time.Duration
	ChangePollInterval  time.Duration

	CORSAllowedOrigins []string
	RabbitMQURL        string

	AdminEmail    string
	AdminPassword string
	LogLevel      string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	// .env opsional; variabel environment tetap dipakai jika file tidak ada
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          Getenv("PORT", "8080"),
		GinMode:       Getenv("GIN_MODE", "debug"),
		AppEnv:        Getenv("APP_ENV", "development"),
		StoreDriver:   strings.ToLower(Getenv("STORE_DRIVER", DriverSQLite)),
		DSN:           Getenv("DB_DSN", "restaurant.db"),
		PublicOrigin:  strings.TrimRight(Getenv("PUBLIC_ORIGIN", "http://localhost:8080"), "/"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),
		AdminEmail:    Getenv("ADMIN_EMAIL", "admin@restaurant.local"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		LogLevel:      Getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SessionPollInterval, err = duration("SESSION_POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionCheckTimeout, err = duration("SESSION_CHECK_TIMEOUT", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.ChangePollInterval, err = duration("CHANGE_POLL_INTERVAL", 500*time.Millisecond); err != nil {
		return nil, err
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	} else {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Getenv returns the value of key, or fallback when it is unset or empty.
func Getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
		if c.DSN == "" {
			errs = append(errs, errors.New("DB_DSN is required"))
		}
	case DriverMemory:
		if c.IsProduction() {
			errs = append(errs, errors.New("STORE_DRIVER=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if !strings.HasPrefix(c.PublicOrigin, "http://") && !strings.HasPrefix(c.PublicOrigin, "https://") {
		errs = append(errs, fmt.Errorf("PUBLIC_ORIGIN %q must start with http:// or https://", c.PublicOrigin))
	}
	return errors.Join(errs...)
}
