package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "STORE_DRIVER", "DB_DSN", "PUBLIC_ORIGIN",
		"SESSION_POLL_INTERVAL", "SESSION_CHECK_TIMEOUT", "CHANGE_POLL_INTERVAL", "CORS_ALLOWED_ORIGINS", "JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.SessionPollInterval)
	assert.Equal(t, 3*time.Second, cfg.SessionCheckTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ChangePollInterval)
	assert.NotEmpty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("APP_ENV", "")
	t.Setenv("PUBLIC_ORIGIN", "https://resto.example/")
	t.Setenv("SESSION_POLL_INTERVAL", "10s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "https://resto.example", cfg.PublicOrigin)
	assert.Equal(t, 10*time.Second, cfg.SessionPollInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite dev", Config{StoreDriver: DriverSQLite, DSN: "x.db", PublicOrigin: "http://localhost"}, false},
		{"memory in production", Config{StoreDriver: DriverMemory, AppEnv: "production", JWTSecret: "s", PublicOrigin: "https://r"}, true},
		{"missing secret in production", Config{StoreDriver: DriverMySQL, DSN: "dsn", AppEnv: "production", PublicOrigin: "https://r"}, true},
		{"unknown driver", Config{StoreDriver: "oracle", PublicOrigin: "https://r"}, true},
		{"bad origin", Config{StoreDriver: DriverMemory, PublicOrigin: "resto.example"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("SESSION_CHECK_TIMEOUT", "soon")
	_, err := FromEnv()
	assert.Error(t, err)
}
