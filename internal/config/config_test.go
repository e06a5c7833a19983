package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		GoEnv:            "development",
		HTTPPort:         8080,
		DatabaseURL:      "postgres://localhost/reviewhub",
		JWTSecret:        "a-secret-that-is-at-least-32-chars",
		AccessTokenTTL:   14 * 24 * time.Hour,
		ReservedUsername: "me",
		AuthRatePerMin:   10,
		LogLevel:         "debug",
		LogFormat:        "text",
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.JWTSecret = "too-short"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPPort = 0

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "verbose"

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.HTTPPort = -1
	cfg.LogFormat = "xml"
	cfg.AuthRatePerMin = 0

	err := cfg.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Contains(t, err.Error(), "AUTH_RATE_PER_MIN")
}
