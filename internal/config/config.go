// Package config reads ragconsole settings from the environment and an
// optional .env file. Command-line flags in each binary take these values as
// their defaults.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultTimeout    = 120
	DefaultStatusTTL  = 10
	DefaultLogFile    = "ragconsole.log"
	DefaultStubAddr   = "127.0.0.1:8000"
	MaxTimeoutSeconds = 600
	MaxStatusTTL      = 300
)

type Config struct {
	Backend BackendConfig
	Log     LogConfig
	Stub    StubConfig
	UI      UIConfig
}

type BackendConfig struct {
	BaseURL          string
	TimeoutSeconds   int
	StatusTTLSeconds int
}

type LogConfig struct {
	FilePath string
	Verbose  bool
}

type StubConfig struct {
	Addr string
	Seed bool
}

type UIConfig struct {
	AltScreen bool
	Mouse     bool
}

// Load reads .env when present, then the process environment. It reports
// whether a .env file was found so callers can log it once their logger is up.
func Load() (*Config, bool) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL:          EnvOr("RAGCONSOLE_BASE_URL", DefaultBaseURL),
			TimeoutSeconds:   EnvOrInt("RAGCONSOLE_TIMEOUT", DefaultTimeout),
			StatusTTLSeconds: EnvOrInt("RAGCONSOLE_STATUS_TTL", DefaultStatusTTL),
		},
		Log: LogConfig{
			FilePath: EnvOr("RAGCONSOLE_LOG_FILE", DefaultLogFile),
			Verbose:  EnvOrBool("RAGCONSOLE_VERBOSE", false),
		},
		Stub: StubConfig{
			Addr: EnvOr("RAGSTUB_ADDR", DefaultStubAddr),
			Seed: EnvOrBool("RAGSTUB_SEED", true),
		},
		UI: UIConfig{
			AltScreen: EnvOrBool("RAGCONSOLE_ALT_SCREEN", true),
			Mouse:     EnvOrBool("RAGCONSOLE_MOUSE", true),
		},
	}
	cfg.Normalize()
	return cfg, dotenv
}

// Normalize trims the base URL and clamps numeric settings into range.
func (c *Config) Normalize() {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBaseURL
	}
	c.Backend.TimeoutSeconds = clampInt(c.Backend.TimeoutSeconds, 1, MaxTimeoutSeconds)
	c.Backend.StatusTTLSeconds = clampInt(c.Backend.StatusTTLSeconds, 0, MaxStatusTTL)
	c.Log.FilePath = strings.TrimSpace(c.Log.FilePath)
	c.Stub.Addr = strings.TrimSpace(c.Stub.Addr)
	if c.Stub.Addr == "" {
		c.Stub.Addr = DefaultStubAddr
	}
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

func (c *Config) StatusTTL() time.Duration {
	return time.Duration(c.Backend.StatusTTLSeconds) * time.Second
}

func EnvOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func EnvOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func EnvOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
