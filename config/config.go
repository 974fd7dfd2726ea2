// Package config centralizes environment driven configuration for the
// tutoring backend.
//
// Load order: process environment wins; a local .env file (loaded by the
// binary via godotenv before FromEnv runs) supplies development defaults.
// Credentials only ever come from the environment, never from code.
//
// Missing platform or storage settings do not abort startup: the affected
// endpoints answer 503 instead, so the service can come up partially
// configured (health stays observable either way).
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment names. Anything other than prod is treated as non-production
// and unlocks the administrative endpoints.
const (
	EnvProduction  = "prod"
	EnvDevelopment = "dev"
)

// DefaultInstructions is the agent system prompt used when no override is
// configured.
const DefaultInstructions = "You are a friendly math tutor. Use the code interpreter tool to visualize mathematical concepts when asked."

// Config carries all runtime settings for the backend.
type Config struct {
	Env      string // APP_ENV: prod | dev
	Port     string // HTTP listen port
	LogLevel string // debug | info | warn | error
	LogFmt   string // json | text

	// Agent platform.
	PlatformAPIKey  string // PLATFORM_API_KEY
	PlatformBaseURL string // PLATFORM_BASE_URL (optional, vendor default otherwise)
	Model           string // MODEL_DEPLOYMENT_NAME
	AgentName       string // AGENT_NAME, the stable logical agent identifier
	Instructions    string // AGENT_INSTRUCTIONS override

	// Lifecycle tuning.
	RunTimeout      time.Duration // Hard cap on the run-and-await step
	AgentCacheTTL   time.Duration // Freshness window for the cached agent id
	RetryAttempts   int
	RetryBaseDelay  time.Duration
	RetryMultiplier float64

	// Blob storage.
	Storage StorageConfig
}

// StorageConfig configures the MinIO/S3-compatible image store. PublicBaseURL
// overrides URL derivation when objects are served through a CDN or reverse
// proxy instead of the storage endpoint itself.
type StorageConfig struct {
	Endpoint      string // STORAGE_ENDPOINT, host:port
	AccessKey     string // STORAGE_ACCESS_KEY
	SecretKey     string // STORAGE_SECRET_KEY
	Bucket        string // STORAGE_BUCKET
	UseSSL        bool   // STORAGE_USE_SSL
	PublicBaseURL string // STORAGE_PUBLIC_URL
}

// FromEnv builds a Config from the process environment applying defaults for
// everything optional.
func FromEnv() *Config {
	return &Config{
		Env:      envStr("APP_ENV", EnvDevelopment),
		Port:     envStr("PORT", "8000"),
		LogLevel: envStr("LOG_LEVEL", "info"),
		LogFmt:   envStr("LOG_FORMAT", "json"),

		PlatformAPIKey:  os.Getenv("PLATFORM_API_KEY"),
		PlatformBaseURL: os.Getenv("PLATFORM_BASE_URL"),
		Model:           os.Getenv("MODEL_DEPLOYMENT_NAME"),
		AgentName:       envStr("AGENT_NAME", "math-tutor-agent"),
		Instructions:    envStr("AGENT_INSTRUCTIONS", DefaultInstructions),

		RunTimeout:      envDuration("RUN_TIMEOUT", 60*time.Second),
		AgentCacheTTL:   envDuration("AGENT_CACHE_TTL", 300*time.Second),
		RetryAttempts:   envInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:  envDuration("RETRY_BASE_DELAY", time.Second),
		RetryMultiplier: envFloat("RETRY_MULTIPLIER", 2.0),

		Storage: StorageConfig{
			Endpoint:      os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:     os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:     os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:        envStr("STORAGE_BUCKET", "tutor-images"),
			UseSSL:        envBool("STORAGE_USE_SSL", false),
			PublicBaseURL: os.Getenv("STORAGE_PUBLIC_URL"),
		},
	}
}

// Production reports whether the service runs with production gating.
func (c *Config) Production() bool { return c.Env == EnvProduction }

// PlatformConfigured reports whether the agent platform can be reached at
// all. Endpoints depending on it answer 503 otherwise.
func (c *Config) PlatformConfigured() bool {
	return c.PlatformAPIKey != "" && c.Model != ""
}

// StorageConfigured reports whether a durable blob store is configured.
// Without one the service still answers chats, with image delivery degraded.
func (c *Config) StorageConfigured() bool {
	return c.Storage.Endpoint != "" && c.Storage.AccessKey != "" && c.Storage.SecretKey != ""
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envDuration accepts Go duration syntax ("45s", "2m") and falls back to
// whole seconds for bare integers.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
