package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "math-tutor-agent", cfg.AgentName)
	assert.Equal(t, DefaultInstructions, cfg.Instructions)
	assert.Equal(t, 60*time.Second, cfg.RunTimeout)
	assert.Equal(t, 300*time.Second, cfg.AgentCacheTTL)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, "tutor-images", cfg.Storage.Bucket)
	assert.False(t, cfg.Production())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PLATFORM_API_KEY", "sk-test")
	t.Setenv("MODEL_DEPLOYMENT_NAME", "gpt-4o-mini")
	t.Setenv("RUN_TIMEOUT", "45s")
	t.Setenv("AGENT_CACHE_TTL", "120") // bare integer means seconds
	t.Setenv("RETRY_MULTIPLIER", "1.5")
	t.Setenv("STORAGE_ENDPOINT", "minio:9000")
	t.Setenv("STORAGE_ACCESS_KEY", "key")
	t.Setenv("STORAGE_SECRET_KEY", "secret")
	t.Setenv("STORAGE_USE_SSL", "true")

	cfg := FromEnv()

	assert.True(t, cfg.Production())
	assert.True(t, cfg.PlatformConfigured())
	assert.True(t, cfg.StorageConfigured())
	assert.Equal(t, 45*time.Second, cfg.RunTimeout)
	assert.Equal(t, 120*time.Second, cfg.AgentCacheTTL)
	assert.InDelta(t, 1.5, cfg.RetryMultiplier, 0.001)
	assert.True(t, cfg.Storage.UseSSL)
}

func TestConfiguredPredicates(t *testing.T) {
	cfg := FromEnv()
	assert.False(t, cfg.PlatformConfigured())
	assert.False(t, cfg.StorageConfigured())

	cfg.PlatformAPIKey = "sk"
	assert.False(t, cfg.PlatformConfigured(), "model is required too")
	cfg.Model = "gpt-4o"
	assert.True(t, cfg.PlatformConfigured())
}
