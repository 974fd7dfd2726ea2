// Command tutord runs the math-tutor chat backend: a REST facade over a
// remotely hosted tutoring agent with code-interpreter visualizations
// persisted to object storage.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"mathtutor/artifact"
	"mathtutor/artifact/objstore"
	"mathtutor/config"
	"mathtutor/conversation"
	"mathtutor/core"
	"mathtutor/logging"
	"mathtutor/platform/openai"
	"mathtutor/registry"
	"mathtutor/retry"
	"mathtutor/server"
)

func main() {
	// Development convenience; the real environment always wins.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFmt)

	policy := retry.Policy{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		Multiplier:  cfg.RetryMultiplier,
		Retryable:   core.Retryable,
	}

	store, storageReady := buildStore(cfg, logger)

	var (
		platform core.PlatformClient
		reg      *registry.Registry
		conv     *conversation.Manager
	)
	if cfg.PlatformConfigured() {
		platform = openai.New(cfg.PlatformAPIKey, func(o *openai.Options) {
			o.BaseURL = cfg.PlatformBaseURL
		})
		reg = registry.New(platform, core.AgentDescriptor{
			Name:         cfg.AgentName,
			Model:        cfg.Model,
			Instructions: cfg.Instructions,
			Tools:        []string{core.ToolCodeInterpreter},
		}, func(o *registry.Options) {
			o.TTL = cfg.AgentCacheTTL
			o.Retry = policy
			o.Logger = logging.WithComponent(logger, "registry")
		})
		ex := artifact.NewExtractor(platform, store, func(o *artifact.Options) {
			o.Retry = policy
			o.Logger = logging.WithComponent(logger, "artifact")
		})
		conv = conversation.NewManager(platform, reg, func(o *conversation.Options) {
			o.RunTimeout = cfg.RunTimeout
			o.Extractor = ex
			o.Logger = logging.WithComponent(logger, "conversation")
		})
	} else {
		logger.Warn("agent platform not configured; chat endpoints will answer 503",
			"missing", "PLATFORM_API_KEY and/or MODEL_DEPLOYMENT_NAME")
	}

	srv := server.New(cfg, conv, reg, platform, func(o *server.Options) {
		o.StorageReady = storageReady
		o.Logger = logging.WithComponent(logger, "server")
	})

	logger.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// buildStore wires the configured object store, falling back to a volatile
// in-memory store outside production so image delivery still works in local
// development.
func buildStore(cfg *config.Config, logger logging.Logger) (core.BlobStore, bool) {
	if cfg.StorageConfigured() {
		store, err := objstore.New(cfg.Storage)
		if err != nil {
			logger.Error("object store init failed; image delivery degraded", "error", err)
			return nil, false
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Ensure(ctx); err != nil {
			logger.Error("object store bucket check failed; image delivery degraded", "error", err)
			return nil, false
		}
		return store, true
	}
	if !cfg.Production() {
		logger.Warn("no object store configured; using in-memory blob store")
		return artifact.NewInMemoryStore(cfg.Storage.Bucket), true
	}
	logger.Warn("no object store configured; image delivery disabled")
	return nil, false
}
