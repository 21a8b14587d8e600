package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/generation"
	"github.com/phrazzld/synthgen/internal/platform/filestore"
	"github.com/phrazzld/synthgen/internal/platform/gemini"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/phrazzld/synthgen/internal/platform/openai"
	"github.com/phrazzld/synthgen/internal/platform/postgres"
	"github.com/phrazzld/synthgen/internal/platform/redis"
	"github.com/phrazzld/synthgen/internal/redact"
	"github.com/phrazzld/synthgen/internal/store"
)

// application holds the shared dependencies of a command and releases
// them on cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	cache store.CacheStore

	// Backend handles, set only for the selected backend.
	db    *sql.DB
	redis *goredis.Client
}

// loadConfig loads configuration from the --config file or the environment
// and sets up logging.
func (e *cliEnv) loadConfig() (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if e.configPath != "" {
		cfg, err = config.LoadFile(e.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(cfg.Log, e.stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Debug("configuration loaded",
		"cache_backend", cfg.Cache.Backend,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"concurrency", cfg.Pipeline.Concurrency,
		"jwt_secret_present", cfg.API.JWTSecret != "")

	return cfg, log, nil
}

// newApplication opens the configured cache backend.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: log,
	}

	switch cfg.Cache.Backend {
	case "file":
		cache, err := filestore.NewFileCacheStore(cfg.Cache.Dir, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open file cache: %w", err)
		}
		app.cache = cache
		log.Info("using file cache", "dir", cfg.Cache.Dir)

	case "postgres":
		db, err := postgres.Open(ctx, cfg.Cache.DatabaseURL, cfg.Pipeline.Concurrency+2)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres cache: %s", redact.Error(err))
		}
		app.db = db
		app.cache = postgres.NewPostgresCacheStore(db, log)
		log.Info("using postgres cache", "database_url", redact.URL(cfg.Cache.DatabaseURL))

	case "redis":
		client, err := redis.NewClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis cache: %s", redact.Error(err))
		}
		app.redis = client
		app.cache = redis.NewRedisCacheStore(client, log)
		log.Info("using redis cache", "redis_url", redact.URL(cfg.Cache.RedisURL))

	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	return app, nil
}

// newExecutor creates the configured remote generation client.
func (app *application) newExecutor(ctx context.Context) (generation.Executor, error) {
	log := app.logger.With("component", "executor")

	var (
		executor generation.Executor
		err      error
	)
	switch app.config.LLM.Provider {
	case "gemini":
		executor, err = gemini.NewGeminiExecutor(ctx, log, app.config.LLM)
	case "openai":
		executor, err = openai.NewExecutor(log, app.config.LLM)
	default:
		err = fmt.Errorf("unknown llm provider %q", app.config.LLM.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s executor: %w", app.config.LLM.Provider, err)
	}

	log.Info("executor initialized",
		"provider", app.config.LLM.Provider,
		"model", executor.Model())
	return executor, nil
}

// cleanup releases backend connections.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", "error", err)
		}
	}
}
