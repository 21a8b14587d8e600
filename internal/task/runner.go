package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/generation"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/phrazzld/synthgen/internal/redact"
	"github.com/phrazzld/synthgen/internal/render"
	"github.com/phrazzld/synthgen/internal/store"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// RunnerConfig holds the per-call policy of a Runner.
type RunnerConfig struct {
	// CallTimeout bounds every executor call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration

	// RateLimit caps executor calls per second; zero disables limiting.
	RateLimit float64

	// RateBurst is the limiter burst size; values below 1 are treated as 1.
	RateBurst int
}

// DefaultCallTimeout bounds a remote call when no timeout is configured.
const DefaultCallTimeout = 120 * time.Second

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		CallTimeout: DefaultCallTimeout,
		RateBurst:   1,
	}
}

// Runner turns one work item into an Outcome, reusing the cache when it can.
// It is safe for concurrent use; concurrent runs for the same identifier
// share a single executor call.
type Runner struct {
	cache    store.CacheStore
	executor generation.Executor
	renderer render.Renderer
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger

	group singleflight.Group
}

// resolved is the shared result of one cache-or-generate pass.
type resolved struct {
	record    *domain.CacheRecord
	fromCache bool
}

// NewRunner creates a Runner.
func NewRunner(
	cache store.CacheStore,
	executor generation.Executor,
	renderer render.Renderer,
	config RunnerConfig,
	logger *slog.Logger,
) (*Runner, error) {
	if cache == nil {
		return nil, ErrNilStore
	}
	if executor == nil {
		return nil, ErrNilExecutor
	}
	if renderer == nil {
		return nil, ErrNilRenderer
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	timeout := config.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &Runner{
		cache:    cache,
		executor: executor,
		renderer: renderer,
		limiter:  limiter,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Run processes a single item. It never panics on remote or cache failures;
// every failure becomes a SkipReason on the returned Outcome.
func (r *Runner) Run(ctx context.Context, item *domain.WorkItem) Outcome {
	id := item.ResolveID()
	out := Outcome{ItemID: id, Item: item}

	log := r.logger.With("item_id", id.String())
	ctx = logger.WithLogger(ctx, log)

	if err := ctx.Err(); err != nil {
		out.Skip = newSkip(SkipCancelled, err)
		return out
	}

	v, err, shared := r.group.Do(id.String(), func() (interface{}, error) {
		return r.resolve(ctx, item, id)
	})
	if err != nil {
		var skip *SkipReason
		if !errors.As(err, &skip) {
			skip = newSkip(SkipExecution, err)
		}
		out.Skip = skip

		log.Warn("item skipped",
			"skip_kind", string(skip.Kind),
			"transient", generation.IsTransient(skip.Err),
			"error", redact.Error(skip.Err))
		return out
	}

	res := v.(*resolved)
	out.Record = res.record
	out.FromCache = res.fromCache

	if shared {
		log.Debug("shared result of concurrent run for the same item")
	}
	return out
}

// resolve returns the cached record for id or generates and caches a new one.
func (r *Runner) resolve(ctx context.Context, item *domain.WorkItem, id uuid.UUID) (*resolved, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	exists, err := r.cache.Exists(ctx, id)
	if err != nil {
		return nil, r.cacheSkip(ctx, SkipCacheRead, err)
	}

	if exists {
		rec, err := r.cache.Read(ctx, id)
		switch {
		case err == nil && rec.Succeeded():
			log.Debug("reusing cached record")
			return &resolved{record: rec, fromCache: true}, nil
		case err == nil:
			log.Debug("cached record is a failure, generating again",
				"status", string(rec.Status))
		case store.IsNotFoundError(err):
			// Removed between Exists and Read; generate it again.
		default:
			return nil, r.cacheSkip(ctx, SkipCacheRead, err)
		}
	}

	req, err := r.renderer.Render(ctx, item)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newSkip(SkipCancelled, ctxErr)
		}
		return nil, newSkip(SkipRender, err)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, newSkip(SkipCancelled, err)
		}
	}

	result, err := r.execute(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, newSkip(SkipCancelled, err)
		}
		return nil, newSkip(SkipExecution, err)
	}

	rec, err := domain.NewSuccessRecord(item, result, r.executor.Model(),
		&domain.Prompt{System: req.System, User: req.User})
	if err != nil {
		return nil, newSkip(SkipExecution,
			generation.NewPermanentError("result cannot be recorded", err))
	}

	// The write is not bound to the call deadline: a result that arrived in
	// time must not be lost to a slow disk.
	if err := r.cache.Write(context.WithoutCancel(ctx), rec); err != nil {
		return nil, newSkip(SkipCacheWrite, err)
	}

	log.Debug("generated and cached record", "result_length", len(result))
	return &resolved{record: rec}, nil
}

// execute makes exactly one executor call under the per-call timeout.
func (r *Runner) execute(ctx context.Context, req generation.Request) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	result, err := r.executor.Execute(callCtx, req)
	if err != nil {
		var execErr *generation.ExecutionError
		if !errors.As(err, &execErr) {
			if ctxErr := generation.ClassifyContextError(callCtx.Err()); ctxErr != nil {
				return "", ctxErr
			}
		}
		return "", err
	}

	logger.FromContextOrDefault(ctx, r.logger).Debug("executor call completed",
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (r *Runner) cacheSkip(ctx context.Context, kind SkipKind, err error) *SkipReason {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return newSkip(SkipCancelled, ctxErr)
	}
	return newSkip(kind, fmt.Errorf("cache unavailable: %w", err))
}
