package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/redact"
	"github.com/phrazzld/synthgen/internal/store"
)

// CoordinatorConfig holds configuration for the pipeline coordinator
type CoordinatorConfig struct {
	// Concurrency is the number of workers, and so the ceiling on
	// simultaneous remote calls. If zero or negative, defaults to 1.
	Concurrency int

	// QueueSize is the buffer size of the pending-item queue.
	// If zero or negative, defaults to Concurrency.
	QueueSize int
}

// DefaultCoordinatorConfig returns a CoordinatorConfig with reasonable defaults
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Concurrency: 5,
		QueueSize:   1000,
	}
}

// Stats summarizes a pipeline run.
type Stats struct {
	// Total is the number of items submitted.
	Total int `json:"total"`

	// Invalid items failed validation and were never dispatched.
	Invalid int `json:"invalid"`

	// Duplicates repeated the identifier of an earlier item in the batch.
	Duplicates int `json:"duplicates"`

	// CachedReused items were answered from the cache without a remote call.
	CachedReused int `json:"cached_reused"`

	// Processed items produced a new record in this run.
	Processed int `json:"processed"`

	// Skipped items produced no record and will be retried on the next run.
	Skipped int `json:"skipped"`

	Elapsed time.Duration `json:"elapsed"`
}

// PipelineResult is the outcome of processing one batch.
type PipelineResult struct {
	// Outcomes holds every item that has a record, cached ones first and then
	// new ones in completion order.
	Outcomes []Outcome

	// Skipped holds every item that produced no record.
	Skipped []Outcome

	Stats Stats
}

// Records returns the record of every successful outcome.
func (r *PipelineResult) Records() []*domain.CacheRecord {
	records := make([]*domain.CacheRecord, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		records = append(records, o.Record)
	}
	return records
}

// Coordinator runs batches of work items through a Runner with bounded
// concurrency.
type Coordinator struct {
	runner *Runner
	cache  store.CacheStore
	config CoordinatorConfig
	logger *slog.Logger

	// OnOutcome, when set, is called once per finished item from the
	// collecting goroutine, in completion order.
	OnOutcome func(Outcome)
}

// NewCoordinator creates a Coordinator. The cache is consulted up front to
// answer already-cached items without occupying a worker.
func NewCoordinator(
	runner *Runner,
	cache store.CacheStore,
	config CoordinatorConfig,
	logger *slog.Logger,
) (*Coordinator, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}
	if cache == nil {
		return nil, ErrNilStore
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if config.Concurrency <= 0 {
		logger.Warn("invalid concurrency specified, using default",
			"specified_count", config.Concurrency,
			"default_count", 1)
		config.Concurrency = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.Concurrency
	}

	return &Coordinator{
		runner: runner,
		cache:  cache,
		config: config,
		logger: logger.With("component", "coordinator"),
	}, nil
}

// Process runs every item and returns once each one has either a record or
// a skip reason. When ctx is cancelled, in-flight calls are abandoned, items
// not yet started are reported as skipped, and Process returns ctx.Err()
// together with the partial result. Records already written stay in the cache.
func (c *Coordinator) Process(ctx context.Context, items []*domain.WorkItem) (*PipelineResult, error) {
	start := time.Now()
	result := &PipelineResult{}
	result.Stats.Total = len(items)

	unique := c.admit(items, &result.Stats)
	pending := c.partition(ctx, unique, result)

	c.logger.Info("dispatching pending items",
		"total", result.Stats.Total,
		"unique", len(unique),
		"cached_reused", result.Stats.CachedReused,
		"pending", len(pending),
		"concurrency", c.config.Concurrency)

	if len(pending) > 0 {
		c.dispatch(ctx, pending, result)
	}

	result.Stats.Skipped = len(result.Skipped)
	result.Stats.Elapsed = time.Since(start)

	c.logger.Info("pipeline finished",
		"total", result.Stats.Total,
		"processed", result.Stats.Processed,
		"cached_reused", result.Stats.CachedReused,
		"skipped", result.Stats.Skipped,
		"invalid", result.Stats.Invalid,
		"duplicates", result.Stats.Duplicates,
		"elapsed_ms", result.Stats.Elapsed.Milliseconds())

	return result, ctx.Err()
}

// admit drops invalid items and later duplicates, keeping input order.
func (c *Coordinator) admit(items []*domain.WorkItem, stats *Stats) []*domain.WorkItem {
	seen := make(map[uuid.UUID]struct{}, len(items))
	unique := make([]*domain.WorkItem, 0, len(items))

	for i, item := range items {
		if item == nil {
			stats.Invalid++
			c.logger.Warn("excluding invalid item", "index", i, "error", "nil item")
			continue
		}
		if err := item.Validate(); err != nil {
			stats.Invalid++
			c.logger.Warn("excluding invalid item", "index", i, "error", err)
			continue
		}

		id := item.ResolveID()
		if _, dup := seen[id]; dup {
			stats.Duplicates++
			c.logger.Debug("skipping duplicate item", "index", i, "item_id", id.String())
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, item)
	}

	return unique
}

// partition answers cached items from the store and returns the rest.
// An item whose cache lookup fails, or whose record holds no usable
// result, is left to the runner.
func (c *Coordinator) partition(
	ctx context.Context,
	items []*domain.WorkItem,
	result *PipelineResult,
) []*domain.WorkItem {
	pending := make([]*domain.WorkItem, 0, len(items))

	for _, item := range items {
		id := item.ResolveID()
		exists, err := c.cache.Exists(ctx, id)
		if err != nil || !exists {
			if err != nil {
				c.logger.Warn("cache lookup failed, deferring to runner",
					"item_id", id.String(),
					"error", redact.Error(err))
			}
			pending = append(pending, item)
			continue
		}

		rec, err := c.cache.Read(ctx, id)
		if err != nil || !rec.Succeeded() {
			pending = append(pending, item)
			continue
		}

		out := Outcome{ItemID: id, Item: item, Record: rec, FromCache: true}
		result.Outcomes = append(result.Outcomes, out)
		result.Stats.CachedReused++
		c.notify(out)
	}

	return pending
}

// dispatch feeds pending items through the queue and worker pool and
// collects their outcomes in completion order.
func (c *Coordinator) dispatch(ctx context.Context, pending []*domain.WorkItem, result *PipelineResult) {
	queue := NewTaskQueue(c.config.QueueSize, c.logger)
	outcomes := make(chan Outcome, c.config.Concurrency)

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: c.config.Concurrency},
		func(ctx context.Context, workerID int, item *domain.WorkItem) {
			outcomes <- c.runner.Run(ctx, item)
		}, c.logger)
	pool.Start(ctx)

	// Producer: stops at the first item it cannot enqueue because ctx is done.
	var unstarted []*domain.WorkItem
	var producer sync.WaitGroup
	producer.Add(1)
	go func() {
		defer producer.Done()
		defer queue.Close()
		for i, item := range pending {
			if err := queue.EnqueueWait(ctx, item); err != nil {
				unstarted = pending[i:]
				return
			}
		}
	}()

	go func() {
		pool.Wait()
		close(outcomes)
	}()

	for out := range outcomes {
		c.record(out, result)
	}

	producer.Wait()
	for _, item := range unstarted {
		c.record(Outcome{
			ItemID: item.ResolveID(),
			Item:   item,
			Skip:   newSkip(SkipCancelled, ctx.Err()),
		}, result)
	}
}

func (c *Coordinator) record(out Outcome, result *PipelineResult) {
	switch {
	case out.Skipped():
		result.Skipped = append(result.Skipped, out)
	case out.FromCache:
		result.Outcomes = append(result.Outcomes, out)
		result.Stats.CachedReused++
	default:
		result.Outcomes = append(result.Outcomes, out)
		result.Stats.Processed++
	}
	c.notify(out)
}

func (c *Coordinator) notify(out Outcome) {
	if c.OnOutcome != nil {
		c.OnOutcome(out)
	}
}
