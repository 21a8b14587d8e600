package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/phrazzld/synthgen/internal/domain"
)

// ItemHandler processes one work item on behalf of a worker.
type ItemHandler func(ctx context.Context, workerID int, item *domain.WorkItem)

// WorkerPool manages a pool of worker goroutines that process items
// from a task queue until the queue is closed and drained.
type WorkerPool struct {
	// taskQueue provides read access to the items to be processed
	taskQueue TaskQueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// logger for structured logging
	logger *slog.Logger

	// handler is called for every item taken off the queue
	handler ItemHandler
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 5,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(
	taskQueue TaskQueueReader,
	config WorkerPoolConfig,
	handler ItemHandler,
	logger *slog.Logger,
) *WorkerPool {
	// Apply defaults for invalid config values
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		logger:      logger,
		handler:     handler,
	}
}

// WorkerCount returns the number of workers the pool starts.
func (p *WorkerPool) WorkerCount() int {
	return p.workerCount
}

// Start launches the workers. Each worker hands every item it receives to
// the handler, including after ctx is cancelled, so that the handler can
// report the item; the pool never drops an item silently.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Debug("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i+1)
	}
}

// Wait blocks until every worker has exited.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
	p.logger.Debug("worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	workerLogger := p.logger.With("worker_id", workerID)
	workerLogger.Debug("worker started")

	for item := range p.taskQueue.GetChannel() {
		p.handler(ctx, workerID, item)
	}

	workerLogger.Debug("worker exiting")
}
