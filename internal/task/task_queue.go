package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/synthgen/internal/domain"
)

// Common errors returned by the TaskQueue
var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueueReader provides read-only access to the item channel
// allowing workers to consume items without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming items
	GetChannel() <-chan *domain.WorkItem
}

// TaskQueue implements a buffered queue of pending work items
type TaskQueue struct {
	items  chan *domain.WorkItem
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ TaskQueueReader = (*TaskQueue)(nil)

// NewTaskQueue creates a new task queue with the specified buffer size
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if size < 0 {
		size = 0
	}
	return &TaskQueue{
		items:  make(chan *domain.WorkItem, size),
		logger: logger,
	}
}

// Enqueue adds an item to the queue without blocking.
// Returns an error if the queue is full or closed
func (q *TaskQueue) Enqueue(item *domain.WorkItem) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- item:
		q.logEnqueued(item)
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.items))
	}
}

// EnqueueWait adds an item to the queue, waiting for space until ctx is done.
func (q *TaskQueue) EnqueueWait(ctx context.Context, item *domain.WorkItem) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- item:
		q.logEnqueued(item)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *TaskQueue) logEnqueued(item *domain.WorkItem) {
	q.logger.Debug("item enqueued",
		"item_id", item.ID,
		"queue_len", len(q.items),
		"queue_cap", cap(q.items))
}

// Close closes the task queue, preventing further submission.
// Items already queued remain readable.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.items)
		q.logger.Debug("task queue closed")
	}
}

// GetChannel returns a read-only channel for consuming items
func (q *TaskQueue) GetChannel() <-chan *domain.WorkItem {
	return q.items
}
