package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/store"
)

// MemoryCacheStore is a map-backed store.CacheStore with failure injection.
type MemoryCacheStore struct {
	// Optional hooks; when set they replace the default behavior.
	ExistsFn func(ctx context.Context, id uuid.UUID) (bool, error)
	ReadFn   func(ctx context.Context, id uuid.UUID) (*domain.CacheRecord, error)
	WriteFn  func(ctx context.Context, record *domain.CacheRecord) error

	mu      sync.Mutex
	records map[uuid.UUID]*domain.CacheRecord

	existsCalls int
	readCalls   int
	writeCalls  int
}

var _ store.CacheStore = (*MemoryCacheStore)(nil)

// NewMemoryCacheStore creates an empty MemoryCacheStore.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{
		records: make(map[uuid.UUID]*domain.CacheRecord),
	}
}

// Exists implements store.CacheStore.
func (m *MemoryCacheStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.existsCalls++
	m.mu.Unlock()

	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, id)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	return ok, nil
}

// Read implements store.CacheStore.
func (m *MemoryCacheStore) Read(ctx context.Context, id uuid.UUID) (*domain.CacheRecord, error) {
	m.mu.Lock()
	m.readCalls++
	m.mu.Unlock()

	if m.ReadFn != nil {
		return m.ReadFn(ctx, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	clone := *rec
	return &clone, nil
}

// Write implements store.CacheStore. Success records are last writer wins;
// a failure record never replaces a success record.
func (m *MemoryCacheStore) Write(ctx context.Context, record *domain.CacheRecord) error {
	m.mu.Lock()
	m.writeCalls++
	m.mu.Unlock()

	if m.WriteFn != nil {
		return m.WriteFn(ctx, record)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return store.ErrInvalidEntity
	}
	if err := record.Validate(); err != nil {
		return store.NewStoreError("memory", "write", "invalid record", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[record.ID]; ok && existing.Succeeded() && !record.Succeeded() {
		return nil
	}
	clone := *record
	m.records[record.ID] = &clone
	return nil
}

// Put stores record directly, bypassing hooks and call counting.
func (m *MemoryCacheStore) Put(record *domain.CacheRecord) {
	clone := *record
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = &clone
}

// Get returns the stored record for id without counting a call.
func (m *MemoryCacheStore) Get(id uuid.UUID) (*domain.CacheRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, false
	}
	clone := *rec
	return &clone, true
}

// Len returns the number of stored records.
func (m *MemoryCacheStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// WriteCalls returns the number of Write calls.
func (m *MemoryCacheStore) WriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeCalls
}

// ReadCalls returns the number of Read calls.
func (m *MemoryCacheStore) ReadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readCalls
}

// ExistsCalls returns the number of Exists calls.
func (m *MemoryCacheStore) ExistsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existsCalls
}
