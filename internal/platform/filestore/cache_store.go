package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/platform/atomicfile"
	"github.com/phrazzld/synthgen/internal/store"
)

const (
	backendName = "file"

	// recordExt is the extension of committed records. Temp files carry a
	// random suffix after it, so they can never be mistaken for a record.
	recordExt = ".jsonl"
)

// FileCacheStore implements the store.CacheStore interface using one file
// per identifier inside a single directory.
type FileCacheStore struct {
	dir    string
	logger *slog.Logger
}

// Ensure FileCacheStore implements store.CacheStore interface
var _ store.CacheStore = (*FileCacheStore)(nil)

// NewFileCacheStore creates the cache directory if needed and returns a
// store rooted at it.
func NewFileCacheStore(dir string, logger *slog.Logger) (*FileCacheStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, store.NewStoreError(backendName, "init", "failed to create cache directory", err)
	}

	return &FileCacheStore{
		dir:    dir,
		logger: logger.With("component", "file_cache_store"),
	}, nil
}

// Dir returns the root directory of the store.
func (s *FileCacheStore) Dir() string {
	return s.dir
}

// Exists reports whether a committed record file is present for the identifier.
func (s *FileCacheStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.recordPath(id))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, store.NewStoreError(backendName, "exists", "failed to stat record", err)
}

// Read loads the record stored for the identifier.
func (s *FileCacheStore) Read(ctx context.Context, id uuid.UUID) (*domain.CacheRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, id)
		}
		return nil, store.NewStoreError(backendName, "read", "failed to read record", err)
	}

	var record domain.CacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, store.NewStoreError(backendName, "read", "failed to decode record",
			fmt.Errorf("%w: %v", store.ErrCorruptRecord, err))
	}

	if record.ID != id {
		return nil, store.NewStoreError(backendName, "read", "record ID does not match file name",
			store.ErrCorruptRecord)
	}

	if err := record.Validate(); err != nil {
		return nil, store.NewStoreError(backendName, "read", "stored record is invalid",
			errors.Join(store.ErrCorruptRecord, err))
	}

	return &record, nil
}

// Write encodes the record as a single JSON line and commits it with a
// temp-file-then-rename sequence. If a success record for the same
// identifier is already present the rename replaces it; both writers
// produced a record for identical content, so last writer wins without
// corruption. A failure record never replaces a success record.
func (s *FileCacheStore) Write(ctx context.Context, record *domain.CacheRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", store.ErrInvalidEntity)
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !record.Succeeded() {
		if existing, err := s.Read(ctx, record.ID); err == nil && existing.Succeeded() {
			s.logger.DebugContext(ctx, "keeping success record over failure",
				"record_id", record.ID)
			return nil
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return store.NewStoreError(backendName, "write", "failed to encode record", err)
	}
	data = append(data, '\n')

	path := s.recordPath(record.ID)
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		s.logger.ErrorContext(ctx, "failed to write cache record",
			"record_id", record.ID,
			"error", err)
		return store.NewStoreError(backendName, "write", "failed to commit record", err)
	}

	s.logger.DebugContext(ctx, "cache record written",
		"record_id", record.ID,
		"bytes", len(data))
	return nil
}

// List returns the identifiers of all committed records in the directory.
// Files that do not follow the <id>.jsonl naming are ignored.
func (s *FileCacheStore) List(ctx context.Context) ([]uuid.UUID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, store.NewStoreError(backendName, "list", "failed to read cache directory", err)
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (s *FileCacheStore) recordPath(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+recordExt)
}
