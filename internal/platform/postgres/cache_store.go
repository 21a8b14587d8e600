package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/store"
)

const backendName = "postgres"

// PostgresCacheStore implements the store.CacheStore interface using PostgreSQL.
// The first success record for an ID wins and later writes for the same ID
// are silently ignored. A stored failure record is replaced by the next write.
type PostgresCacheStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CacheStore = (*PostgresCacheStore)(nil)

// NewPostgresCacheStore creates a new PostgresCacheStore.
// If logger is nil, a default logger will be used.
func NewPostgresCacheStore(db store.DBTX, logger *slog.Logger) *PostgresCacheStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCacheStore{
		db:     db,
		logger: logger.With(slog.String("component", "cache_store"), slog.String("backend", backendName)),
	}
}

// Exists implements store.CacheStore.
func (s *PostgresCacheStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cache_records WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, store.NewStoreError(backendName, "exists", "query failed", MapError(err))
	}
	return exists, nil
}

// Read implements store.CacheStore.
func (s *PostgresCacheStore) Read(ctx context.Context, id uuid.UUID) (*domain.CacheRecord, error) {
	var (
		rec          domain.CacheRecord
		status       string
		promptSystem sql.NullString
		promptUser   sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, request_payload, auxiliary, result, status, model, prompt_system, prompt_user, created_at
		FROM cache_records
		WHERE id = $1
	`, id).Scan(
		&rec.ID,
		&rec.RequestPayload,
		&rec.Auxiliary,
		&rec.Result,
		&status,
		&rec.Model,
		&promptSystem,
		&promptUser,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRecordNotFound
		}
		return nil, store.NewStoreError(backendName, "read", "query failed", MapError(err))
	}

	rec.Status = domain.RecordStatus(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if promptUser.Valid {
		rec.Prompt = &domain.Prompt{System: promptSystem.String, User: promptUser.String}
	}

	if err := rec.Validate(); err != nil {
		return nil, store.NewStoreError(backendName, "read", "stored record is invalid",
			errors.Join(store.ErrCorruptRecord, err))
	}

	return &rec, nil
}

// Write implements store.CacheStore.
func (s *PostgresCacheStore) Write(ctx context.Context, record *domain.CacheRecord) error {
	if record == nil {
		return store.NewStoreError(backendName, "write", "nil record", store.ErrInvalidEntity)
	}
	if err := record.Validate(); err != nil {
		return store.NewStoreError(backendName, "write", "invalid record",
			errors.Join(store.ErrInvalidEntity, err))
	}

	var promptSystem, promptUser sql.NullString
	if record.Prompt != nil {
		promptSystem = sql.NullString{String: record.Prompt.System, Valid: true}
		promptUser = sql.NullString{String: record.Prompt.User, Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_records (id, request_payload, auxiliary, result, status, model, prompt_system, prompt_user, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			request_payload = EXCLUDED.request_payload,
			auxiliary = EXCLUDED.auxiliary,
			result = EXCLUDED.result,
			status = EXCLUDED.status,
			model = EXCLUDED.model,
			prompt_system = EXCLUDED.prompt_system,
			prompt_user = EXCLUDED.prompt_user,
			created_at = EXCLUDED.created_at
		WHERE cache_records.status <> 'success'
	`,
		record.ID,
		record.RequestPayload,
		record.Auxiliary,
		record.Result,
		string(record.Status),
		record.Model,
		promptSystem,
		promptUser,
		record.CreatedAt,
	)
	if err != nil {
		return store.NewStoreError(backendName, "write", "insert failed", MapError(err))
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.logger.DebugContext(ctx, "cache record already present, keeping first write",
			slog.String("record_id", record.ID.String()))
	}

	return nil
}
