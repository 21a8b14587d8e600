package postgres_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/platform/postgres"
	"github.com/phrazzld/synthgen/internal/store"
	"github.com/phrazzld/synthgen/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRecord(t *testing.T, payload, result string) *domain.CacheRecord {
	t.Helper()
	item, err := domain.NewWorkItem(payload, "")
	require.NoError(t, err)
	rec, err := domain.NewSuccessRecord(item, result, "test-model", nil)
	require.NoError(t, err)
	return rec
}

func TestPostgresCacheStore_WriteReadExists(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresCacheStore(tx, setupTestLogger())
		ctx := context.Background()

		rec := newRecord(t, "payload "+uuid.NewString(), "result")

		exists, err := s.Exists(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, s.Write(ctx, rec))

		exists, err = s.Exists(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := s.Read(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.RequestPayload, got.RequestPayload)
		assert.Equal(t, rec.Result, got.Result)
		assert.Equal(t, domain.RecordStatusSuccess, got.Status)
		assert.Equal(t, "test-model", got.Model)
	})
}

func TestPostgresCacheStore_FirstWriteWins(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresCacheStore(tx, setupTestLogger())
		ctx := context.Background()

		payload := "payload " + uuid.NewString()
		first := newRecord(t, payload, "first")
		second := newRecord(t, payload, "second")

		require.NoError(t, s.Write(ctx, first))
		require.NoError(t, s.Write(ctx, second))

		got, err := s.Read(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Result)
	})
}

func TestPostgresCacheStore_SuccessReplacesFailure(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresCacheStore(tx, setupTestLogger())
		ctx := context.Background()

		item, err := domain.NewWorkItem("payload "+uuid.NewString(), "")
		require.NoError(t, err)
		success, err := domain.NewSuccessRecord(item, "generated", "test-model",
			&domain.Prompt{System: "sys", User: "user prompt"})
		require.NoError(t, err)

		failed := *success
		failed.Result = ""
		failed.Status = domain.RecordStatusFailure
		failed.Prompt = nil
		require.NoError(t, s.Write(ctx, &failed))

		got, err := s.Read(ctx, success.ID)
		require.NoError(t, err)
		assert.False(t, got.Succeeded())
		assert.Nil(t, got.Prompt)

		require.NoError(t, s.Write(ctx, success))
		got, err = s.Read(ctx, success.ID)
		require.NoError(t, err)
		assert.True(t, got.Succeeded())
		require.NotNil(t, got.Prompt)
		assert.Equal(t, domain.Prompt{System: "sys", User: "user prompt"}, *got.Prompt)

		require.NoError(t, s.Write(ctx, &failed))
		got, err = s.Read(ctx, success.ID)
		require.NoError(t, err)
		assert.Equal(t, "generated", got.Result)
	})
}

func TestPostgresCacheStore_ReadMissing(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresCacheStore(tx, setupTestLogger())

		_, err := s.Read(context.Background(), uuid.New())
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestPostgresCacheStore_WriteInvalid(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresCacheStore(tx, setupTestLogger())

		err := s.Write(context.Background(), &domain.CacheRecord{ID: uuid.New()})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresCacheStore_ConcurrentWrites(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	ctx := context.Background()

	s := postgres.NewPostgresCacheStore(db, setupTestLogger())
	payload := "concurrent " + uuid.NewString()
	rec := newRecord(t, payload, "result")
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DELETE FROM cache_records WHERE id = $1", rec.ID)
	})

	records := make([]*domain.CacheRecord, 8)
	for i := range records {
		records[i] = newRecord(t, payload, "result")
	}

	var wg sync.WaitGroup
	for _, r := range records {
		wg.Add(1)
		go func(r *domain.CacheRecord) {
			defer wg.Done()
			assert.NoError(t, s.Write(ctx, r))
		}(r)
	}
	wg.Wait()

	got, err := s.Read(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "result", got.Result)
}
