package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/store"
)

const (
	backendName = "redis"

	// RecordKeyPrefix prefixes every cache record key.
	RecordKeyPrefix = "synthgen:record:"
)

// writeScript stores ARGV[1] under KEYS[1] unless the key already holds a
// success record. Returns 1 when the value was stored.
var writeScript = goredis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
	local ok, rec = pcall(cjson.decode, current)
	if ok and type(rec) == 'table' and rec['status'] == 'success' then
		return 0
	end
end
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// RedisCacheStore implements store.CacheStore on a Redis server.
type RedisCacheStore struct {
	client goredis.Cmdable
	logger *slog.Logger
}

var _ store.CacheStore = (*RedisCacheStore)(nil)

// NewClient parses a redis:// URL, connects, and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisCacheStore creates a RedisCacheStore on the given client.
// If logger is nil, a default logger will be used.
func NewRedisCacheStore(client goredis.Cmdable, logger *slog.Logger) *RedisCacheStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisCacheStore{
		client: client,
		logger: logger.With(slog.String("component", "cache_store"), slog.String("backend", backendName)),
	}
}

// RecordKey returns the Redis key holding the record for id.
func RecordKey(id uuid.UUID) string {
	return RecordKeyPrefix + id.String()
}

// Exists implements store.CacheStore.
func (s *RedisCacheStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, RecordKey(id)).Result()
	if err != nil {
		return false, store.NewStoreError(backendName, "exists", "command failed", err)
	}
	return n > 0, nil
}

// Read implements store.CacheStore.
func (s *RedisCacheStore) Read(ctx context.Context, id uuid.UUID) (*domain.CacheRecord, error) {
	data, err := s.client.Get(ctx, RecordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrRecordNotFound
		}
		return nil, store.NewStoreError(backendName, "read", "command failed", err)
	}

	var rec domain.CacheRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, store.NewStoreError(backendName, "read", "undecodable record",
			errors.Join(store.ErrCorruptRecord, err))
	}

	if rec.ID != id {
		return nil, store.NewStoreError(backendName, "read",
			fmt.Sprintf("record under key has id %s", rec.ID), store.ErrCorruptRecord)
	}

	if err := rec.Validate(); err != nil {
		return nil, store.NewStoreError(backendName, "read", "stored record is invalid",
			errors.Join(store.ErrCorruptRecord, err))
	}

	return &rec, nil
}

// Write implements store.CacheStore. An existing success record is never
// replaced; a failure record is overwritten.
func (s *RedisCacheStore) Write(ctx context.Context, record *domain.CacheRecord) error {
	if record == nil {
		return store.NewStoreError(backendName, "write", "nil record", store.ErrInvalidEntity)
	}
	if err := record.Validate(); err != nil {
		return store.NewStoreError(backendName, "write", "invalid record",
			errors.Join(store.ErrInvalidEntity, err))
	}

	data, err := json.Marshal(record)
	if err != nil {
		return store.NewStoreError(backendName, "write", "encode failed", err)
	}

	stored, err := writeScript.Run(ctx, s.client, []string{RecordKey(record.ID)}, data).Int()
	if err != nil {
		return store.NewStoreError(backendName, "write", "command failed", err)
	}

	if stored == 0 {
		s.logger.DebugContext(ctx, "cache record already present, keeping first write",
			slog.String("record_id", record.ID.String()))
	}

	return nil
}
