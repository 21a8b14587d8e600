package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/synthgen/internal/auth"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/mocks"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, tokens auth.TokenService) (http.Handler, *mocks.MemoryCacheStore, *domain.CacheRecord) {
	t.Helper()
	log, _ := logger.NewTestLogger(t)

	cache := mocks.NewMemoryCacheStore()
	item, err := domain.NewWorkItem("knowledge passage", "")
	require.NoError(t, err)
	record, err := domain.NewSuccessRecord(item, "generated question", "mock-model", nil)
	require.NoError(t, err)
	require.NoError(t, cache.Write(context.Background(), record))

	return NewRouter(RouterDeps{Cache: cache, Logger: log, Tokens: tokens}), cache, record
}

func serve(h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h, _, _ := setupRouter(t, nil)

	rec := serve(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGetRecord(t *testing.T) {
	h, _, record := setupRouter(t, nil)

	t.Run("found", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/records/"+record.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.CacheRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, "generated question", got.Result)
	})

	t.Run("not found", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/records/"+uuid.New().String(), "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "Record not found")
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/records/not-a-uuid", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetRecord_StoreFailure(t *testing.T) {
	h, cache, record := setupRouter(t, nil)
	cache.ReadFn = func(context.Context, uuid.UUID) (*domain.CacheRecord, error) {
		return nil, errors.New("disk unreadable")
	}

	rec := serve(h, http.MethodGet, "/records/"+record.ID.String(), "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk unreadable")
}

func TestHeadRecord(t *testing.T) {
	h, cache, record := setupRouter(t, nil)

	rec := serve(h, http.MethodHead, "/records/"+record.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Zero(t, cache.ReadCalls())

	rec = serve(h, http.MethodHead, "/records/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodHead, "/records/bad", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentify(t *testing.T) {
	h, _, record := setupRouter(t, nil)

	rec := serve(h, http.MethodPost, "/identify", `{"payload": "knowledge passage"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got IdentifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, record.ID.String(), got.ID)
	assert.True(t, got.Cached)

	rec = serve(h, http.MethodPost, "/identify", `{"payload": "knowledge passage", "auxiliary": "why?"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.Identify("knowledge passage\x1fwhy?").String(), got.ID)
	assert.False(t, got.Cached)

	rec = serve(h, http.MethodPost, "/identify", `{"payload": ""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, http.MethodPost, "/identify", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Authentication(t *testing.T) {
	tokens, err := auth.NewJWTService("test-secret-that-is-long-enough-for-testing", time.Hour)
	require.NoError(t, err)
	h, _, record := setupRouter(t, tokens)

	rec := serve(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/records/"+record.ID.String(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tokens.IssueToken(context.Background(), "ops")
	require.NoError(t, err)
	rec = serve(h, http.MethodGet, "/records/"+record.ID.String(), "",
		http.Header{"Authorization": []string{"Bearer " + token}})
	assert.Equal(t, http.StatusOK, rec.Code)
}
