package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, TraceIDLength*2)
	assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))
}

func TestRespondWithErrorAndLog_HidesError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/records/x", nil)
	req = req.WithContext(SetTraceID(req.Context()))
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Failed to read record",
		errors.New("postgres://admin:secret@db/synth unreachable"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to read record", body.Error)
	assert.Equal(t, GetTraceID(req.Context()), body.TraceID)
}

func TestRespondWithJSON_Head(t *testing.T) {
	req := httptest.NewRequest(http.MethodHead, "/records/x", nil)
	rec := httptest.NewRecorder()

	RespondWithJSON(rec, req, http.StatusOK, map[string]string{"a": "b"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Text string `json:"text" validate:"required"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text": ""}`))
	var p payload
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &p))
	assert.Error(t, ValidateRequest(&p))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text": "x", "extra": 1}`))
	assert.Error(t, DecodeJSON(httptest.NewRecorder(), req, &p))
}
