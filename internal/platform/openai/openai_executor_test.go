package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/phrazzld/synthgen/internal/config"
	"github.com/phrazzld/synthgen/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc) *Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	exec, err := NewExecutor(setupTestLogger(), config.LLMConfig{
		Endpoint: srv.URL + "/v1/",
		APIKey:   "sk-test",
		Model:    "gpt-test",
	})
	require.NoError(t, err)
	return exec
}

func writeChoice(w http.ResponseWriter, content, finish string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": finish,
			},
		},
	})
}

func TestNewExecutor_Validation(t *testing.T) {
	_, err := NewExecutor(nil, config.LLMConfig{APIKey: "k", Model: "m"})
	assert.Error(t, err)

	_, err = NewExecutor(setupTestLogger(), config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewExecutor(setupTestLogger(), config.LLMConfig{APIKey: "k"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	exec, err := NewExecutor(setupTestLogger(), config.LLMConfig{APIKey: "k", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, exec.baseURL)
}

func TestExecute_Success(t *testing.T) {
	var got goopenai.ChatCompletionRequest
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeChoice(w, "  generated text \n", "stop")
	})

	out, err := exec.Execute(context.Background(), generation.Request{System: "sys", User: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "  generated text \n", out, "content is returned as the service sent it")
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, goopenai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, goopenai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
}

func TestExecute_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "rate_limited", status: http.StatusTooManyRequests, transient: true},
		{name: "server_error", status: http.StatusBadGateway, transient: true},
		{name: "unauthorized", status: http.StatusUnauthorized, transient: false},
		{name: "bad_request", status: http.StatusBadRequest, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := exec.Execute(context.Background(), generation.Request{User: "x"})
			require.Error(t, err)

			var execErr *generation.ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, tt.transient, generation.IsTransient(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestExecute_APIErrorBody(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{name: "quota", status: http.StatusTooManyRequests, transient: true},
		{name: "invalid_model", status: http.StatusNotFound, transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"request refused","type":"invalid_request_error"}}`))
			})

			_, err := exec.Execute(context.Background(), generation.Request{User: "x"})
			require.Error(t, err)

			var apiErr *goopenai.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.HTTPStatusCode)
			assert.Equal(t, tt.transient, generation.IsTransient(err))
		})
	}
}

func TestExecute_MalformedResponses(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		sentinel error
	}{
		{
			name: "invalid_json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			sentinel: generation.ErrInvalidResponse,
		},
		{
			name: "no_choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			sentinel: generation.ErrInvalidResponse,
		},
		{
			name: "empty_content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeChoice(w, "   ", "stop")
			},
			sentinel: generation.ErrInvalidResponse,
		},
		{
			name: "content_filter",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeChoice(w, "", "content_filter")
			},
			sentinel: generation.ErrContentBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newTestExecutor(t, tt.handler)
			_, err := exec.Execute(context.Background(), generation.Request{User: "x"})
			require.Error(t, err)
			assert.False(t, generation.IsTransient(err))
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestExecute_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := exec.Execute(ctx, generation.Request{User: "x"})
	require.Error(t, err)
	assert.True(t, generation.IsTransient(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_EmptyRequest(t *testing.T) {
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called")
	})

	_, err := exec.Execute(context.Background(), generation.Request{User: ""})
	assert.ErrorIs(t, err, generation.ErrEmptyRequest)
	assert.False(t, generation.IsTransient(err))
}
