package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/synthgen/internal/api/shared"
	"github.com/phrazzld/synthgen/internal/auth"
	"github.com/phrazzld/synthgen/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct {
	claims *auth.Claims
	err    error
}

func (s stubTokens) IssueToken(context.Context, string) (string, error) { return "t", nil }

func (s stubTokens) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return s.claims, s.err
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		tokens     stubTokens
		wantStatus int
		wantBody   string
	}{
		{"missing header", "", stubTokens{}, http.StatusUnauthorized, "Authorization header required"},
		{"wrong scheme", "Basic abc", stubTokens{}, http.StatusUnauthorized, "Invalid authorization format"},
		{"expired", "Bearer t", stubTokens{err: auth.ErrExpiredToken}, http.StatusUnauthorized, "Token expired"},
		{"invalid", "Bearer t", stubTokens{err: auth.ErrInvalidToken}, http.StatusUnauthorized, "Invalid token"},
		{"unexpected", "Bearer t", stubTokens{err: errors.New("boom")}, http.StatusInternalServerError, "Authentication error"},
		{"valid", "Bearer t", stubTokens{claims: &auth.Claims{Subject: "ops"}}, http.StatusOK, "ops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject, ok := GetSubject(r)
				require.True(t, ok)
				_, _ = w.Write([]byte(subject))
			})
			handler := NewAuthMiddleware(tt.tokens).Authenticate(next)

			req := httptest.NewRequest(http.MethodGet, "/records/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestAuthenticate_RealTokens(t *testing.T) {
	svc, err := auth.NewJWTService("test-secret-that-is-long-enough-for-testing", time.Hour)
	require.NoError(t, err)
	token, err := svc.IssueToken(context.Background(), "nightly")
	require.NoError(t, err)

	var got string
	handler := NewAuthMiddleware(svc).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSubject(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nightly", got)
}

func TestTraceMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var traceID string
	handler := NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, traceID)
	assert.Contains(t, buf.String(), `"trace_id":"`+traceID+`"`)
	assert.Contains(t, buf.String(), "inside handler")
}
