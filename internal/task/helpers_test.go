package task

import (
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/render"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newItem(t *testing.T, payload string) *domain.WorkItem {
	t.Helper()
	item, err := domain.NewWorkItem(payload, "")
	require.NoError(t, err)
	return item
}

func newPayloadRenderer(t *testing.T) render.Renderer {
	t.Helper()
	r, err := render.NewTemplateRenderer("", "{{.Payload}}", nil)
	require.NoError(t, err)
	return r
}
