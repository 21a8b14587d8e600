package sink_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T, payload, aux, result string) (*domain.WorkItem, *domain.CacheRecord) {
	t.Helper()
	item, err := domain.NewWorkItem(payload, aux)
	require.NoError(t, err)
	item.Title = "title"
	item.Source = "src"
	rec, err := domain.NewSuccessRecord(item, result, "m", nil)
	require.NoError(t, err)
	return item, rec
}

func TestNewEntry(t *testing.T) {
	t.Parallel()
	item, rec := newRecord(t, "payload", "aux", "result")

	e := sink.NewEntry(item, rec)
	assert.Equal(t, rec.ID.String(), e.ID)
	assert.Equal(t, "payload", e.SourcePayload)
	assert.Equal(t, "result", e.Result)
	assert.Equal(t, "aux", e.Auxiliary)
	assert.Equal(t, "title", e.Title)
	assert.Equal(t, "src", e.Source)
	assert.Equal(t, "m", e.Model)

	bare := sink.NewEntry(nil, rec)
	assert.Empty(t, bare.Title)
}

func TestNewPromptEntry(t *testing.T) {
	t.Parallel()
	_, rec := newRecord(t, "payload", "", "result")

	_, ok := sink.NewPromptEntry(rec)
	assert.False(t, ok, "records without a prompt are left out")

	rec.Prompt = &domain.Prompt{System: "sys", User: "write about payload"}
	e, ok := sink.NewPromptEntry(rec)
	require.True(t, ok)
	assert.Equal(t, rec.ID.String(), e.ID)
	assert.Equal(t, "payload", e.SourcePayload)
	assert.Equal(t, "sys", e.SystemPrompt)
	assert.Equal(t, "write about payload", e.UserPrompt)
	assert.Equal(t, "result", e.Result)
}

func TestSortPromptsByID(t *testing.T) {
	t.Parallel()
	entries := []sink.PromptEntry{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	sink.SortPromptsByID(entries)
	assert.Equal(t, []sink.PromptEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}, entries)
}

func TestWriteFile_SortedNDJSON(t *testing.T) {
	t.Parallel()
	var entries []sink.Entry
	for _, p := range []string{"c", "a", "b", "<&>"} {
		item, rec := newRecord(t, p, "", "r-"+p)
		entries = append(entries, sink.NewEntry(item, rec))
	}
	sink.SortByID(entries)

	path := filepath.Join(t.TempDir(), "out", "results.jsonl")
	require.NoError(t, sink.WriteFile(path, entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source_payload":"<&>"`)

	var ids []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e sink.Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		ids = append(ids, e.ID)
	}
	require.Len(t, ids, 4)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}

	dirEntries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, dirEntries, 1, "only the result file remains")
}

func TestWriteFile_Empty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, sink.WriteFile[sink.Entry](path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}
