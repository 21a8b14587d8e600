package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/platform/atomicfile"
)

// Entry is one line of the result file.
type Entry struct {
	ID            string `json:"id"`
	SourcePayload string `json:"source_payload"`
	Result        string `json:"result"`
	Auxiliary     string `json:"auxiliary,omitempty"`
	Title         string `json:"title,omitempty"`
	Source        string `json:"source,omitempty"`
	Model         string `json:"model,omitempty"`
}

// NewEntry builds an output entry from a record and, when known, the item
// it was produced for. Cached records carry no title or source, so the
// item's descriptive fields fill them in.
func NewEntry(item *domain.WorkItem, rec *domain.CacheRecord) Entry {
	e := Entry{
		ID:            rec.ID.String(),
		SourcePayload: rec.RequestPayload,
		Result:        rec.Result,
		Auxiliary:     rec.Auxiliary,
		Model:         rec.Model,
	}
	if item != nil {
		e.Title = item.Title
		e.Source = item.Source
	}
	return e
}

// PromptEntry is one line of the prompt file: the request a result was
// generated from, next to the result itself.
type PromptEntry struct {
	ID            string `json:"id"`
	SourcePayload string `json:"source_payload"`
	SystemPrompt  string `json:"system_prompt,omitempty"`
	UserPrompt    string `json:"user_prompt"`
	Result        string `json:"result"`
}

// NewPromptEntry builds a prompt file entry. It reports false for records
// written without their prompt.
func NewPromptEntry(rec *domain.CacheRecord) (PromptEntry, bool) {
	if rec.Prompt == nil {
		return PromptEntry{}, false
	}
	return PromptEntry{
		ID:            rec.ID.String(),
		SourcePayload: rec.RequestPayload,
		SystemPrompt:  rec.Prompt.System,
		UserPrompt:    rec.Prompt.User,
		Result:        rec.Result,
	}, true
}

// SortByID orders entries by identifier so repeated runs produce identical files.
func SortByID(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}

// SortPromptsByID orders prompt entries by identifier.
func SortPromptsByID(entries []PromptEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}

// Write encodes values as NDJSON to w.
func Write[T any](w io.Writer, values []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range values {
		if err := enc.Encode(values[i]); err != nil {
			return fmt.Errorf("failed to encode entry %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes values as NDJSON to path through a temporary file in the
// same directory, so readers never observe a partially written file.
func WriteFile[T any](path string, values []T) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	return atomicfile.Write(path, 0o644, func(w io.Writer) error {
		return Write(w, values)
	})
}
