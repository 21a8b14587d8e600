package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/synthgen/internal/domain"
)

// ErrEmptyCorpus is returned when a corpus holds no entries at all.
var ErrEmptyCorpus = errors.New("corpus is empty")

// Entry is one raw corpus object.
type Entry struct {
	Title  string `json:"title"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Query  string `json:"query,omitempty"`
}

// WorkItem converts the entry into a work item with a derived identifier.
func (e Entry) WorkItem() (*domain.WorkItem, error) {
	item, err := domain.NewWorkItem(e.Text, e.Query)
	if err != nil {
		return nil, err
	}
	item.Title = e.Title
	item.Source = e.Source
	return item, nil
}

// Malformed describes an entry that could not be turned into a work item.
type Malformed struct {
	// Position is the 1-based array index or line number.
	Position int
	Err      error
}

// Corpus is the parsed content of a corpus file.
//
// Items keeps input order and may contain duplicates; de-duplication is the
// pipeline's job.
type Corpus struct {
	Items     []*domain.WorkItem
	Malformed []Malformed
}

// ReadFile reads a corpus file from disk.
func ReadFile(path string, logger *slog.Logger) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	c, err := Read(f, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	return c, nil
}

// Read parses a corpus from r. A JSON array must be well formed as a whole;
// in NDJSON input each bad line is recorded as Malformed and skipped.
// Entries that decode but fail validation (for example an empty text) are
// recorded as Malformed as well.
func Read(r io.Reader, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, ErrEmptyCorpus
	}

	c := &Corpus{}
	if trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		for i, r := range raw {
			c.add(i+1, r)
		}
	} else {
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			text := bytes.TrimSpace(scanner.Bytes())
			if len(text) == 0 {
				continue
			}
			c.add(line, text)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(c.Items) == 0 && len(c.Malformed) == 0 {
		return nil, ErrEmptyCorpus
	}

	for _, m := range c.Malformed {
		logger.Warn("skipping malformed corpus entry",
			"position", m.Position,
			"error", m.Err)
	}

	return c, nil
}

func (c *Corpus) add(position int, raw []byte) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.Malformed = append(c.Malformed, Malformed{Position: position, Err: err})
		return
	}

	item, err := e.WorkItem()
	if err != nil {
		c.Malformed = append(c.Malformed, Malformed{Position: position, Err: err})
		return
	}

	c.Items = append(c.Items, item)
}
