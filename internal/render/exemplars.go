package render

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrNoExemplars is returned when an exemplar source holds nothing usable.
var ErrNoExemplars = errors.New("no exemplars found")

// exemplarFields are the object keys tried, in order, when exemplars are
// given as JSON objects.
var exemplarFields = []string{"instruction", "query", "text"}

// ExemplarSampler draws a random subset of exemplars for each render.
// It is safe for concurrent use.
type ExemplarSampler struct {
	pool []string
	k    int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewExemplarSampler creates a sampler that draws k exemplars from pool.
func NewExemplarSampler(pool []string, k int, seed int64) (*ExemplarSampler, error) {
	if len(pool) == 0 {
		return nil, ErrNoExemplars
	}
	if k < 1 {
		return nil, fmt.Errorf("exemplar count must be positive, got %d", k)
	}

	return &ExemplarSampler{
		pool: append([]string(nil), pool...),
		k:    k,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// NewExemplarSamplerFromFile loads exemplars from path and seeds the sampler
// from the clock.
func NewExemplarSamplerFromFile(path string, k int) (*ExemplarSampler, error) {
	pool, err := LoadExemplars(path)
	if err != nil {
		return nil, err
	}
	return NewExemplarSampler(pool, k, time.Now().UnixNano())
}

// Size returns the number of exemplars in the pool.
func (s *ExemplarSampler) Size() int {
	return len(s.pool)
}

// Sample returns min(k, pool size) distinct exemplars in random order.
func (s *ExemplarSampler) Sample() []string {
	n := s.k
	if n > len(s.pool) {
		n = len(s.pool)
	}

	s.mu.Lock()
	perm := s.rng.Perm(len(s.pool))
	s.mu.Unlock()

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = s.pool[perm[i]]
	}
	return out
}

// LoadExemplars reads exemplars from a file holding a JSON array (of strings
// or objects), NDJSON objects, or plain text with one exemplar per line.
// Objects contribute their first non-empty instruction, query or text field.
func LoadExemplars(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exemplars from %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(content)
	var pool []string

	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse exemplars from %s: %w", path, err)
		}
		for _, r := range raw {
			if s := exemplarText(r); s != "" {
				pool = append(pool, s)
			}
		}
	default:
		scanner := bufio.NewScanner(bytes.NewReader(trimmed))
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "{") {
				if s := exemplarText([]byte(line)); s != "" {
					pool = append(pool, s)
				}
				continue
			}
			pool = append(pool, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan exemplars from %s: %w", path, err)
		}
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoExemplars, path)
	}
	return pool, nil
}

func exemplarText(raw []byte) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, field := range exemplarFields {
		if v, ok := obj[field].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
