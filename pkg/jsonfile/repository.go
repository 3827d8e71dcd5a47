// Package jsonfile implements a Snapshot-tier repository over a single
// JSONL file: one entity per line, whole-file atomic replacement on every
// Write. The file is the source of truth; keys are assigned here on first
// insert.
package jsonfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Repository persists one entity type to a JSONL file. It implements
// types.Snapshot.
type Repository[T types.Entity] struct {
	path  string
	fresh func() T

	mu      sync.Mutex
	closed  bool
	lastKey int64 // highest key handed out so far
}

// NewRepository opens a JSONL repository at path. fresh allocates an empty
// entity for decoding. The parent directory is created if needed; the file
// itself appears on the first Write.
func NewRepository[T types.Entity](path string, fresh func() T) (*Repository[T], error) {
	if path == "" {
		return nil, fmt.Errorf("jsonfile: path must not be empty")
	}
	if fresh == nil {
		return nil, fmt.Errorf("jsonfile: fresh must not be nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir: %w", err)
	}
	return &Repository[T]{path: path, fresh: fresh}, nil
}

// Load reads the file and returns every entity in file order. A missing
// file means an empty collection, not an error. Malformed lines are
// skipped.
func (r *Repository[T]) Load() ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, types.ErrClosed
	}

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("opening %s: %w", r.path, err)
	}
	defer f.Close()

	var items []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		item := r.fresh()
		if err := json.Unmarshal(line, item); err != nil {
			continue
		}
		if k := item.Key(); k > r.lastKey {
			r.lastKey = k
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", r.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Write atomically replaces the stored collection with items, assigning a
// fresh key to every zero-key element first. Rejects a nil slice and nil
// elements before touching the file.
func (r *Repository[T]) Write(items []T) error {
	if items == nil {
		return types.ErrNilItems
	}
	for _, it := range items {
		if types.IsNil(it) {
			return types.ErrNilElement
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return types.ErrClosed
	}

	for _, it := range items {
		if k := it.Key(); k > r.lastKey {
			r.lastKey = k
		}
	}
	for _, it := range items {
		if it.Key() == 0 {
			r.lastKey++
			it.SetKey(r.lastKey)
		}
	}

	lines := make([][]byte, 0, len(items))
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encoding entity %d: %w", it.Key(), err)
		}
		lines = append(lines, data)
	}
	return writeLines(r.path, lines)
}

// Clear removes every stored entity. Equivalent to Write of an empty
// collection.
func (r *Repository[T]) Clear() error {
	return r.Write([]T{})
}

// Close marks the repository released. Idempotent; the file stays on disk.
func (r *Repository[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// writeLines writes one record per line using the temp-file, fsync, rename
// pattern so readers never observe a partial file.
func writeLines(path string, lines [][]byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(stage string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", stage, err)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
