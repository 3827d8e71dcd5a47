// Package sqlite implements a Granular-tier repository over an embedded
// SQLite database. Each repository owns one table: an autoincrement integer
// key column plus a JSON payload column. The key column is authoritative;
// Load overwrites whatever key the payload carries.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// tableName restricts table names to identifiers safe to splice into SQL.
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Repository persists one entity type to one SQLite table. It implements
// types.Granular.
type Repository[T types.Entity] struct {
	db    *sql.DB
	table string
	fresh func() T

	mu     sync.Mutex
	closed bool
}

// Open opens (creating if needed) the database at path and the named table
// inside it. fresh allocates an empty entity for decoding.
func Open[T types.Entity](path, table string, fresh func() T) (*Repository[T], error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("sqlite: invalid table name %q", table)
	}
	if fresh == nil {
		return nil, fmt.Errorf("sqlite: fresh must not be nil")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// AUTOINCREMENT keeps deleted keys retired, so a surrogate key is never
	// reassigned to a different record.
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (key INTEGER PRIMARY KEY AUTOINCREMENT, data TEXT NOT NULL)`,
		table)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create table %s: %w", table, err)
	}
	return &Repository[T]{db: db, table: table, fresh: fresh}, nil
}

// Load returns every stored entity in key order.
func (r *Repository[T]) Load() ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, types.ErrClosed
	}

	rows, err := r.db.Query(fmt.Sprintf(`SELECT key, data FROM %s ORDER BY key`, r.table))
	if err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", r.table, err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var key int64
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", r.table, err)
		}
		item := r.fresh()
		if err := json.Unmarshal(data, item); err != nil {
			return nil, fmt.Errorf("sqlite: decode %s key %d: %w", r.table, key, err)
		}
		item.SetKey(key)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load %s: %w", r.table, err)
	}
	return items, nil
}

// Write atomically replaces the table contents with items in one
// transaction. Zero-key elements receive their key from the insert.
// Rejects a nil slice and nil elements before touching the database.
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

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin write %s: %w", r.table, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, r.table)); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", r.table, err)
	}
	keyed := fmt.Sprintf(`INSERT INTO %s (key, data) VALUES (?, ?)`, r.table)
	unkeyed := fmt.Sprintf(`INSERT INTO %s (data) VALUES (?)`, r.table)
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("sqlite: encode entity: %w", err)
		}
		if k := it.Key(); k > 0 {
			if _, err := tx.Exec(keyed, k, data); err != nil {
				return fmt.Errorf("sqlite: insert %s key %d: %w", r.table, k, err)
			}
			continue
		}
		res, err := tx.Exec(unkeyed, data)
		if err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", r.table, err)
		}
		key, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", r.table, err)
		}
		it.SetKey(key)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit write %s: %w", r.table, err)
	}
	return nil
}

// Clear removes every stored entity.
func (r *Repository[T]) Clear() error {
	return r.Write([]T{})
}

// Update replaces the stored record carrying item's key. Returns the number
// of records updated (0 or 1); a non-positive key is rejected with
// ErrInvalidKey.
func (r *Repository[T]) Update(item T) (int, error) {
	if types.IsNil(item) {
		return 0, types.ErrNilItem
	}
	if item.Key() <= 0 {
		return 0, types.ErrInvalidKey
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, types.ErrClosed
	}

	data, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("sqlite: encode entity %d: %w", item.Key(), err)
	}
	res, err := r.db.Exec(fmt.Sprintf(`UPDATE %s SET data = ? WHERE key = ?`, r.table), data, item.Key())
	if err != nil {
		return 0, fmt.Errorf("sqlite: update %s key %d: %w", r.table, item.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: update %s key %d: %w", r.table, item.Key(), err)
	}
	return int(n), nil
}

// Delete removes the stored record carrying item's key. Returns the number
// of records deleted (0 or 1); a non-positive key deletes nothing without
// error.
func (r *Repository[T]) Delete(item T) (int, error) {
	if types.IsNil(item) {
		return 0, types.ErrNilItem
	}
	if item.Key() <= 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, types.ErrClosed
	}

	res, err := r.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, r.table), item.Key())
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete %s key %d: %w", r.table, item.Key(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete %s key %d: %w", r.table, item.Key(), err)
	}
	return int(n), nil
}

// Close releases the database handle. Idempotent.
func (r *Repository[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}
