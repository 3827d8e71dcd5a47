package types

import (
	"errors"
	"io"
)

// Snapshot is the base repository capability tier: whole-collection
// load/replace/clear, atomic per call. A Snapshot handle is bound to one
// entity type and one backend instance; it owns backend resources and is
// released through Close, which must be idempotent.
type Snapshot[T Entity] interface {
	io.Closer

	// Load returns every stored entity in storage order. An empty backend
	// yields an empty (or nil) slice, not an error.
	Load() ([]T, error)

	// Write atomically replaces the entire stored collection with items.
	// Zero-key items receive their surrogate key during the write. Rejects
	// a nil slice with ErrNilItems and nil elements with ErrNilElement.
	Write(items []T) error

	// Clear removes every stored entity. Equivalent to Write of an empty
	// collection.
	Clear() error
}

// Granular extends Snapshot with single-record update and delete, keyed by
// the entity's surrogate key. Implementers choose the tier they can
// support; stores detect Granular with a type assertion.
type Granular[T Entity] interface {
	Snapshot[T]

	// Update replaces the stored record with item's key and returns the
	// number of records updated (0 or 1). A non-positive key is rejected
	// with ErrInvalidKey rather than silently succeeding.
	Update(item T) (int, error)

	// Delete removes the stored record with item's key and returns the
	// number of records deleted (0 or 1). A non-positive key deletes
	// nothing and returns 0 without error.
	Delete(item T) (int, error)
}

// Argument and lifecycle errors shared by repositories and stores.
var (
	ErrNilItem       = errors.New("item must not be nil")
	ErrNilItems      = errors.New("items must not be nil")
	ErrNilElement    = errors.New("items must not contain nil elements")
	ErrNilPredicate  = errors.New("predicate must not be nil")
	ErrNilProvider   = errors.New("repository provider must not be nil")
	ErrNilRepository = errors.New("repository must not be nil")
	ErrInvalidKey    = errors.New("invalid entity key")
	ErrClosed        = errors.New("repository is closed")
)
