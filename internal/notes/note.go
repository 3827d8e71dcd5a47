// Package notes defines the Note entity managed by the pantry CLI. It
// doubles as the reference implementation of the entity contract: integer
// surrogate key, observable fields, key assignment left to the backend.
package notes

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Note entity errors.
var (
	ErrEmptyText = errors.New("text must not be empty")
)

// Note is a short text record. Field setters fire the embedded change
// signal, so a change-tracking store re-persists an edited note
// automatically.
type Note struct {
	types.Signal `json:"-"`

	ID        int64     `json:"id"`   // Surrogate key; zero until first persisted.
	Ref       string    `json:"ref"`  // UUID v7, stable across backends.
	Text      string    `json:"text"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an unpersisted note with a fresh Ref.
// Returns ErrEmptyText if text is empty.
func New(text string) (*Note, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	now := time.Now().UTC()
	return &Note{
		Ref:       uuid.Must(uuid.NewV7()).String(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Key implements types.Entity.
func (n *Note) Key() int64 { return n.ID }

// SetKey implements types.Entity. Deliberately does not fire the change
// signal: the key is storage metadata.
func (n *Note) SetKey(key int64) { n.ID = key }

// SetText updates the note text and notifies observers.
// Returns ErrEmptyText if text is empty.
func (n *Note) SetText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if n.Text == text {
		return nil
	}
	n.Text = text
	n.UpdatedAt = time.Now().UTC()
	n.Notify("Text")
	return nil
}

// SetPinned updates the pinned flag and notifies observers. Idempotent.
func (n *Note) SetPinned(pinned bool) {
	if n.Pinned == pinned {
		return
	}
	n.Pinned = pinned
	n.UpdatedAt = time.Now().UTC()
	n.Notify("Pinned")
}
