// Package store implements the in-memory observable set, the
// change-notification binder, and the write-through persistent store built
// from them.
package store

import (
	"io"

	"github.com/mesh-intelligence/pantry/pkg/dispatch"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Op identifies a membership change in a Set.
type Op int

const (
	// OpAdd means an item was inserted.
	OpAdd Op = iota
	// OpRemove means an item was removed.
	OpRemove
	// OpReset means the set was cleared in bulk. Change.Item is the zero
	// value.
	OpReset
)

// Change describes one membership change delivered to subscribers.
type Change[T any] struct {
	Op   Op
	Item T
}

// Set holds a deduplicated, insertion-ordered collection of entities.
// Every mutation is marshaled onto the designated execution context: a
// caller on another goroutine blocks until the owning context has applied
// the change, and a caller already on the owning context mutates inline.
// Consumers observing the set from the owning context therefore never see
// a mutation in progress and need no locking of their own.
type Set[T types.Entity] struct {
	ctx   dispatch.Context
	equal types.Comparer[T]

	// Mutated only on ctx.
	items   []T
	subs    map[int]func(Change[T])
	nextSub int
	closed  bool
}

// NewSet creates an empty set. A nil ctx means no marshaling (everything
// runs on the calling goroutine); a nil equal falls back to key equality.
func NewSet[T types.Entity](ctx dispatch.Context, equal types.Comparer[T]) *Set[T] {
	if ctx == nil {
		ctx = dispatch.Inline{}
	}
	if equal == nil {
		equal = types.Equal[T]
	}
	return &Set[T]{ctx: ctx, equal: equal}
}

// Add inserts item unless an equal item is already present. Returns true
// when the set changed. A nil item is rejected with ErrNilItem before any
// mutation.
func (s *Set[T]) Add(item T) (bool, error) {
	if types.IsNil(item) {
		return false, types.ErrNilItem
	}
	var added bool
	s.ctx.Send(func() { added = s.add(item) })
	return added, nil
}

// add runs on the owning context.
func (s *Set[T]) add(item T) bool {
	if s.closed {
		// A disposed set must not silently hold on to a live resource.
		if c, ok := any(item).(io.Closer); ok {
			_ = c.Close()
		}
		return false
	}
	if s.contains(item) {
		return false
	}
	s.items = append(s.items, item)
	s.notify(Change[T]{Op: OpAdd, Item: item})
	return true
}

// Remove deletes the first item equal to the argument. Returns true when
// the set changed. A nil item is rejected with ErrNilItem.
func (s *Set[T]) Remove(item T) (bool, error) {
	if types.IsNil(item) {
		return false, types.ErrNilItem
	}
	var removed bool
	s.ctx.Send(func() { removed = s.remove(item) })
	return removed, nil
}

// remove runs on the owning context.
func (s *Set[T]) remove(item T) bool {
	for i, it := range s.items {
		if s.equal(it, item) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.notify(Change[T]{Op: OpRemove, Item: it})
			return true
		}
	}
	return false
}

// AddRange applies Add per element and returns the number of elements
// actually inserted. Nil elements are skipped silently; a nil slice is
// rejected with ErrNilItems.
func (s *Set[T]) AddRange(items []T) (int, error) {
	if items == nil {
		return 0, types.ErrNilItems
	}
	var n int
	s.ctx.Send(func() {
		for _, it := range items {
			if types.IsNil(it) {
				continue
			}
			if s.add(it) {
				n++
			}
		}
	})
	return n, nil
}

// RemoveRange applies Remove per element and returns the number of elements
// actually removed. Nil elements are skipped silently; a nil slice is
// rejected with ErrNilItems.
func (s *Set[T]) RemoveRange(items []T) (int, error) {
	if items == nil {
		return 0, types.ErrNilItems
	}
	var n int
	s.ctx.Send(func() {
		for _, it := range items {
			if types.IsNil(it) {
				continue
			}
			if s.remove(it) {
				n++
			}
		}
	})
	return n, nil
}

// Clear empties the set unconditionally and notifies subscribers with a
// single OpReset.
func (s *Set[T]) Clear() {
	s.ctx.Send(func() {
		if len(s.items) == 0 {
			return
		}
		s.items = nil
		s.notify(Change[T]{Op: OpReset})
	})
}

// RemoveWhere removes every currently-present element satisfying pred and
// returns how many were removed.
func (s *Set[T]) RemoveWhere(pred func(T) bool) (int, error) {
	removed, err := s.removeWhere(pred)
	return len(removed), err
}

// removeWhere returns the removed elements themselves, for callers (the
// persistent store) that need them after the fact.
func (s *Set[T]) removeWhere(pred func(T) bool) ([]T, error) {
	if pred == nil {
		return nil, types.ErrNilPredicate
	}
	var removed []T
	s.ctx.Send(func() {
		kept := s.items[:0]
		for _, it := range s.items {
			if pred(it) {
				removed = append(removed, it)
			} else {
				kept = append(kept, it)
			}
		}
		s.items = kept
		for _, it := range removed {
			s.notify(Change[T]{Op: OpRemove, Item: it})
		}
	})
	return removed, nil
}

// Contains reports whether an item equal to the argument is present.
func (s *Set[T]) Contains(item T) bool {
	if types.IsNil(item) {
		return false
	}
	var ok bool
	s.ctx.Send(func() { ok = s.contains(item) })
	return ok
}

// contains runs on the owning context.
func (s *Set[T]) contains(item T) bool {
	for _, it := range s.items {
		if s.equal(it, item) {
			return true
		}
	}
	return false
}

// Items returns a snapshot copy of the set in insertion order.
func (s *Set[T]) Items() []T {
	var out []T
	s.ctx.Send(func() {
		out = make([]T, len(s.items))
		copy(out, s.items)
	})
	return out
}

// Len returns the number of items present.
func (s *Set[T]) Len() int {
	var n int
	s.ctx.Send(func() { n = len(s.items) })
	return n
}

// Subscribe registers fn for membership changes. Notifications are
// delivered on the owning context, after the mutation has been applied.
// The returned cancel func removes the subscription and is safe to call
// more than once.
func (s *Set[T]) Subscribe(fn func(Change[T])) (cancel func()) {
	var id int
	s.ctx.Send(func() {
		if s.subs == nil {
			s.subs = make(map[int]func(Change[T]))
		}
		id = s.nextSub
		s.nextSub++
		s.subs[id] = fn
	})
	return func() {
		s.ctx.Send(func() { delete(s.subs, id) })
	}
}

// notify runs on the owning context.
func (s *Set[T]) notify(c Change[T]) {
	for _, fn := range s.subs {
		fn(c)
	}
}

// Close empties the set and drops all subscriptions. Further Adds are
// absorbed: the rejected item is closed if it is an io.Closer, so a
// disposed collection never strands a live resource. Idempotent.
func (s *Set[T]) Close() error {
	s.ctx.Send(func() {
		s.closed = true
		s.items = nil
		s.subs = nil
	})
	return nil
}
