package store

import (
	"sync"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Binder subscribes to per-record change signals and invokes one callback
// per relevant change. Records that do not expose the Observable capability
// are skipped: there is no auto-persistence for their in-place edits.
//
// A disabled binder turns every operation into a no-op, so stores created
// without change tracking carry no subscription overhead at all.
type Binder[T types.Entity] struct {
	enabled  bool
	onChange func(T)

	// Keyed by the interface-boxed item, so subscriptions follow instance
	// identity rather than entity equality. Entities are pointers, so the
	// boxed value is always a valid map key.
	mu   sync.Mutex
	subs map[any]func()
}

// NewBinder creates a binder that invokes onChange with the changed record.
// Changes to the surrogate-key field are filtered out.
func NewBinder[T types.Entity](enabled bool, onChange func(T)) *Binder[T] {
	return &Binder[T]{enabled: enabled, onChange: onChange}
}

// Attach subscribes to item's change signal. Idempotent: attaching an
// already-attached item keeps the existing subscription, so the callback
// still fires exactly once per change. Returns true when a new subscription
// was made; false for nil items, non-observable items, duplicates, and
// disabled binders.
func (b *Binder[T]) Attach(item T) bool {
	if !b.enabled || types.IsNil(item) {
		return false
	}
	obs, ok := any(item).(types.Observable)
	if !ok {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[item]; ok {
		return false
	}
	cancel := obs.OnChange(func(field string) {
		if field == types.KeyField {
			return
		}
		b.onChange(item)
	})
	if b.subs == nil {
		b.subs = make(map[any]func())
	}
	b.subs[item] = cancel
	return true
}

// Detach unsubscribes from item's change signal. A no-op for items that
// were never attached.
func (b *Binder[T]) Detach(item T) {
	if !b.enabled || types.IsNil(item) {
		return
	}
	b.mu.Lock()
	cancel, ok := b.subs[item]
	if ok {
		delete(b.subs, item)
	}
	b.mu.Unlock()
	if ok {
		cancel()
	}
}

// DetachAll unsubscribes from every attached item.
func (b *Binder[T]) DetachAll() {
	b.mu.Lock()
	cancels := make([]func(), 0, len(b.subs))
	for _, cancel := range b.subs {
		cancels = append(cancels, cancel)
	}
	b.subs = nil
	b.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// BindSet attaches to every item currently in s and follows its membership
// changes: future insertions are attached, removals detached, and a bulk
// reset detaches everything. The returned release func undoes the whole
// binding, store-level subscription included, and is safe to call more
// than once.
func (b *Binder[T]) BindSet(s *Set[T]) (release func()) {
	if !b.enabled {
		return func() {}
	}
	for _, it := range s.Items() {
		b.Attach(it)
	}
	cancel := s.Subscribe(func(c Change[T]) {
		switch c.Op {
		case OpAdd:
			b.Attach(c.Item)
		case OpRemove:
			b.Detach(c.Item)
		case OpReset:
			b.DetachAll()
		}
	})
	return func() {
		cancel()
		b.DetachAll()
	}
}
