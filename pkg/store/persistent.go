package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/pantry/pkg/diff"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Options configure a Persistent store.
type Options struct {
	// TrackChanges wires in-place field mutations of stored records to the
	// repository through the binder: an edited record is re-persisted
	// without an explicit store call.
	TrackChanges bool

	// OnPersistError receives failures from change-tracking persistence,
	// which fires from a field setter and has no caller to return an error
	// to. Nil discards them; either way memory and backend have diverged
	// and the owner decides whether to re-Write or reload.
	OnPersistError func(error)
}

// Persistent composes an observable Set with a repository handle for the
// same entity type and keeps the two in sync write-through: every accepted
// in-memory mutation immediately triggers the corresponding backend
// mutation before the call returns.
//
// The persistence strategy follows the repository's capability tier.
// Granular repositories get single-record Delete/Update calls; snapshot-only
// repositories re-Write the full current state. Accepted inserts always
// re-Write the full state on either tier, since no incremental insert
// primitive exists and the full Write is also what assigns fresh surrogate
// keys.
//
// A persistence failure propagates to the caller but the in-memory mutation
// is not rolled back: after such an error, memory and backend are divergent
// and the caller reconciles by re-Writing or reloading.
type Persistent[T types.Entity] struct {
	set      *Set[T]
	repo     types.Snapshot[T]
	granular types.Granular[T] // nil when repo is snapshot-only
	binder   *Binder[T]
	release  func()
	errh     func(error)

	closeOnce sync.Once
	closeErr  error
}

// NewPersistent wraps set (nil for a fresh unmarshaled set) and repo.
// Construction never touches the backend; call Load explicitly to populate
// the set from storage.
func NewPersistent[T types.Entity](set *Set[T], repo types.Snapshot[T], opts Options) (*Persistent[T], error) {
	if repo == nil {
		return nil, types.ErrNilRepository
	}
	if set == nil {
		set = NewSet[T](nil, nil)
	}
	p := &Persistent[T]{
		set:  set,
		repo: repo,
		errh: opts.OnPersistError,
	}
	p.granular, _ = repo.(types.Granular[T])
	p.binder = NewBinder(opts.TrackChanges, p.persistChange)
	p.release = p.binder.BindSet(set)
	return p, nil
}

// Load replaces the in-memory contents with the repository's current state.
// Idempotent; safe to call again to reconcile after a persistence failure.
func (p *Persistent[T]) Load() error {
	items, err := p.repo.Load()
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	p.set.Clear()
	if items == nil {
		items = []T{}
	}
	if _, err := p.set.AddRange(items); err != nil {
		return err
	}
	return nil
}

// Add inserts item into the in-memory set and, if accepted, persists the
// updated state. Returns whether the set changed.
func (p *Persistent[T]) Add(item T) (bool, error) {
	added, err := p.set.Add(item)
	if err != nil || !added {
		return added, err
	}
	if err := p.repo.Write(p.set.Items()); err != nil {
		return true, fmt.Errorf("persist add: %w", err)
	}
	return true, nil
}

// Remove deletes item from the in-memory set and, on success, persists the
// removal: a single Delete on a granular repository, a full re-Write
// otherwise.
func (p *Persistent[T]) Remove(item T) (bool, error) {
	removed, err := p.set.Remove(item)
	if err != nil || !removed {
		return removed, err
	}
	if p.granular != nil {
		if _, err := p.granular.Delete(item); err != nil {
			return true, fmt.Errorf("persist remove: %w", err)
		}
		return true, nil
	}
	if err := p.repo.Write(p.set.Items()); err != nil {
		return true, fmt.Errorf("persist remove: %w", err)
	}
	return true, nil
}

// AddRange applies Add per element, skipping nil elements, and returns how
// many were inserted. Stops at the first persistence failure.
func (p *Persistent[T]) AddRange(items []T) (int, error) {
	if items == nil {
		return 0, types.ErrNilItems
	}
	var n int
	for _, it := range items {
		if types.IsNil(it) {
			continue
		}
		added, err := p.Add(it)
		if added {
			n++
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// RemoveRange applies Remove per element, skipping nil elements, and
// returns how many were removed. Stops at the first persistence failure.
func (p *Persistent[T]) RemoveRange(items []T) (int, error) {
	if items == nil {
		return 0, types.ErrNilItems
	}
	var n int
	for _, it := range items {
		if types.IsNil(it) {
			continue
		}
		removed, err := p.Remove(it)
		if removed {
			n++
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// RemoveWhere removes every element satisfying pred and persists the
// removals. Returns how many were removed.
func (p *Persistent[T]) RemoveWhere(pred func(T) bool) (int, error) {
	removed, err := p.set.removeWhere(pred)
	if err != nil {
		return 0, err
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if p.granular != nil {
		var errs []error
		for _, it := range removed {
			if _, err := p.granular.Delete(it); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return len(removed), fmt.Errorf("persist remove: %w", err)
		}
		return len(removed), nil
	}
	if err := p.repo.Write(p.set.Items()); err != nil {
		return len(removed), fmt.Errorf("persist remove: %w", err)
	}
	return len(removed), nil
}

// Sync reconciles the store with desired: entries whose content changed per
// same are replaced and updated, entries absent from desired are removed,
// and zero-key entries are inserted. A nil same falls back to the set's
// comparer (key equality by default, under which no content change is ever
// detected). Keyed desired entries absent from the store are ignored; a
// reassigned external key must not resurrect a record here.
//
// Granular repositories take per-record Delete/Update calls; snapshot-only
// repositories, and any tier with inserts, settle with one full re-Write.
func (p *Persistent[T]) Sync(desired []T, same types.Comparer[T]) error {
	if desired == nil {
		return types.ErrNilItems
	}
	for _, it := range desired {
		if types.IsNil(it) {
			return types.ErrNilElement
		}
	}
	if same == nil {
		same = p.set.equal
	}
	d := diff.Build(p.set.Items(), desired, func(it T) int64 { return it.Key() }, same, false)
	if len(d.ToUpdate) == 0 && len(d.ToDeleteIDs) == 0 && len(d.ToInsert) == 0 {
		return nil
	}

	if len(d.ToDeleteIDs) > 0 {
		ids := make(map[int64]bool, len(d.ToDeleteIDs))
		for _, id := range d.ToDeleteIDs {
			ids[id] = true
		}
		removed, err := p.set.removeWhere(func(it T) bool { return ids[it.Key()] })
		if err != nil {
			return err
		}
		if p.granular != nil {
			var errs []error
			for _, it := range removed {
				if _, err := p.granular.Delete(it); err != nil {
					errs = append(errs, err)
				}
			}
			if err := errors.Join(errs...); err != nil {
				return fmt.Errorf("persist remove: %w", err)
			}
		}
	}

	// Swap each stale in-memory instance for its desired replacement; the
	// membership events re-point change tracking at the new instance.
	for _, it := range d.ToUpdate {
		key := it.Key()
		if _, err := p.set.removeWhere(func(old T) bool { return old.Key() == key }); err != nil {
			return err
		}
		if _, err := p.set.Add(it); err != nil {
			return err
		}
		if p.granular != nil {
			if _, err := p.granular.Update(it); err != nil {
				return fmt.Errorf("persist update: %w", err)
			}
		}
	}

	for _, it := range d.ToInsert {
		if _, err := p.set.Add(it); err != nil {
			return err
		}
	}

	// One settling Write covers every snapshot-only mutation and assigns
	// keys to the inserts on either tier.
	if p.granular == nil || len(d.ToInsert) > 0 {
		if err := p.repo.Write(p.set.Items()); err != nil {
			return fmt.Errorf("persist sync: %w", err)
		}
	}
	return nil
}

// Clear empties the in-memory set and the backend.
func (p *Persistent[T]) Clear() error {
	p.set.Clear()
	if err := p.repo.Clear(); err != nil {
		return fmt.Errorf("persist clear: %w", err)
	}
	return nil
}

// Contains reports whether an equal item is present in memory.
func (p *Persistent[T]) Contains(item T) bool { return p.set.Contains(item) }

// Items returns a snapshot copy of the in-memory set in insertion order.
func (p *Persistent[T]) Items() []T { return p.set.Items() }

// Len returns the number of items present in memory.
func (p *Persistent[T]) Len() int { return p.set.Len() }

// Subscribe registers fn for in-memory membership changes.
func (p *Persistent[T]) Subscribe(fn func(Change[T])) (cancel func()) {
	return p.set.Subscribe(fn)
}

// persistChange is the binder callback for tracked in-place edits.
func (p *Persistent[T]) persistChange(item T) {
	var err error
	if p.granular != nil {
		_, err = p.granular.Update(item)
	} else {
		err = p.repo.Write(p.set.Items())
	}
	if err != nil && p.errh != nil {
		p.errh(fmt.Errorf("persist change: %w", err))
	}
}

// Close releases the binder subscriptions, the repository handle, and the
// in-memory set. Idempotent; repeated calls return the first result.
func (p *Persistent[T]) Close() error {
	p.closeOnce.Do(func() {
		p.release()
		p.closeErr = errors.Join(p.repo.Close(), p.set.Close())
	})
	return p.closeErr
}
