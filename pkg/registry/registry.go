// Package registry hands out singleton or scoped store instances per entity
// type, with creation on demand, optional eager load, explicit eviction,
// and bulk teardown.
package registry

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/mesh-intelligence/pantry/pkg/dispatch"
	"github.com/mesh-intelligence/pantry/pkg/store"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Registry is a thread-safe cache mapping entity type to one store
// instance. Its lock guards only the map itself; backend I/O (construction,
// eager load, disposal) always runs outside it.
type Registry struct {
	ctx dispatch.Context

	mu      sync.Mutex
	entries map[cacheKey]*entry
}

// cacheKey distinguishes the in-memory and persistent flavor of a type's
// singleton, so requesting both for the same entity type is well-defined.
type cacheKey struct {
	t          reflect.Type
	persistent bool
}

// entry is a cache slot. The sync.Once serializes construction and eager
// load so that concurrent requests for the same singleton share exactly one
// of each; ClearAll uses it to wait out an in-flight construction before
// disposing.
type entry struct {
	once sync.Once
	inst io.Closer
	err  error
}

// New creates a registry whose stores marshal mutations onto ctx. A nil
// ctx means no marshaling.
func New(ctx dispatch.Context) *Registry {
	if ctx == nil {
		ctx = dispatch.Inline{}
	}
	return &Registry{
		ctx:     ctx,
		entries: make(map[cacheKey]*entry),
	}
}

// InMemory returns an observable in-memory set for T. With singleton true
// the instance is cached and shared; otherwise every call constructs a
// fresh set the caller owns. A nil equal falls back to key equality.
func InMemory[T types.Entity](r *Registry, singleton bool, equal types.Comparer[T]) *store.Set[T] {
	if !singleton {
		return store.NewSet[T](r.ctx, equal)
	}
	key := cacheKey{t: reflect.TypeFor[T]()}
	e := r.slot(key)
	e.once.Do(func() {
		e.inst = store.NewSet[T](r.ctx, equal)
	})
	return e.inst.(*store.Set[T])
}

// PersistentOptions configure GetPersistent.
type PersistentOptions struct {
	// Singleton caches the instance per entity type; the provider and the
	// eager load run at most once regardless of how many callers ask.
	Singleton bool

	// TrackChanges binds in-place field edits of stored records to
	// repository updates.
	TrackChanges bool

	// AutoLoad populates the store from the backend during construction.
	// For a singleton this happens only on first construction, never on a
	// cache hit.
	AutoLoad bool

	// OnPersistError receives change-tracking persistence failures.
	OnPersistError func(error)
}

// GetPersistent returns a write-through persistent store for T backed by a
// repository from provider. The provider is only invoked when a new
// instance is actually constructed.
func GetPersistent[T types.Entity](r *Registry, provider func() (types.Snapshot[T], error), opts PersistentOptions) (*store.Persistent[T], error) {
	if provider == nil {
		return nil, types.ErrNilProvider
	}
	if !opts.Singleton {
		return buildPersistent(r, provider, opts)
	}
	key := cacheKey{t: reflect.TypeFor[T](), persistent: true}
	e := r.slot(key)
	e.once.Do(func() {
		e.inst, e.err = buildPersistent(r, provider, opts)
	})
	if e.err != nil {
		// Evict the failed slot so a later request can retry.
		r.evict(key, e)
		return nil, e.err
	}
	return e.inst.(*store.Persistent[T]), nil
}

// Result carries the outcome of an asynchronous store request.
type Result[T types.Entity] struct {
	Store *store.Persistent[T]
	Err   error
}

// GetPersistentAsync mirrors GetPersistent but performs construction and
// backend load off the calling goroutine, delivering the outcome on the
// returned channel. Singleton semantics (exactly one construction and one
// eager load) hold identically, shared with the synchronous variant.
func GetPersistentAsync[T types.Entity](r *Registry, provider func() (types.Snapshot[T], error), opts PersistentOptions) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		st, err := GetPersistent(r, provider, opts)
		ch <- Result[T]{Store: st, Err: err}
	}()
	return ch
}

func buildPersistent[T types.Entity](r *Registry, provider func() (types.Snapshot[T], error), opts PersistentOptions) (*store.Persistent[T], error) {
	repo, err := provider()
	if err != nil {
		return nil, fmt.Errorf("repository provider: %w", err)
	}
	p, err := store.NewPersistent(store.NewSet[T](r.ctx, nil), repo, store.Options{
		TrackChanges:   opts.TrackChanges,
		OnPersistError: opts.OnPersistError,
	})
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	if opts.AutoLoad {
		if err := p.Load(); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	return p, nil
}

// RemoveSingleton evicts and disposes T's cached singletons (both the
// in-memory and the persistent flavor). Returns whether any existed. A
// subsequent request constructs a fresh instance.
func RemoveSingleton[T types.Entity](r *Registry) bool {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	var evicted []*entry
	for _, key := range []cacheKey{{t: t}, {t: t, persistent: true}} {
		if e, ok := r.entries[key]; ok {
			delete(r.entries, key)
			evicted = append(evicted, e)
		}
	}
	r.mu.Unlock()
	for _, e := range evicted {
		e.dispose()
	}
	return len(evicted) > 0
}

// ClearAll evicts and disposes every cached instance. If disposing one
// fails the rest are still released and all failures are reported together.
// Safe to call repeatedly and on an empty cache.
func (r *Registry) ClearAll() error {
	r.mu.Lock()
	evicted := r.entries
	r.entries = make(map[cacheKey]*entry)
	r.mu.Unlock()

	var errs []error
	for _, e := range evicted {
		if err := e.dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close disposes every cached instance. Equivalent to ClearAll; the
// registry stays usable afterwards.
func (r *Registry) Close() error {
	return r.ClearAll()
}

// slot returns the cache entry for key, creating an empty one if needed.
func (r *Registry) slot(key cacheKey) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	return e
}

// evict removes key from the cache if it still maps to e.
func (r *Registry) evict(key cacheKey, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[key]; ok && cur == e {
		delete(r.entries, key)
	}
}

// dispose waits out an in-flight construction, then closes the instance.
func (e *entry) dispose() error {
	e.once.Do(func() {})
	if e.inst == nil {
		return nil
	}
	return e.inst.Close()
}
