package types

import "reflect"

// Entity is implemented by every record a pantry store manages. The key is
// a backend-assigned integer surrogate: zero until the record is first
// persisted, then assigned exactly once by the repository that inserted it.
// Callers never assign keys themselves after that point.
//
// SetKey must not fire the entity's change signal. The key is storage
// metadata, not user-visible state.
type Entity interface {
	// Key returns the surrogate key, or zero if the entity has never been
	// persisted.
	Key() int64

	// SetKey records the surrogate key. Backends call this on first insert.
	SetKey(key int64)
}

// KeyField is the field name under which a misbehaving entity might report
// key changes. Binders filter this name out; well-behaved entities never
// notify it in the first place.
const KeyField = "Key"

// Comparer reports whether two values are the same record for
// deduplication purposes.
type Comparer[T any] func(a, b T) bool

// Equal is the default Comparer for entities: two entities are the same
// record when they are the same instance or carry the same key. Two
// unpersisted entities (both keys zero) therefore compare equal; callers
// that need to tell fresh records apart must rely on reference identity
// until the first write assigns keys.
func Equal[T Entity](a, b T) bool {
	if any(a) == any(b) {
		return true
	}
	return a.Key() == b.Key()
}

// IsNil reports whether v is nil, including a typed-nil pointer boxed in an
// interface. Stores and repositories use it to reject nil arguments before
// any mutation.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
