// Package diff computes the insert/update/delete delta that transforms an
// existing persisted collection into a desired one.
package diff

import "github.com/mesh-intelligence/pantry/pkg/types"

// Delta is the result of Build: three disjoint lists that together explain
// the difference between the existing and desired collections. No key
// appears in more than one list.
type Delta[T any] struct {
	// ToUpdate holds desired entries whose key exists on both sides but
	// whose content differs per the comparer.
	ToUpdate []T

	// ToDeleteIDs holds keys present in existing but absent from desired.
	ToDeleteIDs []int64

	// ToInsert holds zero-key desired entries, plus (when requested)
	// keyed desired entries whose key is absent from existing.
	ToInsert []T
}

// Build partitions existing and desired by key and computes the delta.
// Entries with key > 0 are matched by key; entries with key zero count as
// new. When missingAsInsert is true, a keyed desired entry whose key does
// not exist in existing is treated as an insert rather than ignored. That
// can resurrect records whose keys were reassigned externally, so it is an
// explicit opt-in.
//
// Output lists preserve the relative order of their source sequence. When
// one side carries duplicate keys, the last occurrence wins while building
// the index.
func Build[T any](existing, desired []T, key func(T) int64, equal types.Comparer[T], missingAsInsert bool) Delta[T] {
	// Index keyed entries by key; the last occurrence of a duplicate key
	// within one side wins.
	index := func(items []T) map[int64]int {
		m := make(map[int64]int, len(items))
		for i, it := range items {
			if k := key(it); k > 0 {
				m[k] = i
			}
		}
		return m
	}
	oldIdx := index(existing)
	newIdx := index(desired)

	var d Delta[T]
	for i, it := range desired {
		k := key(it)
		if k <= 0 {
			d.ToInsert = append(d.ToInsert, it)
			continue
		}
		if newIdx[k] != i {
			// Shadowed by a later duplicate.
			continue
		}
		oi, ok := oldIdx[k]
		switch {
		case ok && !equal(existing[oi], it):
			d.ToUpdate = append(d.ToUpdate, it)
		case !ok && missingAsInsert:
			d.ToInsert = append(d.ToInsert, it)
		}
	}
	for i, it := range existing {
		k := key(it)
		if k <= 0 || oldIdx[k] != i {
			continue
		}
		if _, ok := newIdx[k]; !ok {
			d.ToDeleteIDs = append(d.ToDeleteIDs, k)
		}
	}
	return d
}
