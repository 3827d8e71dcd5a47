package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

type rec struct {
	ID  int64
	Val string
}

func (r *rec) Key() int64     { return r.ID }
func (r *rec) SetKey(k int64) { r.ID = k }

func key(r *rec) int64 { return r.ID }

// sameVal compares content, not identity.
func sameVal(a, b *rec) bool { return a.Val == b.Val }

func TestBuild(t *testing.T) {
	tests := []struct {
		name            string
		existing        []*rec
		desired         []*rec
		missingAsInsert bool
		wantUpdate      []*rec
		wantDeleteIDs   []int64
		wantInsert      []*rec
	}{
		{
			name:       "changed content and fresh record",
			existing:   []*rec{{ID: 1, Val: "a"}},
			desired:    []*rec{{ID: 1, Val: "b"}, {ID: 0, Val: "c"}},
			wantUpdate: []*rec{{ID: 1, Val: "b"}},
			wantInsert: []*rec{{ID: 0, Val: "c"}},
		},
		{
			name:          "record gone from desired is deleted",
			existing:      []*rec{{ID: 1, Val: "a"}, {ID: 2, Val: "b"}},
			desired:       []*rec{{ID: 1, Val: "a"}},
			wantDeleteIDs: []int64{2},
		},
		{
			name:     "identical sides produce empty delta",
			existing: []*rec{{ID: 1, Val: "a"}},
			desired:  []*rec{{ID: 1, Val: "a"}},
		},
		{
			name:     "keyed desired absent from existing is ignored by default",
			existing: []*rec{},
			desired:  []*rec{{ID: 9, Val: "ghost"}},
		},
		{
			name:            "keyed desired absent from existing inserts when opted in",
			existing:        []*rec{},
			desired:         []*rec{{ID: 9, Val: "ghost"}},
			missingAsInsert: true,
			wantInsert:      []*rec{{ID: 9, Val: "ghost"}},
		},
		{
			name:          "mixed delta",
			existing:      []*rec{{ID: 1, Val: "a"}, {ID: 2, Val: "b"}, {ID: 3, Val: "c"}},
			desired:       []*rec{{ID: 3, Val: "C"}, {ID: 1, Val: "a"}, {ID: 0, Val: "new"}},
			wantUpdate:    []*rec{{ID: 3, Val: "C"}},
			wantDeleteIDs: []int64{2},
			wantInsert:    []*rec{{ID: 0, Val: "new"}},
		},
		{
			name:          "duplicate keys last write wins",
			existing:      []*rec{{ID: 1, Val: "old"}, {ID: 1, Val: "a"}, {ID: 2, Val: "b"}},
			desired:       []*rec{{ID: 1, Val: "stale"}, {ID: 1, Val: "a"}},
			wantDeleteIDs: []int64{2},
		},
		{
			name:       "insert order follows desired order",
			existing:   []*rec{},
			desired:    []*rec{{Val: "first"}, {Val: "second"}},
			wantInsert: []*rec{{Val: "first"}, {Val: "second"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Build(tt.existing, tt.desired, key, sameVal, tt.missingAsInsert)
			assert.Equal(t, tt.wantUpdate, d.ToUpdate, "ToUpdate")
			assert.Equal(t, tt.wantDeleteIDs, d.ToDeleteIDs, "ToDeleteIDs")
			assert.Equal(t, tt.wantInsert, d.ToInsert, "ToInsert")
		})
	}
}

func TestBuildListsAreDisjoint(t *testing.T) {
	existing := []*rec{{ID: 1, Val: "a"}, {ID: 2, Val: "b"}}
	desired := []*rec{{ID: 1, Val: "A"}, {ID: 0, Val: "n"}, {ID: 5, Val: "m"}}

	d := Build(existing, desired, key, sameVal, true)

	seen := map[int64]bool{}
	for _, r := range d.ToUpdate {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
	}
	for _, id := range d.ToDeleteIDs {
		assert.False(t, seen[id])
		seen[id] = true
	}
	for _, r := range d.ToInsert {
		if r.ID > 0 {
			assert.False(t, seen[r.ID])
			seen[r.ID] = true
		}
	}
}

func TestBuildWithDefaultComparer(t *testing.T) {
	// Under key equality, same-key records never count as changed.
	existing := []*rec{{ID: 1, Val: "a"}}
	desired := []*rec{{ID: 1, Val: "b"}}

	d := Build(existing, desired, key, types.Equal[*rec], false)
	assert.Empty(t, d.ToUpdate)
	assert.Empty(t, d.ToDeleteIDs)
	assert.Empty(t, d.ToInsert)
}
