package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testItem struct {
	Signal
	ID  int64
	Val string
}

func (i *testItem) Key() int64     { return i.ID }
func (i *testItem) SetKey(k int64) { i.ID = k }

func TestEqual(t *testing.T) {
	shared := &testItem{ID: 7}

	tests := []struct {
		name string
		a, b *testItem
		want bool
	}{
		{
			name: "same instance",
			a:    shared,
			b:    shared,
			want: true,
		},
		{
			name: "equal nonzero keys",
			a:    &testItem{ID: 3, Val: "a"},
			b:    &testItem{ID: 3, Val: "b"},
			want: true,
		},
		{
			name: "different keys",
			a:    &testItem{ID: 3},
			b:    &testItem{ID: 4},
			want: false,
		},
		{
			name: "both unassigned compare equal",
			a:    &testItem{Val: "x"},
			b:    &testItem{Val: "y"},
			want: true,
		},
		{
			name: "assigned vs unassigned",
			a:    &testItem{ID: 3},
			b:    &testItem{},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestIsNil(t *testing.T) {
	var typedNil *testItem

	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(typedNil))
	assert.False(t, IsNil(&testItem{}))
	assert.False(t, IsNil(42))
}
