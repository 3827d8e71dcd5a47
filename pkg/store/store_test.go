package store

import (
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// item is the observable test entity shared by the package tests.
type item struct {
	types.Signal
	ID     int64
	Val    string
	closed int
}

func newItem(val string) *item { return &item{Val: val} }

func (i *item) Key() int64     { return i.ID }
func (i *item) SetKey(k int64) { i.ID = k }

func (i *item) SetVal(v string) {
	i.Val = v
	i.Notify("Val")
}

func (i *item) Close() error {
	i.closed++
	return nil
}

// plain is an entity without the Observable capability.
type plain struct {
	ID int64
}

func (p *plain) Key() int64     { return p.ID }
func (p *plain) SetKey(k int64) { p.ID = k }

// fakeSnapshot is a snapshot-only in-memory repository that counts calls.
type fakeSnapshot struct {
	stored  []*item
	lastKey int64

	loads    int
	writes   int
	clears   int
	closes   int
	failNext error
}

func (f *fakeSnapshot) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeSnapshot) Load() ([]*item, error) {
	f.loads++
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	out := make([]*item, len(f.stored))
	copy(out, f.stored)
	return out, nil
}

func (f *fakeSnapshot) Write(items []*item) error {
	f.writes++
	if items == nil {
		return types.ErrNilItems
	}
	if err := f.takeErr(); err != nil {
		return err
	}
	for _, it := range items {
		if it.Key() > f.lastKey {
			f.lastKey = it.Key()
		}
	}
	for _, it := range items {
		if it.Key() == 0 {
			f.lastKey++
			it.SetKey(f.lastKey)
		}
	}
	f.stored = make([]*item, len(items))
	copy(f.stored, items)
	return nil
}

func (f *fakeSnapshot) Clear() error {
	f.clears++
	if err := f.takeErr(); err != nil {
		return err
	}
	f.stored = nil
	return nil
}

func (f *fakeSnapshot) Close() error {
	f.closes++
	return nil
}

// fakeGranular adds counted Update/Delete on top of fakeSnapshot.
type fakeGranular struct {
	fakeSnapshot
	updates int
	deletes int
}

func (f *fakeGranular) Update(it *item) (int, error) {
	f.updates++
	if err := f.takeErr(); err != nil {
		return 0, err
	}
	if it.Key() <= 0 {
		return 0, types.ErrInvalidKey
	}
	for i, s := range f.stored {
		if s.Key() == it.Key() {
			f.stored[i] = it
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeGranular) Delete(it *item) (int, error) {
	f.deletes++
	if err := f.takeErr(); err != nil {
		return 0, err
	}
	if it.Key() <= 0 {
		return 0, nil
	}
	for i, s := range f.stored {
		if s.Key() == it.Key() {
			f.stored = append(f.stored[:i], f.stored[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}
