package types

import "sync"

// Observable is the optional capability a record exposes for per-field
// change notification. A record without it has no auto-persistence for
// in-place edits; binders treat its absence as a no-op.
type Observable interface {
	// OnChange registers fn to be called with the name of each field that
	// changes. The returned cancel func removes the registration and is
	// safe to call more than once.
	OnChange(fn func(field string)) (cancel func())
}

// Signal is an embeddable Observable implementation. The zero value is
// ready to use; entities call Notify from their field setters.
type Signal struct {
	mu   sync.Mutex
	next int
	subs map[int]func(string)
}

// OnChange implements Observable.
func (s *Signal) OnChange(fn func(field string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(string))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Notify delivers a field change to every registered observer. Observers
// run on the calling goroutine, outside the signal's lock.
func (s *Signal) Notify(field string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(field)
	}
}
