package dispatch

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Loop is a Context backed by a dedicated goroutine. Closures sent from
// other goroutines execute on the loop goroutine in dispatch order; the
// sender blocks until its closure returns. Closures sent from the loop
// goroutine itself run inline, so a dispatched closure may safely mutate
// the same store again.
type Loop struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}
	owner  atomic.Int64
}

type job struct {
	fn   func()
	done chan struct{}
}

// NewLoop starts the loop goroutine and returns once it is running.
func NewLoop() *Loop {
	l := &Loop{
		jobs: make(chan job),
		done: make(chan struct{}),
	}
	started := make(chan struct{})
	go l.run(started)
	<-started
	return l
}

func (l *Loop) run(started chan<- struct{}) {
	l.owner.Store(gid())
	close(started)
	for j := range l.jobs {
		j.fn()
		close(j.done)
	}
	close(l.done)
}

// Owns implements Context.
func (l *Loop) Owns() bool {
	return gid() == l.owner.Load()
}

// Send implements Context. After Close, Send degrades to inline execution
// on the caller rather than blocking forever.
func (l *Loop) Send(fn func()) {
	if l.Owns() {
		fn()
		return
	}
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		fn()
		return
	}
	j := job{fn: fn, done: make(chan struct{})}
	l.jobs <- j
	l.mu.RUnlock()
	<-j.done
}

// Close drains pending closures, stops the loop goroutine, and waits for it
// to exit. Idempotent. Must not be called from the loop goroutine itself.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.jobs)
	}
	l.mu.Unlock()
	<-l.done
	return nil
}

var stackPrefix = []byte("goroutine ")

// gid returns the current goroutine's id by parsing the first line of its
// stack trace ("goroutine N [running]:"). This is what lets Send detect
// re-entry from the loop goroutine without deadlocking on itself.
func gid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], stackPrefix)
	if i := bytes.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	id, _ := strconv.ParseInt(string(s), 10, 64)
	return id
}
