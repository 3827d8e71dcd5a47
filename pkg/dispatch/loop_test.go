package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInline(t *testing.T) {
	var ctx Inline
	assert.True(t, ctx.Owns())

	ran := false
	ctx.Send(func() { ran = true })
	assert.True(t, ran, "Send must run synchronously")
}

func TestLoopSendRunsOnLoopGoroutine(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	assert.False(t, l.Owns(), "test goroutine must not own the loop")

	var ownsInside bool
	l.Send(func() { ownsInside = l.Owns() })
	assert.True(t, ownsInside, "dispatched closure must run on the owning goroutine")
}

func TestLoopSendBlocksUntilDone(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	// After Send returns, its effect must be visible to the caller.
	n := 0
	l.Send(func() { n = 42 })
	assert.Equal(t, 42, n)
}

func TestLoopReentrantSend(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var inner bool
	l.Send(func() {
		// A dispatched closure sending again must run inline, not deadlock.
		l.Send(func() { inner = true })
	})
	assert.True(t, inner)
}

func TestLoopSerializesConcurrentSends(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	const goroutines = 16
	const perGoroutine = 50

	n := 0
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				l.Send(func() { n++ })
			}
		}()
	}
	wg.Wait()

	var got int
	l.Send(func() { got = n })
	require.Equal(t, goroutines*perGoroutine, got)
}

func TestLoopClose(t *testing.T) {
	l := NewLoop()
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "Close must be idempotent")

	// Send after Close degrades to inline execution.
	ran := false
	l.Send(func() { ran = true })
	assert.True(t, ran)
}
