// Package dispatch models the designated execution context that observable
// stores marshal their mutations onto. The context is an explicit,
// injectable collaborator: callers that need UI-thread-style affinity run a
// Loop; everything else (including tests) injects Inline and pays no
// dispatch overhead.
package dispatch

// Context runs closures on one designated execution context.
type Context interface {
	// Owns reports whether the calling goroutine is the designated context.
	Owns() bool

	// Send runs fn on the designated context and blocks until it returns.
	// When the caller already owns the context, fn runs inline with no
	// dispatch overhead. Send is a synchronous hand-off, not fire-and-forget.
	Send(fn func())
}

// Inline is the no-op context: every caller owns it and closures run on the
// calling goroutine. It is the default when no context is supplied.
type Inline struct{}

// Owns implements Context.
func (Inline) Owns() bool { return true }

// Send implements Context.
func (Inline) Send(fn func()) { fn() }
