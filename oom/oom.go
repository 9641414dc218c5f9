// Package oom holds the process-wide out-of-memory escalation hook.
//
// The hook is a single callback slot wired exactly once during allocator
// initialization and invoked from any exhaustion path, not only ones
// originating in the pool layer. There is no queue and no retry: one slot,
// one entry point. RunCallback before SetCallback is a safe no-op; the
// process is expected to die shortly after an invocation via the caller's
// own fatal path.
package oom

import "sync/atomic"

// callback is published with an atomic pointer so RunCallback on any
// thread observes a fully initialized function value without locking.
var callback atomic.Pointer[func()]

// SetCallback installs fn as the process-wide OOM hook. Installing a
// second callback, or a nil one, panics: the hook is wired exactly once
// at startup.
func SetCallback(fn func()) {
	if fn == nil {
		panic("oom: nil callback")
	}
	if !callback.CompareAndSwap(nil, &fn) {
		panic("oom: callback already set")
	}
}

// RunCallback invokes the installed hook, if any.
func RunCallback() {
	if fn := callback.Load(); fn != nil {
		(*fn)()
	}
}

// ResetForTesting clears the slot so a later SetCallback succeeds. Test
// harness use only.
func ResetForTesting() {
	callback.Store(nil)
}
