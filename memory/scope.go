package memory

import "runtime"

// Scope is the RAII allocator scope from spec.md §4.6: it pushes an
// allocator id as "current" when opened, and pops it on Close, recording
// the snapshot each allocator needs to detect leaks or roll back a
// temporary stack.
//
// Go has no destructors, so Close plays the role of the original's
// destructor - callers are expected to `defer scope.Close()` immediately
// after BeginScope, the same way the original declares the guard on the
// stack at the point a scope should begin.
type Scope struct {
	manager      *Manager
	thisID       ID
	previousID   ID
	goroutineID  uint64
	initialCount uintptr
	initialBytes uintptr
	closed       bool
}

// ThisID returns the allocator id this scope made current.
func (s *Scope) ThisID() ID { return s.thisID }

// CurrentAllocationCount delegates to the allocator identified by ThisID.
func (s *Scope) CurrentAllocationCount() uintptr {
	return s.manager.allocatorFor(s.thisID).AllocationCount()
}

// CurrentBytesAllocated delegates to the allocator identified by ThisID.
func (s *Scope) CurrentBytesAllocated() uintptr {
	return s.manager.allocatorFor(s.thisID).BytesAllocated()
}

// Close ends the scope, restoring the previous current-allocator id and
// running the allocator's EndScope hook (leak assertion, temp-stack
// rewind, or scratchpad section close). Close is idempotent; calling it
// more than once after the first is a no-op, matching defer-safe usage.
//
// Calling Close from a different goroutine than the one that opened the
// scope is a fatal assertion (spec.md §4.6, "cross-thread scope transfer is
// forbidden"); the original enforces this at the type level via a
// non-movable stack guard, which Go cannot express, so it is enforced at
// runtime instead.
func (s *Scope) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.manager.endScope(s)
}

// getGoroutineID returns the calling goroutine's numeric id, parsed from the
// "goroutine NNN [...]" header runtime.Stack writes. This is the same
// technique eventloop.Loop uses (getGoroutineID in loop.go) to confine a
// fast path to its owning goroutine; here it confines a Scope to the
// goroutine that opened it, since Go offers no native thread-local storage.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
