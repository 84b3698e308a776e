package memory

import "unsafe"

// WithScope opens a scope on id, runs fn, and closes the scope afterward
// even if fn panics - the Go idiom for the original's stack-allocated RAII
// guard (spec.md §4.6), useful when the scope's lifetime is exactly one
// function call.
func (m *Manager) WithScope(id ID, fn func(scope *Scope)) {
	scope := m.BeginScope(id)
	defer scope.Close()
	fn(scope)
}

// New allocates space for and zero-initializes a T using the given
// allocator id, returning a pointer into manager-owned memory. This is the
// Go rendition of hxUniquePtr layered over the permanent allocator
// (SPEC_FULL.md §3): a single-owner pointer that is never reallocated and,
// for the permanent allocator, only ever reclaimed diagnostically.
func New[T any](m *Manager, id ID) *T {
	size := unsafe.Sizeof(*new(T))
	align := unsafe.Alignof(*new(T))
	if align < 1 {
		align = 1
	}
	ptr := m.Allocate(size, id, align)
	return (*T)(ptr)
}
