// Package container implements the Hatchling allocator-backed containers:
// a fixed/dynamic array (spec.md §4.7) and an intrusive hash table (§4.8).
// Both attribute their backing storage to a *memory.Manager allocator id with
// a bookkeeping allocation, matching the original's "everything routes
// through one of four allocators" discipline; the Go slice remains the real
// backing store.
package container

import (
	"unsafe"

	"github.com/joeycumines/hatchling/memory"
)

// Array is the Go rendition of hxArray: a slice-backed sequence that
// reserves its backing storage at most once from a chosen allocator id and
// never reallocates - growth beyond the reserved capacity is a release
// assertion failure, not an automatic reallocation, because the original's
// bump allocators cannot free an interior block to grow in place.
type Array[T any] struct {
	manager  *memory.Manager
	id       memory.ID
	s        []T
	reserved bool
}

// NewArray creates an Array whose storage, once reserved, is allocated from
// id on m. Capacity is unset until Reserve is called.
func NewArray[T any](m *memory.Manager, id memory.ID) *Array[T] {
	return &Array[T]{manager: m, id: id}
}

// Reserve allocates backing storage for at least n elements. Per spec.md
// §4.7, reserve may be called at most once; a second call asking for more
// than the existing capacity is fatal, mirroring hxArray::reserve's
// "no reallocation" assertion. Reserve(0) reserves nothing and leaves the
// array free to be reserved later.
func (a *Array[T]) Reserve(n int) {
	if a.reserved {
		assertRelease(n <= cap(a.s), "array: reserve called more than once")
		return
	}
	if n > 0 {
		a.s = make([]T, 0, n)
		if a.manager != nil {
			// Touch the allocator so its accounting reflects this
			// reservation, matching the original routing every array's
			// storage through the memory manager; the Go slice itself
			// remains the real backing store.
			var zero T
			_ = a.manager.Allocate(uintptr(n)*unsafe.Sizeof(zero), a.id, unsafe.Alignof(zero))
		}
		a.reserved = true
	}
}

// Len returns the current element count.
func (a *Array[T]) Len() int { return len(a.s) }

// Cap returns the reserved capacity.
func (a *Array[T]) Cap() int { return cap(a.s) }

// Empty reports whether the array holds no elements.
func (a *Array[T]) Empty() bool { return len(a.s) == 0 }

// Full reports whether Len equals Cap.
func (a *Array[T]) Full() bool { return len(a.s) == cap(a.s) }

// At returns a pointer to the element at index, matching operator[]'s
// release-mode bounds assertion.
func (a *Array[T]) At(index int) *T {
	assertRelease(index >= 0 && index < len(a.s), "array: index out of range")
	return &a.s[index]
}

// Front returns a pointer to the first element.
func (a *Array[T]) Front() *T {
	assertRelease(len(a.s) > 0, "array: front of empty array")
	return &a.s[0]
}

// Back returns a pointer to the last element.
func (a *Array[T]) Back() *T {
	assertRelease(len(a.s) > 0, "array: back of empty array")
	return &a.s[len(a.s)-1]
}

// PushBack appends a copy of v, asserting capacity is not exceeded - the
// array never silently reallocates (spec.md §4.7).
func (a *Array[T]) PushBack(v T) {
	assertRelease(len(a.s) < cap(a.s), "array: push_back exceeds reserved capacity")
	a.s = append(a.s, v)
}

// EmplaceBack grows the array by one and returns a pointer to the new,
// zero-valued element for in-place construction.
func (a *Array[T]) EmplaceBack() *T {
	var zero T
	a.PushBack(zero)
	return &a.s[len(a.s)-1]
}

// PopBack removes the last element.
func (a *Array[T]) PopBack() {
	assertRelease(len(a.s) > 0, "array: pop_back of empty array")
	a.s = a.s[:len(a.s)-1]
}

// Clear truncates the array to zero length without releasing capacity.
func (a *Array[T]) Clear() { a.s = a.s[:0] }

// Resize grows or shrinks the array to exactly sz elements, default-valuing
// any newly exposed slots, matching hxArray::resize.
func (a *Array[T]) Resize(sz int) {
	assertRelease(sz <= cap(a.s), "array: resize exceeds reserved capacity")
	if sz >= len(a.s) {
		for len(a.s) < sz {
			var zero T
			a.s = append(a.s, zero)
		}
	} else {
		a.s = a.s[:sz]
	}
}

// EraseUnordered removes the element at index by swapping the last element
// into its place, per spec.md §4.7.
func (a *Array[T]) EraseUnordered(index int) {
	assertRelease(index >= 0 && index < len(a.s), "array: erase_unordered out of range")
	last := len(a.s) - 1
	if index != last {
		a.s[index] = a.s[last]
	}
	a.s = a.s[:last]
}

// Erase removes the element at index, shifting subsequent elements down -
// the ordered variant that standard containers call erase.
func (a *Array[T]) Erase(index int) {
	assertRelease(index >= 0 && index < len(a.s), "array: erase out of range")
	copy(a.s[index:], a.s[index+1:])
	a.s = a.s[:len(a.s)-1]
}

// Insert inserts v at index, shifting subsequent elements up; capacity must
// already accommodate the extra element.
func (a *Array[T]) Insert(index int, v T) {
	assertRelease(index >= 0 && index <= len(a.s), "array: insert out of range")
	assertRelease(len(a.s) < cap(a.s), "array: insert exceeds reserved capacity")
	var zero T
	a.s = append(a.s, zero)
	copy(a.s[index+1:], a.s[index:len(a.s)-1])
	a.s[index] = v
}

// Assign replaces the array's contents with a copy of src, reserving if
// this is the array's first use - matching hxArray::assign's "will not
// cause allocation when begin==end" behavior for an empty src.
func (a *Array[T]) Assign(src []T) {
	if !a.reserved && len(src) > 0 {
		a.Reserve(len(src))
	}
	assertRelease(len(src) <= cap(a.s), "array: assign exceeds reserved capacity")
	a.s = append(a.s[:0], src...)
}

// Data exposes the backing slice directly, equivalent to hxArray::data.
func (a *Array[T]) Data() []T { return a.s }

// Less is a strict weak ordering functor, used by PushHeap/PopHeap and by
// Equal/LexicographicLess below.
type Less[T any] func(a, b T) bool

// PushHeap restores the max-heap property after appending a new element at
// the back, matching std::push_heap / hxArray::push_heap semantics.
func (a *Array[T]) PushHeap(less Less[T]) {
	i := len(a.s) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !less(a.s[parent], a.s[i]) {
			break
		}
		a.s[parent], a.s[i] = a.s[i], a.s[parent]
		i = parent
	}
}

// PopHeap moves the heap's maximum (the front element) to the back and
// restores the heap property over the remaining prefix; the caller then
// typically calls PopBack to remove it, matching std::pop_heap.
func (a *Array[T]) PopHeap(less Less[T]) {
	n := len(a.s)
	assertRelease(n > 0, "array: pop_heap of empty array")
	a.s[0], a.s[n-1] = a.s[n-1], a.s[0]
	siftDown(a.s[:n-1], 0, less)
}

func siftDown[T any](s []T, i int, less Less[T]) {
	n := len(s)
	for {
		l, r := 2*i+1, 2*i+2
		largest := i
		if l < n && less(s[largest], s[l]) {
			largest = l
		}
		if r < n && less(s[largest], s[r]) {
			largest = r
		}
		if largest == i {
			return
		}
		s[i], s[largest] = s[largest], s[i]
		i = largest
	}
}

// Equal reports element-wise equality using eq, matching hxArray's
// value-equality comparison operator.
func Equal[T any](a, b *Array[T], eq func(x, y T) bool) bool {
	if len(a.s) != len(b.s) {
		return false
	}
	for i := range a.s {
		if !eq(a.s[i], b.s[i]) {
			return false
		}
	}
	return true
}

// LexicographicLess implements spec.md §4.7's "prefix orders before longer
// sequence" ordering, using less for per-element comparison.
func LexicographicLess[T any](a, b *Array[T], less Less[T]) bool {
	n := len(a.s)
	if len(b.s) < n {
		n = len(b.s)
	}
	for i := 0; i < n; i++ {
		if less(a.s[i], b.s[i]) {
			return true
		}
		if less(b.s[i], a.s[i]) {
			return false
		}
	}
	return len(a.s) < len(b.s)
}
