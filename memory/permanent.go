package memory

import (
	"unsafe"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/settings"
)

// permanentAllocator is the bump allocator from spec.md §4.3: it owns one
// fixed backing buffer (carved out once, at construction, so the Go
// runtime never moves or reclaims it while the allocator is alive), and
// never physically reclaims anything handed out - Free is a diagnostic
// counter decrement only, exactly like hxMemoryAllocatorStack's onFree.
//
// All mutable state below is only ever touched while Manager.mu is held
// (spec.md §5: "a single mutex wrapping every allocate/free/scope
// transition"), so no additional locking or atomics are needed here.
type permanentAllocator struct {
	storage []byte // retains the backing array for the allocator's lifetime
	begin   uintptr
	end     uintptr
	current uintptr
	count   uintptr
}

func newPermanentAllocator(budget uintptr) *permanentAllocator {
	storage := make([]byte, budget)
	poison(unsafe.Pointer(&storage[0]), budget, debugPoisonReset)
	begin := uintptr(unsafe.Pointer(&storage[0]))
	return &permanentAllocator{storage: storage, begin: begin, end: begin + budget, current: begin}
}

func (a *permanentAllocator) Label() string { return "permanent" }

func (a *permanentAllocator) Allocate(size, alignment uintptr) (unsafe.Pointer, bool) {
	if alignment < minAlignment {
		alignment = minAlignment
	}
	aligned := alignUp(a.current, alignment)
	next := aligned + size
	if next > a.end {
		return nil, false
	}
	a.current = next
	a.count++
	ptr := unsafe.Pointer(aligned)
	poison(ptr, size, debugPoisonAlloc)
	return ptr, true
}

// Free only decrements the diagnostic allocation count: permanent memory is
// never reclaimed. A warning is logged unless
// settings.Settings.DeallocatePermanentAllowed is true, per spec.md §4.1.
func (a *permanentAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	a.count--
	if !settings.Global().DeallocatePermanentAllowed() {
		hlog.Warning().Str("allocator", "permanent").Msg("illegal free from permanent allocator")
	}
}

func (a *permanentAllocator) Contains(ptr unsafe.Pointer) bool {
	addr := uintptr(ptr)
	return addr >= a.begin && addr < a.end
}

func (a *permanentAllocator) AllocationCount() uintptr { return a.count }
func (a *permanentAllocator) BytesAllocated() uintptr  { return a.current - a.begin }
func (a *permanentAllocator) HighWater() uintptr       { return a.current - a.begin }

func (a *permanentAllocator) BeginScope(scope *Scope) {
	scope.initialCount = a.count
	scope.initialBytes = a.BytesAllocated()
}

// EndScope has no rollback: permanent allocations outlive any scope that
// created them (spec.md §8: count only required to be >= initial at close).
func (a *permanentAllocator) EndScope(*Scope) {}
