// Package memory implements the Hatchling memory management subsystem:
// spec.md §3-§4.1 through §4.6. A Manager owns exactly one instance of each
// of the four allocator variants, dispatches allocate/free calls to the
// correct one, and tracks each goroutine's "current" allocator id the way
// the original tracks a thread-local current-allocator id.
package memory

import (
	"sync"
	"unsafe"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/settings"
)

// Budget configures the size of each bump-allocated region, mirroring the
// HX_MEMORY_BUDGET_* macros in hxSettings.h.
type Budget struct {
	Permanent      uintptr
	TemporaryStack uintptr
	Scratch        ScratchBudget
}

// DefaultBudget matches the original's defaults: 5KB permanent, 1MB
// temporary stack, 10KB/60KB scratchpad sections.
var DefaultBudget = Budget{
	Permanent:      5 * 1024,
	TemporaryStack: 1024 * 1024,
	Scratch:        DefaultScratchBudget,
}

// Manager is the memory manager described in spec.md §4.1: the single
// owner of the heap, permanent, temporary-stack, and scratchpad allocators,
// guarded by one mutex per spec.md §5.
type Manager struct {
	mu sync.Mutex

	heap      *heapAllocator
	permanent *permanentAllocator
	temporary *temporaryStackAllocator
	scratch   *scratchpadAllocator

	current map[uint64]ID // goroutine id -> current allocator id
}

// NewManager constructs a Manager with the given region budgets. Call this
// once at process start, before any allocate/free/scope call - mirroring
// "initialization constructs the settings object and the memory manager"
// in spec.md §2.
func NewManager(budget Budget) *Manager {
	return &Manager{
		heap:      newHeapAllocator(),
		permanent: newPermanentAllocator(budget.Permanent),
		temporary: newTemporaryStackAllocator(budget.TemporaryStack),
		scratch:   newScratchpadAllocator(budget.Scratch),
		current:   make(map[uint64]ID),
	}
}

// allocatorFor returns the concrete Allocator for a real (non-sentinel) id.
// Must be called with mu held for any non-const access to the result.
func (m *Manager) allocatorFor(id ID) Allocator {
	switch {
	case id == Heap:
		return m.heap
	case id == Permanent:
		return m.permanent
	case id == TemporaryStack:
		return m.temporary
	case id.IsScratch():
		return m.scratch
	default:
		assertRelease(false, "invalid allocator id %d", int(id))
		return nil
	}
}

func (m *Manager) currentIDLocked() ID {
	gid := getGoroutineID()
	if id, ok := m.current[gid]; ok {
		return id
	}
	return Heap
}

func (m *Manager) setCurrentIDLocked(id ID) {
	m.current[getGoroutineID()] = id
}

// Allocate returns size bytes aligned to at least alignment, delegating to
// the allocator named by id (or the calling goroutine's current allocator,
// if id is Current). If the indicated allocator cannot satisfy the
// request, Allocate logs a warning and retries against the OS heap
// (spec.md §4.1); if even that fails, or alignment is not a power of two,
// the condition is fatal.
func (m *Manager) Allocate(size uintptr, id ID, alignment uintptr) unsafe.Pointer {
	assertRelease(isPowerOfTwo(alignment), "allocate: alignment %d is not a power of two", int(alignment))
	if size == 0 {
		size = 1 // guarantee unique pointer identities, per spec.md §4.1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == Current {
		id = m.currentIDLocked()
	}

	if settings.Global().MemoryManagerDisabled() {
		ptr, ok := m.heap.Allocate(size, alignment)
		assertRelease(ok, "allocate: out of memory (heap, %d bytes)", int(size))
		return ptr
	}

	allocator := m.allocatorFor(id)
	if ptr, ok := allocator.Allocate(size, alignment); ok {
		return ptr
	}

	hlog.Warning().Str("allocator", allocator.Label()).Int("size", int(size)).
		Msg("allocator exhausted, falling back to OS heap")

	ptr, ok := m.heap.Allocate(size, alignment)
	assertRelease(ok, "allocate: out of memory (heap fallback, %d bytes)", int(size))
	return ptr
}

// Free releases ptr, dispatching by address range: temporary-stack, then
// scratchpad, then permanent, finally falling through to the OS heap
// (spec.md §4.1). A nil pointer is a no-op.
func (m *Manager) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.temporary.Contains(ptr):
		m.temporary.Free(ptr)
	case m.scratch.Contains(ptr):
		m.scratch.Free(ptr)
	case m.permanent.Contains(ptr):
		m.permanent.Free(ptr)
	default:
		m.heap.Free(ptr)
	}
}

// BeginScope opens a new allocator scope: newId becomes current on the
// calling goroutine, and the allocator's BeginScope hook snapshots its
// counters into the returned Scope. Callers should `defer scope.Close()`.
func (m *Manager) BeginScope(newID ID) *Scope {
	m.mu.Lock()
	defer m.mu.Unlock()

	scope := &Scope{
		manager:     m,
		thisID:      newID,
		previousID:  m.currentIDLocked(),
		goroutineID: getGoroutineID(),
	}
	m.setCurrentIDLocked(newID)
	m.allocatorFor(newID).BeginScope(scope)
	return scope
}

// endScope is called by Scope.Close.
func (m *Manager) endScope(scope *Scope) {
	assertRelease(getGoroutineID() == scope.goroutineID, "allocator scope closed on a different goroutine than it was opened on")

	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocatorFor(scope.thisID).EndScope(scope)
	m.setCurrentIDLocked(scope.previousID)
}

// LeakCount sums the live-allocation counts of every allocator. A non-zero
// result at shutdown is a fatal assertion (spec.md §4.1, §7).
func (m *Manager) LeakCount() uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.heap.AllocationCount() + m.permanent.AllocationCount() +
		m.temporary.AllocationCount() + m.scratch.AllocationCount()
}

// AssertNoLeaks is the shutdown check described in spec.md §4.1: a non-zero
// LeakCount aborts the process.
func (m *Manager) AssertNoLeaks() {
	assertRelease(m.LeakCount() == 0, "memory manager: %d leaked allocations at shutdown", int(m.LeakCount()))
}

// AllocationCount, BytesAllocated, and HighWater expose the per-allocator
// counters named in spec.md §3, for diagnostics and tests.
func (m *Manager) AllocationCount(id ID) uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocatorFor(id).AllocationCount()
}

func (m *Manager) BytesAllocated(id ID) uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocatorFor(id).BytesAllocated()
}

func (m *Manager) HighWater(id ID) uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocatorFor(id).HighWater()
}
