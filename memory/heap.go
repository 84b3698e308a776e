package memory

import "unsafe"

// heapHeader is the debug header the original places immediately before
// every aligned payload (spec.md §3, "OS-heap allocator"): the logical
// allocation size and a sentinel guarding against corruption / double-free.
type heapHeader struct {
	size     uintptr
	sentinel uint32
}

const heapSentinel uint32 = 0xc811b135

// heapAllocator wraps Go's own allocator the way the original wraps the
// platform malloc: it cannot offer manual deallocation in the C sense (Go
// is garbage collected), so Free's job is to validate the debug header,
// update bookkeeping, poison the payload, and then drop this package's only
// reference to the backing array - at that point it is ordinary garbage,
// reclaimed on the runtime's own schedule, which is the faithful Go
// rendition of "release the original pointer to the backing heap".
//
// All mutable state is only ever touched while Manager.mu is held (spec.md
// §5), so heapAllocator needs no locking of its own.
type heapAllocator struct {
	count     uintptr
	bytes     uintptr
	highWater uintptr
	live      map[uintptr]*heapBlock // payload address -> retaining allocation
}

type heapBlock struct {
	raw  []byte // backing storage: header + alignment padding + payload
	size uintptr
}

func newHeapAllocator() *heapAllocator {
	return &heapAllocator{live: make(map[uintptr]*heapBlock)}
}

func (a *heapAllocator) Label() string { return "heap" }

func (a *heapAllocator) Allocate(size, alignment uintptr) (unsafe.Pointer, bool) {
	if alignment < minAlignment {
		alignment = minAlignment
	}
	headerSize := unsafe.Sizeof(heapHeader{})
	total := size + headerSize + alignment
	raw := make([]byte, total)

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := alignUp(base+headerSize, alignment)
	payload := unsafe.Pointer(aligned)

	hdr := (*heapHeader)(unsafe.Pointer(aligned - headerSize))
	hdr.size = size
	hdr.sentinel = heapSentinel

	a.live[aligned] = &heapBlock{raw: raw, size: size}

	a.count++
	a.bytes += size
	if a.bytes > a.highWater {
		a.highWater = a.bytes
	}

	poison(payload, size, debugPoisonAlloc)
	return payload, true
}

func (a *heapAllocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	addr := uintptr(ptr)

	block, ok := a.live[addr]
	if !ok {
		// Already freed, or never allocated here; Contains is used by the
		// Manager to route frees, so this should not normally happen.
		return
	}
	delete(a.live, addr)

	headerSize := unsafe.Sizeof(heapHeader{})
	hdr := (*heapHeader)(unsafe.Pointer(addr - headerSize))
	assertRelease(hdr.sentinel == heapSentinel, "heap free corrupt")
	assertRelease(hdr.size == block.size, "heap free size mismatch")
	hdr.sentinel = 0

	poison(ptr, block.size, debugPoisonFree)

	a.count--
	a.bytes -= block.size
}

// Contains always reports false: the heap allocator's address range isn't
// contiguous, so membership is inferred by elimination in Manager.Free,
// exactly as documented in spec.md §3.
func (a *heapAllocator) Contains(unsafe.Pointer) bool { return false }

func (a *heapAllocator) AllocationCount() uintptr { return a.count }
func (a *heapAllocator) BytesAllocated() uintptr  { return a.bytes }
func (a *heapAllocator) HighWater() uintptr       { return a.highWater }

func (a *heapAllocator) BeginScope(scope *Scope) {
	scope.initialCount = a.count
	scope.initialBytes = a.bytes
}

// EndScope is a no-op for the heap allocator beyond the default snapshot
// semantics: heap allocation count only ever grows or shrinks by explicit
// Free calls, never by scope closure (spec.md §8: "a.allocation_count >=
// s.initial_allocation_count" for heap and permanent).
func (a *heapAllocator) EndScope(*Scope) {}
