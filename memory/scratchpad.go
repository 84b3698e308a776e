package memory

import "unsafe"

// scratchSection is one of the scratchpad's named sub-regions, or the
// distinguished "all" section spanning their union (spec.md §3, §4.5).
type scratchSection struct {
	begin     uintptr
	end       uintptr
	current   uintptr // 0 means closed
	count     uintptr
	highWater uintptr
}

func (s *scratchSection) open() bool { return s.current != 0 }

// scratchpadAllocator implements spec.md §4.5: three general-purpose
// "page" sections, one larger "temp" section, and an "all" pseudo-section
// spanning every byte of the backing buffer. Exactly one section may be
// open at a time; opening "all" requires every sub-section closed, and
// opening any sub-section requires "all" closed.
type scratchpadAllocator struct {
	storage        []byte
	sections       [scratchSectionCount]scratchSection
	currentSection int // index into sections, valid only while some section is open
}

// ScratchBudget configures the byte size of each of the three page
// sections and the temp section, mirroring HX_MEMORY_BUDGET_SCRATCH_PAGE /
// HX_MEMORY_BUDGET_SCRATCH_TEMP from hxSettings.h.
type ScratchBudget struct {
	Page uintptr
	Temp uintptr
}

// DefaultScratchBudget matches the original's defaults: 10KB per page
// section, 60KB for the temp section.
var DefaultScratchBudget = ScratchBudget{Page: 10 * 1024, Temp: 60 * 1024}

func newScratchpadAllocator(budget ScratchBudget) *scratchpadAllocator {
	total := budget.Page*3 + budget.Temp
	storage := make([]byte, total)
	poison(unsafe.Pointer(&storage[0]), total, debugPoisonReset)

	base := uintptr(unsafe.Pointer(&storage[0]))
	a := &scratchpadAllocator{storage: storage}

	sizes := [3]uintptr{budget.Page, budget.Page, budget.Page}
	current := base
	for i, sz := range sizes {
		a.sections[i] = scratchSection{begin: current, end: current + sz, highWater: current}
		current += sz
	}
	tempIdx := int(ScratchTemp - ScratchPage0)
	a.sections[tempIdx] = scratchSection{begin: current, end: current + budget.Temp, highWater: current}
	current += budget.Temp

	allIdx := int(ScratchAll - ScratchPage0)
	a.sections[allIdx] = scratchSection{begin: base, end: base + total, highWater: base}

	return a
}

func (a *scratchpadAllocator) Label() string { return "scratchpad" }

func (a *scratchpadAllocator) Allocate(size, alignment uintptr) (unsafe.Pointer, bool) {
	if alignment < minAlignment {
		alignment = minAlignment
	}
	if a.currentSection < 0 || a.currentSection >= scratchSectionCount {
		return nil, false
	}
	sec := &a.sections[a.currentSection]
	if !sec.open() {
		return nil, false
	}
	aligned := alignUp(sec.current, alignment)
	next := aligned + size
	if next > sec.end {
		return nil, false
	}
	sec.current = next
	sec.count++
	ptr := unsafe.Pointer(aligned)
	poison(ptr, size, debugPoisonAlloc)
	return ptr, true
}

// Free is always a no-op on the underlying storage: the section reset on
// scope close is what recovers memory (spec.md §4.1).
func (a *scratchpadAllocator) Free(unsafe.Pointer) {}

func (a *scratchpadAllocator) Contains(ptr unsafe.Pointer) bool {
	addr := uintptr(ptr)
	first := &a.sections[0]
	last := &a.sections[scratchSectionCount-1]
	return addr >= first.begin && addr < last.end
}

func (a *scratchpadAllocator) AllocationCount() uintptr {
	if a.currentSection < 0 || a.currentSection >= scratchSectionCount {
		return 0
	}
	return a.sections[a.currentSection].count
}

func (a *scratchpadAllocator) BytesAllocated() uintptr {
	if a.currentSection < 0 || a.currentSection >= scratchSectionCount {
		return 0
	}
	sec := &a.sections[a.currentSection]
	if !sec.open() {
		return 0
	}
	return sec.current - sec.begin
}

func (a *scratchpadAllocator) HighWater() uintptr {
	if a.currentSection < 0 || a.currentSection >= scratchSectionCount {
		return 0
	}
	sec := &a.sections[a.currentSection]
	if cur := sec.current; cur > sec.highWater {
		sec.highWater = cur
	}
	return sec.highWater - sec.begin
}

// BeginScope opens the section selected by scope.thisID. Reopening an
// already-open section, or opening "all" while a sub-section is open (or
// vice versa), is a debug assertion failure per spec.md §4.5/§8.
func (a *scratchpadAllocator) BeginScope(scope *Scope) {
	idx := scope.thisID.sectionIndex()
	assertDebug(idx >= 0 && idx < scratchSectionCount, "scratchpad: invalid section id")
	sec := &a.sections[idx]

	assertDebug(!sec.open(), "reopening scratchpad allocator")
	allIdx := scratchSectionCount - 1
	if idx == allIdx {
		for i := 0; i < allIdx; i++ {
			assertDebug(!a.sections[i].open(), "scratchpad all is exclusive")
		}
	} else {
		assertDebug(!a.sections[allIdx].open(), "scratchpad all is exclusive")
	}

	sec.current = sec.begin
	sec.count = 0
	a.currentSection = idx
	scope.initialCount = 0
	scope.initialBytes = 0
}

// EndScope records the section's high-water mark, closes it (current=0,
// the "closed" sentinel from spec.md §3), and restores currentSection to
// whatever section oldID names - which may itself be closed, matching the
// original's "may not be valid" comment in hxMemoryManager.cpp.
func (a *scratchpadAllocator) EndScope(scope *Scope) {
	idx := a.currentSection
	assertDebug(idx >= 0 && idx < scratchSectionCount, "scratchpad: end scope with no open section")
	sec := &a.sections[idx]
	assertDebug(sec.open(), "scratchpad: end scope on closed section")

	if sec.current > sec.highWater {
		sec.highWater = sec.current
	}
	poison(unsafe.Pointer(sec.begin), sec.end-sec.begin, debugPoisonReset)
	sec.current = 0
	sec.count = 0

	if scope.previousID.IsScratch() {
		a.currentSection = scope.previousID.sectionIndex()
	} else {
		a.currentSection = -1
	}
}
