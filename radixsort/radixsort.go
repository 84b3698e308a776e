// Package radixsort implements the Hatchling radix-sort buffer: a
// key/value-pointer pair sorter with selectable 8-bit and 11-bit digit
// widths, falling back to insertion sort below a configured minimum size
// (spec.md §4.9). Keys are stored already re-encoded so unsigned ordering
// matches the caller's intended ordering for signed integers and floats.
package radixsort

import (
	"math"

	"github.com/joeycumines/hatchling/memory"
)

// MinSize is the element count below which Sort falls back to insertion
// sort rather than paying for histogram passes, mirroring
// HX_RADIX_SORT_MIN_SIZE.
const MinSize = 32

// Width selects the digit width used by Sort.
type Width int

const (
	// Width8 is the 4-pass, 256-bucket-per-pass variant.
	Width8 Width = iota
	// Width11 is the 3-pass, 2048-bucket-per-pass variant, preferred for
	// very large datasets since it needs three passes instead of four.
	Width11
)

// Pair is one key/value entry, the Go rendition of hxkey_value_pair_: key
// is always the re-encoded (unsigned-comparable) form.
type Pair[V any] struct {
	key uint32
	val V
}

// EncodeUint32 returns k unchanged: unsigned integers already sort
// correctly under unsigned ordering.
func EncodeUint32(k uint32) uint32 { return k }

// EncodeInt32 flips the sign bit so two's-complement ordering matches
// unsigned ordering, per spec.md §4.9.
func EncodeInt32(k int32) uint32 { return uint32(k) ^ 0x80000000 }

// EncodeFloat32 flips the sign bit of non-negative values and all bits of
// negative values, so unsigned lexicographic order over the bit pattern
// matches IEEE-754 numeric order (spec.md §4.9).
func EncodeFloat32(k float32) uint32 {
	t := math.Float32bits(k)
	mask := uint32(int32(t)>>31) | 0x80000000
	return t ^ mask
}

// Sorter accumulates key/value pairs and sorts them by key, the Go
// rendition of hxradix_sort<key_t, value_t>. Its scratch buffers are drawn
// from the temporary-stack allocator while Sort runs (spec.md §4.9's
// "allocation of the scratch buffer uses the temporary stack").
type Sorter[V any] struct {
	manager  *memory.Manager
	pairs    []Pair[V]
	reserved bool
}

// New constructs an empty Sorter whose scratch allocations are attributed
// to m's temporary-stack allocator.
func New[V any](m *memory.Manager) *Sorter[V] {
	return &Sorter[V]{manager: m}
}

// Reserve allocates backing storage for at least n pairs; like Array,
// calling it again with a larger size than already reserved is fatal
// (spec.md §4.7's "reserve at most once" contract, inherited here since
// hxradix_sort is built directly on hxarray).
func (s *Sorter[V]) Reserve(n int) {
	if s.reserved {
		assertRelease(n <= cap(s.pairs), "radixsort: reserve called more than once")
		return
	}
	if n > 0 {
		s.pairs = make([]Pair[V], 0, n)
	}
	s.reserved = true
}

// Len returns the number of pairs currently held.
func (s *Sorter[V]) Len() int { return len(s.pairs) }

// Clear empties the sorter without releasing reserved capacity.
func (s *Sorter[V]) Clear() { s.pairs = s.pairs[:0] }

// Insert appends a pre-encoded key and its associated value. Exceeding
// reserved capacity is fatal, matching hxradix_sort::insert's
// "reallocation_disallowed" assertion.
func (s *Sorter[V]) Insert(encodedKey uint32, val V) {
	assertRelease(len(s.pairs) < cap(s.pairs), "radixsort: insert exceeds reserved capacity")
	s.pairs = append(s.pairs, Pair[V]{key: encodedKey, val: val})
}

// At returns the value at index, in whatever order the pairs currently
// have (sorted, if Sort has been called since the last Insert).
func (s *Sorter[V]) At(index int) V {
	assertRelease(index >= 0 && index < len(s.pairs), "radixsort: index out of range")
	return s.pairs[index].val
}

// Values returns the values in current order.
func (s *Sorter[V]) Values() []V {
	out := make([]V, len(s.pairs))
	for i, p := range s.pairs {
		out[i] = p.val
	}
	return out
}

// Sort orders the pairs by key using the requested digit width, falling
// back to insertion sort below MinSize elements (spec.md §4.9). A 0- or
// 1-element sort is a no-op.
func (s *Sorter[V]) Sort(width Width) {
	n := len(s.pairs)
	if n < 2 {
		return
	}
	if n < MinSize {
		insertionSort(s.pairs)
		return
	}

	s.manager.WithScope(memory.TemporaryStack, func(scope *memory.Scope) {
		switch width {
		case Width11:
			sort11(s.manager, s.pairs)
		default:
			sort8(s.manager, s.pairs)
		}
	})
}

// insertionSort is the small-n fallback: stable, Θ(n) on nearly sorted
// data, matching hxinsertion_sort's role in the original.
func insertionSort[V any](pairs []Pair[V]) {
	for i := 1; i < len(pairs); i++ {
		v := pairs[i]
		j := i - 1
		for j >= 0 && pairs[j].key > v.key {
			pairs[j+1] = pairs[j]
			j--
		}
		pairs[j+1] = v
	}
}

// touchScratch attributes size bytes of scratch-buffer usage to the
// temporary-stack allocator so its accounting (and overflow-is-fatal
// behavior) is exercised exactly as the original's hxmalloc calls would be,
// even though the actual working buffers below are ordinary Go slices. The
// allocation is freed straight away so the enclosing scope's leak check
// balances; its bytes stay attributed until that scope closes.
func touchScratch(m *memory.Manager, size uintptr) {
	if m == nil || size == 0 {
		return
	}
	m.Free(m.Allocate(size, memory.Current, 8))
}

func sort8[V any](m *memory.Manager, pairs []Pair[V]) {
	n := len(pairs)
	touchScratch(m, uintptr(n)*4 /* sizeof(Pair) approx */ +256*4*4)

	var hist [4][256]uint32
	for _, p := range pairs {
		hist[0][p.key&0xff]++
		hist[1][(p.key>>8)&0xff]++
		hist[2][(p.key>>16)&0xff]++
		hist[3][p.key>>24]++
	}
	var sum [4]uint32
	for i := 0; i < 256; i++ {
		for d := 0; d < 4; d++ {
			t := hist[d][i] + sum[d]
			hist[d][i] = sum[d]
			sum[d] = t
		}
	}

	buf0 := pairs
	buf1 := make([]Pair[V], n)

	for _, p := range buf0 {
		idx := p.key & 0xff
		buf1[hist[0][idx]] = p
		hist[0][idx]++
	}
	for _, p := range buf1 {
		idx := (p.key >> 8) & 0xff
		buf0[hist[1][idx]] = p
		hist[1][idx]++
	}
	if hist[2][1] != uint32(n) || hist[3][1] != uint32(n) {
		for _, p := range buf0 {
			idx := (p.key >> 16) & 0xff
			buf1[hist[2][idx]] = p
			hist[2][idx]++
		}
		for _, p := range buf1 {
			idx := p.key >> 24
			buf0[hist[3][idx]] = p
			hist[3][idx]++
		}
	}
}

func sort11[V any](m *memory.Manager, pairs []Pair[V]) {
	n := len(pairs)
	touchScratch(m, uintptr(n)*4*2+5120*4)

	var hist0, hist1 [2048]uint32
	var hist2 [1024]uint32
	for _, p := range pairs {
		hist0[p.key&0x7ff]++
		hist1[(p.key>>11)&0x7ff]++
		hist2[p.key>>22]++
	}

	var sum0, sum1, sum2 uint32
	for i := 0; i < 1024; i++ {
		t0 := hist0[i] + sum0
		hist0[i] = sum0
		sum0 = t0
		t1 := hist1[i] + sum1
		hist1[i] = sum1
		sum1 = t1
		t2 := hist2[i] + sum2
		hist2[i] = sum2
		sum2 = t2
	}
	for i := 1024; i < 2048; i++ {
		t0 := hist0[i] + sum0
		hist0[i] = sum0
		sum0 = t0
		t1 := hist1[i] + sum1
		hist1[i] = sum1
		sum1 = t1
	}

	buf0 := pairs
	buf1 := make([]Pair[V], n)
	buf2 := make([]Pair[V], n)

	for _, p := range buf0 {
		idx := p.key & 0x7ff
		buf1[hist0[idx]] = p
		hist0[idx]++
	}

	needsThirdPass := hist2[1] != uint32(n)
	buf20 := buf0
	if needsThirdPass {
		buf20 = buf2
	}
	for _, p := range buf1 {
		idx := (p.key >> 11) & 0x7ff
		buf20[hist1[idx]] = p
		hist1[idx]++
	}
	if needsThirdPass {
		for _, p := range buf2 {
			idx := p.key >> 22
			buf0[hist2[idx]] = p
			hist2[idx]++
		}
	}
}
