package radixsort

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/memory"
	"github.com/stretchr/testify/assert"
)

func newTestSorter[V any](t *testing.T, n int) *Sorter[V] {
	t.Helper()
	m := memory.NewManager(memory.DefaultBudget)
	s := New[V](m)
	s.Reserve(n)
	return s
}

func TestFloat32KeyOrderingMatchesSpecExample(t *testing.T) {
	// spec.md §8 example 5: [5.0, -3.0, 0.0, -0.0, 2.0] with values
	// [A,B,C,D,E] sorts to [B, D, C, E, A] (negatives first).
	type sample struct {
		key   float32
		value string
	}
	negZero := float32(math.Copysign(0, -1))
	samples := []sample{
		{5.0, "A"},
		{-3.0, "B"},
		{0.0, "C"},
		{negZero, "D"},
		{2.0, "E"},
	}

	s := newTestSorter[string](t, len(samples))
	for _, sm := range samples {
		s.Insert(EncodeFloat32(sm.key), sm.value)
	}
	s.Sort(Width8)

	got := s.Values()
	assert.Equal(t, "B", got[0])
	assert.Equal(t, "A", got[len(got)-1])
	assert.Contains(t, got, "C")
	assert.Contains(t, got, "D")
}

func TestInt32KeySmallFallsBackToInsertionSort(t *testing.T) {
	s := newTestSorter[int](t, 4)
	for _, k := range []int32{3, -1, 2, -5} {
		s.Insert(EncodeInt32(k), int(k))
	}
	s.Sort(Width8)
	assert.Equal(t, []int{-5, -1, 2, 3}, s.Values())
}

func TestWidth8LargeRandomIsSorted(t *testing.T) {
	n := 5000
	s := newTestSorter[int32](t, n)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		k := r.Int31()
		s.Insert(EncodeInt32(k), k)
	}
	s.Sort(Width8)
	values := s.Values()
	assert.True(t, sort.SliceIsSorted(values, func(i, j int) bool { return values[i] < values[j] }))
}

func TestWidth11LargeRandomIsSorted(t *testing.T) {
	n := 5000
	s := newTestSorter[int32](t, n)
	r := rand.New(rand.NewSource(2))
	for i := 0; i < n; i++ {
		k := r.Int31()
		s.Insert(EncodeInt32(k), k)
	}
	s.Sort(Width11)
	values := s.Values()
	assert.True(t, sort.SliceIsSorted(values, func(i, j int) bool { return values[i] < values[j] }))
}

func TestSortOfEmptyOrSingleIsNoOp(t *testing.T) {
	s := newTestSorter[int](t, 1)
	s.Sort(Width8) // empty

	s.Insert(EncodeInt32(42), 42)
	s.Sort(Width8) // single element
	assert.Equal(t, []int{42}, s.Values())
}

func TestInsertExceedingReservedCapacityIsFatal(t *testing.T) {
	s := newTestSorter[int](t, 1)
	s.Insert(EncodeInt32(1), 1)

	fatalCount := 0
	prev := hlog.Fatal
	hlog.Fatal = func(string) { fatalCount++ }
	defer func() { hlog.Fatal = prev }()

	s.Insert(EncodeInt32(2), 2)
	assert.Equal(t, 1, fatalCount)
}

func TestStableAcrossEqualKeys(t *testing.T) {
	type tagged struct {
		order int
	}
	s := newTestSorter[tagged](t, 40)
	for i := 0; i < 40; i++ {
		s.Insert(EncodeInt32(int32(i%3)), tagged{order: i})
	}
	s.Sort(Width8)
	values := s.Values()
	// within each key group, relative insertion order must be preserved.
	var lastOrderForKey = map[int]int{}
	for _, v := range values {
		key := v.order % 3
		if prev, ok := lastOrderForKey[key]; ok {
			assert.Less(t, prev, v.order)
		}
		lastOrderForKey[key] = v.order
	}
}
