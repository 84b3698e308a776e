package container

import (
	"testing"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArray[T any](t *testing.T, n int) *Array[T] {
	t.Helper()
	m := memory.NewManager(memory.DefaultBudget)
	a := NewArray[T](m, memory.Heap)
	a.Reserve(n)
	return a
}

func TestArrayPushPopBack(t *testing.T) {
	a := newTestArray[int](t, 4)
	a.PushBack(1)
	a.PushBack(2)
	a.PushBack(3)
	require.Equal(t, 3, a.Len())
	assert.Equal(t, 3, *a.Back())
	a.PopBack()
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, *a.Back())
}

func TestArrayPushBackExceedingCapacityIsFatal(t *testing.T) {
	a := newTestArray[int](t, 1)
	a.PushBack(1)

	fatalCount := 0
	prev := hlog.Fatal
	hlog.Fatal = func(string) { fatalCount++ }
	defer func() { hlog.Fatal = prev }()

	a.PushBack(2)
	assert.Equal(t, 1, fatalCount)
}

func TestArrayReserveTwiceWithLargerSizeIsFatal(t *testing.T) {
	a := newTestArray[int](t, 2)

	fatalCount := 0
	prev := hlog.Fatal
	hlog.Fatal = func(string) { fatalCount++ }
	defer func() { hlog.Fatal = prev }()

	a.Reserve(8)
	assert.Equal(t, 1, fatalCount)
}

func TestArrayEraseUnordered(t *testing.T) {
	a := newTestArray[int](t, 4)
	a.PushBack(10)
	a.PushBack(20)
	a.PushBack(30)

	a.EraseUnordered(0)
	require.Equal(t, 2, a.Len())
	assert.Equal(t, 30, *a.At(0))
	assert.Equal(t, 20, *a.At(1))
}

func TestArrayErase(t *testing.T) {
	a := newTestArray[int](t, 4)
	a.PushBack(10)
	a.PushBack(20)
	a.PushBack(30)

	a.Erase(0)
	require.Equal(t, 2, a.Len())
	assert.Equal(t, 20, *a.At(0))
	assert.Equal(t, 30, *a.At(1))
}

func TestArrayInsert(t *testing.T) {
	a := newTestArray[int](t, 4)
	a.PushBack(1)
	a.PushBack(3)
	a.Insert(1, 2)
	require.Equal(t, 3, a.Len())
	assert.Equal(t, []int{1, 2, 3}, a.Data())
}

func TestArrayResizeGrowsAndShrinks(t *testing.T) {
	a := newTestArray[int](t, 4)
	a.Resize(3)
	assert.Equal(t, []int{0, 0, 0}, a.Data())
	a.PushBack(0)
	a.Resize(1)
	assert.Equal(t, 1, a.Len())
}

func TestArrayAssign(t *testing.T) {
	a := newTestArray[int](t, 0)
	a.Assign([]int{1, 2, 3})
	assert.Equal(t, []int{1, 2, 3}, a.Data())
}

func TestArrayHeapOrdering(t *testing.T) {
	a := newTestArray[int](t, 8)
	less := func(x, y int) bool { return x < y }
	for _, v := range []int{5, 1, 9, 3, 7} {
		a.PushBack(v)
		a.PushHeap(less)
	}
	assert.Equal(t, 9, *a.Front())

	var sorted []int
	for a.Len() > 0 {
		top := *a.Front()
		a.PopHeap(less)
		a.PopBack()
		sorted = append(sorted, top)
	}
	assert.Equal(t, []int{9, 7, 5, 3, 1}, sorted)
}

func TestArrayEqualAndLexicographicLess(t *testing.T) {
	a := newTestArray[int](t, 4)
	a.Assign([]int{1, 2, 3})
	b := newTestArray[int](t, 4)
	b.Assign([]int{1, 2, 3})
	eq := func(x, y int) bool { return x == y }
	assert.True(t, Equal(a, b, eq))

	less := func(x, y int) bool { return x < y }
	c := newTestArray[int](t, 4)
	c.Assign([]int{1, 2})
	assert.True(t, LexicographicLess(c, a, less))
	assert.False(t, LexicographicLess(a, c, less))
}
