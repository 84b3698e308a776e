package container

import (
	"testing"

	"github.com/joeycumines/hatchling/hlog"
	"github.com/joeycumines/hatchling/internal/fnvhash"
	"github.com/joeycumines/hatchling/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable[V any](t *testing.T) *HashTable[string, V] {
	t.Helper()
	m := memory.NewManager(memory.DefaultBudget)
	return NewHashTable[string, V](m, memory.Heap, fnvhash.Symbol, func(a, b string) bool { return a == b })
}

func TestHashTableInsertUniqueFindsExisting(t *testing.T) {
	tbl := newTestTable[int](t)
	a := tbl.InsertUnique("alpha")
	a.Value = 1
	b := tbl.InsertUnique("alpha")
	assert.Same(t, a, b)
	assert.Equal(t, 1, tbl.Size())
}

func TestHashTableCountAndFind(t *testing.T) {
	tbl := newTestTable[int](t)
	n1 := tbl.NewNode("dup", 1)
	n2 := tbl.NewNode("dup", 2)
	tbl.InsertNode(n1)
	tbl.InsertNode(n2)

	assert.Equal(t, 2, tbl.Count("dup"))
	first := tbl.Find("dup", nil)
	require.NotNil(t, first)
	second := tbl.Find("dup", first)
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.Nil(t, tbl.Find("dup", second))
}

func TestHashTableInsertNodeAlreadyLinkedIsFatal(t *testing.T) {
	tbl := newTestTable[int](t)
	n := tbl.NewNode("x", 1)
	tbl.InsertNode(n)

	fatalCount := 0
	prev := hlog.Fatal
	hlog.Fatal = func(string) { fatalCount++ }
	defer func() { hlog.Fatal = prev }()

	tbl.InsertNode(n)
	assert.Equal(t, 1, fatalCount)
}

func TestHashTableExtractAndErase(t *testing.T) {
	tbl := newTestTable[int](t)
	tbl.InsertUnique("a").Value = 1
	tbl.InsertUnique("b").Value = 2

	extracted := tbl.Extract("a")
	require.NotNil(t, extracted)
	assert.Equal(t, 1, extracted.Value)
	assert.Equal(t, 1, tbl.Size())
	assert.Nil(t, tbl.Extract("a"))

	n1 := tbl.NewNode("c", 1)
	n2 := tbl.NewNode("c", 2)
	tbl.InsertNode(n1)
	tbl.InsertNode(n2)
	removed := tbl.Erase("c", nil)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, tbl.Count("c"))
}

func TestHashTableReleaseAllAndClear(t *testing.T) {
	tbl := newTestTable[int](t)
	tbl.InsertUnique("a")
	tbl.InsertUnique("b")
	tbl.ReleaseAll()
	assert.Equal(t, 0, tbl.Size())

	tbl.InsertUnique("a")
	deleted := 0
	tbl.Clear(func(*Entry[string, int]) { deleted++ })
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 0, tbl.Size())
}

func TestHashTableAllVisitsEveryEntry(t *testing.T) {
	tbl := newTestTable[int](t)
	keys := []string{"a", "b", "c", "d"}
	for i, k := range keys {
		tbl.InsertUnique(k).Value = i
	}

	seen := map[string]bool{}
	for e := range tbl.All() {
		seen[e.Key] = true
	}
	assert.Len(t, seen, len(keys))
}

func TestHashTableSetHashBitsRehashesEntries(t *testing.T) {
	tbl := newTestTable[int](t)
	for i := 0; i < 20; i++ {
		tbl.InsertUnique(string(rune('a' + i)))
	}
	tbl.SetHashBits(2)
	assert.Equal(t, 4, tbl.BucketCount())
	assert.Equal(t, 20, tbl.Size())

	count := 0
	for range tbl.All() {
		count++
	}
	assert.Equal(t, 20, count)
}
