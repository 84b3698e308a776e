package container

import (
	"iter"
	"unsafe"

	"github.com/joeycumines/hatchling/memory"
)

// Entry is a node in a HashTable's bucket chain: the Go rendition of
// hxHashTableNodeBase plus the concrete key/value pair. Key and Value are
// addressable directly; the chain pointer is private so callers cannot
// corrupt bucket linkage the way insert_node's precondition forbids
// (spec.md §4.8: "insert_node of an already-linked node is fatal").
type Entry[K comparable, V any] struct {
	Key   K
	Value V
	hash  uint32
	next  *Entry[K, V]
}

// HashTable is the Go rendition of hxHashTable: a fixed bucket array of
// singly linked chains, indexed by the high-order bits of an externally
// supplied hash function (spec.md §4.8). Unlike the original's intrusive
// node base, Go's lack of struct inheritance means the chain pointer lives
// on the Entry wrapper this package owns rather than a type the caller
// subclasses - callers still get duplicate-key support via InsertNode and
// direct key/value access via Entry.Key/Entry.Value.
type HashTable[K comparable, V any] struct {
	manager *memory.Manager
	id      memory.ID
	hashFn  func(K) uint32
	equalFn func(a, b K) bool

	buckets []*Entry[K, V]
	bits    uint
	size    int
}

// defaultHashBits matches a modest default bucket count (256) for tables
// that do not call SetHashBits explicitly.
const defaultHashBits = 8

// NewHashTable constructs a HashTable whose bucket array is allocated from
// id on m, using hashFn to hash keys and equalFn to compare them. hashFn
// should use the high-entropy bits documented in spec.md §4.8, since
// bucketIndex only ever looks at the top `bits` bits of the 32-bit hash.
func NewHashTable[K comparable, V any](m *memory.Manager, id memory.ID, hashFn func(K) uint32, equalFn func(a, b K) bool) *HashTable[K, V] {
	t := &HashTable[K, V]{manager: m, id: id, hashFn: hashFn, equalFn: equalFn}
	t.SetHashBits(defaultHashBits)
	return t
}

// SetHashBits resizes the bucket array to 1<<bits buckets and rehashes all
// live entries, matching hxHashTable::set_hash_bits. Only meaningful before
// heavy use, since every call walks and re-links the whole table.
func (t *HashTable[K, V]) SetHashBits(bits uint) {
	assertRelease(bits <= 31, "hash table: hash bits must be [0..31]")
	old := t.buckets
	count := uintptr(1) << bits
	t.buckets = make([]*Entry[K, V], count)
	t.bits = bits
	if t.manager != nil {
		var zero *Entry[K, V]
		_ = t.manager.Allocate(count*unsafe.Sizeof(zero), t.id, 8)
	}
	for _, head := range old {
		for n := head; n != nil; {
			next := n.next
			b := t.bucketIndex(n.hash)
			n.next = t.buckets[b]
			t.buckets[b] = n
			n = next
		}
	}
}

func (t *HashTable[K, V]) bucketIndex(hash uint32) uint32 {
	// High-order bits are used so unrelated hashes spread well even when
	// the hash function is weak in its low bits (spec.md §4.8).
	return hash >> (32 - t.bits)
}

// Size returns the number of entries currently linked into the table.
func (t *HashTable[K, V]) Size() int { return t.size }

// Empty reports whether the table holds no entries.
func (t *HashTable[K, V]) Empty() bool { return t.size == 0 }

// BucketCount returns the number of buckets (1 << hash bits).
func (t *HashTable[K, V]) BucketCount() int { return len(t.buckets) }

// LoadFactor returns size / bucket_count.
func (t *HashTable[K, V]) LoadFactor() float64 {
	if len(t.buckets) == 0 {
		return 0
	}
	return float64(t.size) / float64(len(t.buckets))
}

// LoadMax returns the size of the largest bucket chain, matching
// hxHashTable::load_max.
func (t *HashTable[K, V]) LoadMax() int {
	max := 0
	for _, head := range t.buckets {
		count := 0
		for n := head; n != nil; n = n.next {
			count++
		}
		if count > max {
			max = count
		}
	}
	return max
}

// InsertUnique returns the entry for key, constructing and linking a new
// one (with value's zero value) if none exists yet - the Go rendition of
// hxHashTable::insert_unique / operator[].
func (t *HashTable[K, V]) InsertUnique(key K) *Entry[K, V] {
	hash := t.hashFn(key)
	idx := t.bucketIndex(hash)
	for n := t.buckets[idx]; n != nil; n = n.next {
		if t.equalFn(n.Key, key) {
			return n
		}
	}
	n := &Entry[K, V]{Key: key, hash: hash}
	n.next = t.buckets[idx]
	t.buckets[idx] = n
	t.size++
	return n
}

// NewNode allocates a detached entry for key/value, suitable for passing to
// InsertNode - the Go rendition of constructing a Node directly for
// insert_node, rather than through insert_unique.
func (t *HashTable[K, V]) NewNode(key K, value V) *Entry[K, V] {
	return &Entry[K, V]{Key: key, Value: value, hash: t.hashFn(key)}
}

// InsertNode links a pre-constructed, detached entry into the table,
// allowing duplicate keys. Inserting an entry that is already linked (its
// next pointer is non-nil, or it is found in its bucket's chain) is fatal,
// matching spec.md §4.8's "insert_node of an already-linked node is fatal".
func (t *HashTable[K, V]) InsertNode(n *Entry[K, V]) {
	assertRelease(n != nil, "hash table: insert_node of nil entry")
	assertRelease(!t.isLinked(n), "hash table: insert_node of an already-linked entry")
	idx := t.bucketIndex(n.hash)
	n.next = t.buckets[idx]
	t.buckets[idx] = n
	t.size++
}

func (t *HashTable[K, V]) isLinked(n *Entry[K, V]) bool {
	if n.next != nil {
		return true
	}
	for m := t.buckets[t.bucketIndex(n.hash)]; m != nil; m = m.next {
		if m == n {
			return true
		}
	}
	return false
}

// Find returns the next entry matching key after previous (or the first
// match, if previous is nil), the Go rendition of hxHashTable::find's
// duplicate-traversal protocol.
func (t *HashTable[K, V]) Find(key K, previous *Entry[K, V]) *Entry[K, V] {
	if previous == nil {
		hash := t.hashFn(key)
		for n := t.buckets[t.bucketIndex(hash)]; n != nil; n = n.next {
			if t.equalFn(n.Key, key) {
				return n
			}
		}
		return nil
	}
	assertDebug(t.equalFn(previous.Key, key), "hash table: find continuation key mismatch")
	for n := previous.next; n != nil; n = n.next {
		if t.equalFn(n.Key, key) {
			return n
		}
	}
	return nil
}

// Count returns the number of entries whose key equals key.
func (t *HashTable[K, V]) Count(key K) int {
	hash := t.hashFn(key)
	total := 0
	for n := t.buckets[t.bucketIndex(hash)]; n != nil; n = n.next {
		if t.equalFn(n.Key, key) {
			total++
		}
	}
	return total
}

// Extract removes and returns the first entry matching key, or nil.
func (t *HashTable[K, V]) Extract(key K) *Entry[K, V] {
	hash := t.hashFn(key)
	idx := t.bucketIndex(hash)
	prevLink := &t.buckets[idx]
	for n := *prevLink; n != nil; n = *prevLink {
		if t.equalFn(n.Key, key) {
			*prevLink = n.next
			n.next = nil
			t.size--
			return n
		}
		prevLink = &n.next
	}
	return nil
}

// Erase removes every entry matching key, invoking deleter (if non-nil) on
// each after it is unlinked, and returns the number removed.
func (t *HashTable[K, V]) Erase(key K, deleter func(*Entry[K, V])) int {
	hash := t.hashFn(key)
	idx := t.bucketIndex(hash)
	count := 0
	prevLink := &t.buckets[idx]
	for n := *prevLink; n != nil; {
		next := n.next
		if t.equalFn(n.Key, key) {
			*prevLink = next
			n.next = nil
			if deleter != nil {
				deleter(n)
			}
			count++
		} else {
			prevLink = &n.next
		}
		n = next
	}
	t.size -= count
	return count
}

// ReleaseAll resets every bucket to empty without invoking any deleter,
// matching hxHashTable::release_all - the table forgets its entries but
// does not otherwise touch them.
func (t *HashTable[K, V]) ReleaseAll() {
	if t.size == 0 {
		return
	}
	for i := range t.buckets {
		t.buckets[i] = nil
	}
	t.size = 0
}

// Clear erases every entry, invoking deleter (if non-nil) on each.
func (t *HashTable[K, V]) Clear(deleter func(*Entry[K, V])) {
	if deleter == nil {
		t.ReleaseAll()
		return
	}
	if t.size == 0 {
		return
	}
	for i, head := range t.buckets {
		t.buckets[i] = nil
		for n := head; n != nil; {
			next := n.next
			deleter(n)
			n = next
		}
	}
	t.size = 0
}

// All returns an iterator over every live entry, in implementation-defined
// but modification-stable order, the Go rendition of hxHashTable's
// ForwardIterator (spec.md §4.8).
func (t *HashTable[K, V]) All() iter.Seq[*Entry[K, V]] {
	return func(yield func(*Entry[K, V]) bool) {
		for _, head := range t.buckets {
			for n := head; n != nil; n = n.next {
				if !yield(n) {
					return
				}
			}
		}
	}
}
