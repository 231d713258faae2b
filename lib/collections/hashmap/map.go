package hashmap

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/ValentinKolb/avlkv/lib/collections/avl"
	"github.com/cespare/xxhash/v2"
)

// DefaultBuckets is used when Config.Buckets is not positive.
const DefaultBuckets = 1024

// ErrInvalidConfig is returned by New for incomplete configurations.
var ErrInvalidConfig = errors.New("hashmap: invalid config")

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

type slotKind uint8

const (
	slotEmpty slotKind = iota
	slotSingle
	slotTree
)

// bucket holds either one entry inline or the root of a collision tree.
type bucket[K, V any] struct {
	kind  slotKind
	key   K
	value V
	root  avl.Handle
}

// Config configures a Map.
type Config[K, V any] struct {
	Buckets int               // number of buckets, DefaultBuckets if <= 0
	Hash    func(K) uint64    // required
	Compare func(a, b K) int  // required, orders keys inside a bucket
	Equal   func(a, b V) bool // value equality for pair operations, reflect.DeepEqual if nil
}

// Map is a hash map resolving collisions with per-bucket AVL trees.
//
// Thread-safety: Map is not safe for concurrent use.
type Map[K, V any] struct {
	buckets []bucket[K, V]
	arena   *avl.Arena[K, V]
	hash    func(K) uint64
	cmp     func(a, b K) int
	equal   func(a, b V) bool
	count   int
}

// New creates an empty map.
func New[K, V any](cfg Config[K, V]) (*Map[K, V], error) {
	if cfg.Hash == nil {
		return nil, fmt.Errorf("%w: missing hash function", ErrInvalidConfig)
	}
	if cfg.Compare == nil {
		return nil, fmt.Errorf("%w: missing compare function", ErrInvalidConfig)
	}
	if cfg.Buckets <= 0 {
		cfg.Buckets = DefaultBuckets
	}
	if cfg.Equal == nil {
		cfg.Equal = func(a, b V) bool { return reflect.DeepEqual(a, b) }
	}
	return &Map[K, V]{
		buckets: make([]bucket[K, V], cfg.Buckets),
		arena:   avl.NewArena[K, V](cfg.Compare, 0),
		hash:    cfg.Hash,
		cmp:     cfg.Compare,
		equal:   cfg.Equal,
	}, nil
}

// NewString creates a map with string keys hashed by xxhash.
func NewString[V any](buckets int) *Map[string, V] {
	m, err := New(Config[string, V]{
		Buckets: buckets,
		Hash:    xxhash.Sum64String,
		Compare: strings.Compare,
	})
	if err != nil {
		panic(err) // unreachable, the config is complete
	}
	return m
}

func (m *Map[K, V]) index(key K) int {
	return int(m.hash(key) % uint64(len(m.buckets)))
}

func (m *Map[K, V]) bucketFor(key K) *bucket[K, V] {
	return &m.buckets[m.index(key)]
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Get returns the value bound to key or the zero value of V.
//
// A stored zero value cannot be told apart from a missing key with Get. Use
// TryGet when that difference matters.
func (m *Map[K, V]) Get(key K) V {
	v, _ := m.TryGet(key)
	return v
}

// TryGet returns the value bound to key and whether the key was found.
func (m *Map[K, V]) TryGet(key K) (V, bool) {
	b := m.bucketFor(key)
	switch b.kind {
	case slotSingle:
		if m.cmp(key, b.key) == 0 {
			return b.value, true
		}
	case slotTree:
		if h := m.arena.Find(b.root, key); h != avl.Nil {
			return m.arena.Value(h), true
		}
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	_, ok := m.TryGet(key)
	return ok
}

// ContainsPair reports whether key is present and bound to value.
func (m *Map[K, V]) ContainsPair(key K, value V) bool {
	v, ok := m.TryGet(key)
	return ok && m.equal(v, value)
}

// Count returns the number of entries.
func (m *Map[K, V]) Count() int {
	return m.count
}

// Buckets returns the number of buckets.
func (m *Map[K, V]) Buckets() int {
	return len(m.buckets)
}

// --------------------------------------------------------------------------
// Mutation
// --------------------------------------------------------------------------

// Set binds value to key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	b := m.bucketFor(key)
	switch b.kind {
	case slotEmpty:
		b.kind, b.key, b.value = slotSingle, key, value
		m.count++

	case slotSingle:
		if m.cmp(key, b.key) == 0 {
			b.value = value
			return
		}
		// the resident entry becomes the root, the new one its child
		root := avl.Nil
		m.arena.Insert(&root, b.key, b.value)
		m.arena.Insert(&root, key, value)
		*b = bucket[K, V]{kind: slotTree, root: root}
		m.count++

	case slotTree:
		if _, added := m.arena.Insert(&b.root, key, value); added {
			m.count++
		}
	}
}

// Remove deletes key and reports whether it was present.
func (m *Map[K, V]) Remove(key K) bool {
	return m.remove(key, nil)
}

// RemovePair deletes key only if it is bound to value.
func (m *Map[K, V]) RemovePair(key K, value V) bool {
	return m.remove(key, func(v V) bool { return m.equal(v, value) })
}

func (m *Map[K, V]) remove(key K, match func(V) bool) bool {
	b := m.bucketFor(key)
	switch b.kind {
	case slotSingle:
		if m.cmp(key, b.key) != 0 || (match != nil && !match(b.value)) {
			return false
		}
		*b = bucket[K, V]{}
		m.count--
		return true

	case slotTree:
		h := m.arena.Find(b.root, key)
		if h == avl.Nil || (match != nil && !match(m.arena.Value(h))) {
			return false
		}
		m.arena.Delete(&b.root, h)
		m.count--
		m.collapse(b)
		return true
	}
	return false
}

// collapse turns a tree bucket with fewer than two entries back into a single
// entry or an empty bucket.
func (m *Map[K, V]) collapse(b *bucket[K, V]) {
	root := b.root
	switch {
	case root == avl.Nil:
		*b = bucket[K, V]{}
	case m.arena.First(root) == root && m.arena.Last(root) == root:
		key, value := m.arena.Key(root), m.arena.Value(root)
		m.arena.Delete(&b.root, root)
		*b = bucket[K, V]{kind: slotSingle, key: key, value: value}
	}
}

// Clear removes every entry. The bucket count is kept.
func (m *Map[K, V]) Clear() {
	clear(m.buckets)
	m.arena.Reset()
	m.count = 0
}

// --------------------------------------------------------------------------
// Enumeration
// --------------------------------------------------------------------------

// All yields every entry, bucket by bucket and in key order within a bucket.
// There is no global order across buckets. The map must not be modified while
// the sequence is consumed.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.buckets {
			b := &m.buckets[i]
			switch b.kind {
			case slotSingle:
				if !yield(b.key, b.value) {
					return
				}
			case slotTree:
				for h := range m.arena.Ascend(b.root) {
					if !yield(m.arena.Key(h), m.arena.Value(h)) {
						return
					}
				}
			}
		}
	}
}

// Keys yields the keys in the order of All.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values yields the values in the order of All.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Diagnostics
// --------------------------------------------------------------------------

// BucketStats describes how entries are spread over the buckets.
type BucketStats struct {
	Buckets  int // total number of buckets
	Empty    int // buckets without entries
	Single   int // buckets holding one inline entry
	Trees    int // buckets holding a collision tree
	Largest  int // entries in the fullest bucket
	TreeKeys int // entries stored in collision trees
}

// Stats counts bucket states. It visits every tree node and costs O(n).
func (m *Map[K, V]) Stats() BucketStats {
	s := BucketStats{Buckets: len(m.buckets)}
	for i := range m.buckets {
		b := &m.buckets[i]
		switch b.kind {
		case slotEmpty:
			s.Empty++
		case slotSingle:
			s.Single++
			s.Largest = max(s.Largest, 1)
		case slotTree:
			s.Trees++
			n := 0
			for range m.arena.Ascend(b.root) {
				n++
			}
			s.TreeKeys += n
			s.Largest = max(s.Largest, n)
		}
	}
	return s
}

// Validate checks every bucket tree, that entries sit in the bucket their hash
// selects, that no tree holds fewer than two entries and that the entry
// counter is exact.
func (m *Map[K, V]) Validate() error {
	total, treeNodes := 0, 0
	for i := range m.buckets {
		b := &m.buckets[i]
		switch b.kind {
		case slotSingle:
			if idx := m.index(b.key); idx != i {
				return fmt.Errorf("%w: key %v stored in bucket %d, hashes to %d", avl.ErrCorrupt, b.key, i, idx)
			}
			total++
		case slotTree:
			n, err := m.arena.Validate(b.root)
			if err != nil {
				return fmt.Errorf("bucket %d: %w", i, err)
			}
			if n < 2 {
				return fmt.Errorf("%w: tree bucket %d holds %d entries", avl.ErrCorrupt, i, n)
			}
			for h := range m.arena.Ascend(b.root) {
				if idx := m.index(m.arena.Key(h)); idx != i {
					return fmt.Errorf("%w: key %v stored in bucket %d, hashes to %d", avl.ErrCorrupt, m.arena.Key(h), i, idx)
				}
			}
			total += n
			treeNodes += n
		}
	}
	if total != m.count {
		return fmt.Errorf("%w: counter is %d, found %d entries", avl.ErrCorrupt, m.count, total)
	}
	if treeNodes != m.arena.Len() {
		return fmt.Errorf("%w: arena holds %d nodes, trees reach %d", avl.ErrCorrupt, m.arena.Len(), treeNodes)
	}
	return nil
}
