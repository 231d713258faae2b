package avl

import (
	"cmp"
	"encoding/gob"
	"fmt"
	"io"
	"iter"
	"reflect"
)

// snapshotVersion is bumped whenever NodeRecord changes shape.
const snapshotVersion = 1

// Tree is an ordered map backed by a single AVL tree.
//
// Thread-safety: Tree is not safe for concurrent use.
type Tree[K, V any] struct {
	arena *Arena[K, V]
	root  Handle
	equal func(a, b V) bool
}

// New creates an empty tree ordered by cmp. Values are compared with
// reflect.DeepEqual by the pair operations.
func New[K, V any](cmp func(a, b K) int) *Tree[K, V] {
	return &Tree[K, V]{
		arena: NewArena[K, V](cmp, 0),
		equal: func(a, b V) bool { return reflect.DeepEqual(a, b) },
	}
}

// NewOrdered creates an empty tree for keys with a natural order.
func NewOrdered[K cmp.Ordered, V any]() *Tree[K, V] {
	return New[K, V](cmp.Compare[K])
}

// SetValueEqual replaces the value comparison used by RemovePair and
// ContainsPair.
func (t *Tree[K, V]) SetValueEqual(equal func(a, b V) bool) {
	if equal != nil {
		t.equal = equal
	}
}

// Get returns the value stored under key, or the zero value if the key is
// absent. Use TryGet when a stored zero value must be told apart from absence.
func (t *Tree[K, V]) Get(key K) V {
	v, _ := t.TryGet(key)
	return v
}

// TryGet returns the value stored under key and whether it was found.
func (t *Tree[K, V]) TryGet(key K) (V, bool) {
	if h := t.arena.Find(t.root, key); h != Nil {
		return t.arena.Value(h), true
	}
	var zero V
	return zero, false
}

// Set inserts or updates key.
func (t *Tree[K, V]) Set(key K, value V) {
	t.arena.Insert(&t.root, key, value)
}

// Remove deletes key and reports whether it was present.
func (t *Tree[K, V]) Remove(key K) bool {
	h := t.arena.Find(t.root, key)
	if h == Nil {
		return false
	}
	t.arena.Delete(&t.root, h)
	return true
}

// RemovePair deletes key only if it is bound to value.
func (t *Tree[K, V]) RemovePair(key K, value V) bool {
	h := t.arena.Find(t.root, key)
	if h == Nil || !t.equal(t.arena.Value(h), value) {
		return false
	}
	t.arena.Delete(&t.root, h)
	return true
}

// ContainsKey reports whether key is present.
func (t *Tree[K, V]) ContainsKey(key K) bool {
	return t.arena.Find(t.root, key) != Nil
}

// ContainsPair reports whether key is present and bound to value.
func (t *Tree[K, V]) ContainsPair(key K, value V) bool {
	h := t.arena.Find(t.root, key)
	return h != Nil && t.equal(t.arena.Value(h), value)
}

// Count returns the number of entries.
func (t *Tree[K, V]) Count() int {
	return t.arena.Len()
}

// Min returns the entry with the lowest key.
func (t *Tree[K, V]) Min() (K, V, bool) {
	return t.entry(t.arena.First(t.root))
}

// Max returns the entry with the highest key.
func (t *Tree[K, V]) Max() (K, V, bool) {
	return t.entry(t.arena.Last(t.root))
}

func (t *Tree[K, V]) entry(h Handle) (K, V, bool) {
	if h == Nil {
		var (
			k K
			v V
		)
		return k, v, false
	}
	return t.arena.Key(h), t.arena.Value(h), true
}

// All yields the entries in key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for h := range t.arena.Ascend(t.root) {
			if !yield(t.arena.Key(h), t.arena.Value(h)) {
				return
			}
		}
	}
}

// Keys yields the keys in order.
func (t *Tree[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for h := range t.arena.Ascend(t.root) {
			if !yield(t.arena.Key(h)) {
				return
			}
		}
	}
}

// Values yields the values in key order.
func (t *Tree[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for h := range t.arena.Ascend(t.root) {
			if !yield(t.arena.Value(h)) {
				return
			}
		}
	}
}

// Clear removes every entry.
func (t *Tree[K, V]) Clear() {
	t.arena.Reset()
	t.root = Nil
}

// Validate checks the structure of the tree, see Arena.Validate.
func (t *Tree[K, V]) Validate() error {
	n, err := t.arena.Validate(t.root)
	if err != nil {
		return err
	}
	if n != t.arena.Len() {
		return fmt.Errorf("%w: %d nodes reachable, %d allocated", ErrCorrupt, n, t.arena.Len())
	}
	return nil
}

// String renders the tree, see Arena.Format.
func (t *Tree[K, V]) String() string {
	return t.arena.Format(t.root)
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

type treeSnapshot[K, V any] struct {
	Version int
	Nodes   []NodeRecord[K, V]
}

// Save writes the node structure of the tree as a gob stream. Keys and values
// must be encodable by encoding/gob.
func (t *Tree[K, V]) Save(w io.Writer) error {
	snap := treeSnapshot[K, V]{Version: snapshotVersion, Nodes: t.arena.Snapshot(t.root)}
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("avl: encode tree: %w", err)
	}
	return nil
}

// Load replaces the content of the tree with a stream written by Save. The
// tree is left unchanged if the stream is invalid.
func (t *Tree[K, V]) Load(r io.Reader) error {
	var snap treeSnapshot[K, V]
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("avl: decode tree: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("avl: unsupported snapshot version %d", snap.Version)
	}

	arena := NewArena[K, V](t.arena.cmp, len(snap.Nodes))
	root, _, err := arena.Restore(snap.Nodes)
	if err != nil {
		return err
	}
	t.arena, t.root = arena, root
	return nil
}
