package queuedtree

import (
	"cmp"
	"container/list"
	"errors"
	"fmt"
	"iter"
	"reflect"

	"github.com/ValentinKolb/avlkv/lib/collections/avl"
)

// DefaultMaxSize is a reasonable capacity for callers without a preference.
const DefaultMaxSize = 4096

// ErrInvalidCapacity is returned by New for a non-positive MaxSize.
var ErrInvalidCapacity = errors.New("queuedtree: capacity must be positive")

// Config configures a Tree.
type Config[K, V any] struct {
	MaxSize int               // maximum number of entries, must be > 0
	Compare func(a, b K) int  // key order, required
	Equal   func(a, b V) bool // value equality for pair operations, reflect.DeepEqual if nil
	OnEvict func(key K, value V)
}

// slot is the value stored in the tree: the user value and the queue element
// of the node.
type slot[V any] struct {
	value V
	elem  *list.Element
}

// Tree is a bounded ordered map with FIFO eviction.
//
// Thread-safety: Tree is not safe for concurrent use.
type Tree[K, V any] struct {
	arena   *avl.Arena[K, slot[V]]
	root    avl.Handle
	queue   *list.List // front is the newest entry, element values are avl.Handle
	maxSize int
	equal   func(a, b V) bool
	onEvict func(K, V)
}

// New creates an empty tree.
func New[K, V any](cfg Config[K, V]) (*Tree[K, V], error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, cfg.MaxSize)
	}
	if cfg.Compare == nil {
		return nil, errors.New("queuedtree: missing compare function")
	}
	if cfg.Equal == nil {
		cfg.Equal = func(a, b V) bool { return reflect.DeepEqual(a, b) }
	}
	return &Tree[K, V]{
		arena:   avl.NewArena[K, slot[V]](cfg.Compare, min(cfg.MaxSize, DefaultMaxSize)),
		queue:   list.New(),
		maxSize: cfg.MaxSize,
		equal:   cfg.Equal,
		onEvict: cfg.OnEvict,
	}, nil
}

// NewOrdered creates an empty tree for keys with a natural order.
func NewOrdered[K cmp.Ordered, V any](maxSize int) (*Tree[K, V], error) {
	return New(Config[K, V]{MaxSize: maxSize, Compare: cmp.Compare[K]})
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Get returns the value bound to key or the zero value of V.
func (t *Tree[K, V]) Get(key K) V {
	v, _ := t.TryGet(key)
	return v
}

// TryGet returns the value bound to key and whether the key was found.
func (t *Tree[K, V]) TryGet(key K) (V, bool) {
	if h := t.arena.Find(t.root, key); h != avl.Nil {
		return t.arena.ValuePtr(h).value, true
	}
	var zero V
	return zero, false
}

// ContainsKey reports whether key is present.
func (t *Tree[K, V]) ContainsKey(key K) bool {
	return t.arena.Find(t.root, key) != avl.Nil
}

// ContainsPair reports whether key is present and bound to value.
func (t *Tree[K, V]) ContainsPair(key K, value V) bool {
	h := t.arena.Find(t.root, key)
	return h != avl.Nil && t.equal(t.arena.ValuePtr(h).value, value)
}

// Count returns the number of entries.
func (t *Tree[K, V]) Count() int {
	return t.arena.Len()
}

// MaxSize returns the capacity of the tree.
func (t *Tree[K, V]) MaxSize() int {
	return t.maxSize
}

// --------------------------------------------------------------------------
// Mutation
// --------------------------------------------------------------------------

// Set binds value to key. A new key is queued as the newest entry; if the tree
// is full the oldest entry is evicted first. Updating an existing key keeps
// its queue position and never evicts.
func (t *Tree[K, V]) Set(key K, value V) {
	if h := t.arena.Find(t.root, key); h != avl.Nil {
		t.arena.ValuePtr(h).value = value
		return
	}
	if t.arena.Len() >= t.maxSize {
		t.EvictOldest()
	}
	h, _ := t.arena.Insert(&t.root, key, slot[V]{value: value})
	t.arena.ValuePtr(h).elem = t.queue.PushFront(h)
}

// EvictOldest removes the entry that was inserted first and returns it.
func (t *Tree[K, V]) EvictOldest() (K, V, bool) {
	e := t.queue.Back()
	if e == nil {
		var (
			k K
			v V
		)
		return k, v, false
	}
	h := e.Value.(avl.Handle)
	key, value := t.arena.Key(h), t.arena.ValuePtr(h).value
	t.unlink(h)
	if t.onEvict != nil {
		t.onEvict(key, value)
	}
	return key, value, true
}

// Remove deletes key and reports whether it was present.
func (t *Tree[K, V]) Remove(key K) bool {
	h := t.arena.Find(t.root, key)
	if h == avl.Nil {
		return false
	}
	t.unlink(h)
	return true
}

// RemovePair deletes key only if it is bound to value.
func (t *Tree[K, V]) RemovePair(key K, value V) bool {
	h := t.arena.Find(t.root, key)
	if h == avl.Nil || !t.equal(t.arena.ValuePtr(h).value, value) {
		return false
	}
	t.unlink(h)
	return true
}

// unlink drops the queue element and the node of h.
func (t *Tree[K, V]) unlink(h avl.Handle) {
	t.queue.Remove(t.arena.ValuePtr(h).elem)
	t.arena.Delete(&t.root, h)
}

// Clear removes every entry without calling the eviction hook.
func (t *Tree[K, V]) Clear() {
	t.arena.Reset()
	t.root = avl.Nil
	t.queue.Init()
}

// --------------------------------------------------------------------------
// Enumeration
// --------------------------------------------------------------------------

// All yields the entries in key order.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for h := range t.arena.Ascend(t.root) {
			if !yield(t.arena.Key(h), t.arena.ValuePtr(h).value) {
				return
			}
		}
	}
}

// Keys yields the keys in order.
func (t *Tree[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range t.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values yields the values in key order.
func (t *Tree[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range t.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Oldest yields the entries in insertion order, oldest first, which is the
// order in which they would be evicted.
func (t *Tree[K, V]) Oldest() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for e := t.queue.Back(); e != nil; e = e.Prev() {
			h := e.Value.(avl.Handle)
			if !yield(t.arena.Key(h), t.arena.ValuePtr(h).value) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Diagnostics
// --------------------------------------------------------------------------

// Validate checks the tree structure, the one-to-one link between nodes and
// queue elements, and the size limit.
func (t *Tree[K, V]) Validate() error {
	n, err := t.arena.Validate(t.root)
	if err != nil {
		return err
	}
	if n != t.arena.Len() || n != t.queue.Len() {
		return fmt.Errorf("%w: %d nodes reachable, %d counted, %d queued",
			avl.ErrCorrupt, n, t.arena.Len(), t.queue.Len())
	}
	if n > t.maxSize {
		return fmt.Errorf("%w: %d entries exceed capacity %d", avl.ErrCorrupt, n, t.maxSize)
	}

	for h := range t.arena.Ascend(t.root) {
		e := t.arena.ValuePtr(h).elem
		if e == nil {
			return fmt.Errorf("%w: node %v has no queue element", avl.ErrCorrupt, t.arena.Key(h))
		}
		if back, ok := e.Value.(avl.Handle); !ok || back != h {
			return fmt.Errorf("%w: queue element of %v points to %v", avl.ErrCorrupt, t.arena.Key(h), e.Value)
		}
	}
	for e := t.queue.Front(); e != nil; e = e.Next() {
		h, ok := e.Value.(avl.Handle)
		if !ok || t.arena.ValuePtr(h).elem != e {
			return fmt.Errorf("%w: queue element %v is not owned by its node", avl.ErrCorrupt, e.Value)
		}
	}
	return nil
}

// String renders the tree, see avl.Arena.Format.
func (t *Tree[K, V]) String() string {
	return t.arena.Format(t.root)
}
