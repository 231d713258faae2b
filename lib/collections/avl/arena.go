package avl

import (
	"errors"
)

// ErrCorrupt is wrapped by every error returned from Validate and Restore.
var ErrCorrupt = errors.New("avl: corrupt tree")

// Handle addresses a node inside an Arena.
type Handle int32

// Nil is the handle of the absent node. An empty tree has Nil as its root.
const Nil Handle = 0

// node is one slot of the arena.
type node[K, V any] struct {
	key    K
	value  V
	parent Handle // back-reference, also the free list link of released slots
	left   Handle
	right  Handle
	depthL int32 // 1 + max(depths of the left child), 0 without a left child
	depthR int32
	isLeft bool // true if the node is the left child of its parent
}

// Arena stores the nodes of one or more trees.
type Arena[K, V any] struct {
	nodes []node[K, V]
	free  Handle
	live  int
	cmp   func(a, b K) int
}

// NewArena creates an empty arena ordering keys with cmp.
// capacityHint preallocates room for that many nodes.
func NewArena[K, V any](cmp func(a, b K) int, capacityHint int) *Arena[K, V] {
	if cmp == nil {
		panic("avl: nil compare function")
	}
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Arena[K, V]{
		nodes: make([]node[K, V], 1, capacityHint+1),
		cmp:   cmp,
	}
}

// alloc takes a slot from the free list or appends a new one.
// Pointers into a.nodes must not be held across a call to alloc.
func (a *Arena[K, V]) alloc(key K, value V) Handle {
	a.live++
	if h := a.free; h != Nil {
		a.free = a.nodes[h].parent
		a.nodes[h] = node[K, V]{key: key, value: value}
		return h
	}
	a.nodes = append(a.nodes, node[K, V]{key: key, value: value})
	return Handle(len(a.nodes) - 1)
}

// release clears the slot so the key and value can be collected and puts it on
// the free list.
func (a *Arena[K, V]) release(h Handle) {
	a.nodes[h] = node[K, V]{parent: a.free}
	a.free = h
	a.live--
}

// Len returns the number of live nodes across all trees of the arena.
func (a *Arena[K, V]) Len() int {
	return a.live
}

// Compare exposes the ordering of the arena.
func (a *Arena[K, V]) Compare(x, y K) int {
	return a.cmp(x, y)
}

// Reset drops every node of every tree. Roots held by callers become invalid
// and must be set to Nil.
func (a *Arena[K, V]) Reset() {
	clear(a.nodes)
	a.nodes = a.nodes[:1]
	a.free = Nil
	a.live = 0
}

// Key returns the key stored at h.
func (a *Arena[K, V]) Key(h Handle) K {
	return a.nodes[h].key
}

// Value returns the value stored at h.
func (a *Arena[K, V]) Value(h Handle) V {
	return a.nodes[h].value
}

// ValuePtr returns a pointer to the value stored at h. The pointer is valid
// until the next insert into the arena.
func (a *Arena[K, V]) ValuePtr(h Handle) *V {
	return &a.nodes[h].value
}

// SetValue replaces the value stored at h.
func (a *Arena[K, V]) SetValue(h Handle, value V) {
	a.nodes[h].value = value
}
