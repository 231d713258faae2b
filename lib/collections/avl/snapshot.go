package avl

import (
	"fmt"
)

// NodeRecord is the persisted form of one node. Children are indices into the
// record slice (-1 when absent). Parent links and side flags are not stored;
// Restore derives them from the child links.
type NodeRecord[K, V any] struct {
	Key    K
	Value  V
	Left   int32
	Right  int32
	DepthL int32
	DepthR int32
}

// Snapshot returns the tree rooted at root in pre-order, root first.
func (a *Arena[K, V]) Snapshot(root Handle) []NodeRecord[K, V] {
	if root == Nil {
		return nil
	}
	records := make([]NodeRecord[K, V], 0, 16)

	var visit func(h Handle) int32
	visit = func(h Handle) int32 {
		if h == Nil {
			return -1
		}
		n := &a.nodes[h]
		idx := int32(len(records))
		records = append(records, NodeRecord[K, V]{
			Key:    n.key,
			Value:  n.value,
			DepthL: n.depthL,
			DepthR: n.depthR,
		})
		l := visit(n.left)
		r := visit(n.right)
		records[idx].Left, records[idx].Right = l, r
		return idx
	}
	visit(root)
	return records
}

// Restore allocates the nodes described by records (as produced by Snapshot)
// and returns the root of the rebuilt tree together with the handle of every
// record. The result is validated; on error the arena may contain orphaned
// nodes and should be discarded by the caller.
func (a *Arena[K, V]) Restore(records []NodeRecord[K, V]) (Handle, []Handle, error) {
	if len(records) == 0 {
		return Nil, nil, nil
	}

	handles := make([]Handle, len(records))
	for i, r := range records {
		handles[i] = a.alloc(r.Key, r.Value)
	}

	linked := make([]bool, len(records))
	link := func(parent int, child int32, isLeft bool) (Handle, error) {
		if child < 0 {
			return Nil, nil
		}
		if int(child) >= len(records) || child == 0 || linked[child] {
			return Nil, fmt.Errorf("%w: record %d has invalid child %d", ErrCorrupt, parent, child)
		}
		linked[child] = true
		c := &a.nodes[handles[child]]
		c.parent = handles[parent]
		c.isLeft = isLeft
		return handles[child], nil
	}

	for i, r := range records {
		l, err := link(i, r.Left, true)
		if err != nil {
			return Nil, nil, err
		}
		rt, err := link(i, r.Right, false)
		if err != nil {
			return Nil, nil, err
		}
		n := &a.nodes[handles[i]]
		n.left, n.right = l, rt
		n.depthL, n.depthR = r.DepthL, r.DepthR
	}

	root := handles[0]
	count, err := a.Validate(root)
	if err != nil {
		return Nil, nil, err
	}
	if count != len(records) {
		return Nil, nil, fmt.Errorf("%w: %d of %d records reachable from the root", ErrCorrupt, count, len(records))
	}
	return root, handles, nil
}
