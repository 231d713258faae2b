package avl

import (
	"fmt"
)

// Validate walks the tree rooted at root and returns its node count, or an
// error describing the first inconsistency found. It checks parent links, side
// flags, stored depths, balance factors and strict key ordering.
//
// Validate is O(n) and meant for tests and for checking restored snapshots.
func (a *Arena[K, V]) Validate(root Handle) (int, error) {
	if root == Nil {
		return 0, nil
	}
	if err := a.checkHandle(root); err != nil {
		return 0, err
	}
	if p := a.nodes[root].parent; p != Nil {
		return 0, fmt.Errorf("%w: root %d has parent %d", ErrCorrupt, root, p)
	}

	v := validator[K, V]{arena: a, limit: len(a.nodes) - 1}
	if _, err := v.walk(root); err != nil {
		return 0, err
	}
	return v.count, nil
}

func (a *Arena[K, V]) checkHandle(h Handle) error {
	if h < 0 || int(h) >= len(a.nodes) {
		return fmt.Errorf("%w: handle %d out of range", ErrCorrupt, h)
	}
	return nil
}

type validator[K, V any] struct {
	arena   *Arena[K, V]
	limit   int
	count   int
	prev    K
	hasPrev bool
}

// walk checks the subtree below h in order and returns its height.
func (v *validator[K, V]) walk(h Handle) (int32, error) {
	a := v.arena
	n := &a.nodes[h]

	v.count++
	if v.count > v.limit {
		return 0, fmt.Errorf("%w: more nodes reachable than allocated, cycle at %d", ErrCorrupt, h)
	}

	var hl, hr int32
	if n.left != Nil {
		if err := v.checkChild(h, n.left, true); err != nil {
			return 0, err
		}
		d, err := v.walk(n.left)
		if err != nil {
			return 0, err
		}
		hl = d
	}

	if v.hasPrev && a.cmp(v.prev, n.key) >= 0 {
		return 0, fmt.Errorf("%w: key %v at node %d does not follow %v", ErrCorrupt, n.key, h, v.prev)
	}
	v.prev, v.hasPrev = n.key, true

	if n.right != Nil {
		if err := v.checkChild(h, n.right, false); err != nil {
			return 0, err
		}
		d, err := v.walk(n.right)
		if err != nil {
			return 0, err
		}
		hr = d
	}

	if n.depthL != hl || n.depthR != hr {
		return 0, fmt.Errorf("%w: node %d (key %v) stores depths %d/%d, actual %d/%d",
			ErrCorrupt, h, n.key, n.depthL, n.depthR, hl, hr)
	}
	if b := hr - hl; b > 1 || b < -1 {
		return 0, fmt.Errorf("%w: node %d (key %v) has balance %d", ErrCorrupt, h, n.key, b)
	}
	return 1 + max(hl, hr), nil
}

func (v *validator[K, V]) checkChild(parent, child Handle, isLeft bool) error {
	a := v.arena
	if err := a.checkHandle(child); err != nil {
		return err
	}
	c := &a.nodes[child]
	if c.parent != parent {
		return fmt.Errorf("%w: node %d (key %v) points to parent %d, linked below %d",
			ErrCorrupt, child, c.key, c.parent, parent)
	}
	if c.isLeft != isLeft {
		return fmt.Errorf("%w: node %d (key %v) has side flag left=%t, linked as left=%t",
			ErrCorrupt, child, c.key, c.isLeft, isLeft)
	}
	return nil
}
