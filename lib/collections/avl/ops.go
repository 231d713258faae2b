package avl

import (
	"iter"
)

// --------------------------------------------------------------------------
// Search
// --------------------------------------------------------------------------

// Find returns the node holding key in the tree rooted at root, or Nil.
func (a *Arena[K, V]) Find(root Handle, key K) Handle {
	h := root
	for h != Nil {
		n := &a.nodes[h]
		c := a.cmp(key, n.key)
		switch {
		case c < 0:
			h = n.left
		case c > 0:
			h = n.right
		default:
			return h
		}
	}
	return Nil
}

// --------------------------------------------------------------------------
// Insert
// --------------------------------------------------------------------------

// Insert stores value under key in the tree rooted at *root. An existing node
// is updated in place. The returned bool is true if a new node was created.
func (a *Arena[K, V]) Insert(root *Handle, key K, value V) (Handle, bool) {
	if *root == Nil {
		h := a.alloc(key, value)
		*root = h
		return h, true
	}

	cur := *root
	for {
		n := &a.nodes[cur]
		c := a.cmp(key, n.key)
		if c == 0 {
			n.value = value
			return cur, false
		}

		next := n.right
		if c < 0 {
			next = n.left
		}
		if next != Nil {
			cur = next
			continue
		}

		h := a.alloc(key, value)
		a.nodes[h].parent = cur
		a.nodes[h].isLeft = c < 0
		if c < 0 {
			a.nodes[cur].left = h
		} else {
			a.nodes[cur].right = h
		}
		a.bubbleUpInsert(root, h)
		return h, true
	}
}

// --------------------------------------------------------------------------
// Removal
// --------------------------------------------------------------------------

// Delete unlinks h from the tree rooted at *root, rebalances and releases the
// node. h must belong to that tree.
func (a *Arena[K, V]) Delete(root *Handle, h Handle) {
	n := a.nodes[h]

	switch {
	case n.left == Nil || n.right == Nil:
		child := n.left
		if child == Nil {
			child = n.right
		}
		a.replaceChild(root, h, child)
		a.bubbleUpRemove(root, n.parent)

	default:
		// the in-order successor takes the place of h
		succ := n.right
		for a.nodes[succ].left != Nil {
			succ = a.nodes[succ].left
		}

		start := succ
		if succ != n.right {
			sp := a.nodes[succ].parent
			sr := a.nodes[succ].right
			a.nodes[sp].left = sr
			if sr != Nil {
				a.nodes[sr].parent = sp
				a.nodes[sr].isLeft = true
			}
			a.nodes[succ].right = n.right
			a.nodes[n.right].parent = succ
			start = sp
		}

		a.nodes[succ].left = n.left
		a.nodes[n.left].parent = succ
		a.replaceChild(root, h, succ)
		a.bubbleUpRemove(root, start)
	}

	a.release(h)
}

// Clear releases every node of the tree rooted at *root and sets it to Nil.
// Other trees in the same arena are not touched.
func (a *Arena[K, V]) Clear(root *Handle) {
	stack := []Handle{*root}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == Nil {
			continue
		}
		stack = append(stack, a.nodes[h].left, a.nodes[h].right)
		a.release(h)
	}
	*root = Nil
}

// --------------------------------------------------------------------------
// Iteration
// --------------------------------------------------------------------------

// First returns the node with the lowest key below h.
func (a *Arena[K, V]) First(h Handle) Handle {
	if h == Nil {
		return Nil
	}
	for a.nodes[h].left != Nil {
		h = a.nodes[h].left
	}
	return h
}

// Last returns the node with the highest key below h.
func (a *Arena[K, V]) Last(h Handle) Handle {
	if h == Nil {
		return Nil
	}
	for a.nodes[h].right != Nil {
		h = a.nodes[h].right
	}
	return h
}

// Next returns the in-order successor of h or Nil.
func (a *Arena[K, V]) Next(h Handle) Handle {
	if r := a.nodes[h].right; r != Nil {
		return a.First(r)
	}
	for {
		n := &a.nodes[h]
		if n.parent == Nil {
			return Nil
		}
		if n.isLeft {
			return n.parent
		}
		h = n.parent
	}
}

// Prev returns the in-order predecessor of h or Nil.
func (a *Arena[K, V]) Prev(h Handle) Handle {
	if l := a.nodes[h].left; l != Nil {
		return a.Last(l)
	}
	for {
		n := &a.nodes[h]
		if n.parent == Nil {
			return Nil
		}
		if !n.isLeft {
			return n.parent
		}
		h = n.parent
	}
}

// Ascend yields the nodes of the tree rooted at root in key order.
// The tree must not be modified while the sequence is consumed.
func (a *Arena[K, V]) Ascend(root Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		for h := a.First(root); h != Nil; h = a.Next(h) {
			if !yield(h) {
				return
			}
		}
	}
}
