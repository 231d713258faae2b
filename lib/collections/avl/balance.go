package avl

// --------------------------------------------------------------------------
// Depth bookkeeping
// --------------------------------------------------------------------------

// height is the depth a subtree rooted at h contributes to its parent.
func (a *Arena[K, V]) height(h Handle) int32 {
	if h == Nil {
		return 0
	}
	n := &a.nodes[h]
	return 1 + max(n.depthL, n.depthR)
}

// updateDepth recomputes both depth counters of h from its children.
func (a *Arena[K, V]) updateDepth(h Handle) {
	n := &a.nodes[h]
	n.depthL = a.height(n.left)
	n.depthR = a.height(n.right)
}

// balance returns right depth minus left depth.
func (a *Arena[K, V]) balance(h Handle) int32 {
	n := &a.nodes[h]
	return n.depthR - n.depthL
}

// --------------------------------------------------------------------------
// Rotations
// --------------------------------------------------------------------------

// replaceChild hangs repl where old is hanging: below old's parent with old's
// side flag, or as the new root. old keeps its own links.
func (a *Arena[K, V]) replaceChild(root *Handle, old, repl Handle) {
	o := &a.nodes[old]
	p, isLeft := o.parent, o.isLeft
	if repl != Nil {
		r := &a.nodes[repl]
		r.parent = p
		r.isLeft = isLeft
	}
	switch {
	case p == Nil:
		*root = repl
	case isLeft:
		a.nodes[p].left = repl
	default:
		a.nodes[p].right = repl
	}
}

// rotateLeft promotes the right child of h into the position of h and returns
// the promoted node.
//
//	  h                r
//	 / \              / \
//	a   r     ->     h   c
//	   / \          / \
//	  b   c        a   b
func (a *Arena[K, V]) rotateLeft(root *Handle, h Handle) Handle {
	r := a.nodes[h].right
	a.replaceChild(root, h, r)

	inner := a.nodes[r].left
	a.nodes[h].right = inner
	if inner != Nil {
		a.nodes[inner].parent = h
		a.nodes[inner].isLeft = false
	}

	a.nodes[r].left = h
	a.nodes[h].parent = r
	a.nodes[h].isLeft = true

	a.updateDepth(h)
	a.updateDepth(r)
	return r
}

// rotateRight is the mirror of rotateLeft.
func (a *Arena[K, V]) rotateRight(root *Handle, h Handle) Handle {
	l := a.nodes[h].left
	a.replaceChild(root, h, l)

	inner := a.nodes[l].right
	a.nodes[h].left = inner
	if inner != Nil {
		a.nodes[inner].parent = h
		a.nodes[inner].isLeft = true
	}

	a.nodes[l].right = h
	a.nodes[h].parent = l
	a.nodes[h].isLeft = false

	a.updateDepth(h)
	a.updateDepth(l)
	return l
}

// --------------------------------------------------------------------------
// Rebalancing
// --------------------------------------------------------------------------

// rebalance restores the balance of the subtree rooted at h and returns the
// handle now occupying that position.
//
// A balance beyond ±2 means more than one level is out of shape. The heavier
// child is repaired first so that the rotation at h works on a valid subtree.
// The repair reaches one level below h only. Insert and Delete never leave
// more than that, but a hand-built right chain of 8 nodes passed to
// bubbleUpRemove still ends with a node of balance 2; chains of up to 6 nodes
// come out valid.
func (a *Arena[K, V]) rebalance(root *Handle, h Handle) Handle {
	b := a.balance(h)
	if b > 2 || b < -2 {
		heavy := a.nodes[h].right
		if b < 0 {
			heavy = a.nodes[h].left
		}
		a.rebalance(root, heavy)
		a.updateDepth(h)
		b = a.balance(h)
	}

	switch {
	case b > 1:
		if r := a.nodes[h].right; a.balance(r) < 0 {
			a.rotateRight(root, r)
		}
		return a.rotateLeft(root, h)
	case b < -1:
		if l := a.nodes[h].left; a.balance(l) > 0 {
			a.rotateLeft(root, l)
		}
		return a.rotateRight(root, h)
	}
	return h
}

// bubbleUpInsert walks from the freshly linked leaf h towards the root and
// propagates the grown depth. The first unbalanced ancestor is rotated and the
// walk ends there, since one rotation restores the height the subtree had
// before the insert.
func (a *Arena[K, V]) bubbleUpInsert(root *Handle, h Handle) {
	for {
		n := &a.nodes[h]
		p := n.parent
		if p == Nil {
			return
		}

		d := 1 + max(n.depthL, n.depthR)
		pn := &a.nodes[p]
		if n.isLeft {
			if pn.depthL == d {
				return
			}
			pn.depthL = d
		} else {
			if pn.depthR == d {
				return
			}
			pn.depthR = d
		}

		if b := pn.depthR - pn.depthL; b > 1 || b < -1 {
			a.rebalance(root, p)
			return
		}
		h = p
	}
}

// bubbleUpRemove recomputes the depths of h and all of its ancestors and
// rotates wherever the balance is out of range. A removal can shrink a subtree
// after a rotation, so the walk always continues to the root.
func (a *Arena[K, V]) bubbleUpRemove(root *Handle, h Handle) {
	for h != Nil {
		a.updateDepth(h)
		if b := a.balance(h); b > 1 || b < -1 {
			h = a.rebalance(root, h)
		}
		h = a.nodes[h].parent
	}
}
