package avl

import (
	"fmt"
	"strings"
)

type branch int

const (
	branchRoot branch = iota
	branchLeft
	branchRight
)

// Format renders the tree rooted at root as ASCII art, right subtree on top.
// Each line shows the key, the parent key and the balance factor.
func (a *Arena[K, V]) Format(root Handle) string {
	var sb strings.Builder
	a.format(&sb, root, "", branchRoot)
	return sb.String()
}

func (a *Arena[K, V]) format(sb *strings.Builder, h Handle, prefix string, br branch) {
	if h == Nil {
		return
	}
	n := &a.nodes[h]

	if n.right != Nil {
		pad := "       "
		if br == branchLeft {
			pad = "|      "
		}
		a.format(sb, n.right, prefix+pad, branchRight)
	}

	switch br {
	case branchRoot:
		sb.WriteString(prefix + "|------+ ")
	case branchLeft:
		sb.WriteString(prefix + "\\------+ ")
	case branchRight:
		sb.WriteString(prefix + "/------+ ")
	}
	var up any
	if n.parent != Nil {
		up = a.nodes[n.parent].key
	}
	fmt.Fprintf(sb, "%v ^%v %+d [%d,%d]\n", n.key, up, n.depthR-n.depthL, n.depthL, n.depthR)

	if n.left != Nil {
		pad := "       "
		if br == branchRight {
			pad = "|      "
		}
		a.format(sb, n.left, prefix+pad, branchLeft)
	}
}
