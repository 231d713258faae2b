// Package queuedtree provides Tree, an ordered map with a fixed maximum size
// that evicts its oldest entry when a new key would exceed that size.
//
// Entries are kept in an AVL tree for lookups and in a linked queue that
// records insertion order. Each tree node refers to its queue element and each
// queue element refers back to its node, neither reference owning the other.
// Eviction is strictly first in, first out: updating the value of an existing
// key does not move it in the queue and reading never does.
//
// Tree is not safe for concurrent use.
package queuedtree
