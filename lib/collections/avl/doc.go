// Package avl implements the balancing engine shared by the ordered containers
// of this module.
//
// Nodes are stored in an Arena and addressed by Handle values instead of
// pointers. A node owns its two children; the parent handle is a back-reference
// that is only used to walk upwards while rebalancing, removing or iterating.
// It never decides the lifetime of a node. Several independent trees may live
// in the same arena, each identified by the handle of its root, which is why
// every mutating operation takes a *Handle pointing at the root slot of the
// tree it modifies.
//
// Key Components:
//
//   - Arena: node storage with a free list. All engine operations (Find,
//     Insert, Delete, iteration, Validate, Snapshot/Restore) are methods on it.
//
//   - Balancing: every node stores the depth of its left and right subtree.
//     The balance factor is right depth minus left depth. Inserts propagate
//     the new depth upwards until one rotation (single or double) restores
//     the invariant. Removals recompute the depths of every ancestor and may
//     rotate at several levels on the way to the root.
//
//   - Tree: a plain ordered map that owns one arena and one root. The
//     hashmap and queuedtree packages build on the arena directly.
//
// None of the types in this package are safe for concurrent use. Callers that
// share a container between goroutines must serialize writers and must not let
// readers run concurrently with a writer.
package avl
