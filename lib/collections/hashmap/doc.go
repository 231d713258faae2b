// Package hashmap provides Map, a hash map with a fixed number of buckets in
// which colliding keys are kept in an AVL tree per bucket.
//
// A bucket is in one of three states: empty, holding a single entry inline, or
// holding the root of an AVL tree. The second key that lands in a single-entry
// bucket turns it into a two-node tree; removing entries from a tree bucket
// collapses it back to a single entry or to empty. Lookups cost O(1) on average
// and O(log k) in the worst case, k being the number of keys in the bucket.
//
// All trees of a map share one avl.Arena.
//
// Map is not safe for concurrent use. Readers may run in parallel only if no
// writer is active, see the routing package for a synchronized wrapper.
package hashmap
