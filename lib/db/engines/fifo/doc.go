// Package fifo implements db.KVDB on a single bounded AVL tree that evicts
// its oldest key once the capacity is reached.
//
// The engine suits caches whose working set is bounded by insertion age.
// It trades the sharding of the avlmap engine for ordered storage and a hard
// memory limit:
//
//   - Every key is kept in one queuedtree.Tree guarded by an xsync.RBMutex.
//   - A new key beyond the capacity evicts the key inserted first. Updating
//     an existing key keeps its position in the queue.
//   - Delete removes the key at once. TTLs are evaluated lazily on reads and
//     entries past their deletion index wait for the next overwrite or for
//     eviction. There is no garbage collector.
//   - Snapshots are written oldest first, so Load restores the eviction order.
package fifo
