// Package avlmap implements the db.KVDB interface on top of hashmap.Map, the
// bucketed map whose buckets fall back to AVL trees on collision.
//
// Key Components:
//
//   - avlmapImpl: the database. Keys are spread over a power-of-two number of
//     shards by a seeded xxhash of the key. The write index (the logical clock
//     of the database) is owned by the caller and only moves forward.
//
//   - shard: one hashmap.Map guarded by an xsync.RBMutex. Readers take the
//     reader side of the mutex, every write takes the writer side for the
//     whole update, so no reader ever sees a bucket tree in the middle of a
//     rotation. Each shard also carries two MapHeaps that schedule the
//     expiration and deletion of its entries by write index. The heaps are
//     updated in the same critical section as the map.
//
//   - Garbage collection: a single goroutine wakes up on a ticker, visits the
//     shards one by one and drops values whose expiration index was reached and
//     keys whose deletion index was reached. Get and Has evaluate the TTL of an
//     entry themselves, so results never depend on the GC having run.
//
// Time-based Operations:
//
//   - expireIn: the value is dropped once the write index reaches
//     writeIndex+expireIn. The key stays visible to Has and Keys.
//   - deleteIn: the key is removed once the write index reaches
//     writeIndex+deleteIn.
//   - Delete marks the key as deleted at the write index of the call. The
//     tombstone keeps stale writes from resurrecting the key until the GC
//     removes it.
//
// Persistence Format: see lib/db/engines/internal. Save produces a fuzzy
// snapshot: each shard is copied under its read lock, shards are not frozen
// together. Load replaces the content and must not run concurrently with
// other operations.
package avlmap
