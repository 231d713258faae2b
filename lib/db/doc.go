// Package db defines KVDB, the interface of the storage engines, together
// with feature flags and the DatabaseInfo reported by GetInfo.
//
// Time is logical. Every write passes a write index and lifetimes are given
// in indices, so an engine behaves the same when the writes are replayed.
// Engines keep the index monotonic and ignore writes older than the entry
// they would change, which makes them safe to use behind a log that may
// deliver a write twice.
//
// Engines may keep expired or deleted entries in memory until they are
// collected, but this never shows: Get does not return an expired value and
// Has does not report a deleted key.
//
// Related Packages:
//
// The engines package selects an implementation by name:
//   - engines/avlmap: sharded hash maps whose buckets are AVL trees, with a
//     background collector for expired and deleted entries
//   - engines/fifo: a single AVL tree bounded to a capacity that evicts the
//     oldest inserted key, entries expire lazily on access
//
// The util package provides the hash functions, the MapHeap used by the
// avlmap collector and the size statistics reported by GetInfo.
//
// The testing package holds the conformance suite (RunKVDBTests) and the
// benchmarks (RunKVDBBenchmarks) every engine runs.
package db
