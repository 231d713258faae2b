// Package util provides helpers shared by the db.KVDB engines.
//
// The package contains:
//   - functions: seeded key hashing (xxhash) and seed generation
//   - mapheap: a generic priority queue with key-based access, used to
//     schedule expiration and deletion of entries
//   - statistics: summary statistics for shard and bucket distribution and a
//     sampled value size histogram
package util
