// Package internal holds what the avlmap and fifo engines share: the Entry
// type with its TTL bookkeeping, the write resolution rules (stale writes,
// logical deletion), the binary snapshot format and the engine metrics.
package internal
