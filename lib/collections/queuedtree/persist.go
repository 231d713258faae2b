package queuedtree

import (
	"container/list"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/ValentinKolb/avlkv/lib/collections/avl"
)

const snapshotVersion = 1

type treeSnapshot[K, V any] struct {
	Version int
	Nodes   []avl.NodeRecord[K, V]
	Order   []K // keys, oldest first
}

// Save writes the tree structure and the queue order as a gob stream. Keys and
// values must be encodable by encoding/gob.
func (t *Tree[K, V]) Save(w io.Writer) error {
	records := t.arena.Snapshot(t.root)
	snap := treeSnapshot[K, V]{
		Version: snapshotVersion,
		Nodes:   make([]avl.NodeRecord[K, V], len(records)),
		Order:   make([]K, 0, len(records)),
	}
	for i, r := range records {
		snap.Nodes[i] = avl.NodeRecord[K, V]{
			Key: r.Key, Value: r.Value.value,
			Left: r.Left, Right: r.Right,
			DepthL: r.DepthL, DepthR: r.DepthR,
		}
	}
	for k := range t.Oldest() {
		snap.Order = append(snap.Order, k)
	}

	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("queuedtree: encode: %w", err)
	}
	return nil
}

// Load replaces the content of the tree with a stream written by Save and
// restores the eviction order. If the stream holds more entries than the
// capacity of t, the oldest ones are dropped without calling the eviction
// hook. On error the tree is left unchanged.
func (t *Tree[K, V]) Load(r io.Reader) error {
	var snap treeSnapshot[K, V]
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("queuedtree: decode: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("queuedtree: unsupported snapshot version %d", snap.Version)
	}
	if len(snap.Order) != len(snap.Nodes) {
		return fmt.Errorf("%w: %d queued keys for %d nodes", avl.ErrCorrupt, len(snap.Order), len(snap.Nodes))
	}

	records := make([]avl.NodeRecord[K, slot[V]], len(snap.Nodes))
	for i, n := range snap.Nodes {
		records[i] = avl.NodeRecord[K, slot[V]]{
			Key: n.Key, Value: slot[V]{value: n.Value},
			Left: n.Left, Right: n.Right,
			DepthL: n.DepthL, DepthR: n.DepthR,
		}
	}

	restored := &Tree[K, V]{
		arena:   avl.NewArena[K, slot[V]](t.arena.Compare, len(records)),
		queue:   list.New(),
		maxSize: t.maxSize,
		equal:   t.equal,
		onEvict: t.onEvict,
	}
	root, _, err := restored.arena.Restore(records)
	if err != nil {
		return err
	}
	restored.root = root

	for _, k := range snap.Order {
		h := restored.arena.Find(root, k)
		if h == avl.Nil || restored.arena.ValuePtr(h).elem != nil {
			return fmt.Errorf("%w: queued key %v missing or repeated", avl.ErrCorrupt, k)
		}
		restored.arena.ValuePtr(h).elem = restored.queue.PushFront(h)
	}

	hook := restored.onEvict
	restored.onEvict = nil
	for restored.Count() > restored.maxSize {
		restored.EvictOldest()
	}
	restored.onEvict = hook

	*t = *restored
	return nil
}
