package hashmap

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/ValentinKolb/avlkv/lib/collections/avl"
)

const snapshotVersion = 1

// bucketRecord is one non-empty bucket. Single entries use Key and Value, tree
// buckets use Nodes.
type bucketRecord[K, V any] struct {
	Index int
	Key   K
	Value V
	Nodes []avl.NodeRecord[K, V]
}

type mapSnapshot[K, V any] struct {
	Version int
	Buckets int
	Count   int
	Entries []bucketRecord[K, V]
}

// Save writes the map as a gob stream: the bucket count and, for every
// non-empty bucket, its single entry or its tree structure. Parent links are
// not written. Keys and values must be encodable by encoding/gob.
func (m *Map[K, V]) Save(w io.Writer) error {
	snap := mapSnapshot[K, V]{
		Version: snapshotVersion,
		Buckets: len(m.buckets),
		Count:   m.count,
	}
	for i := range m.buckets {
		b := &m.buckets[i]
		switch b.kind {
		case slotSingle:
			snap.Entries = append(snap.Entries, bucketRecord[K, V]{Index: i, Key: b.key, Value: b.value})
		case slotTree:
			snap.Entries = append(snap.Entries, bucketRecord[K, V]{Index: i, Nodes: m.arena.Snapshot(b.root)})
		}
	}
	if err := gob.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("hashmap: encode: %w", err)
	}
	return nil
}

// Load replaces the content of the map with a stream written by Save. The
// bucket count of the stream is adopted. The hash function must place every
// key in the bucket it was saved in, otherwise Load fails and the map is left
// unchanged.
func (m *Map[K, V]) Load(r io.Reader) error {
	var snap mapSnapshot[K, V]
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("hashmap: decode: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("hashmap: unsupported snapshot version %d", snap.Version)
	}
	if snap.Buckets <= 0 {
		return fmt.Errorf("%w: snapshot has %d buckets", avl.ErrCorrupt, snap.Buckets)
	}

	restored := &Map[K, V]{
		buckets: make([]bucket[K, V], snap.Buckets),
		arena:   avl.NewArena[K, V](m.cmp, 0),
		hash:    m.hash,
		cmp:     m.cmp,
		equal:   m.equal,
		count:   snap.Count,
	}
	for _, e := range snap.Entries {
		if e.Index < 0 || e.Index >= snap.Buckets || restored.buckets[e.Index].kind != slotEmpty {
			return fmt.Errorf("%w: invalid bucket index %d", avl.ErrCorrupt, e.Index)
		}
		b := &restored.buckets[e.Index]
		if len(e.Nodes) == 0 {
			*b = bucket[K, V]{kind: slotSingle, key: e.Key, value: e.Value}
			continue
		}
		root, _, err := restored.arena.Restore(e.Nodes)
		if err != nil {
			return fmt.Errorf("bucket %d: %w", e.Index, err)
		}
		*b = bucket[K, V]{kind: slotTree, root: root}
	}

	if err := restored.Validate(); err != nil {
		return err
	}
	*m = *restored
	return nil
}
