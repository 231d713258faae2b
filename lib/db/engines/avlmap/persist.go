package avlmap

import (
	"bufio"
	"io"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/internal"
)

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

type savedEntry struct {
	key   string
	entry internal.Entry
}

// Save writes a fuzzy snapshot of the database. Deleted keys are skipped.
//
// Thread-safety: Save may run concurrently with every method except Load.
func (d *avlmapImpl) Save(w io.Writer) error {
	idx := d.currIndex.Load()

	// values are never modified in place, so copying the entries is enough
	var entries []savedEntry
	for _, s := range d.shards {
		t := s.mu.RLock()
		for k, e := range s.data.All() {
			if _, isDeleted := e.TTLInfo(idx); !isDeleted {
				entries = append(entries, savedEntry{k, e})
			}
		}
		s.mu.RUnlock(t)
	}

	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer
	header := internal.Header{Engine: db.ImplAVLMap, Seed: d.seed, Index: idx, Count: uint64(len(entries))}
	if err := internal.WriteHeader(bw, header); err != nil {
		return err
	}
	for _, item := range entries {
		if err := internal.WriteEntry(bw, item.key, item.entry); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load replaces the content of the database with a snapshot written by Save.
// The write index is raised to the index stored in the snapshot. On
// error the database keeps its previous content.
//
// Thread-safety: Load must not run concurrently with any other method.
func (d *avlmapImpl) Load(r io.Reader) error {
	d.stopGC()
	defer d.startGC()

	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer
	header, err := internal.ReadHeader(br, db.ImplAVLMap)
	if err != nil {
		return err
	}

	// hash with the seed of the snapshot so keys land in the same buckets
	shards := d.newShards(len(d.shards), header.Seed)

	maxIndex := header.Index
	for i := uint64(0); i < header.Count; i++ {
		key, entry, err := internal.ReadEntry(br)
		if err != nil {
			return err
		}
		maxIndex = max(maxIndex, entry.Index)

		s := shards[shardIndex(key, header.Seed, len(shards))]
		s.data.Set(key, entry)
		s.schedule(key, entry)
	}

	d.seed = header.Seed
	d.shards = shards
	d.SetWriteIdx(maxIndex)
	return nil
}
