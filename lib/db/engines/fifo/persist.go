package fifo

import (
	"bufio"
	"io"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/internal"
)

type savedEntry struct {
	key   string
	entry internal.Entry
}

// Save writes the visible entries oldest first
func (d *fifoImpl) Save(w io.Writer) error {
	idx := d.currIndex.Load()

	t := d.mu.RLock()
	entries := make([]savedEntry, 0, d.data.Count())
	for k, e := range d.data.Oldest() {
		if _, isDeleted := e.TTLInfo(idx); !isDeleted {
			entries = append(entries, savedEntry{k, e})
		}
	}
	d.mu.RUnlock(t)

	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer
	header := internal.Header{Engine: db.ImplFIFO, Index: idx, Count: uint64(len(entries))}
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

// Load replaces the content with a snapshot written by Save. Entries are
// queued in snapshot order; if the snapshot holds more keys than the
// capacity, the oldest ones are evicted. On error the database keeps its
// previous content.
func (d *fifoImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer
	header, err := internal.ReadHeader(br, db.ImplFIFO)
	if err != nil {
		return err
	}

	tree := d.newTree()
	maxIndex := header.Index
	for i := uint64(0); i < header.Count; i++ {
		key, entry, err := internal.ReadEntry(br)
		if err != nil {
			return err
		}
		maxIndex = max(maxIndex, entry.Index)
		tree.Set(key, entry)
	}

	d.mu.Lock()
	d.data = tree
	d.mu.Unlock()
	d.SetWriteIdx(maxIndex)
	return nil
}
