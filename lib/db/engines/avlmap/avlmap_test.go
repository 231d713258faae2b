package avlmap

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/internal"
	dbtesting "github.com/ValentinKolb/avlkv/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "AVLMapDB", func() db.KVDB {
		return NewAVLMapDB(nil)
	})
}

// a single shard with one bucket forces every key into one AVL tree
func TestSingleBucket(t *testing.T) {
	dbtesting.RunKVDBTests(t, "AVLMapDB-1x1", func() db.KVDB {
		return NewAVLMapDB(&DBOptions{NumShards: 1, Buckets: 1})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "AVLMapDB", func() db.KVDB {
		return NewAVLMapDB(nil)
	})
}

func TestGarbageCollection(t *testing.T) {
	d := NewAVLMapDB(&DBOptions{NumShards: 2, Buckets: 8, GCInterval: time.Millisecond}).(*avlmapImpl)
	defer d.Close()

	for i := 0; i < 100; i++ {
		d.SetE(fmt.Sprintf("key-%d", i), []byte("value"), 1, 5, 10)
	}
	d.Set("keep", []byte("forever"), 1)
	d.SetWriteIdx(20)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.physicalCount() == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if n := d.physicalCount(); n != 1 {
		t.Fatalf("Expected the GC to leave one entry, found %d", n)
	}
	for _, s := range d.shards {
		if s.expireHeap.Len() != 0 || s.deleteHeap.Len() != 0 {
			t.Errorf("GC heaps should be drained")
		}
		if err := s.data.Validate(); err != nil {
			t.Errorf("Shard invalid after GC: %v", err)
		}
	}
	if v, ok := d.Get("keep"); !ok || string(v) != "forever" {
		t.Errorf("Entry without TTL was collected")
	}
}

func TestCollectExpiresBeforeDelete(t *testing.T) {
	d := NewAVLMapDB(&DBOptions{NumShards: 1, GCInterval: time.Hour}).(*avlmapImpl)
	defer d.Close()

	d.SetE("k", []byte("v"), 1, 2, 10)
	d.SetWriteIdx(5)
	d.collect()

	s := d.shardFor("k")
	e, ok := s.data.TryGet("k")
	if !ok || e.Value != nil {
		t.Fatalf("Expected the value to be reclaimed and the key kept, got %+v, %v", e, ok)
	}
	if !d.Has("k") {
		t.Errorf("Expired key must still be found by Has")
	}

	// overwriting without TTL unschedules the deletion
	d.Set("k", []byte("v2"), 6)
	d.SetWriteIdx(20)
	d.collect()
	if v, ok := d.Get("k"); !ok || string(v) != "v2" {
		t.Errorf("Overwritten entry was collected")
	}
}

func TestDeleteTombstoneBlocksStaleWrite(t *testing.T) {
	d := NewAVLMapDB(&DBOptions{NumShards: 1, GCInterval: time.Hour}).(*avlmapImpl)
	defer d.Close()

	d.Set("k", []byte("v"), 1)
	d.Delete("k", 5)
	d.Set("k", []byte("late"), 3)
	if d.Has("k") {
		t.Errorf("Stale write resurrected a deleted key")
	}
	if d.Count() != 0 {
		t.Errorf("Deleted key is still counted")
	}
}

func TestLoadRejectsOtherEngine(t *testing.T) {
	var buf bytes.Buffer
	if err := internal.WriteHeader(&buf, internal.Header{Engine: db.ImplFIFO}); err != nil {
		t.Fatal(err)
	}
	d := NewAVLMapDB(nil)
	defer d.Close()
	d.Set("k", []byte("v"), 1)

	if err := d.Load(&buf); err == nil {
		t.Errorf("Expected an error for a fifo snapshot")
	}
	if !d.Has("k") {
		t.Errorf("Failed Load must keep the content")
	}
}

func TestGetInfo(t *testing.T) {
	d := NewAVLMapDB(&DBOptions{NumShards: 4, Buckets: 16})
	defer d.Close()
	for i := 0; i < 500; i++ {
		d.Set(fmt.Sprintf("key-%d", i), make([]byte, 100), 1)
	}

	info := d.GetInfo()
	meta, ok := info.Metadata.(*Info)
	if !ok {
		t.Fatalf("Unexpected metadata type %T", info.Metadata)
	}
	if info.DbType != db.ImplAVLMap || meta.Entries != 500 || meta.ShardCount != 4 {
		t.Errorf("Unexpected info %+v", meta)
	}
	if meta.Buckets.Buckets != 64 || meta.Buckets.Trees == 0 {
		t.Errorf("Expected collision trees in 64 buckets, got %+v", meta.Buckets)
	}
	if info.SizeBytes < 500*100 {
		t.Errorf("Size estimate too small: %d", info.SizeBytes)
	}
	if len(info.SupportedFeatures) != 12 {
		t.Errorf("Expected 12 features, got %v", info.SupportedFeatures)
	}
}

// physicalCount counts stored entries including tombstones
func (d *avlmapImpl) physicalCount() int {
	n := 0
	for _, s := range d.shards {
		t := s.mu.RLock()
		n += s.data.Count()
		s.mu.RUnlock(t)
	}
	return n
}
