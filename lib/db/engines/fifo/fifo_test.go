package fifo

import (
	"bytes"
	"fmt"
	"slices"
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
	dbtesting "github.com/ValentinKolb/avlkv/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "FIFODB", func() db.KVDB {
		return NewFIFODB(nil)
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "FIFODB", func() db.KVDB {
		return NewFIFODB(nil)
	})
}

func TestEviction(t *testing.T) {
	d := NewFIFODB(&DBOptions{Capacity: 3}).(*fifoImpl)
	before := d.metrics.Evictions.Get()

	for i := 1; i <= 5; i++ {
		d.Set(fmt.Sprintf("k%d", i), []byte("v"), uint64(i))
	}
	// updating keeps the queue position
	d.Set("k3", []byte("updated"), 6)
	d.Set("k6", []byte("v"), 7)

	keys := d.Keys()
	if !slices.Equal(keys, []string{"k4", "k5", "k6"}) {
		t.Errorf("Expected [k4 k5 k6], got %v", keys)
	}
	if n := d.metrics.Evictions.Get() - before; n < 3 {
		t.Errorf("Expected at least 3 evictions, got %d", n)
	}
	if err := d.data.Validate(); err != nil {
		t.Errorf("Tree invalid: %v", err)
	}
}

func TestDeleteFreesCapacity(t *testing.T) {
	d := NewFIFODB(&DBOptions{Capacity: 2})

	d.Set("a", []byte("1"), 1)
	d.Set("b", []byte("2"), 2)
	d.Delete("a", 3)
	d.Set("c", []byte("3"), 4)

	if !d.Has("b") || !d.Has("c") || d.Has("a") {
		t.Errorf("Expected b and c to survive, got %v", d.Keys())
	}
}

func TestSaveLoadKeepsOrder(t *testing.T) {
	d := NewFIFODB(&DBOptions{Capacity: 4})
	for _, k := range []string{"d", "a", "c", "b"} {
		d.Set(k, []byte(k), 1)
	}

	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		t.Fatal(err)
	}

	// a smaller database keeps the newest two
	small := NewFIFODB(&DBOptions{Capacity: 2}).(*fifoImpl)
	if err := small.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if keys := small.Keys(); !slices.Equal(keys, []string{"b", "c"}) {
		t.Errorf("Expected [b c], got %v", keys)
	}

	// the restored queue evicts in the original order
	same := NewFIFODB(&DBOptions{Capacity: 4}).(*fifoImpl)
	if err := same.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	same.Set("e", []byte("e"), 2)
	if same.Has("d") || !same.Has("a") {
		t.Errorf("Expected d to be evicted first, got %v", same.Keys())
	}
}

func TestGetInfo(t *testing.T) {
	d := NewFIFODB(&DBOptions{Capacity: 10})
	for i := 0; i < 15; i++ {
		d.Set(fmt.Sprintf("key-%02d", i), make([]byte, 10), uint64(i+1))
	}

	info := d.GetInfo()
	meta := info.Metadata.(*Info)
	if meta.Entries != 10 || meta.Capacity != 10 || meta.OldestKey != "key-05" {
		t.Errorf("Unexpected info %+v", meta)
	}
	if d.SupportsFeature(db.FeatureGarbageCollect) {
		t.Errorf("The fifo engine has no garbage collector")
	}
	if !d.SupportsFeature(db.FeatureKeys | db.FeatureCount) {
		t.Errorf("Keys and Count must be supported")
	}
}
