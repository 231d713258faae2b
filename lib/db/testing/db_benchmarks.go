package testing

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory())
	})

	b.Run("SetWithExpiry", func(b *testing.B) {
		benchmarkSetWithExpiry(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("KeysCount", func(b *testing.B) {
		benchmarkKeysCount(b, factory())
	})

	b.Run("SaveLoad", func(b *testing.B) {
		benchmarkSaveLoad(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// fill writes n keys named prefix-i at writeIndex 1 and returns them
func fill(database db.KVDB, prefix string, n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s-%d", prefix, i)
		database.Set(keys[i], []byte(fmt.Sprintf("value-%d", i)), 1)
	}
	return keys
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)

	var counter atomic.Int64
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			database.Set(fmt.Sprintf("set-key-%d", i), value, uint64(i))
		}
	})
}

// every write hits an existing key, so buckets and trees keep their shape
func benchmarkSetExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)

	keys := fill(database, "existing", 1000)
	var counter atomic.Int64
	value := []byte("updated-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := counter.Add(1)
			database.Set(keys[int(i)%len(keys)], value, uint64(i)+1)
		}
	})
}

func benchmarkSetWithExpiry(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSetE)

	var counter atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := uint64(counter.Add(1))
			database.SetE(fmt.Sprintf("expiry-key-%d", i), []byte("value"), i, 10, 20)
		}
	})
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureGet)

	keys := fill(database, "get", 10_000)
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			database.Get(keys[int(counter.Add(1))%len(keys)])
		}
	})
}

func benchmarkHasNot(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureHas)

	fill(database, "present", 1000)
	var counter atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			database.Has(fmt.Sprintf("missing-%d", counter.Add(1)))
		}
	})
}

func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureDelete)

	keys := fill(database, "delete", b.N)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Delete(keys[i], uint64(i)+2)
	}
}

func benchmarkKeysCount(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureKeys|db.FeatureCount)

	fill(database, "enum", 10_000)

	b.Run("Keys", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			database.Keys()
		}
	})
	b.Run("Count", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			database.Count()
		}
	})
}

// Save and Load are not run in parallel, both visit the whole database
func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	database := factory()
	b.Cleanup(func() { database.Close() })

	requireFeature(b, database, db.FeatureSet|db.FeatureSave|db.FeatureLoad)
	fill(database, "persist", 10_000)

	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var buf bytes.Buffer
			if err := database.Save(&buf); err != nil {
				b.Fatal(err)
			}
		}
	})

	var snapshot bytes.Buffer
	if err := database.Save(&snapshot); err != nil {
		b.Fatal(err)
	}
	data := snapshot.Bytes()

	b.Run("Load", func(b *testing.B) {
		loadDB := factory()
		defer loadDB.Close()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := loadDB.Load(bytes.NewReader(data)); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// 60% Get, 20% Set, 10% Delete, 10% Has over a shared key set
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() { database.Close() })
	requireFeature(b, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureHas)

	keys := fill(database, "mixed", 50_000)
	var index atomic.Uint64
	index.Store(1)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key := keys[rand.IntN(len(keys))]
			switch op := rand.IntN(10); {
			case op < 6:
				database.Get(key)
			case op < 8:
				database.Set(key, []byte("mixed-value"), index.Add(1))
			case op < 9:
				database.Delete(key, index.Add(1))
			default:
				database.Has(key)
			}
		}
	})
}
