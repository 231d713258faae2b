package testing

import (
	"bytes"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs the conformance suite every KVDB implementation must pass.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("Expire", func(t *testing.T) {
			testExpire(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("SetEIfUnset", func(t *testing.T) {
			testSetEIfUnset(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory())
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("ManyKeys", func(t *testing.T) {
			testManyKeys(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})

		t.Run("KeysCount", func(t *testing.T) {
			testKeysCount(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// expectValue fails t unless key currently holds want
func expectValue(t *testing.T, database db.KVDB, key string, want []byte) {
	t.Helper()
	got, ok := database.Get(key)
	if !ok {
		t.Errorf("Expected key %q to exist", key)
		return
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Key %q: expected %q, got %q", key, want, got)
	}
}

// expectState fails t unless Get and Has report the given visibility for key
func expectState(t *testing.T, database db.KVDB, key string, readable, present bool) {
	t.Helper()
	if _, ok := database.Get(key); ok != readable {
		t.Errorf("Key %q at index %d: Get returned %v, expected %v", key, database.WriteIdx(), ok, readable)
	}
	if ok := database.Has(key); ok != present {
		t.Errorf("Key %q at index %d: Has returned %v, expected %v", key, database.WriteIdx(), ok, present)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	database.Set("key", []byte("value1"), 0)
	expectValue(t, database, "key", []byte("value1"))

	database.Set("key", []byte("value2"), 0)
	expectValue(t, database, "key", []byte("value2"))

	if _, ok := database.Get("nonexistent-key"); ok {
		t.Errorf("Expected nonexistent key to return false")
	}

	// the returned slice must be a copy
	got, _ := database.Get("key")
	got[0] = 'X'
	expectValue(t, database, "key", []byte("value2"))

	// so must the stored one
	input := []byte("value3")
	database.Set("key", input, 1)
	input[0] = 'X'
	expectValue(t, database, "key", []byte("value3"))
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet|db.FeatureHas)

	database.SetE("expiring", []byte("value"), 100, 10, 20)
	database.SetE("deleting", []byte("value"), 100, 0, 15)
	database.SetE("forever", []byte("value"), 100, 0, 0)

	steps := []struct {
		index                       uint64
		expiring, deleting, forever [2]bool // Get, Has
	}{
		{109, [2]bool{true, true}, [2]bool{true, true}, [2]bool{true, true}},
		{110, [2]bool{false, true}, [2]bool{true, true}, [2]bool{true, true}},
		{115, [2]bool{false, true}, [2]bool{false, false}, [2]bool{true, true}},
		{120, [2]bool{false, false}, [2]bool{false, false}, [2]bool{true, true}},
		{1000, [2]bool{false, false}, [2]bool{false, false}, [2]bool{true, true}},
	}
	for _, step := range steps {
		database.SetWriteIdx(step.index)
		expectState(t, database, "expiring", step.expiring[0], step.expiring[1])
		expectState(t, database, "deleting", step.deleting[0], step.deleting[1])
		expectState(t, database, "forever", step.forever[0], step.forever[1])
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet|db.FeatureHas)

	const numKeys = 1000
	const baseIndex = uint64(1000)

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("expire-key-%d", i)
		database.SetE(key, []byte(key), baseIndex, uint64(i%100), 0)
		if !database.Has(key) {
			t.Fatalf("Key %s not found after SetE", key)
		}
	}

	for offset := uint64(0); offset <= 100; offset += 10 {
		database.SetWriteIdx(baseIndex + offset)
		for i := 0; i < numKeys; i++ {
			key := fmt.Sprintf("expire-key-%d", i)
			ttl := uint64(i % 100)
			expired := ttl > 0 && ttl <= offset
			expectState(t, database, key, !expired, true)
		}
		if t.Failed() {
			return
		}
	}
}

func testExpire(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureExpire|db.FeatureHas)

	database.Set("key", []byte("value"), 0)
	database.Expire("key", 10)
	expectState(t, database, "key", false, true)

	database.Expire("nonexistent-key", 11)
	if database.Has("nonexistent-key") {
		t.Errorf("Expire must not create a key")
	}

	// a new write brings the value back
	database.Set("key", []byte("again"), 12)
	expectValue(t, database, "key", []byte("again"))
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureHas)

	database.Set("key", []byte("value"), 0)
	database.Delete("key", 10)
	expectState(t, database, "key", false, false)

	database.Delete("nonexistent-key", 11)
	if database.Has("nonexistent-key") {
		t.Errorf("Delete must not create a key")
	}

	database.Set("key", []byte("again"), 12)
	expectValue(t, database, "key", []byte("again"))
}

func testSetEIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSetEIfUnset|db.FeatureGet|db.FeatureDelete)

	database.SetEIfUnset("key", []byte("first"), 0, 10, 0)
	expectValue(t, database, "key", []byte("first"))

	database.SetEIfUnset("key", []byte("second"), 5, 20, 0)
	expectValue(t, database, "key", []byte("first"))

	// an expired key is still set
	database.SetWriteIdx(11)
	database.SetEIfUnset("key", []byte("third"), 11, 0, 0)
	if _, ok := database.Get("key"); ok {
		t.Errorf("Expected the expired value to stay hidden")
	}

	// a deleted key is not
	database.Delete("key", 12)
	database.SetEIfUnset("key", []byte("fourth"), 13, 0, 0)
	expectValue(t, database, "key", []byte("fourth"))
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	restored := factory()
	defer database.Close()
	defer restored.Close()

	requireFeature(t, database, db.FeatureSetE|db.FeatureGet|db.FeatureSave|db.FeatureLoad|db.FeatureHas)

	const numEntries = 1000
	for i := 0; i < numEntries; i++ {
		database.Set(fmt.Sprintf("save-key-%d", i), []byte(fmt.Sprintf("save-value-%d", i)), 1)
	}
	database.SetE("expires", []byte("soon"), 2, 5, 0)
	database.SetE("deleted", []byte("gone"), 2, 0, 3)
	database.SetWriteIdx(10)

	restored.Set("overwritten", []byte("by load"), 1)

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for _, d := range []db.KVDB{database, restored} {
		for i := 0; i < numEntries; i++ {
			expectValue(t, d, fmt.Sprintf("save-key-%d", i), []byte(fmt.Sprintf("save-value-%d", i)))
		}
	}
	expectState(t, restored, "expires", false, true)
	expectState(t, restored, "deleted", false, false)
	if restored.Has("overwritten") {
		t.Errorf("Load must replace the previous content")
	}
	if restored.WriteIdx() < 2 {
		t.Errorf("Load must restore the write index, got %d", restored.WriteIdx())
	}

	if err := restored.Load(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Errorf("Expected an error loading garbage")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet)

	cases := []struct {
		name, key string
		value     []byte
	}{
		{"EmptyKey", "", []byte("value for empty key")},
		{"EmptyValue", "empty-value", []byte{}},
		{"NilValue", "nil-value", nil},
		{"LargeKey", string(make([]byte, 1000)), []byte("value for large key")},
		{"BinaryKey", "\x00\xff\x00", []byte{0, 1, 2}},
		{"LargeValue", "large-value", bytes.Repeat([]byte{1, 2, 3, 4}, 1<<20)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			database.Set(c.key, c.value, 0)
			got, ok := database.Get(c.key)
			if !ok {
				t.Fatalf("Key not found after Set")
			}
			if !bytes.Equal(got, c.value) {
				t.Errorf("Value mismatch, got %d bytes, expected %d", len(got), len(c.value))
			}
		})
	}
}

// enough keys to put several into every bucket of the default configuration
func testManyKeys(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete)

	const numKeys = 5000
	for i := 0; i < numKeys; i++ {
		database.Set(fmt.Sprintf("many-%d", i), []byte(fmt.Sprintf("value-%d", i)), 1)
	}
	for i := 0; i < numKeys; i += 2 {
		database.Delete(fmt.Sprintf("many-%d", i), 2)
	}

	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("many-%d", i)
		if i%2 == 0 {
			if _, ok := database.Get(key); ok {
				t.Errorf("Key %s should be deleted", key)
			}
			continue
		}
		expectValue(t, database, key, []byte(fmt.Sprintf("value-%d", i)))
	}
}

// concurrent writers on disjoint keys plus readers on shared hot keys. Every
// disjoint key must hold its last written value afterwards.
func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureHas)

	const workers = 8
	const opsPerWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				idx := uint64(w*opsPerWorker + i + 1)
				hot := fmt.Sprintf("hot-%d", i%50)
				switch i % 10 {
				case 7, 8:
					database.Get(hot)
					database.Has(hot)
				case 9:
					database.Delete(hot, idx)
				default:
					database.Set(hot, []byte("hot"), idx)
				}
				database.Set(fmt.Sprintf("worker-%d-%d", w, i%100), []byte(fmt.Sprintf("%d", i)), idx)
			}
		}()
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		for k := 0; k < 100; k++ {
			last := opsPerWorker - 100 + k
			expectValue(t, database, fmt.Sprintf("worker-%d-%d", w, k), []byte(fmt.Sprintf("%d", last)))
		}
	}
}

func testKeysCount(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureKeys|db.FeatureCount)

	if database.Count() != 0 || len(database.Keys()) != 0 {
		t.Fatalf("New database should be empty")
	}

	database.Set("a", []byte("1"), 1)
	database.Set("b", []byte("2"), 1)
	database.Set("c", []byte("3"), 1)
	database.Set("a", []byte("overwritten"), 1)
	database.SetE("d", []byte("4"), 1, 0, 1)

	if n := database.Count(); n != 4 {
		t.Errorf("Expected 4 keys before deletion, got %d", n)
	}

	// d is deleted at index 2, b only expires and stays visible
	database.Expire("b", 2)
	database.Delete("c", 3)

	keys := database.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Errorf("Expected keys [a b], got %v", keys)
	}
	if n := database.Count(); n != 2 {
		t.Errorf("Expected count 2, got %d", n)
	}
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()

	requireFeature(t, database, db.FeatureSet|db.FeatureGet|db.FeatureDelete|db.FeatureHas)

	database.Set("key", []byte("new"), 10)
	database.Set("key", []byte("old"), 5)
	expectValue(t, database, "key", []byte("new"))

	if idx := database.WriteIdx(); idx != 10 {
		t.Errorf("Write index must not go backwards, got %d", idx)
	}

	database.Set("key", []byte("same index"), 10)
	expectValue(t, database, "key", []byte("same index"))
}
