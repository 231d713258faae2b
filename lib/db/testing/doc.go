// Package testing holds the conformance suite every db.KVDB engine runs.
//
// RunKVDBTests checks the behavior shared by all engines (write index
// semantics, expiry and deletion, stale writes, persistence, concurrent
// use) and skips parts whose db.Feature the engine lacks. RunKVDBBenchmarks
// measures the common operations.
//
//	func Test(t *testing.T) {
//		dbtesting.RunKVDBTests(t, "fifo", func() db.KVDB { return fifo.NewFIFODB(nil) })
//	}
package testing
