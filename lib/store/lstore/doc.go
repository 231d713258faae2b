// Package lstore implements store.IStore on top of a single local db.KVDB.
//
// The store keeps an atomic write counter. Every write increments it and
// hands the new value to the engine as write index, so offsets passed to SetE
// count subsequent writes to the same store. Reads never advance the counter.
//
// Before each call the store checks db.KVDB.SupportsFeature and returns a
// store.Error with RetCUnsupportedOperation for missing features; for example
// the fifo engine has no garbage collector but supports every IStore call.
//
// Usage:
//
//	st := lstore.NewLocalStore(func() db.KVDB { return avlmap.NewAVLMapDB(nil) })
//	_ = st.SetE("session:123", data, 300, 0)
//	value, ok, err := st.Get("session:123")
//
// Data lives in memory only; use Snapshot and Restore to persist it.
package lstore
