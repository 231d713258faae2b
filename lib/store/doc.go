// Package store defines IStore, the interface every consumer of avlkv talks
// to, together with its error type and return codes.
//
// An IStore hides write index management from the caller: the store assigns
// the logical timestamp of each write and passes it to the db.KVDB engine
// below. Expiration and deletion offsets given to SetE are counted in writes,
// not in wall clock time.
//
// Implementations:
//
//   - lstore: an in-process store over a single db.KVDB created by a
//     DBFactory.
//   - the RPC client in rpc/client, which forwards every call to a remote
//     avlkv server and returns the same *Error values.
//
// Operations an engine does not support fail with RetCUnsupportedOperation
// instead of being silently ignored.
package store
