package lstore

import (
	"io"
	"sync/atomic"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/store"
)

// LocalStore is a store.IStore over one local db.KVDB.
//
// Thread-safety: LocalStore is as thread-safe as its db.KVDB, all engines
// of this module are.
type LocalStore struct {
	db    db.KVDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance on the database created
// by factory.
func NewLocalStore(factory store.DBFactory) *LocalStore {
	return &LocalStore{db: factory()}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *LocalStore) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// unsupported returns the error for an operation the engine lacks
func unsupported(op string) *store.Error {
	return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *LocalStore) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return unsupported("Set")
	}
	s.db.Set(key, value, s.incAndGetIndex())
	return nil
}

func (s *LocalStore) SetE(key string, value []byte, expireIn, deleteIn uint64) error {
	if !s.db.SupportsFeature(db.FeatureSetE) {
		return unsupported("SetE")
	}
	s.db.SetE(key, value, s.incAndGetIndex(), expireIn, deleteIn)
	return nil
}

func (s *LocalStore) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) error {
	if !s.db.SupportsFeature(db.FeatureSetEIfUnset) {
		return unsupported("SetEIfUnset")
	}
	s.db.SetEIfUnset(key, value, s.incAndGetIndex(), expireIn, deleteIn)
	return nil
}

func (s *LocalStore) Expire(key string) error {
	if !s.db.SupportsFeature(db.FeatureExpire) {
		return unsupported("Expire")
	}
	s.db.Expire(key, s.incAndGetIndex())
	return nil
}

func (s *LocalStore) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return unsupported("Delete")
	}
	s.db.Delete(key, s.incAndGetIndex())
	return nil
}

func (s *LocalStore) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, unsupported("Get")
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *LocalStore) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, unsupported("Has")
	}
	return s.db.Has(key), nil
}

func (s *LocalStore) Keys() ([]string, error) {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return nil, unsupported("Keys")
	}
	return s.db.Keys(), nil
}

func (s *LocalStore) Count() (int, error) {
	if !s.db.SupportsFeature(db.FeatureCount) {
		return 0, unsupported("Count")
	}
	return s.db.Count(), nil
}

func (s *LocalStore) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

// --------------------------------------------------------------------------
// Persistence (not part of store.IStore)
// --------------------------------------------------------------------------

// Snapshot writes the content of the underlying database to w.
func (s *LocalStore) Snapshot(w io.Writer) error {
	if !s.db.SupportsFeature(db.FeatureSave) {
		return unsupported("Save")
	}
	if err := s.db.Save(w); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	return nil
}

// Restore replaces the content of the underlying database with a snapshot
// and continues counting writes after the restored write index.
func (s *LocalStore) Restore(r io.Reader) error {
	if !s.db.SupportsFeature(db.FeatureLoad) {
		return unsupported("Load")
	}
	if err := s.db.Load(r); err != nil {
		return store.NewError(store.RetCInternalError, err.Error())
	}
	for {
		curr, restored := s.index.Load(), s.db.WriteIdx()
		if restored <= curr || s.index.CompareAndSwap(curr, restored) {
			return nil
		}
	}
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}
