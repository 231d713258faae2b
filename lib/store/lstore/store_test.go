package lstore

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/avlmap"
	"github.com/ValentinKolb/avlkv/lib/db/engines/fifo"
	"github.com/ValentinKolb/avlkv/lib/store"
)

var factories = map[string]store.DBFactory{
	"avlmap": func() db.KVDB { return avlmap.NewAVLMapDB(&avlmap.DBOptions{NumShards: 2}) },
	"fifo":   func() db.KVDB { return fifo.NewFIFODB(nil) },
}

// compile time check
var _ store.IStore = (*LocalStore)(nil)

func TestWriteIndexCountsWrites(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s := NewLocalStore(factory)
			defer s.Close()

			// expires after the next two writes
			if err := s.SetE("session", []byte("data"), 2, 0); err != nil {
				t.Fatal(err)
			}
			s.Set("other", []byte("1"))
			if _, ok, _ := s.Get("session"); !ok {
				t.Errorf("Value expired too early")
			}
			s.Set("other", []byte("2"))
			if _, ok, _ := s.Get("session"); ok {
				t.Errorf("Value should have expired")
			}
			if ok, _ := s.Has("session"); !ok {
				t.Errorf("Expired key should still exist")
			}
		})
	}
}

func TestKeysCount(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			s := NewLocalStore(factory)
			defer s.Close()

			s.Set("b", []byte("2"))
			s.Set("a", []byte("1"))
			s.Set("c", []byte("3"))
			s.Delete("c")

			keys, err := s.Keys()
			if err != nil {
				t.Fatal(err)
			}
			slices.Sort(keys)
			if !slices.Equal(keys, []string{"a", "b"}) {
				t.Errorf("Expected [a b], got %v", keys)
			}
			if n, _ := s.Count(); n != 2 {
				t.Errorf("Expected 2, got %d", n)
			}
		})
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := NewLocalStore(factories["avlmap"])
	defer src.Close()
	for i := 0; i < 10; i++ {
		src.Set("key", []byte{byte(i)})
	}

	var buf bytes.Buffer
	if err := src.Snapshot(&buf); err != nil {
		t.Fatal(err)
	}

	dst := NewLocalStore(factories["avlmap"])
	defer dst.Close()
	if err := dst.Restore(&buf); err != nil {
		t.Fatal(err)
	}

	// a write after Restore must not be treated as stale
	dst.Set("key", []byte("new"))
	if v, _, _ := dst.Get("key"); string(v) != "new" {
		t.Errorf("Write after Restore was ignored, got %v", v)
	}

	err := dst.Restore(bytes.NewReader([]byte("not a snapshot")))
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInternalError {
		t.Errorf("Expected an internal error, got %v", err)
	}
}
