package engines

import (
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
)

func TestFactory(t *testing.T) {
	for _, impl := range []db.Implementation{db.ImplAVLMap, db.ImplFIFO} {
		factory, err := Factory(impl, Options{NumShards: 2, FIFOCapacity: 10})
		if err != nil {
			t.Fatalf("Factory(%s) failed: %v", impl, err)
		}
		d := factory()
		if info := d.GetInfo(); info.DbType != impl {
			t.Errorf("Expected a %s database, got %s", impl, info.DbType)
		}
		d.Close()
	}

	if _, err := Factory("btree", Options{}); err == nil {
		t.Errorf("Expected an error for an unknown engine")
	}
}
