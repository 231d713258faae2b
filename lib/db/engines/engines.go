// Package engines creates db.KVDB instances by implementation name. The
// engines themselves live in the sub packages avlmap and fifo.
package engines

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/avlmap"
	"github.com/ValentinKolb/avlkv/lib/db/engines/fifo"
)

// Options holds the tuning of every engine. Zero values select the engine
// defaults; options of other engines are ignored.
type Options struct {
	NumShards    int           // avlmap
	Buckets      int           // avlmap, buckets per shard
	GCInterval   time.Duration // avlmap
	FIFOCapacity int           // fifo
}

// Factory returns a function creating a fresh database of the given
// implementation on every call.
func Factory(impl db.Implementation, opts Options) (func() db.KVDB, error) {
	switch impl {
	case db.ImplAVLMap:
		return func() db.KVDB {
			return avlmap.NewAVLMapDB(&avlmap.DBOptions{
				NumShards:  opts.NumShards,
				Buckets:    opts.Buckets,
				GCInterval: opts.GCInterval,
			})
		}, nil
	case db.ImplFIFO:
		return func() db.KVDB {
			return fifo.NewFIFODB(&fifo.DBOptions{Capacity: opts.FIFOCapacity})
		}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", impl)
	}
}
