package fifo

import (
	"strings"
	"sync/atomic"

	"github.com/ValentinKolb/avlkv/lib/collections/queuedtree"
	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/internal"
	"github.com/ValentinKolb/avlkv/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultCapacity is the number of keys kept when no capacity is configured
const DefaultCapacity = 65536

// fifoImpl implements db.KVDB with a bounded queued AVL tree
type fifoImpl struct {
	mu        *xsync.RBMutex
	data      *queuedtree.Tree[string, internal.Entry]
	capacity  int
	currIndex atomic.Uint64
	evictions atomic.Uint64

	metrics *internal.Metrics
	sizes   *util.SizeHistogram
}

// DBOptions configures the database during initialization
type DBOptions struct {
	Capacity int // Maximum number of keys (0 = DefaultCapacity)
}

// NewFIFODB creates a new database with the given options (optional)
func NewFIFODB(opts *DBOptions) db.KVDB {
	capacity := DefaultCapacity
	if opts != nil && opts.Capacity > 0 {
		capacity = opts.Capacity
	}
	d := &fifoImpl{
		mu:       xsync.NewRBMutex(),
		capacity: capacity,
		metrics:  internal.NewMetrics(db.ImplFIFO),
		sizes:    util.NewSizeHistogram(),
	}
	d.data = d.newTree()
	return d
}

// newTree creates an empty tree reporting evictions to the engine metrics
func (d *fifoImpl) newTree() *queuedtree.Tree[string, internal.Entry] {
	tree, err := queuedtree.New(queuedtree.Config[string, internal.Entry]{
		MaxSize: d.capacity,
		Compare: strings.Compare,
		OnEvict: func(string, internal.Entry) {
			d.evictions.Add(1)
			d.metrics.Evictions.Inc()
		},
	})
	if err != nil {
		panic(err) // unreachable, the capacity is positive
	}
	return tree
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

func (d *fifoImpl) Set(key string, value []byte, writeIndex uint64) {
	d.compute(key, value, writeIndex, 0, 0, func(new, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return new, false
	})
}

func (d *fifoImpl) SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	d.compute(key, value, writeIndex, expireIn, deleteIn, func(new, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return new, false
	})
}

func (d *fifoImpl) SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	d.compute(key, value, writeIndex, expireIn, deleteIn, func(new, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		return new, false
	})
}

// Expire drops the value of key, the key stays visible to Has
func (d *fifoImpl) Expire(key string, writeIndex uint64) {
	d.compute(key, nil, writeIndex, 0, 0, func(_, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return old, true
		}
		old.Value = nil
		old.ExpireAt = writeIndex
		old.Index = writeIndex
		return old, false
	})
}

// Delete removes key from the tree and the eviction queue
func (d *fifoImpl) Delete(key string, writeIndex uint64) {
	d.compute(key, nil, writeIndex, 0, 0, func(_, old internal.Entry, _ bool) (internal.Entry, bool) {
		return old, true
	})
}

// compute resolves a write under the write lock, see internal.Resolve
func (d *fifoImpl) compute(key string, value []byte, writeIndex, expireIn, deleteIn uint64, fn internal.UpdateFunc) {
	d.SetWriteIdx(writeIndex)

	d.mu.Lock()
	old, exists := d.data.TryGet(key)
	entry, action := internal.Resolve(old, exists, value, writeIndex, expireIn, deleteIn, fn)
	switch action {
	case internal.ActionStore:
		d.data.Set(key, entry)
	case internal.ActionDelete:
		d.data.Remove(key)
	}
	d.mu.Unlock()

	d.metrics.Record(action)
	if action == internal.ActionStore {
		d.sizes.AddSample(entry.Size())
	}
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

func (d *fifoImpl) Get(key string) ([]byte, bool) {
	t := d.mu.RLock()
	e, ok := d.data.TryGet(key)
	d.mu.RUnlock(t)
	if !ok {
		return nil, false
	}
	if isExpired, isDeleted := e.TTLInfo(d.currIndex.Load()); isExpired || isDeleted {
		return nil, false
	}
	data := make([]byte, len(e.Value))
	copy(data, e.Value)
	return data, true
}

func (d *fifoImpl) Has(key string) bool {
	t := d.mu.RLock()
	e, ok := d.data.TryGet(key)
	d.mu.RUnlock(t)
	if !ok {
		return false
	}
	_, isDeleted := e.TTLInfo(d.currIndex.Load())
	return !isDeleted
}

// Keys returns the visible keys in ascending order
func (d *fifoImpl) Keys() []string {
	idx := d.currIndex.Load()
	t := d.mu.RLock()
	defer d.mu.RUnlock(t)

	keys := make([]string, 0, d.data.Count())
	for k, e := range d.data.All() {
		if _, isDeleted := e.TTLInfo(idx); !isDeleted {
			keys = append(keys, k)
		}
	}
	return keys
}

func (d *fifoImpl) Count() int {
	idx := d.currIndex.Load()
	t := d.mu.RLock()
	defer d.mu.RUnlock(t)

	n := 0
	for e := range d.data.Values() {
		if _, isDeleted := e.TTLInfo(idx); !isDeleted {
			n++
		}
	}
	return n
}

// --------------------------------------------------------------------------
// Index Management
// --------------------------------------------------------------------------

// SetWriteIdx raises the current index to newIdx, lower values are ignored.
func (d *fifoImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := d.currIndex.Load()
		if newIdx <= currIdx || d.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

func (d *fifoImpl) WriteIdx() uint64 {
	return d.currIndex.Load()
}

// Close is a no-op, the engine runs no background work
func (d *fifoImpl) Close() error {
	return nil
}
