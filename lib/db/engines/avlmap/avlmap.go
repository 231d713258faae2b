package avlmap

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/avlkv/lib/collections/hashmap"
	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines/internal"
	"github.com/ValentinKolb/avlkv/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval = 100 * time.Millisecond // Default interval between GC runs
	shardShift        = 40                     // shards use the high bits, buckets the low bits of the hash
)

// --------------------------------------------------------------------------
// Core database structure
// --------------------------------------------------------------------------

// shard is a partition of the key space
type shard struct {
	mu         *xsync.RBMutex
	data       *hashmap.Map[string, internal.Entry]
	expireHeap *util.MapHeap[string]
	deleteHeap *util.MapHeap[string]
}

// avlmapImpl implements db.KVDB with sharded AVL hash maps
type avlmapImpl struct {
	seed      uint64
	shards    []*shard
	buckets   int
	currIndex atomic.Uint64 // Current logical timestamp (for TTLInfo)

	metrics *internal.Metrics
	sizes   *util.SizeHistogram

	// garbage collection
	gcInterval time.Duration
	gcMu       sync.Mutex
	gcStop     chan struct{}
	gcDone     sync.WaitGroup
}

// DBOptions configures the database during initialization
type DBOptions struct {
	NumShards  int           // Number of shards, rounded up to a power of two (0 = NumCPU)
	Buckets    int           // Buckets per shard (0 = hashmap.DefaultBuckets)
	GCInterval time.Duration // Time between GC runs (0 = 100ms)
}

// DefaultOptions returns the default options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:  runtime.NumCPU(),
		Buckets:    hashmap.DefaultBuckets,
		GCInterval: defaultGCInterval,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewAVLMapDB creates a new database with the given options (optional)
// and starts its garbage collector.
func NewAVLMapDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}
	numShards := util.NextPowerOfTwo(opts.NumShards)
	if opts.NumShards <= 0 {
		numShards = util.NextPowerOfTwo(runtime.NumCPU())
	}
	buckets := opts.Buckets
	if buckets <= 0 {
		buckets = hashmap.DefaultBuckets
	}
	gcInterval := opts.GCInterval
	if gcInterval <= 0 {
		gcInterval = defaultGCInterval
	}

	d := &avlmapImpl{
		seed:       util.GenerateSeed(),
		buckets:    buckets,
		metrics:    internal.NewMetrics(db.ImplAVLMap),
		sizes:      util.NewSizeHistogram(),
		gcInterval: gcInterval,
	}
	d.shards = d.newShards(numShards, d.seed)
	d.startGC()
	return d
}

// newShards creates empty shards hashing with seed
func (d *avlmapImpl) newShards(n int, seed uint64) []*shard {
	shards := make([]*shard, n)
	for i := range shards {
		data, err := hashmap.New(hashmap.Config[string, internal.Entry]{
			Buckets: d.buckets,
			Hash:    func(k string) uint64 { return util.HashString(k, seed) },
			Compare: strings.Compare,
		})
		if err != nil {
			panic(err) // unreachable, the config is complete
		}
		shards[i] = &shard{
			mu:         xsync.NewRBMutex(),
			data:       data,
			expireHeap: util.NewMapHeap[string](),
			deleteHeap: util.NewMapHeap[string](),
		}
	}
	return shards
}

// shardIndex maps key to one of n shards, n being a power of two
func shardIndex(key string, seed uint64, n int) int {
	return int((util.HashString(key, seed) >> shardShift) & uint64(n-1))
}

// shardFor returns the shard responsible for key
func (d *avlmapImpl) shardFor(key string) *shard {
	return d.shards[shardIndex(key, d.seed, len(d.shards))]
}

// schedule keeps the GC heaps in line with the stored entry.
// The caller must hold the write lock of the shard.
func (s *shard) schedule(key string, e internal.Entry) {
	if e.ExpireAt != 0 && e.Value != nil {
		s.expireHeap.AddItem(key, e.ExpireAt)
	} else {
		s.expireHeap.RemoveByKey(key)
	}
	if e.DeleteAt != 0 {
		s.deleteHeap.AddItem(key, e.DeleteAt)
	} else {
		s.deleteHeap.RemoveByKey(key)
	}
}

// unschedule drops key from both GC heaps.
// The caller must hold the write lock of the shard.
func (s *shard) unschedule(key string) {
	s.expireHeap.RemoveByKey(key)
	s.deleteHeap.RemoveByKey(key)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key, value, and writeIndex.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Set(key string, value []byte, writeIndex uint64) {
	d.compute(key, value, writeIndex, 0, 0, func(new, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return new, false
	})
}

// SetE stores a value for a key with an expiration and deletion offset
// relative to writeIndex (0 = never).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	d.compute(key, value, writeIndex, expireIn, deleteIn, func(new, _ internal.Entry, _ bool) (internal.Entry, bool) {
		return new, false
	})
}

// SetEIfUnset behaves like SetE but keeps an existing (not deleted) entry.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	d.compute(key, value, writeIndex, expireIn, deleteIn, func(new, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if loaded {
			return old, false
		}
		return new, false
	})
}

// Expire drops the value of key immediately. The key is still found by Has.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Expire(key string, writeIndex uint64) {
	d.compute(key, nil, writeIndex, 0, 0, func(_, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return old, true // nothing to expire, don't create the key
		}
		old.ExpireAt = writeIndex
		old.Value = nil
		old.Index = writeIndex
		return old, false
	})
}

// Delete marks key as deleted at writeIndex. The GC removes it physically.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Delete(key string, writeIndex uint64) {
	d.compute(key, nil, writeIndex, 0, 0, func(_, old internal.Entry, loaded bool) (internal.Entry, bool) {
		if !loaded {
			return old, true // nothing to delete, don't create the key
		}
		old.DeleteAt = writeIndex
		old.Index = writeIndex // older writes must not resurrect the key
		return old, false
	})
}

// compute applies fn to key under the write lock of its shard, see
// internal.Resolve for the stale write and TTL rules.
func (d *avlmapImpl) compute(key string, value []byte, writeIndex, expireIn, deleteIn uint64, fn internal.UpdateFunc) {
	d.SetWriteIdx(writeIndex)

	s := d.shardFor(key)
	s.mu.Lock()
	old, exists := s.data.TryGet(key)
	entry, action := internal.Resolve(old, exists, value, writeIndex, expireIn, deleteIn, fn)
	switch action {
	case internal.ActionStore:
		s.data.Set(key, entry)
		s.schedule(key, entry)
	case internal.ActionDelete:
		s.data.Remove(key)
		s.unschedule(key)
	}
	s.mu.Unlock()

	d.metrics.Record(action)
	if action == internal.ActionStore {
		d.sizes.AddSample(entry.Size())
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// lookup returns the entry of key under the read lock of its shard
func (d *avlmapImpl) lookup(key string) (internal.Entry, bool) {
	s := d.shardFor(key)
	t := s.mu.RLock()
	e, ok := s.data.TryGet(key)
	s.mu.RUnlock(t)
	return e, ok
}

// Get returns a copy of the value of key. The boolean is false if the key is
// missing, expired or deleted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Get(key string) ([]byte, bool) {
	e, ok := d.lookup(key)
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

// Has reports whether key exists and is not deleted. Expired keys exist.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Has(key string) bool {
	e, ok := d.lookup(key)
	if !ok {
		return false
	}
	_, isDeleted := e.TTLInfo(d.currIndex.Load())
	return !isDeleted
}

// Keys returns all keys that are not deleted, shard by shard.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Keys() []string {
	idx := d.currIndex.Load()
	var keys []string
	for _, s := range d.shards {
		t := s.mu.RLock()
		for k, e := range s.data.All() {
			if _, isDeleted := e.TTLInfo(idx); !isDeleted {
				keys = append(keys, k)
			}
		}
		s.mu.RUnlock(t)
	}
	return keys
}

// Count returns the number of keys that are not deleted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) Count() int {
	idx := d.currIndex.Load()
	n := 0
	for _, s := range d.shards {
		t := s.mu.RLock()
		n += s.data.Count() - s.pendingDeletes(idx)
		s.mu.RUnlock(t)
	}
	return n
}

// pendingDeletes counts keys whose deletion index was reached but which the
// GC has not removed yet. The caller must hold a lock of the shard.
func (s *shard) pendingDeletes(idx uint64) int {
	if item, ok := s.deleteHeap.Peek(); !ok || item.Priority > idx {
		return 0
	}
	n := 0
	for _, e := range s.data.All() {
		if _, isDeleted := e.TTLInfo(idx); isDeleted {
			n++
		}
	}
	return n
}

// --------------------------------------------------------------------------
// Index and Timestamp Management
// --------------------------------------------------------------------------

// SetWriteIdx raises the current index to newIdx, lower values are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := d.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if d.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (d *avlmapImpl) WriteIdx() uint64 {
	return d.currIndex.Load()
}

// Close stops the garbage collector
func (d *avlmapImpl) Close() error {
	d.stopGC()
	return nil
}
