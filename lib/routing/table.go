package routing

import (
	"slices"

	"github.com/ValentinKolb/avlkv/lib/collections/hashmap"
	"github.com/puzpuzpuz/xsync/v3"
)

// defaultTableBuckets suits the handful of fixed routes a server registers
const defaultTableBuckets = 64

// Table maps request paths to handlers.
//
// Thread-safety: all methods are safe for concurrent use.
type Table[H any] struct {
	mu     *xsync.RBMutex
	routes *hashmap.Map[string, H]
}

// NewTable creates an empty table. buckets <= 0 selects a small default.
func NewTable[H any](buckets int) *Table[H] {
	if buckets <= 0 {
		buckets = defaultTableBuckets
	}
	return &Table[H]{
		mu:     xsync.NewRBMutex(),
		routes: hashmap.NewString[H](buckets),
	}
}

// Register binds handler to path and reports whether it replaced a handler.
func (t *Table[H]) Register(path string, handler H) (replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	replaced = t.routes.ContainsKey(path)
	t.routes.Set(path, handler)
	if replaced {
		Logger.Warningf("handler for %s replaced", path)
	}
	return replaced
}

// Unregister removes the handler of path.
func (t *Table[H]) Unregister(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.routes.Remove(path)
}

// Lookup returns the handler registered for path.
func (t *Table[H]) Lookup(path string) (H, bool) {
	tok := t.mu.RLock()
	defer t.mu.RUnlock(tok)
	return t.routes.TryGet(path)
}

// Paths returns all registered paths in ascending order.
func (t *Table[H]) Paths() []string {
	tok := t.mu.RLock()
	paths := make([]string, 0, t.routes.Count())
	for p := range t.routes.Keys() {
		paths = append(paths, p)
	}
	t.mu.RUnlock(tok)
	slices.Sort(paths)
	return paths
}

// Len returns the number of registered paths.
func (t *Table[H]) Len() int {
	tok := t.mu.RLock()
	defer t.mu.RUnlock(tok)
	return t.routes.Count()
}
