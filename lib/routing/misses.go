package routing

import (
	"cmp"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/ValentinKolb/avlkv/lib/collections/queuedtree"
)

// Miss is the accumulated record of failed lookups of one path
type Miss struct {
	Path   string `json:"path"`
	Count  int    `json:"count"`
	Status int    `json:"status"`
}

// MissStatus is the status a failed lookup of path is answered with:
// 403 for directory paths (trailing slash), 404 otherwise.
func MissStatus(path string) int {
	if strings.HasSuffix(path, "/") {
		return http.StatusForbidden
	}
	return http.StatusNotFound
}

// DefaultMissCapacity is the number of paths a MissCounter keeps when no
// capacity is given
const DefaultMissCapacity = 1024

// MissCounter counts failed lookups per path. At most capacity paths are
// tracked, the path missed first is forgotten when a new one arrives.
//
// Thread-safety: all methods are safe for concurrent use.
type MissCounter struct {
	mu     sync.Mutex
	misses *queuedtree.Tree[string, Miss]
}

// NewMissCounter creates a counter for up to capacity paths
// (0 = DefaultMissCapacity).
func NewMissCounter(capacity int) *MissCounter {
	if capacity <= 0 {
		capacity = DefaultMissCapacity
	}
	misses, err := queuedtree.NewOrdered[string, Miss](capacity)
	if err != nil {
		panic(err) // unreachable, the capacity is positive
	}
	return &MissCounter{misses: misses}
}

// Record counts a failed lookup of path and returns the updated record.
func (c *MissCounter) Record(path string) Miss {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.misses.TryGet(path)
	if !ok {
		m = Miss{Path: path, Status: MissStatus(path)}
	}
	m.Count++
	c.misses.Set(path, m)
	return m
}

// Misses returns all records, most frequent first.
func (c *MissCounter) Misses() []Miss {
	c.mu.Lock()
	out := make([]Miss, 0, c.misses.Count())
	for m := range c.misses.Values() {
		out = append(out, m)
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b Miss) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return out
}

// Reset forgets all records.
func (c *MissCounter) Reset() {
	c.mu.Lock()
	c.misses.Clear()
	c.mu.Unlock()
}
