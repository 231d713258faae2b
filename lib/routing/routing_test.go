package routing

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestTable(t *testing.T) {
	table := NewTable[int](4)

	if table.Register("/a", 1) {
		t.Errorf("First registration must not replace")
	}
	table.Register("/b", 2)
	if !table.Register("/a", 3) {
		t.Errorf("Second registration must replace")
	}

	if h, ok := table.Lookup("/a"); !ok || h != 3 {
		t.Errorf("Expected 3, got %d, %v", h, ok)
	}
	if _, ok := table.Lookup("/a/"); ok {
		t.Errorf("Lookup must match exactly")
	}
	if paths := table.Paths(); !slices.Equal(paths, []string{"/a", "/b"}) {
		t.Errorf("Unexpected paths %v", paths)
	}

	if !table.Unregister("/a") || table.Unregister("/a") {
		t.Errorf("Unregister must succeed exactly once")
	}
	if table.Len() != 1 {
		t.Errorf("Expected 1 route, got %d", table.Len())
	}
}

func TestTableConcurrent(t *testing.T) {
	table := NewTable[string](2)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				path := fmt.Sprintf("/w%d/%d", w, i)
				table.Register(path, path)
				if h, ok := table.Lookup(path); !ok || h != path {
					t.Errorf("Lookup of %s failed", path)
					return
				}
			}
		}()
	}
	wg.Wait()
	if table.Len() != 1600 {
		t.Errorf("Expected 1600 routes, got %d", table.Len())
	}
}

func TestOneTimeTable(t *testing.T) {
	if _, err := NewOneTimeTable[int](0); err == nil {
		t.Fatalf("Expected an error for capacity 0")
	}

	table, err := NewOneTimeTable[int](2)
	if err != nil {
		t.Fatal(err)
	}
	first := table.Add(1)
	second := table.Add(2)
	if first == second {
		t.Fatalf("Tokens must be unique")
	}

	if h, ok := table.Take(second); !ok || h != 2 {
		t.Errorf("Expected 2, got %d, %v", h, ok)
	}
	if _, ok := table.Take(second); ok {
		t.Errorf("A token must only be served once")
	}

	// the oldest registration is dropped when full
	table.Add(3)
	table.Add(4)
	if _, ok := table.Take(first); ok {
		t.Errorf("Oldest handler should have been dropped")
	}
	if table.Len() != 2 {
		t.Errorf("Expected 2 pending handlers, got %d", table.Len())
	}
}

func TestOneTimeTableConcurrentTake(t *testing.T) {
	table, _ := NewOneTimeTable[int](10)
	token := table.Add(42)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		taken int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := table.Take(token); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if taken != 1 {
		t.Errorf("Handler served %d times", taken)
	}
}

func TestMissCounter(t *testing.T) {
	c := NewMissCounter(0)
	c.Record("/missing")
	c.Record("/dir/")
	if m := c.Record("/missing"); m.Count != 2 || m.Status != 404 {
		t.Errorf("Unexpected record %+v", m)
	}

	misses := c.Misses()
	want := []Miss{{"/missing", 2, 404}, {"/dir/", 1, 403}}
	if !slices.Equal(misses, want) {
		t.Errorf("Expected %v, got %v", want, misses)
	}

	c.Reset()
	if len(c.Misses()) != 0 {
		t.Errorf("Reset must forget all records")
	}
}

func TestMissCounterCapacity(t *testing.T) {
	c := NewMissCounter(8)
	for i := range 100 {
		c.Record(fmt.Sprintf("/junk/%d", i))
	}

	misses := c.Misses()
	if len(misses) != 8 {
		t.Fatalf("Expected 8 records, got %d", len(misses))
	}
	for _, m := range misses {
		var i int
		if _, err := fmt.Sscanf(m.Path, "/junk/%d", &i); err != nil || i < 92 {
			t.Errorf("Record %q should have been evicted", m.Path)
		}
	}

	if m := c.Record("/junk/99"); m.Count != 2 {
		t.Errorf("Retained path must keep its count, got %+v", m)
	}
}
