package util

import (
	"container/heap"
	"fmt"
	"sort"
	"testing"
)

// TestAddItem tests adding items to the heap
func TestAddItem(t *testing.T) {
	mh := NewMapHeap[string]()

	mh.AddItem("a", 100)
	mh.AddItem("b", 200)
	mh.AddItem("c", 50)

	if mh.Len() != 3 {
		t.Errorf("Heap should have 3 items, but has %d", mh.Len())
	}
	for _, k := range []string{"a", "b", "c"} {
		if !mh.Contains(k) {
			t.Errorf("Heap should contain key %s", k)
		}
	}

	it, exists := mh.Peek()
	if !exists {
		t.Fatal("Peek() should return an item")
	}
	if it.Key != "c" || it.Priority != 50 {
		t.Errorf("Expected min item to be (c,50), got %s", it)
	}
}

// TestUpdateItem tests rescheduling existing keys
func TestUpdateItem(t *testing.T) {
	mh := NewMapHeap[string]()
	mh.AddItem("a", 100)
	mh.AddItem("b", 200)
	mh.AddItem("a", 300)

	if it, _ := mh.GetByKey("a"); it.Priority != 300 {
		t.Errorf("Item a should have priority 300, got %d", it.Priority)
	}
	if min, _ := mh.Peek(); min.Key != "b" {
		t.Errorf("Min item should now be b, got %s", min.Key)
	}

	mh.AddItem("b", 50)
	if min, _ := mh.Peek(); min.Key != "b" || min.Priority != 50 {
		t.Errorf("Min item should now be (b,50), got %s", min)
	}
	if mh.Len() != 2 {
		t.Errorf("Rescheduling must not add items, have %d", mh.Len())
	}
}

// TestRemoveByKey tests removing items by key
func TestRemoveByKey(t *testing.T) {
	mh := NewMapHeap[int]()
	mh.AddItem(1, 100)
	mh.AddItem(2, 200)
	mh.AddItem(3, 300)

	priority, exists := mh.RemoveByKey(2)
	if !exists || priority != 200 {
		t.Fatalf("RemoveByKey(2) = %d, %v", priority, exists)
	}
	if mh.Len() != 2 || mh.Contains(2) {
		t.Errorf("Key 2 should be gone")
	}
	if _, exists := mh.RemoveByKey(99); exists {
		t.Error("RemoveByKey should return false for non-existent key")
	}
}

// TestPopOrder tests if items are popped in priority order
func TestPopOrder(t *testing.T) {
	mh := NewMapHeap[string]()
	priorities := []uint64{50, 30, 10, 40, 20, 30}
	for i, p := range priorities {
		mh.AddItem(fmt.Sprintf("k%d", i), p)
	}

	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })
	for i, expected := range priorities {
		it := heap.Pop(mh).(*item[string])
		if it.Priority != expected {
			t.Errorf("Pop %d: expected priority %d, got %s", i, expected, it)
		}
		if mh.Contains(it.Key) {
			t.Errorf("Popped key %s still indexed", it.Key)
		}
	}
	if _, exists := mh.Peek(); exists {
		t.Error("Peek on empty heap should return exists=false")
	}
}

// TestClear tests that a cleared heap is reusable
func TestClear(t *testing.T) {
	mh := NewMapHeap[int]()
	for i := 0; i < 100; i++ {
		mh.AddItem(i, uint64(100-i))
	}
	mh.Clear()
	if mh.Len() != 0 || mh.Contains(5) {
		t.Errorf("Clear should remove everything")
	}
	mh.AddItem(7, 1)
	if it, ok := mh.Peek(); !ok || it.Key != 7 {
		t.Errorf("Heap unusable after Clear")
	}
}

// TestManyItems drains a large heap and checks ordering
func TestManyItems(t *testing.T) {
	mh := NewMapHeap[int]()
	for i := 0; i < 10000; i++ {
		mh.AddItem(i, uint64((i*7919)%10007))
	}
	for i := 0; i < 10000; i += 3 {
		mh.RemoveByKey(i)
	}

	last := uint64(0)
	for mh.Len() > 0 {
		it := heap.Pop(mh).(*item[int])
		if it.Priority < last {
			t.Fatalf("Heap order violated: %d after %d", it.Priority, last)
		}
		last = it.Priority
	}
}
