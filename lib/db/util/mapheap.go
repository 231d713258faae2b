// Package util
//
// This file provides MapHeap, a min-heap of (key, priority) pairs that can also
// be addressed by key. The engines use it to schedule expiration and deletion
// of entries by write index: Peek yields the entry due next, AddItem
// reschedules a key and RemoveByKey drops a key that was overwritten or
// deleted before it became due.
//
// Complexity: O(log n) for AddItem, RemoveByKey and Pop, O(1) for Peek,
// Contains and GetByKey.
//
// MapHeap is not thread-safe; the engines only touch it while holding the lock
// of the shard that owns it.
//
// Example usage:
//
//	expire := NewMapHeap[string]()
//	expire.AddItem("session:1", 120)
//	for {
//		item, ok := expire.Peek()
//		if !ok || item.Priority > writeIndex {
//			break
//		}
//		expire.RemoveByKey(item.Key)
//	}
package util

import (
	"container/heap"
	"fmt"
)

// item is one scheduled key
type item[K comparable] struct {
	Key      K      // Unique identifier for the item
	Priority uint64 // Write index at which the item is due
	index    int    // Index in the heap, maintained by heap package
}

func (i *item[K]) String() string {
	return fmt.Sprintf("{Key: %v, Priority: %d}", i.Key, i.Priority)
}

// MapHeap is a min-heap by priority with O(1) key lookup
type MapHeap[K comparable] struct {
	items    []*item[K]
	itemsMap map[K]*item[K]
}

// NewMapHeap creates an empty heap
func NewMapHeap[K comparable]() *MapHeap[K] {
	return &MapHeap[K]{
		items:    make([]*item[K], 0),
		itemsMap: make(map[K]*item[K]),
	}
}

// Len returns the number of items (part of heap.Interface)
func (mh *MapHeap[K]) Len() int { return len(mh.items) }

// Less orders by priority, lowest first (part of heap.Interface)
func (mh *MapHeap[K]) Less(i, j int) bool {
	return mh.items[i].Priority < mh.items[j].Priority
}

// Swap exchanges items at positions i and j (part of heap.Interface)
func (mh *MapHeap[K]) Swap(i, j int) {
	mh.items[i], mh.items[j] = mh.items[j], mh.items[i]
	mh.items[i].index = i
	mh.items[j].index = j
}

// Push adds an item (part of heap.Interface, use AddItem instead)
func (mh *MapHeap[K]) Push(x any) {
	it := x.(*item[K])
	it.index = len(mh.items)
	mh.items = append(mh.items, it)
	mh.itemsMap[it.Key] = it
}

// Pop removes the last item (part of heap.Interface, use heap.Pop)
func (mh *MapHeap[K]) Pop() any {
	old := mh.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // Avoid memory leak
	it.index = -1
	mh.items = old[:n-1]
	delete(mh.itemsMap, it.Key)
	return it
}

// AddItem schedules key at priority, rescheduling it if already present
func (mh *MapHeap[K]) AddItem(key K, priority uint64) {
	if it, exists := mh.itemsMap[key]; exists {
		it.Priority = priority
		heap.Fix(mh, it.index)
		return
	}
	heap.Push(mh, &item[K]{Key: key, Priority: priority})
}

// RemoveByKey removes key and returns its priority
func (mh *MapHeap[K]) RemoveByKey(key K) (uint64, bool) {
	it, exists := mh.itemsMap[key]
	if !exists {
		return 0, false
	}
	heap.Remove(mh, it.index)
	return it.Priority, true
}

// Peek returns the item with the lowest priority without removing it
func (mh *MapHeap[K]) Peek() (*item[K], bool) {
	if len(mh.items) == 0 {
		return nil, false
	}
	return mh.items[0], true
}

// Contains checks if key is scheduled
func (mh *MapHeap[K]) Contains(key K) bool {
	_, exists := mh.itemsMap[key]
	return exists
}

// GetByKey returns the item of key without removing it
func (mh *MapHeap[K]) GetByKey(key K) (*item[K], bool) {
	it, exists := mh.itemsMap[key]
	return it, exists
}

// Clear removes every item
func (mh *MapHeap[K]) Clear() {
	clear(mh.items)
	mh.items = mh.items[:0]
	clear(mh.itemsMap)
}
