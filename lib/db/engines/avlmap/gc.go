package avlmap

import (
	"time"
)

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts the garbage collector if it is not running
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) startGC() {
	d.gcMu.Lock()
	defer d.gcMu.Unlock()
	if d.gcStop != nil {
		return
	}
	stop := make(chan struct{})
	d.gcStop = stop
	d.gcDone.Add(1)
	go d.garbageCollector(stop)
}

// stopGC stops the garbage collector and waits for the current cycle to end.
// The collector can be started again afterwards.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *avlmapImpl) stopGC() {
	d.gcMu.Lock()
	stop := d.gcStop
	d.gcStop = nil
	d.gcMu.Unlock()

	if stop != nil {
		close(stop)
		d.gcDone.Wait()
	}
}

// garbageCollector runs collect on every tick until stop is closed
func (d *avlmapImpl) garbageCollector(stop <-chan struct{}) {
	defer d.gcDone.Done()

	ticker := time.NewTicker(d.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.collect()
		}
	}
}

// collect runs one GC cycle over all shards
func (d *avlmapImpl) collect() {
	// read the index once so a busy writer can't keep the cycle going
	writeIndex := d.currIndex.Load()

	for _, s := range d.shards {
		expired, deleted := s.collect(writeIndex)
		d.metrics.Expired.Add(expired)
		d.metrics.Deleted.Add(deleted)
	}
}

// collect drops expired values and deleted keys of the shard that are due at
// writeIndex and returns how many of each it reclaimed.
func (s *shard) collect(writeIndex uint64) (expired, deleted int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		item, ok := s.expireHeap.Peek()
		if !ok || item.Priority > writeIndex {
			break
		}
		key := item.Key
		s.expireHeap.RemoveByKey(key)

		if e, ok := s.data.TryGet(key); ok && e.Value != nil {
			if isExpired, _ := e.TTLInfo(writeIndex); isExpired {
				e.Value = nil
				s.data.Set(key, e)
				expired++
			}
		}
	}

	for {
		item, ok := s.deleteHeap.Peek()
		if !ok || item.Priority > writeIndex {
			break
		}
		key := item.Key
		s.unschedule(key)

		if e, ok := s.data.TryGet(key); ok {
			if _, isDeleted := e.TTLInfo(writeIndex); isDeleted {
				s.data.Remove(key)
				deleted++
			}
		}
	}
	return expired, deleted
}
