package internal

// --------------------------------------------------------------------------
// Entry Type (value with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with its metadata
type Entry struct {
	Value    []byte // Stored data, nil once expired
	ExpireAt uint64 // Write index at which the value expires (0 = never)
	DeleteAt uint64 // Write index at which the key is deleted (0 = never)
	Index    uint64 // Write index of the last update
}

// TTLInfo returns whether the entry is expired and whether the entry is deleted (at the given write index)
func (e Entry) TTLInfo(writeIdx uint64) (bool, bool) {
	var (
		isExpired = e.ExpireAt != 0 && writeIdx >= e.ExpireAt
		isDeleted = e.DeleteAt != 0 && writeIdx >= e.DeleteAt
	)

	return isExpired, isDeleted
}

// HasTTL reports whether the entry is scheduled for expiration or deletion
func (e Entry) HasTTL() bool {
	return e.ExpireAt != 0 || e.DeleteAt != 0
}

// Size is the approximate memory footprint of the value
func (e Entry) Size() int {
	return len(e.Value)
}

// --------------------------------------------------------------------------
// Write resolution
// --------------------------------------------------------------------------

// Action tells the engine what to do with the result of Resolve
type Action int

const (
	ActionKeep   Action = iota // leave the stored entry untouched
	ActionStore                // store the returned entry
	ActionDelete               // remove the key physically
	ActionStale                // the write was older than the stored entry and is ignored
)

// UpdateFunc computes the entry to store from the new and the old entry.
// loaded is false if there was no old entry or it is logically deleted.
// Returning true as second value removes the key.
type UpdateFunc func(new, old Entry, loaded bool) (entry Entry, delete bool)

// Resolve applies fn to a write of value at writeIndex. old and exists
// describe what is physically stored under the key. Stale writes (writeIndex
// lower than the stored index) are ignored.
//
// The value is copied, so callers may reuse their buffer.
func Resolve(old Entry, exists bool, value []byte, writeIndex, expireIn, deleteIn uint64, fn UpdateFunc) (Entry, Action) {
	if exists && writeIndex < old.Index {
		return old, ActionStale
	}

	loaded := exists
	if exists {
		isExpired, isDeleted := old.TTLInfo(writeIndex)
		loaded = !isDeleted
		// fn only ever sees a consistent view of the entry
		if isExpired {
			old.Value = nil
			old.ExpireAt = writeIndex
		}
	}

	var valueCopy []byte
	if value != nil {
		valueCopy = make([]byte, len(value))
		copy(valueCopy, value)
	}

	var expireAt, deleteAt uint64
	if expireIn > 0 {
		expireAt = writeIndex + expireIn
	}
	if deleteIn > 0 {
		deleteAt = writeIndex + deleteIn
	}

	entry, del := fn(Entry{
		Value:    valueCopy,
		ExpireAt: expireAt,
		DeleteAt: deleteAt,
		Index:    writeIndex,
	}, old, loaded)

	switch {
	case del && exists:
		return old, ActionDelete
	case del:
		return old, ActionKeep
	default:
		return entry, ActionStore
	}
}
