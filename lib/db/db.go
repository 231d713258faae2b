package db

import (
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Implementation names a storage engine
type Implementation string

const (
	ImplAVLMap Implementation = "avlmap" // sharded AVL hash map with background GC
	ImplFIFO   Implementation = "fifo"   // bounded AVL tree with insertion-order eviction
)

// ParseImplementation maps an engine name to its Implementation
func ParseImplementation(name string) (Implementation, error) {
	switch impl := Implementation(name); impl {
	case ImplAVLMap, ImplFIFO:
		return impl, nil
	default:
		return "", fmt.Errorf("unknown engine %q (supported: %s, %s)", name, ImplAVLMap, ImplFIFO)
	}
}

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet            Feature = 1 << iota // Support for Set operations
	FeatureSetE                               // Support for SetE operations
	FeatureSetEIfUnset                        // Support for SetEIfUnset operations
	FeatureGet                                // Support for Get operations
	FeatureExpire                             // Support for Expire operations
	FeatureDelete                             // Support for Delete operations
	FeatureHas                                // Support for Has operations
	FeatureSave                               // Support for Save operations
	FeatureLoad                               // Support for Load operations
	FeatureGarbageCollect                     // Support for GarbageCollect operations
	FeatureKeys                               // Support for Keys operations
	FeatureCount                              // Support for Count operations
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureSetE:
		return "SetE"
	case FeatureSetEIfUnset:
		return "SetEIfUnset"
	case FeatureExpire:
		return "Expire"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	case FeatureKeys:
		return "Keys"
	case FeatureCount:
		return "Count"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB is a key-value database driven by a logical clock, the write index.
//
// Every write carries the index it happened at. Lifetimes are offsets to it:
// a value written at index i with expireIn e is readable until index i+e,
// the key is gone at i+deleteIn. 0 disables either. A write with an index
// lower than the one stored for its key is ignored.
//
// Reads use the highest index seen so far. Engines differ in the features
// they offer, see SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set stores value under key, dropping any lifetime the key had
	Set(key string, value []byte, writeIndex uint64)

	// SetEIfUnset behaves like SetE if key does not exist (or is deleted)
	// and does nothing otherwise. An expired key still exists.
	SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64)

	// SetE stores value under key with the given lifetimes. An expired
	// value is no longer returned by Get while Has still reports the key.
	SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64)

	// Expire drops the value of key but keeps the key
	Expire(key string, writeIndex uint64)

	// Delete removes key
	Delete(key string, writeIndex uint64)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get returns the value of key. loaded is false for missing or deleted
	// keys and for expired values.
	Get(key string) (value []byte, loaded bool)

	// Has reports whether key exists, its value may be expired
	Has(key string) (loaded bool)

	// Keys returns every key Has reports, in no particular order.
	Keys() (keys []string)

	// Count returns len(Keys()) without building the slice.
	Count() (n int)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save writes a snapshot of the database to w.
	Save(w io.Writer) (err error)

	// Load replaces the content of the database with a snapshot written by
	// Save of the same engine and advances the write index to the one of
	// the snapshot.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature reports whether all features in the (OR-ed) mask are
	// supported.
	SupportsFeature(feature Feature) (ok bool)

	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx advances the write index, lower values are ignored.
	SetWriteIdx(index uint64)

	WriteIdx() (index uint64)

	// Close stops background work of the database.
	Close() (err error)
}
