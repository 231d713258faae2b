package store

import (
	"fmt"

	"github.com/ValentinKolb/avlkv/lib/db"
)

// DBFactory creates the db.KVDB a store works on
type DBFactory func() db.KVDB

// IStore is a key-value store that assigns write indices itself, so callers
// only pass keys, values and lifetimes. Lifetimes (expireIn, deleteIn) are
// counted in writes to the store, 0 means never.
//
// Errors are *Error values when they come from the store.
type IStore interface {
	// Set stores value under key without lifetime
	Set(key string, value []byte) (err error)
	// SetE stores value under key, the value expires after expireIn and the
	// key is deleted after deleteIn writes
	SetE(key string, value []byte, expireIn, deleteIn uint64) (err error)
	// SetEIfUnset is SetE for a key that does not exist, otherwise nothing
	// changes and no error is returned
	SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) (err error)
	// Expire drops the value of key, Has still reports the key
	Expire(key string) (err error)
	// Delete removes key
	Delete(key string) (err error)
	// Get returns the value of key, loaded is false for missing keys and
	// expired values
	Get(key string) (value []byte, loaded bool, err error)
	// Has reports whether key exists, expired or not
	Has(key string) (loaded bool, err error)
	// Keys returns every key Has reports, in no particular order
	Keys() (keys []string, err error)
	// Count returns len(Keys())
	Count() (n int, err error)
	// GetDBInfo describes the underlying database. Sizes are estimates.
	GetDBInfo() (info db.DatabaseInfo, err error)
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// Error is the error type of stores
type Error struct {
	Code RetCode
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("store error (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// RetCode classifies an Error
type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	default:
		return "Unknown"
	}
}
