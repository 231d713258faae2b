package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key      string `json:"key,omitempty"`      // Used for: Set, Get, Has, Expire, Delete
	ExpireIn uint64 `json:"expireIn,omitempty"` // Used for: SetE, SetEIfUnset
	DeleteIn uint64 `json:"deleteIn,omitempty"` // Used for: SetE, SetEIfUnset
	Value    []byte `json:"value,omitempty"`    // Used for: Set (request), Get (response), Info (response, JSON)

	// Response only fields
	Ok    bool     `json:"ok,omitempty"`    // Used for: Get, Has responses
	Keys  []string `json:"keys,omitempty"`  // Used for: Keys responses
	Count uint64   `json:"count,omitempty"` // Used for: Count responses
	Err   string   `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// response creates a response of type t carrying err
func response(t MessageType, err error) *Message {
	msg := &Message{MsgType: t}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{MsgType: MsgTKVSet, Key: key, Value: value}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	return response(MsgTKVSet, err)
}

// NewSetERequest creates a new SetE request
func NewSetERequest(key string, value []byte, expireIn, deleteIn uint64) *Message {
	return &Message{MsgType: MsgTKVSetE, Key: key, Value: value, ExpireIn: expireIn, DeleteIn: deleteIn}
}

// NewSetEResponse creates a new SetE response
func NewSetEResponse(err error) *Message {
	return response(MsgTKVSetE, err)
}

// NewSetEIfUnsetRequest creates a new SetEIfUnset request
func NewSetEIfUnsetRequest(key string, value []byte, expireIn, deleteIn uint64) *Message {
	return &Message{MsgType: MsgTKVSetEIfUnset, Key: key, Value: value, ExpireIn: expireIn, DeleteIn: deleteIn}
}

// NewSetEIfUnsetResponse creates a new SetEIfUnset response
func NewSetEIfUnsetResponse(err error) *Message {
	return response(MsgTKVSetEIfUnset, err)
}

// NewExpireRequest creates a new Expire request
func NewExpireRequest(key string) *Message {
	return &Message{MsgType: MsgTKVExpire, Key: key}
}

// NewExpireResponse creates a new Expire response
func NewExpireResponse(err error) *Message {
	return response(MsgTKVExpire, err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{MsgType: MsgTKVDelete, Key: key}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return response(MsgTKVDelete, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{MsgType: MsgTKVGet, Key: key}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	msg := response(MsgTKVGet, err)
	msg.Value, msg.Ok = value, ok
	return msg
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{MsgType: MsgTKVHas, Key: key}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	msg := response(MsgTKVHas, err)
	msg.Ok = ok
	return msg
}

// NewKeysRequest creates a new Keys request
func NewKeysRequest() *Message {
	return &Message{MsgType: MsgTKVKeys}
}

// NewKeysResponse creates a new Keys response
func NewKeysResponse(keys []string, err error) *Message {
	msg := response(MsgTKVKeys, err)
	msg.Keys = keys
	return msg
}

// NewCountRequest creates a new Count request
func NewCountRequest() *Message {
	return &Message{MsgType: MsgTKVCount}
}

// NewCountResponse creates a new Count response
func NewCountResponse(n int, err error) *Message {
	msg := response(MsgTKVCount, err)
	msg.Count = uint64(n)
	return msg
}

// NewInfoRequest creates a new Info request
func NewInfoRequest() *Message {
	return &Message{MsgType: MsgTKVInfo}
}

// NewInfoResponse creates a new Info response, info is sent as JSON
func NewInfoResponse(info any, err error) *Message {
	if err != nil {
		return response(MsgTKVInfo, err)
	}
	data, err := json.Marshal(info)
	msg := response(MsgTKVInfo, err)
	msg.Value = data
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{MsgType: MsgTError, Err: err}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:       "success",
	MsgTError:         "error",
	MsgTKVSet:         "set",
	MsgTKVSetE:        "setE",
	MsgTKVSetEIfUnset: "setEIfUnset",
	MsgTKVExpire:      "expire",
	MsgTKVDelete:      "delete",
	MsgTKVGet:         "get",
	MsgTKVHas:         "has",
	MsgTKVKeys:        "keys",
	MsgTKVCount:       "count",
	MsgTKVInfo:        "info",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for mt, name := range messageTypeNames {
		if name == s {
			*t = mt
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSet         // Set a key-value pair
	MsgTKVSetE        // Set a key-value pair with expiration
	MsgTKVSetEIfUnset // Set a key-value pair if not already set
	MsgTKVExpire      // Expire a key
	MsgTKVDelete      // Delete a key-value pair
	MsgTKVGet         // Get a value by key
	MsgTKVHas         // Check if a key exists
	MsgTKVKeys        // List all keys
	MsgTKVCount       // Count all keys
	MsgTKVInfo        // Database information
)
