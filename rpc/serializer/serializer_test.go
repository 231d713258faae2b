package serializer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ValentinKolb/avlkv/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages covers every field at least once
func testMessages() []common.Message {
	return []common.Message{
		{MsgType: common.MsgTSuccess},
		{MsgType: common.MsgTKVSet, Key: "test-key", Value: []byte("test-value")},
		{MsgType: common.MsgTKVSetE, Key: "ttl-key", Value: []byte("v"), ExpireIn: 60, DeleteIn: 300},
		{MsgType: common.MsgTKVGet, Key: "test-key", Value: []byte("test-value"), Ok: true},
		{MsgType: common.MsgTKVKeys, Keys: []string{"a", "", "ünïcødé"}},
		{MsgType: common.MsgTKVCount, Count: 1 << 40},
		{MsgType: common.MsgTError, Err: "test error message"},
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			for i, msg := range testMessages() {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}
				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult:   %+v", i, msg, result)
				}
			}
		})
	}
}

func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			for msgType := common.MsgTSuccess; msgType <= common.MsgTKVInfo; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}
				var result common.Message
				if err := serializer.Deserialize(data, &result); err != nil || result.MsgType != msgType {
					t.Errorf("Message type %s: got %s, %v", msgType, result.MsgType, err)
				}
			}
		})
	}
}

// the binary format keeps empty but non-nil values and key lists
func TestBinaryEmptySlices(t *testing.T) {
	serializer := NewBinarySerializer()
	for _, msg := range []common.Message{
		{MsgType: common.MsgTKVGet, Value: []byte{}, Ok: true},
		{MsgType: common.MsgTKVKeys, Keys: []string{}},
	} {
		data, err := serializer.Serialize(msg)
		if err != nil {
			t.Fatal(err)
		}
		var result common.Message
		if err := serializer.Deserialize(data, &result); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(msg, result) {
			t.Errorf("Expected %+v, got %+v", msg, result)
		}
	}
}

func TestBinaryDeserializeResetsMessage(t *testing.T) {
	serializer := NewBinarySerializer()
	data, _ := serializer.Serialize(common.Message{MsgType: common.MsgTKVHas})

	msg := common.Message{Key: "stale", Value: []byte("stale"), Keys: []string{"stale"}, Count: 3}
	if err := serializer.Deserialize(data, &msg); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(msg, common.Message{MsgType: common.MsgTKVHas}) {
		t.Errorf("Fields of the previous message survived: %+v", msg)
	}
}

func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{"Empty data", []byte{}, true},
		{"Too short header", []byte{1}, true},
		{"Valid header only", []byte{1, 0}, false},
		{"Invalid length for key", []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, true},
		{"Invalid length for value", []byte{1, hasValue, 0, 0, 0, 10}, true},
		{"Truncated count", []byte{1, hasCount, 0, 0, 0}, true},
		{"Key count beyond data", []byte{1, hasKeys, 0xff, 0xff, 0xff, 0xff}, true},
		{"Truncated key list", []byte{1, hasKeys, 0, 0, 0, 2, 0, 0, 0, 1, 'a'}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)
			if tc.expectError != (err != nil) {
				t.Errorf("Expected error: %v, got %v", tc.expectError, err)
			}
			if err != nil && len(tc.data) >= 2 && !errors.Is(err, errShortData) {
				t.Errorf("Expected errShortData, got %v", err)
			}
		})
	}
}
