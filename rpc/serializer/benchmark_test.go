package serializer

import (
	"fmt"
	"testing"

	"github.com/ValentinKolb/avlkv/rpc/common"
)

func benchmarkMessages() map[string]common.Message {
	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	return map[string]common.Message{
		"Empty":      {MsgType: common.MsgTSuccess},
		"GetRequest": {MsgType: common.MsgTKVGet, Key: "medium-length-key-for-testing"},
		"SmallValue": {MsgType: common.MsgTKVSet, Key: "key", Value: []byte("v")},
		"LargeValue": {MsgType: common.MsgTKVSet, Key: "key", Value: make([]byte, 16*1024)},
		"SetE":       {MsgType: common.MsgTKVSetE, Key: "key", Value: []byte("value"), ExpireIn: 10000, DeleteIn: 20000},
		"Keys1000":   {MsgType: common.MsgTKVKeys, Keys: keys},
		"Count":      {MsgType: common.MsgTKVCount, Count: 123456},
		"Error":      {MsgType: common.MsgTError, Err: "store error (code InternalError): invalid snapshot: bad magic number"},
	}
}

func BenchmarkSerialize(b *testing.B) {
	for name, factory := range testSerializers {
		for msgName, msg := range benchmarkMessages() {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				for i := 0; i < b.N; i++ {
					if _, err := serializer.Serialize(msg); err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize also reports the serialized size of every message
func BenchmarkDeserialize(b *testing.B) {
	for name, factory := range testSerializers {
		for msgName, msg := range benchmarkMessages() {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatal(err)
				}
				b.ReportMetric(float64(len(data)), "bytes")
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var out common.Message
					if err := serializer.Deserialize(data, &out); err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}
