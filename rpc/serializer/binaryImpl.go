package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/avlkv/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout (big endian): type byte, flags byte, then every field whose flag is
// set in flag order. Strings and byte slices are prefixed with a uint32
// length, the key list with a uint32 element count.
type binarySerializerImpl struct{}

// Bit flags to indicate which optional fields are present
const (
	hasKey      byte = 1 << 0
	hasExpireIn byte = 1 << 1
	hasDeleteIn byte = 1 << 2
	hasValue    byte = 1 << 3
	hasOk       byte = 1 << 4
	hasErr      byte = 1 << 5
	hasKeys     byte = 1 << 6
	hasCount    byte = 1 << 7
)

var errShortData = errors.New("data too short")

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	buf := make([]byte, 2, b.sizeBytes(msg))
	buf[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		buf = appendBytes(buf, []byte(msg.Key))
	}
	if msg.ExpireIn > 0 {
		flags |= hasExpireIn
		buf = binary.BigEndian.AppendUint64(buf, msg.ExpireIn)
	}
	if msg.DeleteIn > 0 {
		flags |= hasDeleteIn
		buf = binary.BigEndian.AppendUint64(buf, msg.DeleteIn)
	}
	if msg.Value != nil {
		flags |= hasValue
		buf = appendBytes(buf, msg.Value)
	}
	if msg.Ok {
		flags |= hasOk
		buf = append(buf, 1)
	}
	if msg.Err != "" {
		flags |= hasErr
		buf = appendBytes(buf, []byte(msg.Err))
	}
	if msg.Keys != nil {
		flags |= hasKeys
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(msg.Keys)))
		for _, k := range msg.Keys {
			buf = appendBytes(buf, []byte(k))
		}
	}
	if msg.Count > 0 {
		flags |= hasCount
		buf = binary.BigEndian.AppendUint64(buf, msg.Count)
	}

	buf[1] = flags
	return buf, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < 2 {
		return fmt.Errorf("%w for message header", errShortData)
	}
	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := reader{data: data, pos: 2}

	if flags&hasKey != 0 {
		msg.Key = string(r.bytes("key"))
	}
	if flags&hasExpireIn != 0 {
		msg.ExpireIn = r.uint64("ExpireIn")
	}
	if flags&hasDeleteIn != 0 {
		msg.DeleteIn = r.uint64("DeleteIn")
	}
	if flags&hasValue != 0 {
		// an empty value stays non-nil
		v := r.bytes("value")
		msg.Value = make([]byte, len(v))
		copy(msg.Value, v)
	}
	if flags&hasOk != 0 {
		msg.Ok = r.byte("Ok flag") != 0
	}
	if flags&hasErr != 0 {
		msg.Err = string(r.bytes("error"))
	}
	if flags&hasKeys != 0 {
		n := r.uint32("key count")
		// every key needs at least its length prefix
		if r.err == nil && int(n) > (len(data)-r.pos)/4 {
			r.err = fmt.Errorf("%w for %d keys", errShortData, n)
		}
		if r.err == nil {
			msg.Keys = make([]string, n)
			for i := range msg.Keys {
				msg.Keys[i] = string(r.bytes("key list"))
			}
		}
	}
	if flags&hasCount != 0 {
		msg.Count = r.uint64("count")
	}
	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := 2 // type and flags
	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.ExpireIn > 0 {
		size += 8
	}
	if msg.DeleteIn > 0 {
		size += 8
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Ok {
		size++
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Keys != nil {
		size += 4
		for _, k := range msg.Keys {
			size += 4 + len(k)
		}
	}
	if msg.Count > 0 {
		size += 8
	}
	return size
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

// reader decodes fields and keeps the first error, later reads are no-ops
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w for %s", errShortData, field)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) byte(field string) byte {
	if b := r.take(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) uint32(field string) uint32 {
	if b := r.take(4, field); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *reader) uint64(field string) uint64 {
	if b := r.take(8, field); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *reader) bytes(field string) []byte {
	n := r.uint32(field + " length")
	return r.take(int(n), field)
}
