package internal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/avlkv/lib/db"
)

// --------------------------------------------------------------------------
// Snapshot format
// --------------------------------------------------------------------------
//
// All integers are little endian.
//
//	magic    [8]byte  "AVLKVDB\x00"
//	version  uint8
//	engine   uint8 length + bytes
//	seed     uint64
//	index    uint64
//	count    uint64
//	entries  count times:
//	  key      uint32 length + bytes
//	  expireAt uint64
//	  deleteAt uint64
//	  index    uint64
//	  value    uint32 length + bytes

const (
	magicNum        = "AVLKVDB\x00"
	snapshotVersion = 1
	maxKeyLen       = 1 << 20
	maxValueLen     = 64 << 20
)

// ErrBadSnapshot is returned when a stream is not a valid snapshot
var ErrBadSnapshot = errors.New("invalid snapshot")

// Header precedes the entries of a snapshot
type Header struct {
	Engine db.Implementation
	Seed   uint64
	Index  uint64 // write index of the database when the snapshot was taken
	Count  uint64
}

// WriteHeader writes the snapshot header
func WriteHeader(w io.Writer, h Header) error {
	if len(h.Engine) > 255 {
		return fmt.Errorf("engine name too long: %q", h.Engine)
	}
	buf := make([]byte, 0, len(magicNum)+2+len(h.Engine)+24)
	buf = append(buf, magicNum...)
	buf = append(buf, snapshotVersion, byte(len(h.Engine)))
	buf = append(buf, h.Engine...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Seed)
	buf = binary.LittleEndian.AppendUint64(buf, h.Index)
	buf = binary.LittleEndian.AppendUint64(buf, h.Count)
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads and checks the snapshot header. expected is the engine the
// caller is able to load.
func ReadHeader(r io.Reader, expected db.Implementation) (Header, error) {
	var fixed [len(magicNum) + 2]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Header{}, fmt.Errorf("%w: reading header: %v", ErrBadSnapshot, err)
	}
	if string(fixed[:len(magicNum)]) != magicNum {
		return Header{}, fmt.Errorf("%w: bad magic number", ErrBadSnapshot)
	}
	if v := fixed[len(magicNum)]; v != snapshotVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}

	rest := make([]byte, int(fixed[len(magicNum)+1])+24)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Header{}, fmt.Errorf("%w: reading header: %v", ErrBadSnapshot, err)
	}
	engineLen := len(rest) - 24
	h := Header{
		Engine: db.Implementation(rest[:engineLen]),
		Seed:   binary.LittleEndian.Uint64(rest[engineLen:]),
		Index:  binary.LittleEndian.Uint64(rest[engineLen+8:]),
		Count:  binary.LittleEndian.Uint64(rest[engineLen+16:]),
	}
	if h.Engine != expected {
		return Header{}, fmt.Errorf("%w: snapshot of engine %q, expected %q", ErrBadSnapshot, h.Engine, expected)
	}
	return h, nil
}

// WriteEntry writes one key and its entry. Keys above 1 MiB and values above
// 64 MiB are rejected since ReadEntry could not load them.
func WriteEntry(w io.Writer, key string, e Entry) error {
	if len(key) > maxKeyLen || len(e.Value) > maxValueLen {
		return fmt.Errorf("entry too large for a snapshot: key %d bytes, value %d bytes", len(key), len(e.Value))
	}
	buf := make([]byte, 0, 4+len(key)+24+4)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(key)))
	buf = append(buf, key...)
	buf = binary.LittleEndian.AppendUint64(buf, e.ExpireAt)
	buf = binary.LittleEndian.AppendUint64(buf, e.DeleteAt)
	buf = binary.LittleEndian.AppendUint64(buf, e.Index)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Value)))
	if _, err := w.Write(buf); err != nil {
		return err
	}
	_, err := w.Write(e.Value)
	return err
}

// ReadEntry reads one key and its entry
func ReadEntry(r io.Reader) (string, Entry, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", Entry{}, fmt.Errorf("%w: reading key length: %v", ErrBadSnapshot, err)
	}
	keyLen := binary.LittleEndian.Uint32(lenBuf[:])
	if keyLen > maxKeyLen {
		return "", Entry{}, fmt.Errorf("%w: key length %d", ErrBadSnapshot, keyLen)
	}

	buf := make([]byte, int(keyLen)+28)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", Entry{}, fmt.Errorf("%w: reading entry: %v", ErrBadSnapshot, err)
	}
	key := string(buf[:keyLen])
	meta := buf[keyLen:]
	e := Entry{
		ExpireAt: binary.LittleEndian.Uint64(meta[0:]),
		DeleteAt: binary.LittleEndian.Uint64(meta[8:]),
		Index:    binary.LittleEndian.Uint64(meta[16:]),
	}

	valueLen := binary.LittleEndian.Uint32(meta[24:])
	if valueLen > maxValueLen {
		return "", Entry{}, fmt.Errorf("%w: value length %d", ErrBadSnapshot, valueLen)
	}
	if valueLen > 0 {
		e.Value = make([]byte, valueLen)
		if _, err := io.ReadFull(r, e.Value); err != nil {
			return "", Entry{}, fmt.Errorf("%w: reading value: %v", ErrBadSnapshot, err)
		}
	}
	return key, e, nil
}
