// Package serializer encodes common.Message values for the transport.
//
// Three implementations of IRPCSerializer exist:
//
//   - binary: a compact format. A header of message type and a flag byte is
//     followed only by the fields whose flag is set. Lengths and integers are
//     little endian. Key lists (flag bit 6) are a count followed by length
//     prefixed keys, the count (bit 7) is a uint64.
//   - json: readable, message types are written by name
//   - gob: the encoding/gob format
//
// The binary format is the smallest and the fastest to decode (see
// benchmark_test.go) and is the default of the CLI. All serializers are
// stateless and safe for concurrent use.
package serializer
