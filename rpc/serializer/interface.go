package serializer

import "github.com/ValentinKolb/avlkv/rpc/common"

// IRPCSerializer converts messages to and from their wire format. Client and
// server must use the same implementation.
type IRPCSerializer interface {
	// Serialize encodes msg
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg, fields not present in b are reset
	Deserialize(b []byte, msg *common.Message) error
}
