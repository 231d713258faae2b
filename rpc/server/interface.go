package server

import (
	"github.com/ValentinKolb/avlkv/lib/store"
	"github.com/ValentinKolb/avlkv/rpc/common"
)

// IRPCServerAdapter executes a request against the store of a shard.
// Failures are reported in the returned message, never as Go error.
type IRPCServerAdapter interface {
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
