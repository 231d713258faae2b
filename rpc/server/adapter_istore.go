package server

import (
	"fmt"

	"github.com/ValentinKolb/avlkv/lib/store"
	"github.com/ValentinKolb/avlkv/rpc/common"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, store store.IStore) *common.Message {
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTKVSet:
		return common.NewSetResponse(store.Set(req.Key, req.Value))
	case common.MsgTKVSetE:
		return common.NewSetEResponse(store.SetE(req.Key, req.Value, req.ExpireIn, req.DeleteIn))
	case common.MsgTKVSetEIfUnset:
		return common.NewSetEIfUnsetResponse(store.SetEIfUnset(req.Key, req.Value, req.ExpireIn, req.DeleteIn))
	case common.MsgTKVExpire:
		return common.NewExpireResponse(store.Expire(req.Key))
	case common.MsgTKVDelete:
		return common.NewDeleteResponse(store.Delete(req.Key))
	case common.MsgTKVGet:
		val, ok, err := store.Get(req.Key)
		return common.NewGetResponse(val, ok, err)
	case common.MsgTKVHas:
		ok, err := store.Has(req.Key)
		return common.NewHasResponse(ok, err)
	case common.MsgTKVKeys:
		keys, err := store.Keys()
		return common.NewKeysResponse(keys, err)
	case common.MsgTKVCount:
		n, err := store.Count()
		return common.NewCountResponse(n, err)
	case common.MsgTKVInfo:
		info, err := store.GetDBInfo()
		return common.NewInfoResponse(info, err)
	default:
		return common.NewErrorResponse(fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}
}
