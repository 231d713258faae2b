package client

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/store"
	"github.com/ValentinKolb/avlkv/rpc/common"
	"github.com/ValentinKolb/avlkv/rpc/serializer"
	"github.com/ValentinKolb/avlkv/rpc/transport"
)

// NewRPCStore creates a store.IStore that forwards every operation to the
// shard shardId of the servers in config. The transport is connected here.
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	_, err = i.invoke(common.NewSetRequest(key, value))
	return err
}

func (i *rpcStore) SetE(key string, value []byte, expireIn, deleteIn uint64) (err error) {
	_, err = i.invoke(common.NewSetERequest(key, value, expireIn, deleteIn))
	return err
}

func (i *rpcStore) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) (err error) {
	_, err = i.invoke(common.NewSetEIfUnsetRequest(key, value, expireIn, deleteIn))
	return err
}

func (i *rpcStore) Expire(key string) (err error) {
	_, err = i.invoke(common.NewExpireRequest(key))
	return err
}

func (i *rpcStore) Delete(key string) (err error) {
	_, err = i.invoke(common.NewDeleteRequest(key))
	return err
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	resp, err := i.invoke(common.NewGetRequest(key))
	if err != nil {
		return nil, false, err
	}
	return resp.Value, resp.Ok, nil
}

func (i *rpcStore) Has(key string) (loaded bool, err error) {
	resp, err := i.invoke(common.NewHasRequest(key))
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

func (i *rpcStore) Keys() ([]string, error) {
	resp, err := i.invoke(common.NewKeysRequest())
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (i *rpcStore) Count() (int, error) {
	resp, err := i.invoke(common.NewCountRequest())
	if err != nil {
		return 0, err
	}
	return int(resp.Count), nil
}

// GetDBInfo returns the info of the remote database. Metadata is decoded
// into generic JSON values.
func (i *rpcStore) GetDBInfo() (info db.DatabaseInfo, err error) {
	resp, err := i.invoke(common.NewInfoRequest())
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(resp.Value, &info); err != nil {
		return info, fmt.Errorf("rpc client: invalid info: %w", err)
	}
	return info, nil
}
