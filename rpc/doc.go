// Package rpc groups the network layer of avlkv:
//
//   - common: the Message protocol, configuration and logging
//   - serializer: Message encodings (binary, JSON, gob)
//   - transport: the HTTP transport between client and server
//   - client: store.IStore for a remote shard
//   - server: serves local stores to clients
package rpc
