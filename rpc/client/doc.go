// Package client implements store.IStore on top of an RPC transport and
// serializer, so a remote shard can be used like a local store.
//
// Usage:
//
//	config := common.ClientConfig{
//		Endpoints:     []string{"localhost:8080"},
//		TimeoutSecond: 5,
//		RetryCount:    3,
//	}
//	s, err := client.NewRPCStore(100, config, http.NewHttpClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//		return err
//	}
//	_ = s.Set("mykey", []byte("myvalue"))
//	value, exists, _ := s.Get("mykey")
//
// The binary serializer gives the smallest payloads and is the default of
// the CLI. Clients are safe for concurrent use.
package client
