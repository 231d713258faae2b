// Package server implements the RPC server. Every configured shard is a
// lstore.LocalStore over the engine named in its common.ServerShard, and
// requests are dispatched to it through an IRPCServerAdapter.
//
// Usage:
//
//	shards, _ := common.ParseShards("100=avlmap,200=fifo")
//	s := server.NewRPCServer(
//		common.ServerConfig{Shards: shards, Endpoint: ":8080", DataDir: "./data"},
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := s.Serve(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// With a DataDir every shard is restored from <DataDir>/shard-<id>.avlkv on
// start and written back when Serve returns.
//
// If the transport implements transport.IRouteRegistrar the server also
// registers, per shard:
//
//	/shards/<id>/info      database info as JSON
//	/shards/<id>/snapshot  returns a one-time path that serves a snapshot
//
// and /shards with the list of all shards.
package server
