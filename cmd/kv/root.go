package kv

import (
	"github.com/ValentinKolb/avlkv/cmd/util"
	"github.com/ValentinKolb/avlkv/lib/store"
	"github.com/ValentinKolb/avlkv/rpc/client"
	"github.com/ValentinKolb/avlkv/rpc/transport/http"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	cobra.OnInitialize(util.InitEnv)

	util.SetupRPCClientFlags(KeyValueCommands)
	KeyValueCommands.PersistentFlags().Uint64("shard", 100, util.WrapString("ID of the shard to connect to"))

	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(setECmd)
	KeyValueCommands.AddCommand(setEIfUnsetCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(exprCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(keysCmd)
	KeyValueCommands.AddCommand(countCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(snapshotCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(
		util.GetShardID(),
		*util.GetClientConfig(),
		http.NewHttpClientTransport(),
		s,
	)
	return err
}
