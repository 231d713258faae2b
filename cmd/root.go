package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/avlkv/cmd/kv"
	"github.com/ValentinKolb/avlkv/cmd/serve"
	"github.com/ValentinKolb/avlkv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "avlkv",
		Short: "AVL-backed key-value store",
		Long: fmt.Sprintf(`avlkv (v%s)

A key-value store whose engines are built on AVL trees: a bucketed hash
map with background garbage collection (avlmap) and a bounded tree that
evicts in insertion order (fifo). Shards are served over HTTP.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of avlkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("avlkv v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
