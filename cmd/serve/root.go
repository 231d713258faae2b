package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/avlkv/cmd/util"
	"github.com/ValentinKolb/avlkv/rpc/common"
	"github.com/ValentinKolb/avlkv/rpc/server"
	"github.com/ValentinKolb/avlkv/rpc/transport/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the avlkv server",
		Long: `Start the avlkv server with the specified configuration. The configuration can be set via command line flags,
environment variables or a config file (--config). The format of the environment variables is AVLKV_<flag> (e.g. AVLKV_DATA_DIR=/var/lib/avlkv)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitEnv)

	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=avlmap", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=ENGINE where ENGINE is one of: avlmap, fifo"))

	key = "num-shards"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("(avlmap) Number of independently locked hash maps per shard, 0 selects the number of CPUs"))

	key = "buckets"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("(avlmap) Number of buckets per hash map, 0 selects the default"))

	key = "gc-interval"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("(avlmap) How often expired and deleted entries are collected, 0 selects the default"))

	key = "fifo-capacity"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("(fifo) Maximum number of entries, the oldest entry is evicted beyond it. 0 selects the default"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Directory for shard snapshots. Shards are restored from it on start and saved to it on shutdown. Empty disables persistence"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "config"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional config file (yaml, toml or json) with the same keys as the flags"))
}

// processConfig reads the configuration from the config file, the command
// line flags and environment variables and converts it to the server
// configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	shards, err := common.ParseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	if _, err := common.ParseLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}

	serveCmdConfig.Shards = shards
	serveCmdConfig.NumShards = viper.GetInt("num-shards")
	serveCmdConfig.Buckets = viper.GetInt("buckets")
	serveCmdConfig.GCInterval = viper.GetDuration("gc-interval")
	serveCmdConfig.FIFOCapacity = viper.GetInt("fifo-capacity")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// run starts the server and stops it on SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewRPCServer(*serveCmdConfig, http.NewHttpServerTransport(), s).Serve(ctx)
}
