package kv

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ValentinKolb/avlkv/cmd/util"
	"github.com/ValentinKolb/avlkv/rpc/transport/http"
	"github.com/spf13/cobra"
)

// parseLifetimes parses the expireIn and deleteIn arguments
func parseLifetimes(expireArg, deleteArg string) (expireIn, deleteIn uint64, err error) {
	if expireIn, err = strconv.ParseUint(expireArg, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("expireIn must be a number: %w", err)
	}
	if deleteIn, err = strconv.ParseUint(deleteArg, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("deleteIn must be a number: %w", err)
	}
	return expireIn, deleteIn, nil
}

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Set(args[0], []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	setECmd = &cobra.Command{
		Use:   "setE [key] [value] [expireIn] [deleteIn]",
		Short: "Sets the value for a key that expires and is deleted after the given number of writes to the shard (0 = never)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			expireIn, deleteIn, err := parseLifetimes(args[2], args[3])
			if err != nil {
				return err
			}
			if err := rpcStore.SetE(args[0], []byte(args[1]), expireIn, deleteIn); err != nil {
				return err
			}
			fmt.Println("setE successfully")
			return nil
		},
	}
	setEIfUnsetCmd = &cobra.Command{
		Use:   "setEIfUnset [key] [value] [expireIn] [deleteIn]",
		Short: "Sets the value for a key with expiration and deletion time if the key is not already set",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			expireIn, deleteIn, err := parseLifetimes(args[2], args[3])
			if err != nil {
				return err
			}
			if err := rpcStore.SetEIfUnset(args[0], []byte(args[1]), expireIn, deleteIn); err != nil {
				return err
			}
			fmt.Println("setEIfUnset successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, ok, err := rpcStore.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, resp=%s\n", args[0], ok, resp)
			return nil
		},
	}
	exprCmd = &cobra.Command{
		Use:     "expire [key]",
		Aliases: []string{"expr"},
		Short:   "Expires the value for a key, the key itself remains",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Expire(args[0]); err != nil {
				return err
			}
			fmt.Println("expire successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:     "delete [key]",
		Aliases: []string{"del"},
		Short:   "Deletes a key value pair",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := rpcStore.Has(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", args[0], found)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "Lists all keys in sorted order, optionally only those with the prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := rpcStore.Keys()
			if err != nil {
				return err
			}
			slices.Sort(keys)
			for _, k := range keys {
				if len(args) == 0 || strings.HasPrefix(k, args[0]) {
					fmt.Println(k)
				}
			}
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count",
		Short: "Prints the number of keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := rpcStore.Count()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database of the shard as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.GetDBInfo()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	snapshotCmd = &cobra.Command{
		Use:   "snapshot [file]",
		Short: "Downloads a snapshot of the shard, it can be used as <data-dir>/shard-<id>.avlkv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := http.NewHttpClientTransport()
			if err := t.Connect(*util.GetClientConfig()); err != nil {
				return err
			}
			defer t.Close()

			link, err := t.Get(fmt.Sprintf("/shards/%d/snapshot", util.GetShardID()))
			if err != nil {
				return err
			}
			data, err := t.Get(strings.TrimSpace(string(link)))
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %d bytes to %s\n", len(data), args[0])
			return nil
		},
	}
)
