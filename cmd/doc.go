// Package cmd implements the command-line interface of avlkv.
//
// The package is organized into several subpackages:
//
//   - serve: starts the server with the configured shards
//   - kv: client commands for key-value operations and a load test
//   - util: shared flag and configuration helpers (internal use)
//
// Every flag can also be set as environment variable AVLKV_<FLAG> (dashes
// become underscores), read from .env and .env.local. See avlkv --help.
package cmd
