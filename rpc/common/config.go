package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerShard is one store served by the RPC server
type ServerShard struct {
	// ShardID is the ID clients address the shard with
	ShardID uint64
	// Engine is the db.KVDB implementation backing the shard
	Engine db.Implementation
}

// ServerConfig holds all configuration parameters of the RPC server.
type ServerConfig struct {
	Shards []ServerShard

	// engine tuning, zero selects the engine default
	NumShards    int
	Buckets      int
	FIFOCapacity int
	GCInterval   time.Duration

	// DataDir receives a snapshot of every shard on shutdown, which is loaded
	// again on start. Empty disables persistence.
	DataDir string

	TimeoutSecond int64

	// HTTP api settings
	Endpoint string

	// Logging configuration
	LogLevel string
}

// EngineOptions returns the engine tuning of the configuration
func (c *ServerConfig) EngineOptions() engines.Options {
	return engines.Options{
		NumShards:    c.NumShards,
		Buckets:      c.Buckets,
		GCInterval:   c.GCInterval,
		FIFOCapacity: c.FIFOCapacity,
	}
}

// ParseShards parses a comma-separated list of ID=ENGINE pairs, for example
// "100=avlmap,200=fifo".
func ParseShards(s string) ([]ServerShard, error) {
	var shards []ServerShard
	seen := make(map[uint64]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, engine, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid shard %q, expected ID=ENGINE", part)
		}
		shardID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard id %q: %w", id, err)
		}
		if seen[shardID] {
			return nil, fmt.Errorf("duplicate shard id %d", shardID)
		}
		impl, err := db.ParseImplementation(strings.TrimSpace(engine))
		if err != nil {
			return nil, err
		}
		seen[shardID] = true
		shards = append(shards, ServerShard{ShardID: shardID, Engine: impl})
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orDefault := func(v int) string {
		if v <= 0 {
			return "default"
		}
		return strconv.Itoa(v)
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Engines")
	addField("AVL Map Shards", orDefault(c.NumShards))
	addField("Buckets per Shard", orDefault(c.Buckets))
	addField("GC Interval", c.GCInterval.String())
	addField("FIFO Capacity", orDefault(c.FIFOCapacity))
	if c.DataDir != "" {
		addField("Data Directory", c.DataDir)
	}

	addSection("Shards")
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), string(shard.Engine))
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
