package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/store"
	"github.com/ValentinKolb/avlkv/rpc/client"
	"github.com/ValentinKolb/avlkv/rpc/common"
	"github.com/ValentinKolb/avlkv/rpc/serializer"
	httptransport "github.com/ValentinKolb/avlkv/rpc/transport/http"
)

func testConfig(dataDir string) common.ServerConfig {
	return common.ServerConfig{
		Shards: []common.ServerShard{
			{ShardID: 100, Engine: db.ImplAVLMap},
			{ShardID: 200, Engine: db.ImplFIFO},
		},
		NumShards:    2,
		FIFOCapacity: 16,
		DataDir:      dataDir,
		Endpoint:     "127.0.0.1:0",
		LogLevel:     "error",
	}
}

// startServer initializes a server and serves it with httptest
func startServer(t *testing.T, config common.ServerConfig) (*RPCServer, *httptransport.HttpClientTransport, string) {
	t.Helper()
	transport := httptransport.NewHttpServerTransport()
	s := NewRPCServer(config, transport, serializer.NewBinarySerializer())
	if err := s.init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	ts := httptest.NewServer(transport.Handler(false))
	t.Cleanup(ts.Close)

	raw := httptransport.NewHttpClientTransport()
	if err := raw.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 5, RetryCount: 1}); err != nil {
		t.Fatal(err)
	}
	return s, raw, ts.URL
}

func newClient(t *testing.T, url string, shardId uint64) store.IStore {
	t.Helper()
	s, err := client.NewRPCStore(shardId, common.ClientConfig{Endpoints: []string{url}, TimeoutSecond: 5, RetryCount: 1},
		httptransport.NewHttpClientTransport(), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRPCStore(t *testing.T) {
	_, _, url := startServer(t, testConfig(""))

	for _, shardId := range []uint64{100, 200} {
		s := newClient(t, url, shardId)

		if err := s.Set("a", []byte("1")); err != nil {
			t.Fatalf("shard %d: Set: %v", shardId, err)
		}
		if err := s.SetE("b", []byte("2"), 0, 0); err != nil {
			t.Fatal(err)
		}
		if err := s.SetEIfUnset("a", []byte("other"), 0, 0); err != nil {
			t.Fatal(err)
		}
		if val, ok, err := s.Get("a"); err != nil || !ok || string(val) != "1" {
			t.Errorf("shard %d: Get(a) = %q, %v, %v", shardId, val, ok, err)
		}

		if err := s.Expire("b"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s.Get("b"); ok {
			t.Errorf("shard %d: expired key readable", shardId)
		}
		if ok, _ := s.Has("b"); !ok {
			t.Errorf("shard %d: expired key should still exist", shardId)
		}

		if err := s.Set("c", []byte("3")); err != nil {
			t.Fatal(err)
		}
		if err := s.Delete("c"); err != nil {
			t.Fatal(err)
		}
		keys, err := s.Keys()
		if err != nil {
			t.Fatal(err)
		}
		slices.Sort(keys)
		if !slices.Equal(keys, []string{"a", "b"}) {
			t.Errorf("shard %d: Keys = %v", shardId, keys)
		}
		if n, err := s.Count(); err != nil || n != 2 {
			t.Errorf("shard %d: Count = %d, %v", shardId, n, err)
		}

		info, err := s.GetDBInfo()
		if err != nil {
			t.Fatal(err)
		}
		if info.DbType != db.ImplAVLMap && info.DbType != db.ImplFIFO {
			t.Errorf("unexpected db type %q", info.DbType)
		}
		if len(info.SupportedFeatures) == 0 {
			t.Error("no features reported")
		}
	}
}

func TestUnknownShard(t *testing.T) {
	_, _, url := startServer(t, testConfig(""))

	err := newClient(t, url, 999).Set("a", nil)
	if err == nil || !strings.Contains(err.Error(), "shard 999 not found") {
		t.Errorf("expected shard not found, got %v", err)
	}
}

func TestInvalidRequest(t *testing.T) {
	s, _, _ := startServer(t, testConfig(""))

	var resp common.Message
	if err := s.serializer.Deserialize(s.Handle(100, []byte{0xff}), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.MsgType != common.MsgTError || !strings.Contains(resp.Err, "deserialize") {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDuplicateShard(t *testing.T) {
	config := testConfig("")
	config.Shards = append(config.Shards, common.ServerShard{ShardID: 100, Engine: db.ImplFIFO})
	s := NewRPCServer(config, httptransport.NewHttpServerTransport(), serializer.NewBinarySerializer())
	if err := s.init(); err == nil {
		t.Error("expected duplicate shard error")
	}
	if n := s.shards.Size(); n != 0 {
		t.Errorf("expected all shards to be closed, %d left", n)
	}
}

func TestRestoreFailureClosesShards(t *testing.T) {
	dir := t.TempDir()
	corrupt := []byte("not a snapshot")
	path := filepath.Join(dir, "shard-200.avlkv")
	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewRPCServer(testConfig(dir), httptransport.NewHttpServerTransport(), serializer.NewBinarySerializer())
	if err := s.init(); err == nil || !strings.Contains(err.Error(), "shard 200") {
		t.Fatalf("expected a restore error for shard 200, got %v", err)
	}
	if n := s.shards.Size(); n != 0 {
		t.Errorf("expected all shards to be closed, %d left", n)
	}

	if data, err := os.ReadFile(path); err != nil || !slices.Equal(data, corrupt) {
		t.Errorf("snapshot must not be overwritten after a failed start")
	}
	if _, err := os.Stat(filepath.Join(dir, "shard-100.avlkv")); !os.IsNotExist(err) {
		t.Errorf("shard 100 must not be persisted after a failed start, got %v", err)
	}
}

func TestShardRoutes(t *testing.T) {
	_, raw, url := startServer(t, testConfig(""))
	if err := newClient(t, url, 200).Set("k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	body, err := raw.Get("/shards")
	if err != nil {
		t.Fatal(err)
	}
	var shards []ShardInfo
	if err := json.Unmarshal(body, &shards); err != nil {
		t.Fatal(err)
	}
	if len(shards) != 2 || shards[0].ShardID != 100 || shards[1].Engine != db.ImplFIFO || shards[1].Count != 1 {
		t.Errorf("unexpected shards %+v", shards)
	}

	if _, err := raw.Get("/shards/200/info"); err != nil {
		t.Errorf("info: %v", err)
	}

	// the snapshot endpoint hands out a path that works once
	body, err = raw.Get("/shards/200/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	path := strings.TrimSpace(string(body))
	snapshot, err := raw.Get(path)
	if err != nil {
		t.Fatalf("snapshot download: %v", err)
	}
	if !strings.HasPrefix(string(snapshot), "AVLKVDB") {
		t.Errorf("unexpected snapshot prefix %q", snapshot[:min(8, len(snapshot))])
	}
	if _, err := raw.Get(path); err == nil {
		t.Error("second snapshot download should fail")
	}
}

func TestServePersistsShards(t *testing.T) {
	dir := t.TempDir()

	// first run: write data, then stop the server
	s, _, url := startServer(t, testConfig(dir))
	c := newClient(t, url, 100)
	for _, key := range []string{"x", "y", "z"} {
		if err := c.Set(key, []byte(key)); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Delete("y"); err != nil {
		t.Fatal(err)
	}
	if err := s.close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(s.snapshotPath(100)); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	// second run restores the data, Serve persists again on cancel
	transport := httptransport.NewHttpServerTransport()
	s2 := NewRPCServer(testConfig(dir), transport, serializer.NewBinarySerializer())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s2.Serve(ctx); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	s3, _, url3 := startServer(t, testConfig(dir))
	defer s3.close()
	c3 := newClient(t, url3, 100)
	keys, err := c3.Keys()
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"x", "z"}) {
		t.Errorf("restored keys %v", keys)
	}

	// writes after the restore are not stale
	if err := c3.Set("x", []byte("new")); err != nil {
		t.Fatal(err)
	}
	if val, _, _ := c3.Get("x"); string(val) != "new" {
		t.Errorf("write after restore lost, got %q", val)
	}
}
