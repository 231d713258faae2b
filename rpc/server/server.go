package server

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/ValentinKolb/avlkv/lib/db"
	"github.com/ValentinKolb/avlkv/lib/db/engines"
	"github.com/ValentinKolb/avlkv/lib/store/lstore"
	"github.com/ValentinKolb/avlkv/rpc/common"
	"github.com/ValentinKolb/avlkv/rpc/serializer"
	"github.com/ValentinKolb/avlkv/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("server")

// shutdownTimeout bounds how long running requests may take after the
// context passed to Serve is done
const shutdownTimeout = 10 * time.Second

// serverShard is a shard of the RPC server: the store it encapsulates and
// the adapter that handles requests for it
type serverShard struct {
	ID      uint64
	Engine  db.Implementation
	Store   *lstore.LocalStore
	Adapter IRPCServerAdapter
}

// ShardInfo describes a shard on the /shards endpoint
type ShardInfo struct {
	ShardID uint64            `json:"shard_id"`
	Engine  db.Implementation `json:"engine"`
	Count   int               `json:"count"`
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]
}

// Serve creates the shards, restores them from the data dir and serves
// requests until ctx is done or the transport fails. Before it returns all
// shards are persisted and closed.
func (s *RPCServer) Serve(ctx context.Context) error {
	if err := s.init(); err != nil {
		return err
	}

	listenErr := make(chan error, 1)
	go func() { listenErr <- s.transport.Listen(s.config) }()

	var err error
	select {
	case err = <-listenErr:
	case <-ctx.Done():
		Logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = s.transport.Shutdown(shutdownCtx)
		cancel()
		if lErr := <-listenErr; err == nil {
			err = lErr
		}
	}

	return errors.Join(err, s.close())
}

// Handle processes one serialized request for a shard. It is registered as
// the transport handler.
func (s *RPCServer) Handle(shardId uint64, req []byte) []byte {
	var respMsg *common.Message

	if shard, ok := s.shards.Load(shardId); !ok {
		respMsg = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardId))
	} else {
		var msg common.Message
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			respMsg = shard.Adapter.Handle(&msg, shard.Store)
		}
	}

	val, err := s.serializer.Serialize(*respMsg)
	if err != nil {
		Logger.Errorf("failed to serialize response: %v", err)
		val, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return val
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	if s.config.DataDir != "" {
		if err := os.MkdirAll(s.config.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	for _, shardConfig := range s.config.Shards {
		if err := s.createShard(shardConfig); err != nil {
			// shards created so far are closed without overwriting their snapshots
			s.closeShards(false)
			return err
		}
	}

	s.transport.RegisterHandler(s.Handle)
	if registrar, ok := s.transport.(transport.IRouteRegistrar); ok {
		s.registerRoutes(registrar)
	}

	Logger.Infof("avlkv setup completed successfully")
	return nil
}

// createShard creates the store of a shard, restores its snapshot and adds
// it to the server. On failure the store is closed again.
func (s *RPCServer) createShard(shardConfig common.ServerShard) error {
	factory, err := engines.Factory(shardConfig.Engine, s.config.EngineOptions())
	if err != nil {
		return fmt.Errorf("shard %d: %w", shardConfig.ShardID, err)
	}

	shard := serverShard{
		ID:      shardConfig.ShardID,
		Engine:  shardConfig.Engine,
		Store:   lstore.NewLocalStore(factory),
		Adapter: NewIStoreServerAdapter(),
	}
	if err := s.restore(shard); err != nil {
		shard.Store.Close()
		return err
	}
	if _, loaded := s.shards.LoadOrStore(shard.ID, shard); loaded {
		shard.Store.Close()
		return fmt.Errorf("duplicate shard id %d", shard.ID)
	}
	Logger.Infof("created %s store for shard %d", shard.Engine, shard.ID)
	return nil
}

// registerRoutes exposes the shard list, the info and a snapshot link per
// shard as read-only endpoints
func (s *RPCServer) registerRoutes(registrar transport.IRouteRegistrar) {
	registrar.RegisterGet("/shards", func(w io.Writer) error {
		var infos []ShardInfo
		s.shards.Range(func(id uint64, shard serverShard) bool {
			n, _ := shard.Store.Count()
			infos = append(infos, ShardInfo{ShardID: id, Engine: shard.Engine, Count: n})
			return true
		})
		slices.SortFunc(infos, func(a, b ShardInfo) int { return cmp.Compare(a.ShardID, b.ShardID) })
		return json.NewEncoder(w).Encode(infos)
	})

	s.shards.Range(func(id uint64, shard serverShard) bool {
		registrar.RegisterGet(fmt.Sprintf("/shards/%d/info", id), func(w io.Writer) error {
			info, err := shard.Store.GetDBInfo()
			if err != nil {
				return err
			}
			return json.NewEncoder(w).Encode(info)
		})
		registrar.RegisterGet(fmt.Sprintf("/shards/%d/snapshot", id), func(w io.Writer) error {
			path := registrar.AddOneTime(shard.Store.Snapshot)
			_, err := fmt.Fprintln(w, path)
			return err
		})
		return true
	})
}

func (s *RPCServer) snapshotPath(id uint64) string {
	return filepath.Join(s.config.DataDir, fmt.Sprintf("shard-%d.avlkv", id))
}

// restore loads the snapshot of the shard if one exists
func (s *RPCServer) restore(shard serverShard) error {
	if s.config.DataDir == "" {
		return nil
	}

	f, err := os.Open(s.snapshotPath(shard.ID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("shard %d: %w", shard.ID, err)
	}
	defer f.Close()

	if err := shard.Store.Restore(f); err != nil {
		return fmt.Errorf("shard %d: failed to restore snapshot: %w", shard.ID, err)
	}
	n, _ := shard.Store.Count()
	Logger.Infof("restored %d keys for shard %d", n, shard.ID)
	return nil
}

// persist writes the snapshot of the shard to a temporary file which then
// replaces the previous snapshot
func (s *RPCServer) persist(shard serverShard) error {
	tmp, err := os.CreateTemp(s.config.DataDir, fmt.Sprintf("shard-%d-*.tmp", shard.ID))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := shard.Store.Snapshot(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.snapshotPath(shard.ID))
}

// close persists (with a data dir) and closes all shards
func (s *RPCServer) close() error {
	return s.closeShards(s.config.DataDir != "")
}

// closeShards closes and removes all shards, persisting them first if
// persist is set
func (s *RPCServer) closeShards(persist bool) error {
	var errs []error
	s.shards.Range(func(id uint64, shard serverShard) bool {
		if persist {
			if err := s.persist(shard); err != nil {
				errs = append(errs, fmt.Errorf("shard %d: failed to persist: %w", id, err))
			} else {
				Logger.Infof("persisted shard %d", id)
			}
		}
		if err := shard.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("shard %d: %w", id, err))
		}
		s.shards.Delete(id)
		return true
	})
	return errors.Join(errs...)
}
