package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/avlkv/lib/routing"
	"github.com/ValentinKolb/avlkv/rpc/common"
	"github.com/ValentinKolb/avlkv/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// oneTimeCapacity bounds the number of unused one-time endpoints
const oneTimeCapacity = 64

// HttpServerTransport implements transport.IRPCServerTransport and
// transport.IRouteRegistrar
type HttpServerTransport struct {
	handler transport.ServerHandleFunc
	routes  *routing.Table[transport.GetHandleFunc]
	once    *routing.OneTimeTable[transport.GetHandleFunc]
	misses  *routing.MissCounter

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func NewHttpServerTransport() *HttpServerTransport {
	once, err := routing.NewOneTimeTable[transport.GetHandleFunc](oneTimeCapacity)
	if err != nil {
		panic(err) // unreachable, the capacity is positive
	}
	t := &HttpServerTransport{
		routes: routing.NewTable[transport.GetHandleFunc](0),
		once:   once,
		misses: routing.NewMissCounter(routing.DefaultMissCapacity),
	}

	t.RegisterGet("/healthz", func(w io.Writer) error {
		_, err := io.WriteString(w, "ok\n")
		return err
	})
	t.RegisterGet("/metrics", func(w io.Writer) error {
		metrics.WritePrometheus(w, true)
		return nil
	})
	t.RegisterGet("/debug/misses", func(w io.Writer) error {
		return json.NewEncoder(w).Encode(t.misses.Misses())
	})
	t.RegisterGet("/debug/routes", func(w io.Writer) error {
		_, err := io.WriteString(w, strings.Join(t.routes.Paths(), "\n")+"\n")
		return err
	})
	return t
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *HttpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *HttpServerTransport) RegisterGet(path string, handler transport.GetHandleFunc) {
	t.routes.Register(path, handler)
}

func (t *HttpServerTransport) AddOneTime(handler transport.GetHandleFunc) string {
	return "/once/" + t.once.Add(handler)
}

func (t *HttpServerTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return errors.New("http transport: no handler registered")
	}

	srv := &http.Server{
		Addr:              config.Endpoint,
		Handler:           t.Handler(config.LogLevel == "debug"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.server = srv
	t.mu.Unlock()

	Logger.Infof("Starting HTTP server on %s", config.Endpoint)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (t *HttpServerTransport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	srv := t.server
	t.closed = true
	t.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler returns the http.Handler serving all endpoints. debug enables
// request logging.
func (t *HttpServerTransport) Handler(debug bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{shardId}", t.handleRequest)
	mux.HandleFunc("GET /once/{token}", t.handleOnce)
	mux.HandleFunc("GET /", t.handleGet)
	return instrument(mux, debug)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleRequest handles incoming HTTP requests and writes the response to the writer
func (t *HttpServerTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	shardId, err := strconv.ParseUint(r.PathValue("shardId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid shardId", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}

	if _, err = w.Write(t.handler(shardId, body)); err != nil {
		Logger.Warningf("failed to write response: %v", err)
	}
}

func (t *HttpServerTransport) handleOnce(w http.ResponseWriter, r *http.Request) {
	handler, ok := t.once.Take(r.PathValue("token"))
	if !ok {
		t.miss(w, r.URL.Path)
		return
	}
	serve(w, handler)
}

func (t *HttpServerTransport) handleGet(w http.ResponseWriter, r *http.Request) {
	handler, ok := t.routes.Lookup(r.URL.Path)
	if !ok {
		t.miss(w, r.URL.Path)
		return
	}
	serve(w, handler)
}

// miss records an unknown path and answers with its status
func (t *HttpServerTransport) miss(w http.ResponseWriter, path string) {
	m := t.misses.Record(path)
	Logger.Debugf("GET %s not found (%d times)", path, m.Count)
	http.Error(w, http.StatusText(m.Status), m.Status)
}

// serve buffers the output of handler so errors can still set the status
func serve(w http.ResponseWriter, handler transport.GetHandleFunc) {
	var buf strings.Builder
	if err := handler(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := io.WriteString(w, buf.String()); err != nil {
		Logger.Warningf("failed to write response: %v", err)
	}
}

// --------------------------------------------------------------------------
// Middleware (metrics and logging)
// --------------------------------------------------------------------------

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per method and status and measures their
// duration. With debug every request is logged.
func instrument(next http.Handler, debug bool) http.Handler {
	duration := metrics.GetOrCreateHistogram(`avlkv_http_request_duration_seconds`)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		took := time.Since(start)
		duration.Update(took.Seconds())
		metrics.GetOrCreateCounter(fmt.Sprintf(`avlkv_http_requests_total{method=%q,status="%d"}`, r.Method, rw.statusCode)).Inc()
		if debug {
			Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, took)
		}
	})
}
