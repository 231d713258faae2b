package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/avlkv/rpc/common"
)

var errNotConnected = errors.New("http transport not initialized")

func NewHttpClientTransport() *HttpClientTransport {
	return &HttpClientTransport{}
}

// HttpClientTransport implements transport.IRPCClientTransport
type HttpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *HttpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return errors.New("http transport: no endpoints configured")
	}

	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		if !strings.Contains(server, "://") {
			server = "http://" + server
		}
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	t.client = &http.Client{
		Timeout: time.Duration(config.TimeoutSecond) * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	t.serverURLs = parsedURLs
	t.counter.Store(0)
	t.retryCount = max(config.RetryCount, 1)
	return nil
}

func (t *HttpClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.client == nil {
		return nil, errNotConnected
	}
	return t.do(http.MethodPost, fmt.Sprintf("/%d", shardId), req)
}

// Get fetches one of the read-only endpoints of the server, e.g. /metrics
// or a one-time path.
func (t *HttpClientTransport) Get(path string) ([]byte, error) {
	if t.client == nil {
		return nil, errNotConnected
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return t.do(http.MethodGet, path, nil)
}

func (t *HttpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	t.serverURLs = nil
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// do sends the request to the next server (round-robin). Transport errors
// are retried, http errors are not.
func (t *HttpClientTransport) do(method, path string, body []byte) (resp []byte, err error) {
	idx := t.counter.Add(1) % uint32(len(t.serverURLs))
	requestURL := strings.TrimSuffix(t.serverURLs[idx].String(), "/") + path

	var httpResponse *http.Response
	for range t.retryCount {
		var httpRequest *http.Request
		httpRequest, err = http.NewRequest(method, requestURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if httpResponse, err = t.client.Do(httpRequest); err == nil {
			break
		}
		Logger.Debugf("%s %s failed: %v", method, requestURL, err)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := httpResponse.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", httpResponse.Status)
	}
	return io.ReadAll(httpResponse.Body)
}
