package sweeper

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wallet-sweeper-go/internal/client"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

// testRPCError mirrors a JSON-RPC error object returned by a node
type testRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// methodCounter counts RPC calls per method across the test server's life
type methodCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *methodCounter) inc(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[method]++
	return c.counts[method]
}

func (c *methodCounter) get(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[method]
}

// startRPCServer runs a fake Solana JSON-RPC node. The respond callback
// receives the method name and the per-method call count (starting at 1)
// and returns either a result value or an error object.
func startRPCServer(t *testing.T, respond func(method string, count int) (interface{}, *testRPCError)) (*client.Client, *methodCounter) {
	t.Helper()

	counter := &methodCounter{counts: make(map[string]int)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.Unmarshal(bytes.TrimSpace(body), &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		count := counter.inc(req.Method)
		result, rpcErr := respond(req.Method, count)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	rpcClient := client.NewClient(client.ClientConfig{
		RPCEndpoint: server.URL,
		Timeout:     5 * time.Second,
	}, log)

	return rpcClient, counter
}

// blockhashResult builds a getLatestBlockhash result for the given filler
// byte
func blockhashResult(filler byte) map[string]interface{} {
	hash := bytes.Repeat([]byte{filler}, 32)
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value": map[string]interface{}{
			"blockhash":            base58.Encode(hash),
			"lastValidBlockHeight": 1000,
		},
	}
}

// testSignature is a syntactically valid transaction signature
func testSignature() string {
	return base58.Encode(bytes.Repeat([]byte{7}, 64))
}
