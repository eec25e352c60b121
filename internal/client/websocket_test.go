package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// startWSServer runs a fake pubsub node that confirms the first
// subscription and then pushes the given notifications
func startWSServer(t *testing.T, notifications []string) (string, chan []byte) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 8)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- msg

		var req struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}

		confirmation := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":1}`, req.ID)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(confirmation)); err != nil {
			return
		}

		for _, notification := range notifications {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(notification)); err != nil {
				return
			}
		}

		// Hold the connection open until the client disconnects
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return wsURL, received
}

func TestSubscribeToWalletLogsRequestShape(t *testing.T) {
	wsURL, received := startWSServer(t, nil)

	ws := NewWSClient(wsURL, quietLogger())
	require.NoError(t, ws.Connect())
	defer ws.Disconnect()

	_, err := ws.SubscribeToWalletLogs("WatchedWallet1111111111111111111111111111111", func(data interface{}) error {
		return nil
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		var req struct {
			JSONRPC string        `json:"jsonrpc"`
			Method  string        `json:"method"`
			Params  []interface{} `json:"params"`
		}
		require.NoError(t, json.Unmarshal(msg, &req))

		assert.Equal(t, "2.0", req.JSONRPC)
		assert.Equal(t, "logsSubscribe", req.Method)
		require.Len(t, req.Params, 2)

		filter, ok := req.Params[0].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{"WatchedWallet1111111111111111111111111111111"}, filter["mentions"])

		opts, ok := req.Params[1].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "confirmed", opts["commitment"])
	case <-time.After(2 * time.Second):
		t.Fatal("subscription request never reached the server")
	}
}

func TestLogsNotificationDispatch(t *testing.T) {
	notification := `{"jsonrpc":"2.0","method":"logsNotification","params":{"subscription":1,"result":{"context":{"slot":555},"value":{"signature":"sig123","err":null,"logs":["Program log: Instruction: Buy"]}}}}`
	wsURL, _ := startWSServer(t, []string{notification})

	ws := NewWSClient(wsURL, quietLogger())
	require.NoError(t, ws.Connect())
	defer ws.Disconnect()

	events := make(chan LogsNotification, 1)
	_, err := ws.SubscribeToWalletLogs("SomeWallet", func(data interface{}) error {
		n, ok := data.(LogsNotification)
		if !ok {
			t.Errorf("unexpected payload type %T", data)
			return nil
		}
		events <- n
		return nil
	})
	require.NoError(t, err)

	select {
	case n := <-events:
		assert.Equal(t, "sig123", n.Result.Value.Signature)
		assert.Nil(t, n.Result.Value.Err)
		assert.Equal(t, uint64(555), n.Result.Context.Slot)
		require.Len(t, n.Result.Value.Logs, 1)
		assert.Contains(t, n.Result.Value.Logs[0], "Instruction: Buy")
	case <-time.After(2 * time.Second):
		t.Fatal("notification never reached the handler")
	}
}

func TestReconnectKeepsSingleSubscription(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribeIDs := make(chan int, 4)
	notification := `{"jsonrpc":"2.0","method":"logsNotification","params":{"subscription":1,"result":{"context":{"slot":7},"value":{"signature":"sig-after-reconnect","err":null,"logs":["Program log: Instruction: Buy"]}}}}`

	var connCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		connIndex := atomic.AddInt32(&connCount, 1)

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		subscribeIDs <- req.ID

		confirmation := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":1}`, req.ID)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(confirmation)); err != nil {
			return
		}

		// Drop the first connection to force a reconnect
		if connIndex == 1 {
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(notification)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws := NewWSClient(wsURL, quietLogger())
	require.NoError(t, ws.Connect())
	defer ws.Disconnect()

	events := make(chan LogsNotification, 4)
	_, err := ws.SubscribeToWalletLogs("SomeWallet", func(data interface{}) error {
		n, ok := data.(LogsNotification)
		if !ok {
			t.Errorf("unexpected payload type %T", data)
			return nil
		}
		events <- n
		return nil
	})
	require.NoError(t, err)

	var firstID int
	select {
	case firstID = <-subscribeIDs:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription request never reached the server")
	}

	select {
	case resubID := <-subscribeIDs:
		assert.Equal(t, firstID, resubID)
	case <-time.After(3 * time.Second):
		t.Fatal("client never resubscribed after the dropped connection")
	}

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("notification after reconnect never reached the handler")
	}

	// A single logical subscription must dispatch each notification once
	select {
	case <-events:
		t.Fatal("notification dispatched more than once")
	case <-time.After(200 * time.Millisecond):
	}

	stats := ws.GetConnectionStats()
	assert.Equal(t, 1, stats["total_subscriptions"])
	assert.Equal(t, 1, stats["reconnect_count"])
}

func TestSubscribeWithoutConnection(t *testing.T) {
	ws := NewWSClient("ws://127.0.0.1:0", quietLogger())

	_, err := ws.Subscribe("logsSubscribe", nil, nil)
	assert.Error(t, err)
}
