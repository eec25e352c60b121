package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSClient represents a WebSocket client for the Solana pubsub API
type WSClient struct {
	url            string
	conn           *websocket.Conn
	logger         *logrus.Logger
	mu             sync.RWMutex
	subscriptions  map[int]*Subscription
	nextID         int
	ctx            context.Context
	cancel         context.CancelFunc
	reconnectDelay time.Duration

	messagesReceived int
	reconnectCount   int
	lastActivity     time.Time
}

// Subscription tracks one pubsub subscription
type Subscription struct {
	ID          int
	Method      string
	Params      interface{}
	Handler     EventHandler
	Active      bool
	Created     time.Time
	LastMessage time.Time
}

// EventHandler handles WebSocket events
type EventHandler func(data interface{}) error

// WSMessage is a JSON-RPC message over the pubsub socket
type WSMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      *int              `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  interface{}       `json:"params,omitempty"`
	Result  interface{}       `json:"result,omitempty"`
	Error   *jsonrpc.RPCError `json:"error,omitempty"`
}

// LogsNotification represents a logsSubscribe notification
type LogsNotification struct {
	Subscription int `json:"subscription"`
	Result       struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Signature string      `json:"signature"`
			Err       interface{} `json:"err"`
			Logs      []string    `json:"logs"`
		} `json:"value"`
	} `json:"result"`
}

// NewWSClient creates a new WebSocket client
func NewWSClient(url string, logger *logrus.Logger) *WSClient {
	ctx, cancel := context.WithCancel(context.Background())

	return &WSClient{
		url:            url,
		logger:         logger,
		subscriptions:  make(map[int]*Subscription),
		ctx:            ctx,
		cancel:         cancel,
		reconnectDelay: 5 * time.Second,
		lastActivity:   time.Now(),
	}
}

// Connect establishes the WebSocket connection and starts the read and
// ping loops. Reconnects reuse the running loops and only redial.
func (ws *WSClient) Connect() error {
	if err := ws.dial(); err != nil {
		return err
	}

	go ws.handleMessages()
	go ws.pingHandler()

	return nil
}

// dial opens the WebSocket connection and installs it on the client
func (ws *WSClient) dial() error {
	ws.logger.WithField("url", ws.url).Info("🔌 Connecting to Solana WebSocket...")

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, resp, err := dialer.Dial(ws.url, nil)
	if err != nil {
		if resp != nil {
			ws.logger.WithFields(logrus.Fields{
				"status": resp.Status,
				"url":    ws.url,
			}).Error("❌ WebSocket connection failed")
		}
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	ws.mu.Lock()
	ws.conn = conn
	ws.lastActivity = time.Now()
	ws.mu.Unlock()

	ws.logger.WithField("url", ws.url).Info("✅ WebSocket connected")

	conn.SetReadLimit(1024 * 1024) // 1MB read limit
	conn.SetPongHandler(func(string) error {
		ws.mu.Lock()
		ws.lastActivity = time.Now()
		ws.mu.Unlock()
		return nil
	})

	return nil
}

// Disconnect closes the WebSocket connection
func (ws *WSClient) Disconnect() error {
	ws.cancel()

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.conn != nil {
		err := ws.conn.Close()
		ws.conn = nil
		return err
	}

	return nil
}

// Subscribe sends a subscription request and registers its handler
func (ws *WSClient) Subscribe(method string, params interface{}, handler EventHandler) (int, error) {
	ws.mu.Lock()
	id := ws.nextID
	ws.nextID++
	ws.mu.Unlock()

	subscription := &Subscription{
		ID:      id,
		Method:  method,
		Params:  params,
		Handler: handler,
		Created: time.Now(),
	}

	message := WSMessage{
		JSONRPC: "2.0",
		ID:      &id,
		Method:  method,
		Params:  params,
	}

	if err := ws.sendMessage(message); err != nil {
		return 0, fmt.Errorf("failed to send subscription: %w", err)
	}

	ws.mu.Lock()
	ws.subscriptions[id] = subscription
	ws.mu.Unlock()

	ws.logger.WithFields(logrus.Fields{
		"method": method,
		"id":     id,
	}).Info("📡 Subscription request sent")

	return id, nil
}

// SubscribeToWalletLogs subscribes to log notifications for transactions
// mentioning the given account, at confirmed commitment
func (ws *WSClient) SubscribeToWalletLogs(account string, handler EventHandler) (int, error) {
	params := []interface{}{
		map[string]interface{}{
			"mentions": []string{account},
		},
		map[string]interface{}{
			"commitment": "confirmed",
		},
	}

	return ws.Subscribe("logsSubscribe", params, handler)
}

// sendMessage sends a message over WebSocket
func (ws *WSClient) sendMessage(message WSMessage) error {
	ws.mu.RLock()
	conn := ws.conn
	ws.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("WebSocket not connected")
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return conn.WriteMessage(websocket.TextMessage, data)
}

// handleMessages handles incoming WebSocket messages
func (ws *WSClient) handleMessages() {
	for {
		select {
		case <-ws.ctx.Done():
			return
		default:
			ws.mu.RLock()
			conn := ws.conn
			ws.mu.RUnlock()

			if conn == nil {
				ws.logger.Warn("⚠️ Connection lost, attempting to reconnect...")
				if err := ws.attemptReconnect(); err != nil {
					ws.logger.WithError(err).Error("❌ Reconnection failed")
					time.Sleep(ws.reconnectDelay)
				}
				continue
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					ws.logger.WithError(err).Error("❌ WebSocket read error")
				}

				ws.mu.Lock()
				ws.conn = nil
				ws.mu.Unlock()

				continue
			}

			ws.mu.Lock()
			ws.messagesReceived++
			ws.lastActivity = time.Now()
			ws.mu.Unlock()

			var message WSMessage
			if err := json.Unmarshal(data, &message); err != nil {
				ws.logger.WithError(err).Error("❌ Failed to unmarshal WebSocket message")
				continue
			}

			ws.handleMessage(message)
		}
	}
}

// handleMessage processes a single WebSocket message
func (ws *WSClient) handleMessage(message WSMessage) {
	// Subscription confirmations
	if message.ID != nil && message.Result != nil {
		ws.mu.Lock()
		subscription, exists := ws.subscriptions[*message.ID]
		if exists && !subscription.Active {
			subscription.Active = true
			subscription.LastMessage = time.Now()
		}
		ws.mu.Unlock()

		if exists {
			ws.logger.WithFields(logrus.Fields{
				"method": subscription.Method,
				"id":     *message.ID,
			}).Info("✅ Subscription confirmed")
		}
		return
	}

	if message.Error != nil {
		ws.logger.WithFields(logrus.Fields{
			"code":    message.Error.Code,
			"message": message.Error.Message,
		}).Error("❌ WebSocket error received")
		return
	}

	if message.Method == "logsNotification" {
		ws.handleLogsNotification(message.Params)
	}
}

// handleLogsNotification decodes and dispatches a logs notification
func (ws *WSClient) handleLogsNotification(params interface{}) {
	data, err := json.Marshal(params)
	if err != nil {
		ws.logger.WithError(err).Error("❌ Failed to marshal logs notification")
		return
	}

	var notification LogsNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		ws.logger.WithError(err).Error("❌ Failed to unmarshal logs notification")
		return
	}

	ws.mu.RLock()
	defer ws.mu.RUnlock()

	for _, subscription := range ws.subscriptions {
		if subscription.Method == "logsSubscribe" && subscription.Handler != nil {
			subscription.LastMessage = time.Now()

			go func(handler EventHandler, subID int) {
				if err := handler(notification); err != nil {
					ws.logger.WithError(err).WithField("subscription_id", subID).Error("❌ Logs notification handler error")
				}
			}(subscription.Handler, subscription.ID)
		}
	}
}

// attemptReconnect redials and replays the existing subscriptions over the
// new connection. Each subscription keeps its id, so the registry holds
// exactly one entry per logical subscription across reconnects.
func (ws *WSClient) attemptReconnect() error {
	ws.mu.Lock()
	ws.reconnectCount++
	attempt := ws.reconnectCount
	ws.mu.Unlock()

	ws.logger.WithField("attempt", attempt).Info("🔄 Attempting to reconnect WebSocket...")

	if err := ws.dial(); err != nil {
		return fmt.Errorf("reconnection failed: %w", err)
	}

	ws.mu.Lock()
	subscriptions := make([]*Subscription, 0, len(ws.subscriptions))
	for _, sub := range ws.subscriptions {
		sub.Active = false
		subscriptions = append(subscriptions, sub)
	}
	ws.mu.Unlock()

	for _, sub := range subscriptions {
		id := sub.ID
		message := WSMessage{
			JSONRPC: "2.0",
			ID:      &id,
			Method:  sub.Method,
			Params:  sub.Params,
		}
		if err := ws.sendMessage(message); err != nil {
			ws.logger.WithError(err).WithField("method", sub.Method).Error("❌ Failed to resubscribe")
		}
	}

	return nil
}

// pingHandler sends periodic ping messages to keep the connection alive
func (ws *WSClient) pingHandler() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			return
		case <-ticker.C:
			ws.mu.RLock()
			conn := ws.conn
			lastActivity := ws.lastActivity
			ws.mu.RUnlock()

			if conn != nil {
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					ws.logger.WithError(err).Debug("❌ Failed to send ping")
				}

				if time.Since(lastActivity) > 2*time.Minute {
					ws.logger.WithField("last_activity", lastActivity).Warn("⚠️ Connection appears stale")
				}
			}
		}
	}
}

// GetConnectionStats returns current connection statistics
func (ws *WSClient) GetConnectionStats() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	activeSubscriptions := 0
	for _, sub := range ws.subscriptions {
		if sub.Active {
			activeSubscriptions++
		}
	}

	return map[string]interface{}{
		"messages_received":    ws.messagesReceived,
		"active_subscriptions": activeSubscriptions,
		"total_subscriptions":  len(ws.subscriptions),
		"reconnect_count":      ws.reconnectCount,
		"last_activity":        ws.lastActivity,
		"connection_active":    ws.conn != nil,
	}
}
