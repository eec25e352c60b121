package sweeper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wallet-sweeper-go/internal/client"
	"wallet-sweeper-go/internal/config"
	"wallet-sweeper-go/internal/logger"
	"wallet-sweeper-go/internal/metrics"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Log fragments that indicate tokens may have moved into the watched
// wallet. Matching is deliberately broad; the transaction fetch decides
// whether an actual balance increase happened.
var activityKeywords = []string{
	"InitializeMint",
	"Transfer",
	"Instruction: Buy",
}

// MatchesTokenActivity reports whether any log line contains a token
// activity keyword
func MatchesTokenActivity(logs []string) bool {
	for _, line := range logs {
		for _, keyword := range activityKeywords {
			if strings.Contains(line, keyword) {
				return true
			}
		}
	}
	return false
}

// Sweeper subscribes to the watched wallet's transaction logs and sells
// every token balance that arrives.
type Sweeper struct {
	wsClient    *client.WSClient
	rpcClient   *client.Client
	executor    *TradeExecutor
	blockhashes *BlockhashCache
	activeMints *ActiveMintSet
	logger      *logger.Logger
	metrics     *metrics.Metrics
	config      *config.Config

	watchedWallet solana.PublicKey

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   bool
	startTime time.Time
}

// NewSweeper creates the sweeper orchestrator
func NewSweeper(
	wsClient *client.WSClient,
	rpcClient *client.Client,
	executor *TradeExecutor,
	blockhashes *BlockhashCache,
	log *logger.Logger,
	m *metrics.Metrics,
	cfg *config.Config,
) (*Sweeper, error) {
	watchedWallet, err := solana.PublicKeyFromBase58(cfg.WatchedWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid watched wallet address: %w", err)
	}

	return &Sweeper{
		wsClient:      wsClient,
		rpcClient:     rpcClient,
		executor:      executor,
		blockhashes:   blockhashes,
		activeMints:   NewActiveMintSet(),
		logger:        log,
		metrics:       m,
		config:        cfg,
		watchedWallet: watchedWallet,
	}, nil
}

// Start connects the WebSocket, primes the blockhash cache and subscribes
// to the watched wallet's logs. Spawned handlers are tracked on the
// sweeper's WaitGroup; Stop drains them.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("🚀 Starting wallet sweeper...")

	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.blockhashes.Start(s.ctx, &s.wg); err != nil {
		return err
	}

	if err := s.wsClient.Connect(); err != nil {
		return fmt.Errorf("failed to connect WebSocket: %w", err)
	}

	_, err := s.wsClient.SubscribeToWalletLogs(s.watchedWallet.String(), s.handleLogsNotification)
	if err != nil {
		return fmt.Errorf("failed to subscribe to wallet logs: %w", err)
	}

	s.running = true
	s.startTime = time.Now()

	s.logger.WithFields(logrus.Fields{
		"watched_wallet": s.watchedWallet.String(),
		"commitment":     "confirmed",
	}).Info("✅ Sweeper started, watching wallet activity")

	return nil
}

// Stop cancels in-flight work, waits for handlers to finish and closes
// the WebSocket
func (s *Sweeper) Stop() error {
	s.logger.Info("🛑 Stopping sweeper...")

	s.running = false
	if s.cancel != nil {
		s.cancel()
	}

	s.wg.Wait()

	if err := s.wsClient.Disconnect(); err != nil {
		s.logger.WithError(err).Error("Error disconnecting WebSocket")
		return err
	}

	s.logger.Info("✅ Sweeper stopped")
	return nil
}

// handleLogsNotification filters one logs notification and hands matching
// signatures to a background handler
func (s *Sweeper) handleLogsNotification(data interface{}) error {
	notification, ok := data.(client.LogsNotification)
	if !ok {
		return fmt.Errorf("unexpected notification type %T", data)
	}

	s.metrics.EventsReceived.Inc()

	// Failed transactions cannot have delivered a balance
	if notification.Result.Value.Err != nil {
		return nil
	}

	signature := notification.Result.Value.Signature
	if signature == "" {
		return nil
	}

	if !MatchesTokenActivity(notification.Result.Value.Logs) {
		return nil
	}

	s.metrics.EventsMatched.Inc()
	s.logger.LogActivityDetected(signature)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.processActivity(s.ctx, signature)
	}()

	return nil
}

// processActivity fetches the trigger transaction, extracts the received
// position and runs the sell under the per-mint guard
func (s *Sweeper) processActivity(ctx context.Context, signature string) {
	tx, err := s.rpcClient.GetTransaction(ctx, signature)
	if err != nil {
		s.logger.WithError(err).WithField("signature", signature).Error("❌ Failed to fetch trigger transaction")
		return
	}
	if tx == nil {
		s.logger.WithField("signature", signature).Debug("Transaction not found yet, skipping")
		return
	}

	position, err := ExtractPosition(tx, s.watchedWallet, signature)
	if err != nil {
		s.logger.WithError(err).WithField("signature", signature).Error("❌ Failed to inspect transaction balances")
		return
	}
	if position == nil {
		return
	}

	mint := position.Mint.String()

	if !s.activeMints.TryAcquire(mint) {
		s.metrics.SellsSkipped.WithLabelValues("sell_in_flight").Inc()
		s.logger.LogSellSkipped(mint)
		return
	}
	defer s.activeMints.Release(mint)

	s.logger.LogPositionDetected(mint, position.PostBalance, position.AmountTokens)

	if err := s.executor.ExecuteSell(ctx, position); err != nil {
		s.logger.WithError(err).WithField("mint", mint).Error("❌ Sell failed")
	}
}

// GetStats returns sweeper runtime statistics
func (s *Sweeper) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"is_running":     s.running,
		"watched_wallet": s.watchedWallet.String(),
		"active_sells":   s.activeMints.Len(),
	}
	if s.running {
		stats["uptime_seconds"] = time.Since(s.startTime).Seconds()
	}
	for k, v := range s.wsClient.GetConnectionStats() {
		stats[k] = v
	}
	return stats
}
