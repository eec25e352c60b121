package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet-sweeper-go/internal/client"
	"wallet-sweeper-go/internal/metrics"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// BlockhashCache keeps a recent blockhash available without an RPC round
// trip on the sell hot path. A background worker refreshes it on a fixed
// interval; readers take the cached value under a read lock.
type BlockhashCache struct {
	rpcClient *client.Client
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	interval  time.Duration

	mu        sync.RWMutex
	blockhash solana.Hash
	updatedAt time.Time
}

// NewBlockhashCache creates a cache refreshing at the given interval
func NewBlockhashCache(rpcClient *client.Client, interval time.Duration, m *metrics.Metrics, logger *logrus.Logger) *BlockhashCache {
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &BlockhashCache{
		rpcClient: rpcClient,
		logger:    logger,
		metrics:   m,
		interval:  interval,
	}
}

// Start fetches the initial blockhash and launches the refresh worker on
// the given WaitGroup. The worker exits when ctx is cancelled.
func (bc *BlockhashCache) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := bc.refresh(ctx); err != nil {
		return fmt.Errorf("failed to initialize blockhash: %w", err)
	}

	wg.Add(1)
	go bc.refreshWorker(ctx, wg)

	return nil
}

// Get returns the cached blockhash and its age
func (bc *BlockhashCache) Get() (solana.Hash, time.Time) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()

	return bc.blockhash, bc.updatedAt
}

// refresh fetches a fresh blockhash and swaps it in under the write lock
func (bc *BlockhashCache) refresh(ctx context.Context) error {
	blockhash, err := bc.rpcClient.GetLatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	bc.mu.Lock()
	bc.blockhash = blockhash
	bc.updatedAt = time.Now()
	bc.mu.Unlock()

	return nil
}

func (bc *BlockhashCache) refreshWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(bc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bc.refresh(ctx); err != nil {
				// Keep serving the stale hash; blockhashes stay valid
				// for roughly 60 seconds so one missed refresh is fine
				bc.metrics.BlockhashFailures.Inc()
				bc.logger.WithError(err).Warn("⚠️ Failed to refresh blockhash")
			}
		}
	}
}
