package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wallet-sweeper-go/internal/client"
	"wallet-sweeper-go/internal/config"
	"wallet-sweeper-go/internal/logger"
	"wallet-sweeper-go/internal/metrics"
	"wallet-sweeper-go/internal/wallet"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestExecutor(t *testing.T, rpcClient *client.Client) (*TradeExecutor, *metrics.Metrics, func()) {
	t.Helper()

	log, err := logger.NewLogger(logger.LogConfig{Level: "error", Format: "json"})
	require.NoError(t, err)

	w, err := wallet.NewWallet(wallet.WalletConfig{Mnemonic: testMnemonic}, rpcClient, log.Logger)
	require.NoError(t, err)

	tradeLogger, err := logger.NewTradeLogger(t.TempDir(), log)
	require.NoError(t, err)

	cfg := &config.Config{
		WatchedWallet: w.GetPublicKeyString(),
		CreatorVault:  "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf",
		Trading: config.TradingConfig{
			MinSolOutput:     0,
			MaxRetries:       5,
			RetryDelayMs:     1,
			ComputeUnitPrice: config.DefaultComputeUnitPrice,
			ComputeUnitLimit: config.DefaultComputeUnitLimit,
		},
	}

	cache := NewBlockhashCache(rpcClient, time.Hour, metrics.NewMetrics(), log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	require.NoError(t, cache.Start(ctx, &wg))

	m := metrics.NewMetrics()
	executor, err := NewTradeExecutor(w, rpcClient, cache, log, tradeLogger, m, cfg)
	require.NoError(t, err)

	cleanup := func() {
		cancel()
		wg.Wait()
	}

	return executor, m, cleanup
}

func testPosition() *Position {
	return &Position{
		Mint:             memeMint,
		AmountTokens:     1_000_000,
		PostBalance:      1_000_000,
		TriggerSignature: "trigger-sig",
	}
}

func TestExecuteSellSucceedsFirstAttempt(t *testing.T) {
	rpcClient, counter := startRPCServer(t, func(method string, count int) (interface{}, *testRPCError) {
		switch method {
		case "getLatestBlockhash":
			return blockhashResult(1), nil
		case "sendTransaction":
			return testSignature(), nil
		}
		return nil, &testRPCError{Code: -32601, Message: "method not found"}
	})

	executor, _, cleanup := newTestExecutor(t, rpcClient)
	defer cleanup()

	err := executor.ExecuteSell(context.Background(), testPosition())
	require.NoError(t, err)
	assert.Equal(t, 1, counter.get("sendTransaction"))
}

func TestExecuteSellRetriesUntilBalanceSettles(t *testing.T) {
	rpcClient, counter := startRPCServer(t, func(method string, count int) (interface{}, *testRPCError) {
		switch method {
		case "getLatestBlockhash":
			return blockhashResult(1), nil
		case "sendTransaction":
			// The node sees the balance on the third attempt
			if count < 3 {
				return nil, &testRPCError{Code: -32002, Message: "Transaction simulation failed: custom program error: 0x1787"}
			}
			return testSignature(), nil
		}
		return nil, &testRPCError{Code: -32601, Message: "method not found"}
	})

	executor, _, cleanup := newTestExecutor(t, rpcClient)
	defer cleanup()

	err := executor.ExecuteSell(context.Background(), testPosition())
	require.NoError(t, err)
	assert.Equal(t, 3, counter.get("sendTransaction"))
}

func TestExecuteSellExhaustsRetries(t *testing.T) {
	rpcClient, counter := startRPCServer(t, func(method string, count int) (interface{}, *testRPCError) {
		switch method {
		case "getLatestBlockhash":
			return blockhashResult(1), nil
		case "sendTransaction":
			return nil, &testRPCError{Code: -32002, Message: "custom program error: 0xbc4"}
		}
		return nil, &testRPCError{Code: -32601, Message: "method not found"}
	})

	executor, _, cleanup := newTestExecutor(t, rpcClient)
	defer cleanup()

	err := executor.ExecuteSell(context.Background(), testPosition())
	require.Error(t, err)

	var tradeErr *TradeError
	require.True(t, errors.As(err, &tradeErr))
	assert.Equal(t, ErrKindAccountNotInitialized, tradeErr.Kind)
	assert.Equal(t, 5, counter.get("sendTransaction"))
}

func TestExecuteSellSkipsDelayAfterFinalAttempt(t *testing.T) {
	rpcClient, counter := startRPCServer(t, func(method string, count int) (interface{}, *testRPCError) {
		switch method {
		case "getLatestBlockhash":
			return blockhashResult(1), nil
		case "sendTransaction":
			return nil, &testRPCError{Code: -32002, Message: "custom program error: 0x1787"}
		}
		return nil, &testRPCError{Code: -32601, Message: "method not found"}
	})

	executor, m, cleanup := newTestExecutor(t, rpcClient)
	defer cleanup()

	executor.config.Trading.MaxRetries = 2
	executor.config.Trading.RetryDelayMs = 250

	start := time.Now()
	err := executor.ExecuteSell(context.Background(), testPosition())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 2, counter.get("sendTransaction"))

	// Two attempts leave room for one delay between them and none after
	// the last failure
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SellRetries))
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestExecuteSellStopsOnNonRetryableError(t *testing.T) {
	rpcClient, counter := startRPCServer(t, func(method string, count int) (interface{}, *testRPCError) {
		switch method {
		case "getLatestBlockhash":
			return blockhashResult(1), nil
		case "sendTransaction":
			return nil, &testRPCError{Code: -32002, Message: "Blockhash not found"}
		}
		return nil, &testRPCError{Code: -32601, Message: "method not found"}
	})

	executor, _, cleanup := newTestExecutor(t, rpcClient)
	defer cleanup()

	err := executor.ExecuteSell(context.Background(), testPosition())
	require.Error(t, err)

	var tradeErr *TradeError
	require.True(t, errors.As(err, &tradeErr))
	assert.Equal(t, ErrKindBlockhashExpired, tradeErr.Kind)
	assert.Equal(t, 1, counter.get("sendTransaction"))
}

func TestExecuteSellHonorsContextCancellation(t *testing.T) {
	rpcClient, _ := startRPCServer(t, func(method string, count int) (interface{}, *testRPCError) {
		switch method {
		case "getLatestBlockhash":
			return blockhashResult(1), nil
		case "sendTransaction":
			return nil, &testRPCError{Code: -32002, Message: "custom program error: 0x1787"}
		}
		return nil, &testRPCError{Code: -32601, Message: "method not found"}
	})

	executor, _, cleanup := newTestExecutor(t, rpcClient)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.ExecuteSell(ctx, testPosition())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
