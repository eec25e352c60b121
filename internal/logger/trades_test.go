package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()

	log, err := NewLogger(LogConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	return log
}

func TestTradeLoggerAppendsJSONLines(t *testing.T) {
	dir := t.TempDir()
	tradeLogger, err := NewTradeLogger(dir, newTestLogger(t))
	require.NoError(t, err)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	entries := []SellLog{
		{Timestamp: now, Mint: "MintA", TriggerTx: "tx1", AmountTokens: 100, Attempts: 1, Signature: "sigA", Status: "success"},
		{Timestamp: now, Mint: "MintB", TriggerTx: "tx2", AmountTokens: 200, Attempts: 5, Status: "failed", ErrorMessage: "not enough tokens"},
	}
	for _, entry := range entries {
		require.NoError(t, tradeLogger.LogSell(entry))
	}

	path := filepath.Join(dir, "sells_2026-08-30.jsonl")
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var decoded []SellLog
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry SellLog
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		decoded = append(decoded, entry)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, decoded, 2)
	assert.Equal(t, "MintA", decoded[0].Mint)
	assert.Equal(t, "success", decoded[0].Status)
	assert.Equal(t, "sigA", decoded[0].Signature)
	assert.Equal(t, "MintB", decoded[1].Mint)
	assert.Equal(t, 5, decoded[1].Attempts)
	assert.Equal(t, "not enough tokens", decoded[1].ErrorMessage)
}

func TestTradeLoggerFillsTimestamp(t *testing.T) {
	dir := t.TempDir()
	tradeLogger, err := NewTradeLogger(dir, newTestLogger(t))
	require.NoError(t, err)

	require.NoError(t, tradeLogger.LogSell(SellLog{Mint: "MintC", Status: "skipped"}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), time.Now().Format("2006-01-02"))
}

func TestSolscanTxURL(t *testing.T) {
	assert.Equal(t, "https://solscan.io/tx/abc123", SolscanTxURL("abc123"))
}
