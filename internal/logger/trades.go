package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SellLog represents one sell attempt sequence outcome
type SellLog struct {
	Timestamp    time.Time `json:"timestamp"`
	Mint         string    `json:"mint"`                    // Token mint address
	TriggerTx    string    `json:"trigger_tx"`              // Transaction that delivered the balance
	AmountTokens uint64    `json:"amount_tokens"`           // Raw token amount sold
	Attempts     int       `json:"attempts"`                // Attempts consumed by the retry loop
	Signature    string    `json:"signature,omitempty"`     // Sell transaction signature
	Status       string    `json:"status"`                  // "success", "failed", "skipped"
	ErrorMessage string    `json:"error_message,omitempty"` // Error if failed
}

// TradeLogger handles the append-only sell journal
type TradeLogger struct {
	baseDir string
	logger  *Logger
	mu      sync.Mutex
}

// NewTradeLogger creates a new trade logger
func NewTradeLogger(baseDir string, logger *Logger) (*TradeLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trade log directory: %w", err)
	}

	return &TradeLogger{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// LogSell appends a sell outcome to the daily journal file
func (tl *TradeLogger) LogSell(entry SellLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	tl.logger.WithFields(map[string]interface{}{
		"event":         "sell_logged",
		"mint":          entry.Mint,
		"trigger_tx":    entry.TriggerTx,
		"amount_tokens": entry.AmountTokens,
		"attempts":      entry.Attempts,
		"signature":     entry.Signature,
		"status":        entry.Status,
	}).Debug("Sell journaled")

	filename := fmt.Sprintf("sells_%s.jsonl", entry.Timestamp.Format("2006-01-02"))
	path := filepath.Join(tl.baseDir, filename)

	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal sell entry: %w", err)
	}

	// Sells for different mints run concurrently; serialize the append
	tl.mu.Lock()
	defer tl.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open sell journal: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(entryBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write sell journal: %w", err)
	}

	return nil
}
