package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json" or "text"
	LogToFile   bool
	LogFilePath string
	TradeLogDir string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)

	log.SetOutput(os.Stdout)

	// Set log format based on configuration
	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			ForceColors:     true,
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	// Create trade log directory if specified
	if config.TradeLogDir != "" {
		if err := os.MkdirAll(config.TradeLogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trade log directory %s: %w", config.TradeLogDir, err)
		}
	}

	if config.LogToFile && config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	return &Logger{
		Logger: log,
		config: config,
	}, nil
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	// Color coding for different log levels
	var levelColor string
	switch entry.Level {
	case logrus.DebugLevel:
		levelColor = "\033[36m" // Cyan
	case logrus.InfoLevel:
		levelColor = "\033[32m" // Green
	case logrus.WarnLevel:
		levelColor = "\033[33m" // Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = "\033[31m" // Red
	default:
		levelColor = "\033[0m" // Reset
	}

	resetColor := "\033[0m"

	msg := fmt.Sprintf("%s [%s%s%s] %s",
		timestamp,
		levelColor,
		level,
		resetColor,
		entry.Message)

	// Add fields if present
	if len(entry.Data) > 0 {
		msg += " |"
		for key, value := range entry.Data {
			msg += fmt.Sprintf(" %s=%v", key, value)
		}
	}

	msg += "\n"
	return []byte(msg), nil
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithTransaction returns a logger with transaction context
func (l *Logger) WithTransaction(signature string) *logrus.Entry {
	return l.WithField("transaction", signature)
}

// WithMint returns a logger with token mint context
func (l *Logger) WithMint(mint string) *logrus.Entry {
	return l.WithField("mint", mint)
}

// Sweep-specific logging methods

// LogActivityDetected logs a matching event on the watched wallet
func (l *Logger) LogActivityDetected(signature string) {
	l.WithFields(logrus.Fields{
		"event":     "activity_detected",
		"signature": signature,
		"tx_url":    SolscanTxURL(signature),
	}).Info("🔔 Activity detected on watched wallet")
}

// LogPositionDetected logs a new incoming position
func (l *Logger) LogPositionDetected(mint string, postAmount, receivedAmount uint64) {
	l.WithFields(logrus.Fields{
		"event":    "position_detected",
		"mint":     mint,
		"balance":  postAmount,
		"received": receivedAmount,
	}).Info("💎 Detected new position")
}

// LogSellSuccess logs a successful sell submission
func (l *Logger) LogSellSuccess(mint, signature string, amount uint64, attempts int) {
	l.WithFields(logrus.Fields{
		"event":     "sell_success",
		"mint":      mint,
		"amount":    amount,
		"attempts":  attempts,
		"signature": signature,
		"tx_url":    SolscanTxURL(signature),
	}).Info("✅ Sold")
}

// LogSellFailed logs a failed sell attempt sequence
func (l *Logger) LogSellFailed(mint string, amount uint64, attempts int, err error) {
	l.WithFields(logrus.Fields{
		"event":    "sell_failed",
		"mint":     mint,
		"amount":   amount,
		"attempts": attempts,
	}).WithError(err).Error("❌ Sell failed")
}

// LogSellSkipped logs a dedup-guard skip (expected, not an error)
func (l *Logger) LogSellSkipped(mint string) {
	l.WithFields(logrus.Fields{
		"event": "sell_skipped",
		"mint":  mint,
	}).Info("⏭️ Skipping, sell already in progress")
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, network, watchedWallet string) {
	prefix := watchedWallet
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	l.WithFields(logrus.Fields{
		"event":   "startup",
		"version": version,
		"network": network,
		"wallet":  prefix + "...",
	}).Info("🤖 Wallet sweeper starting up")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(reason string) {
	l.WithFields(logrus.Fields{
		"event":  "shutdown",
		"reason": reason,
	}).Info("🛑 Wallet sweeper shutting down")
}

// SolscanTxURL returns the explorer URL for a transaction signature
func SolscanTxURL(signature string) string {
	return "https://solscan.io/tx/" + signature
}
