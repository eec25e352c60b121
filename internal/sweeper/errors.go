package sweeper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// TradeErrorKind classifies transaction submission failures
type TradeErrorKind int

const (
	// ErrKindUnknown covers failures with no recognized program error code
	ErrKindUnknown TradeErrorKind = iota
	// ErrKindAccountNotInitialized is pump.fun custom error 3012 (0xbc4),
	// raised while the recipient token account is still being created
	ErrKindAccountNotInitialized
	// ErrKindNotEnoughTokens is pump.fun custom error 6023 (0x1787),
	// raised while the received balance has not settled yet
	ErrKindNotEnoughTokens
	// ErrKindBlockhashExpired means the cached blockhash fell out of the
	// validity window
	ErrKindBlockhashExpired
	// ErrKindInsufficientFunds means the fee payer cannot cover fees
	ErrKindInsufficientFunds
)

// Pump.fun custom program error codes
const (
	CodeAccountNotInitialized = 3012 // 0xbc4
	CodeNotEnoughTokens       = 6023 // 0x1787
)

// TradeError is a classified transaction failure. Classification happens
// once, at the RPC boundary, so callers branch on Kind instead of matching
// error strings.
type TradeError struct {
	Kind    TradeErrorKind
	Code    int
	Message string
	err     error
}

func (e *TradeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("trade failed (%s, code %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("trade failed (%s): %s", e.Kind, e.Message)
}

func (e *TradeError) Unwrap() error {
	return e.err
}

// Retryable reports whether the failure is transient settlement lag worth
// retrying with the same parameters
func (e *TradeError) Retryable() bool {
	switch e.Kind {
	case ErrKindAccountNotInitialized, ErrKindNotEnoughTokens:
		return true
	default:
		return false
	}
}

// String returns a readable kind name
func (k TradeErrorKind) String() string {
	switch k {
	case ErrKindAccountNotInitialized:
		return "account_not_initialized"
	case ErrKindNotEnoughTokens:
		return "not_enough_tokens"
	case ErrKindBlockhashExpired:
		return "blockhash_expired"
	case ErrKindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "unknown"
	}
}

// ClassifyRPCError maps a raw sendTransaction error into a TradeError.
// Program errors surface as JSON-RPC errors whose message carries either
// the anchor error name or "custom program error: 0x..." with the hex code.
func ClassifyRPCError(err error) *TradeError {
	if err == nil {
		return nil
	}

	var tradeErr *TradeError
	if errors.As(err, &tradeErr) {
		return tradeErr
	}

	message := err.Error()

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		message = rpcErr.Message
	}

	result := &TradeError{
		Kind:    ErrKindUnknown,
		Message: message,
		err:     err,
	}

	switch {
	case strings.Contains(message, "custom program error: 0xbc4"),
		strings.Contains(message, "AccountNotInitialized"):
		result.Kind = ErrKindAccountNotInitialized
		result.Code = CodeAccountNotInitialized

	case strings.Contains(message, "custom program error: 0x1787"),
		strings.Contains(message, "NotEnoughTokensToSell"),
		strings.Contains(message, "NotEnoughTokens"):
		result.Kind = ErrKindNotEnoughTokens
		result.Code = CodeNotEnoughTokens

	case strings.Contains(message, "Blockhash not found"),
		strings.Contains(message, "BlockhashNotFound"):
		result.Kind = ErrKindBlockhashExpired

	case strings.Contains(message, "insufficient funds"),
		strings.Contains(message, "InsufficientFundsForFee"):
		result.Kind = ErrKindInsufficientFunds
	}

	return result
}
