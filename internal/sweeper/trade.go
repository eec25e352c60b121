package sweeper

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"wallet-sweeper-go/internal/client"
	"wallet-sweeper-go/internal/config"
	"wallet-sweeper-go/internal/logger"
	"wallet-sweeper-go/internal/metrics"
	"wallet-sweeper-go/internal/wallet"
	"wallet-sweeper-go/pkg/anchor"
	"wallet-sweeper-go/pkg/utils"

	"github.com/gagliardetto/solana-go"
)

// TradeExecutor builds, signs and submits sell transactions for detected
// positions, retrying through the settlement window.
type TradeExecutor struct {
	wallet      *wallet.Wallet
	rpcClient   *client.Client
	blockhashes *BlockhashCache
	logger      *logger.Logger
	tradeLogger *logger.TradeLogger
	metrics     *metrics.Metrics
	config      *config.Config

	creatorVault solana.PublicKey
}

// NewTradeExecutor creates a trade executor. The creator vault is resolved
// once from configuration; it is constant for all of the operator's coins.
func NewTradeExecutor(
	w *wallet.Wallet,
	rpcClient *client.Client,
	blockhashes *BlockhashCache,
	log *logger.Logger,
	tradeLogger *logger.TradeLogger,
	m *metrics.Metrics,
	cfg *config.Config,
) (*TradeExecutor, error) {
	creatorVault, err := solana.PublicKeyFromBase58(cfg.CreatorVault)
	if err != nil {
		return nil, fmt.Errorf("invalid creator vault address: %w", err)
	}

	return &TradeExecutor{
		wallet:       w,
		rpcClient:    rpcClient,
		blockhashes:  blockhashes,
		logger:       log,
		tradeLogger:  tradeLogger,
		metrics:      m,
		config:       cfg,
		creatorVault: creatorVault,
	}, nil
}

// CreateSellAccountMetas creates the account array for the pump.fun sell
// instruction. The order follows the program IDL:
//
//	 0: global (read-only)
//	 1: feeRecipient (writable)
//	 2: mint (read-only)
//	 3: bondingCurve (writable)
//	 4: associatedBondingCurve (writable)
//	 5: associatedUser (writable)
//	 6: user (writable, signer)
//	 7: systemProgram (read-only)
//	 8: creatorVault (writable)
//	 9: tokenProgram (read-only, token-2022)
//	10: eventAuthority (read-only)
//	11: program (read-only)
//	12: feeConfig (read-only)
//	13: feeProgram (read-only)
func CreateSellAccountMetas(
	mint solana.PublicKey,
	bondingCurve solana.PublicKey,
	curveTokenAccount solana.PublicKey,
	userTokenAccount solana.PublicKey,
	userWallet solana.PublicKey,
	creatorVault solana.PublicKey,
) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		{PublicKey: solana.PublicKeyFromBytes(config.PumpFunGlobal), IsWritable: false, IsSigner: false},
		{PublicKey: solana.PublicKeyFromBytes(config.PumpFunFeeRecipient), IsWritable: true, IsSigner: false},
		{PublicKey: mint, IsWritable: false, IsSigner: false},
		{PublicKey: bondingCurve, IsWritable: true, IsSigner: false},
		{PublicKey: curveTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: userTokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: userWallet, IsWritable: true, IsSigner: true},
		{PublicKey: solana.PublicKeyFromBytes(config.SystemProgramID), IsWritable: false, IsSigner: false},
		{PublicKey: creatorVault, IsWritable: true, IsSigner: false},
		{PublicKey: solana.PublicKeyFromBytes(config.Token2022ProgramID), IsWritable: false, IsSigner: false},
		{PublicKey: solana.PublicKeyFromBytes(config.PumpFunEventAuthority), IsWritable: false, IsSigner: false},
		{PublicKey: solana.PublicKeyFromBytes(config.PumpFunProgramID), IsWritable: false, IsSigner: false},
		{PublicKey: solana.PublicKeyFromBytes(config.PumpFunFeeConfig), IsWritable: false, IsSigner: false},
		{PublicKey: solana.PublicKeyFromBytes(config.PumpFunFeeProgram), IsWritable: false, IsSigner: false},
	}
}

// createSellInstructionData creates the 24-byte sell instruction payload:
// 8-byte discriminator, token amount, minimum SOL output, little endian
func createSellInstructionData(tokenAmount uint64, minSolOutput uint64) []byte {
	data := make([]byte, 24)

	copy(data[0:8], anchor.SellDiscriminator.Bytes())
	binary.LittleEndian.PutUint64(data[8:16], tokenAmount)
	binary.LittleEndian.PutUint64(data[16:24], minSolOutput)

	return data
}

// CreateSellInstruction creates a pump.fun sell instruction
func CreateSellInstruction(
	mint solana.PublicKey,
	bondingCurve solana.PublicKey,
	curveTokenAccount solana.PublicKey,
	userTokenAccount solana.PublicKey,
	userWallet solana.PublicKey,
	creatorVault solana.PublicKey,
	tokenAmount uint64,
	minSolOutput uint64,
) solana.Instruction {
	accounts := CreateSellAccountMetas(mint, bondingCurve, curveTokenAccount, userTokenAccount, userWallet, creatorVault)
	data := createSellInstructionData(tokenAmount, minSolOutput)

	return solana.NewInstruction(
		solana.PublicKeyFromBytes(config.PumpFunProgramID),
		accounts,
		data,
	)
}

// BuildSellTransaction derives the position's PDAs, assembles the compute
// budget prefix and the sell instruction, and signs against the cached
// blockhash
func (te *TradeExecutor) BuildSellTransaction(position *Position) (*solana.Transaction, error) {
	bondingCurve, _, err := utils.DeriveBondingCurve(position.Mint)
	if err != nil {
		return nil, err
	}

	curveTokenAccount, _, err := utils.DeriveToken2022Account(bondingCurve, position.Mint)
	if err != nil {
		return nil, err
	}

	userTokenAccount, _, err := utils.DeriveToken2022Account(te.wallet.GetPublicKey(), position.Mint)
	if err != nil {
		return nil, err
	}

	sellInstruction := CreateSellInstruction(
		position.Mint,
		bondingCurve,
		curveTokenAccount,
		userTokenAccount,
		te.wallet.GetPublicKey(),
		te.creatorVault,
		position.AmountTokens,
		te.config.Trading.MinSolOutput,
	)

	// Priority fee first, then the unit limit, then the swap
	instructions := []solana.Instruction{
		CreateSetComputeUnitPriceInstruction(te.config.Trading.ComputeUnitPrice),
		CreateSetComputeUnitLimitInstruction(te.config.Trading.ComputeUnitLimit),
		sellInstruction,
	}

	blockhash, _ := te.blockhashes.Get()

	transaction, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(te.wallet.GetPublicKey()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if _, err := transaction.Sign(te.wallet.Signer()); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return transaction, nil
}

// ExecuteSell submits the sell for a position, retrying retryable program
// errors with a fresh transaction each attempt. The retryable errors are
// settlement lag: the token account or balance from the trigger transaction
// has not landed at the node yet.
func (te *TradeExecutor) ExecuteSell(ctx context.Context, position *Position) error {
	maxRetries := te.config.Trading.MaxRetries
	if maxRetries <= 0 {
		maxRetries = config.DefaultMaxRetries
	}

	te.metrics.SellsAttempted.Inc()
	startTime := time.Now()

	var lastErr *TradeError
	attemptsUsed := 0

	for attempt := 1; attempt <= maxRetries; attempt++ {
		attemptsUsed = attempt
		if ctx.Err() != nil {
			return ctx.Err()
		}

		transaction, err := te.BuildSellTransaction(position)
		if err != nil {
			te.metrics.SellsFailed.Inc()
			te.journal(position, "failed", "", attempt, err)
			return fmt.Errorf("failed to build sell transaction: %w", err)
		}

		signature, err := te.rpcClient.SendTransaction(ctx, transaction)
		if err == nil {
			te.metrics.SellsSucceeded.Inc()
			te.metrics.SellDuration.Observe(time.Since(startTime).Seconds())
			te.logger.LogSellSuccess(position.Mint.String(), signature.String(), position.AmountTokens, attempt)
			te.journal(position, "success", signature.String(), attempt, nil)
			return nil
		}

		lastErr = ClassifyRPCError(err)

		if !lastErr.Retryable() || attempt >= maxRetries {
			break
		}

		te.metrics.SellRetries.Inc()
		te.logger.WithFields(map[string]interface{}{
			"mint":    position.Mint.String(),
			"attempt": attempt,
			"kind":    lastErr.Kind.String(),
			"code":    lastErr.Code,
		}).Warn("⏳ Sell not ready yet, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(te.config.RetryDelay()):
		}
	}

	te.metrics.SellsFailed.Inc()
	te.metrics.SellDuration.Observe(time.Since(startTime).Seconds())
	te.logger.LogSellFailed(position.Mint.String(), position.AmountTokens, attemptsUsed, lastErr)
	te.journal(position, "failed", "", attemptsUsed, lastErr)

	return lastErr
}

// journal writes the sell outcome to the daily journal; journal failures
// are logged but never fail the sell path
func (te *TradeExecutor) journal(position *Position, status, signature string, attempts int, sellErr error) {
	if te.tradeLogger == nil {
		return
	}

	entry := logger.SellLog{
		Mint:         position.Mint.String(),
		TriggerTx:    position.TriggerSignature,
		AmountTokens: position.AmountTokens,
		Attempts:     attempts,
		Signature:    signature,
		Status:       status,
	}
	if sellErr != nil {
		entry.ErrorMessage = sellErr.Error()
	}

	if err := te.tradeLogger.LogSell(entry); err != nil {
		te.logger.WithError(err).Error("❌ Failed to journal sell")
	}
}
