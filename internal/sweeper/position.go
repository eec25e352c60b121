package sweeper

import (
	"fmt"
	"strconv"

	"wallet-sweeper-go/internal/config"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Position is a token balance increase detected on the watched wallet,
// ready to be swept out through the bonding curve.
type Position struct {
	Mint             solana.PublicKey
	AmountTokens     uint64 // Received amount, the amount to sell
	PostBalance      uint64 // Full balance after the trigger transaction
	Decimals         uint8
	TriggerSignature string
	Slot             uint64
}

// ExtractPosition scans a transaction's token balance changes for the first
// mint whose balance on the watched wallet increased. Native SOL and USDC
// balances are ignored; those are payment legs, not sweepable tokens.
// Returns nil when the transaction contains no qualifying increase.
func ExtractPosition(tx *rpc.GetTransactionResult, watchedWallet solana.PublicKey, triggerSignature string) (*Position, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is nil")
	}
	if tx.Meta == nil {
		// No metadata means no balance changes to inspect
		return nil, nil
	}

	for _, post := range tx.Meta.PostTokenBalances {
		if post.Owner == nil || !post.Owner.Equals(watchedWallet) {
			continue
		}

		mint := post.Mint.String()
		if mint == config.NativeSOLMint || mint == config.USDCMint {
			continue
		}

		if post.UiTokenAmount == nil {
			continue
		}

		postAmount, err := strconv.ParseUint(post.UiTokenAmount.Amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid post token amount %q: %w", post.UiTokenAmount.Amount, err)
		}

		// Accounts created by this transaction have no pre entry, so a
		// missing pre balance counts as zero
		preAmount := uint64(0)
		for _, pre := range tx.Meta.PreTokenBalances {
			if pre.AccountIndex != post.AccountIndex {
				continue
			}
			if pre.UiTokenAmount == nil {
				break
			}
			preAmount, err = strconv.ParseUint(pre.UiTokenAmount.Amount, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid pre token amount %q: %w", pre.UiTokenAmount.Amount, err)
			}
			break
		}

		if postAmount <= preAmount {
			continue
		}

		return &Position{
			Mint:             post.Mint,
			AmountTokens:     postAmount - preAmount,
			PostBalance:      postAmount,
			Decimals:         post.UiTokenAmount.Decimals,
			TriggerSignature: triggerSignature,
			Slot:             tx.Slot,
		}, nil
	}

	return nil, nil
}
