package utils

import (
	"fmt"

	"wallet-sweeper-go/internal/config"

	"github.com/gagliardetto/solana-go"
)

// DeriveBondingCurve derives the bonding curve PDA for a mint under the
// pump.fun program
func DeriveBondingCurve(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte("bonding-curve"),
		mint.Bytes(),
	}

	programID := solana.PublicKeyFromBytes(config.PumpFunProgramID)
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive bonding curve: %w", err)
	}

	return addr, bump, nil
}

// DeriveCreatorVault derives the creator vault PDA for a token creator
func DeriveCreatorVault(creator solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		[]byte("creator-vault"),
		creator.Bytes(),
	}

	programID := solana.PublicKeyFromBytes(config.PumpFunProgramID)
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive creator vault: %w", err)
	}

	return addr, bump, nil
}

// DeriveTokenAccount derives the associated token account address for an
// owner and mint under the given token program. Token-2022 mints use a
// different token program than legacy SPL mints, so the token program is
// part of the seed set.
func DeriveTokenAccount(owner, tokenProgram, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		owner.Bytes(),
		tokenProgram.Bytes(),
		mint.Bytes(),
	}

	programID := solana.PublicKeyFromBytes(config.AssociatedTokenProgramID)
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive token account: %w", err)
	}

	return addr, bump, nil
}

// DeriveToken2022Account derives the associated token account for a
// token-2022 mint
func DeriveToken2022Account(owner, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DeriveTokenAccount(owner, solana.PublicKeyFromBytes(config.Token2022ProgramID), mint)
}
