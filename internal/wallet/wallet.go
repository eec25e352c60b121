package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"strings"

	"wallet-sweeper-go/internal/client"
	"wallet-sweeper-go/internal/config"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"
)

// Wallet represents the signing wallet used for sweep transactions
type Wallet struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
	rpcClient  *client.Client
	logger     *logrus.Logger
}

// WalletConfig contains wallet configuration
type WalletConfig struct {
	PrivateKey string
	Mnemonic   string
	Network    string
}

// NewWallet creates a wallet from a base58 private key or a BIP-39 mnemonic
func NewWallet(cfg WalletConfig, rpcClient *client.Client, logger *logrus.Logger) (*Wallet, error) {
	var privateKey solana.PrivateKey

	switch {
	case cfg.PrivateKey != "":
		account, err := types.AccountFromBase58(strings.TrimSpace(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		privateKey = solana.PrivateKey(account.PrivateKey)

	case cfg.Mnemonic != "":
		key, err := keyFromMnemonic(cfg.Mnemonic)
		if err != nil {
			return nil, err
		}
		privateKey = key

	default:
		return nil, fmt.Errorf("private key or mnemonic is required")
	}

	wallet := &Wallet{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
		rpcClient:  rpcClient,
		logger:     logger,
	}

	logger.WithFields(logrus.Fields{
		"public_key": wallet.publicKey.String(),
		"network":    cfg.Network,
	}).Info("Wallet initialized")

	return wallet, nil
}

// keyFromMnemonic derives an ed25519 keypair from the first 32 bytes of the
// BIP-39 seed, matching the common Solana CLI derivation
func keyFromMnemonic(mnemonic string) (solana.PrivateKey, error) {
	if !bip39.IsMnemonicValid(strings.TrimSpace(mnemonic)) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	seed := bip39.NewSeed(strings.TrimSpace(mnemonic), "")
	key := ed25519.NewKeyFromSeed(seed[:32])

	return solana.PrivateKey(key), nil
}

// GetPublicKey returns the wallet's public key
func (w *Wallet) GetPublicKey() solana.PublicKey {
	return w.publicKey
}

// GetPublicKeyString returns the wallet's public key as base58 string
func (w *Wallet) GetPublicKeyString() string {
	return w.publicKey.String()
}

// Signer returns a resolver for transaction signing. It yields the private
// key only for the wallet's own public key.
func (w *Wallet) Signer() func(key solana.PublicKey) *solana.PrivateKey {
	return func(key solana.PublicKey) *solana.PrivateKey {
		if w.publicKey.Equals(key) {
			return &w.privateKey
		}
		return nil
	}
}

// GetBalance returns the wallet's SOL balance in lamports
func (w *Wallet) GetBalance(ctx context.Context) (uint64, error) {
	balance, err := w.rpcClient.GetBalance(ctx, w.publicKey.String(), rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"balance_lamports": balance,
		"balance_sol":      config.ConvertLamportsToSOL(balance),
	}).Debug("Retrieved wallet balance")

	return balance, nil
}

// GetBalanceSOL returns the wallet's SOL balance as float64
func (w *Wallet) GetBalanceSOL(ctx context.Context) (float64, error) {
	balance, err := w.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	return config.ConvertLamportsToSOL(balance), nil
}
