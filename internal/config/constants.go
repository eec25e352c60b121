package config

import "github.com/mr-tron/base58"

// Solana network constants
const (
	SolanaMainnetRPC = "https://api.mainnet-beta.solana.com"
	SolanaDevnetRPC  = "https://api.devnet.solana.com"

	// WebSocket endpoints
	SolanaMainnetWS = "wss://api.mainnet-beta.solana.com"
	SolanaDevnetWS  = "wss://api.devnet.solana.com"

	// Helius endpoints (preferred when an API key is configured)
	HeliusMainnetRPC = "https://mainnet.helius-rpc.com/?api-key="
	HeliusMainnetWS  = "wss://mainnet.helius-rpc.com/?api-key="

	// Solana constants
	LamportsPerSol = 1_000_000_000
)

// pump.fun program addresses
var (
	// Main pump.fun program ID (verified)
	PumpFunProgramID = mustDecodeBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// Global account for pump.fun (verified)
	PumpFunGlobal = mustDecodeBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")

	// Fee recipient (verified)
	PumpFunFeeRecipient = mustDecodeBase58("62qc2CNXwrYqQScmEdiZFFAnJR262PxWEuNQtxfafNgV")

	// Event authority (verified)
	PumpFunEventAuthority = mustDecodeBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")

	// Fee config PDA and fee program for the current pump.fun fee model
	PumpFunFeeConfig  = mustDecodeBase58("8Wf5TiAheLUqBrKXeYg2JtAFFMWtKdG2BSFgqUcPVwTt")
	PumpFunFeeProgram = mustDecodeBase58("pfeeUxB6jkeY1Hxd7CsFCAjcbHA9rWtchMGdZ6VojVZ")

	// System program
	SystemProgramID = mustDecodeBase58("11111111111111111111111111111111")

	// Token-2022 program (pump.fun tokens use the 2022 token program)
	Token2022ProgramID = mustDecodeBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// Associated Token program
	AssociatedTokenProgramID = mustDecodeBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// Compute Budget Program ID
	ComputeBudgetProgramID = mustDecodeBase58("ComputeBudget111111111111111111111111111111")
)

// Mints that are never swept (compared against the mint strings in
// transaction metadata, so kept as base58 text)
const (
	NativeSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// Sweep defaults
const (
	// Retry budget for one sell attempt sequence
	DefaultMaxRetries   = 5
	DefaultRetryDelayMs = 300

	// Compute budget prefix values
	DefaultComputeUnitPrice = 1_000_000
	DefaultComputeUnitLimit = 1_000_000

	// Blockhash cache refresh interval in seconds
	DefaultBlockhashRefreshSecs = 2
)

// Helper function to decode base58 addresses and panic on error
// Used for compile-time constant addresses that should never fail
func mustDecodeBase58(addr string) []byte {
	decoded, err := base58.Decode(addr)
	if err != nil {
		panic("Invalid base58 address: " + addr + ", error: " + err.Error())
	}
	return decoded
}

// GetRPCEndpoint returns RPC endpoint based on network
func GetRPCEndpoint(network string) string {
	switch network {
	case "mainnet":
		return SolanaMainnetRPC
	case "devnet":
		return SolanaDevnetRPC
	default:
		return SolanaMainnetRPC
	}
}

// GetWSEndpoint returns WebSocket endpoint based on network
func GetWSEndpoint(network string) string {
	switch network {
	case "mainnet":
		return SolanaMainnetWS
	case "devnet":
		return SolanaDevnetWS
	default:
		return SolanaMainnetWS
	}
}

// ConvertLamportsToSOL converts lamports to SOL
func ConvertLamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}
