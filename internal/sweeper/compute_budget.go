package sweeper

import (
	"encoding/binary"

	"wallet-sweeper-go/internal/config"

	"github.com/gagliardetto/solana-go"
)

// ComputeBudgetInstruction opcodes
const (
	RequestHeapFrameInstruction    uint8 = 1
	SetComputeUnitLimitInstruction uint8 = 2
	SetComputeUnitPriceInstruction uint8 = 3
)

// CreateSetComputeUnitLimitInstruction creates a compute unit limit instruction
func CreateSetComputeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5) // 1 byte opcode + 4 bytes for units
	data[0] = SetComputeUnitLimitInstruction
	binary.LittleEndian.PutUint32(data[1:5], units)

	return solana.NewInstruction(
		solana.PublicKeyFromBytes(config.ComputeBudgetProgramID),
		[]*solana.AccountMeta{}, // No accounts required
		data,
	)
}

// CreateSetComputeUnitPriceInstruction creates a compute unit price instruction for priority fees
func CreateSetComputeUnitPriceInstruction(microLamports uint64) solana.Instruction {
	data := make([]byte, 9) // 1 byte opcode + 8 bytes for price
	data[0] = SetComputeUnitPriceInstruction
	binary.LittleEndian.PutUint64(data[1:9], microLamports)

	return solana.NewInstruction(
		solana.PublicKeyFromBytes(config.ComputeBudgetProgramID),
		[]*solana.AccountMeta{}, // No accounts required
		data,
	)
}
