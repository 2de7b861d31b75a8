package gasless

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// NewCreateAssociatedTokenAccountIx creates owner's associated token account
// for mint, paid for by funder. The instruction data is empty (Create, not
// CreateIdempotent), so it fails if the account already exists.
// Accounts:
// 0. funder (signer, writable)
// 1. ata (writable)
// 2. owner
// 3. mint
// 4. system_program
// 5. token_program
func NewCreateAssociatedTokenAccountIx(funder, owner, mint solana.PublicKey) (solana.Instruction, solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}

	accounts := solana.AccountMetaSlice{
		{PublicKey: funder, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, nil), ata, nil
}

// NewFeeTransferIx moves the service fee from the payer to the fee account.
// The payer must sign it.
func NewFeeTransferIx(payer, feeAccount solana.PublicKey, lamports uint64) solana.Instruction {
	return system.NewTransferInstruction(lamports, payer, feeAccount).Build()
}
