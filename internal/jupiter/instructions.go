package jupiter

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SwapInstructions is the router's bundle converted to executable
// instructions. Group order is exactly as the router returned it.
type SwapInstructions struct {
	ComputeBudget []solana.Instruction
	Setup         []solana.Instruction
	Swap          solana.Instruction
	Cleanup       solana.Instruction

	LookupTableAddresses []string
}

// ToInstruction decodes one descriptor. Account order and signer/writable
// flags are carried through unchanged.
func (ix Instruction) ToInstruction() (solana.Instruction, error) {
	programID, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: program id %q: %v", ErrMalformedResponse, ix.ProgramID, err)
	}

	metas := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for i, acc := range ix.Accounts {
		pk, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: account %d of %s: %v", ErrMalformedResponse, i, ix.ProgramID, err)
		}
		metas = append(metas, &solana.AccountMeta{
			PublicKey:  pk,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}

	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data of %s: %v", ErrMalformedResponse, ix.ProgramID, err)
	}

	return solana.NewInstruction(programID, metas, data), nil
}

// Materialize converts every descriptor of the bundle. The token-ledger
// instruction is ignored since it is never requested.
func (r *SwapInstructionsResponse) Materialize() (*SwapInstructions, error) {
	if r.SwapInstruction == nil {
		return nil, fmt.Errorf("%w: missing swapInstruction", ErrMalformedResponse)
	}
	if r.CleanupInstruction == nil {
		return nil, fmt.Errorf("%w: missing cleanupInstruction", ErrMalformedResponse)
	}

	computeBudget, err := convertAll(r.ComputeBudgetInstructions, "computeBudgetInstructions")
	if err != nil {
		return nil, err
	}
	setup, err := convertAll(r.SetupInstructions, "setupInstructions")
	if err != nil {
		return nil, err
	}
	swap, err := r.SwapInstruction.ToInstruction()
	if err != nil {
		return nil, fmt.Errorf("swapInstruction: %w", err)
	}
	cleanup, err := r.CleanupInstruction.ToInstruction()
	if err != nil {
		return nil, fmt.Errorf("cleanupInstruction: %w", err)
	}

	return &SwapInstructions{
		ComputeBudget:        computeBudget,
		Setup:                setup,
		Swap:                 swap,
		Cleanup:              cleanup,
		LookupTableAddresses: append([]string(nil), r.AddressLookupTableAddresses...),
	}, nil
}

func convertAll(in []Instruction, group string) ([]solana.Instruction, error) {
	out := make([]solana.Instruction, 0, len(in))
	for i, d := range in {
		ix, err := d.ToInstruction()
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", group, i, err)
		}
		out = append(out, ix)
	}
	return out, nil
}
