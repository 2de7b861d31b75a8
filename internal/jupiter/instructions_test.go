package jupiter

import (
	"encoding/base64"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	computeBudgetProgram = "ComputeBudget111111111111111111111111111111"
	tokenProgram         = solana.TokenProgramID.String()
	jupProgram           = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)

func descriptor(program string, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		ProgramID: program,
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString(data),
	}
}

func TestInstruction_ToInstructionRoundTrip(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	c := solana.NewWallet().PublicKey()
	data := []byte{0xe5, 0x17, 0xcb, 0x97, 0x7a, 0xe3, 0xad, 0x2a, 0, 1, 2}

	d := descriptor(jupProgram, data,
		AccountMeta{Pubkey: a.String(), IsSigner: true, IsWritable: true},
		AccountMeta{Pubkey: b.String(), IsSigner: false, IsWritable: true},
		AccountMeta{Pubkey: c.String(), IsSigner: false, IsWritable: false},
	)

	ix, err := d.ToInstruction()
	require.NoError(t, err)
	assert.Equal(t, jupProgram, ix.ProgramID().String())

	got, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, data, got)

	accs := ix.Accounts()
	require.Len(t, accs, 3)
	assert.Equal(t, a, accs[0].PublicKey)
	assert.True(t, accs[0].IsSigner)
	assert.True(t, accs[0].IsWritable)
	assert.Equal(t, b, accs[1].PublicKey)
	assert.False(t, accs[1].IsSigner)
	assert.True(t, accs[1].IsWritable)
	assert.Equal(t, c, accs[2].PublicKey)
	assert.False(t, accs[2].IsSigner)
	assert.False(t, accs[2].IsWritable)
}

func TestInstruction_ToInstructionMalformed(t *testing.T) {
	cases := []Instruction{
		{ProgramID: "not-base58!", Data: ""},
		{ProgramID: jupProgram, Accounts: []AccountMeta{{Pubkey: "xyz"}}},
		{ProgramID: jupProgram, Data: "***"},
	}
	for i, d := range cases {
		_, err := d.ToInstruction()
		assert.ErrorIs(t, err, ErrMalformedResponse, "case %d", i)
	}
}

func TestMaterialize_PreservesGroupOrder(t *testing.T) {
	swap := descriptor(jupProgram, []byte{9})
	cleanup := descriptor(tokenProgram, []byte{4})
	res := &SwapInstructionsResponse{
		ComputeBudgetInstructions: []Instruction{
			descriptor(computeBudgetProgram, []byte{2}),
			descriptor(computeBudgetProgram, []byte{3}),
		},
		SetupInstructions: []Instruction{
			descriptor(tokenProgram, []byte{1}),
		},
		SwapInstruction:             &swap,
		CleanupInstruction:          &cleanup,
		AddressLookupTableAddresses: []string{"GxS6FiQ3mNnAar9HGQ6mxP7t6FcwmHkU7peSeQDUHmpN"},
	}

	m, err := res.Materialize()
	require.NoError(t, err)
	require.Len(t, m.ComputeBudget, 2)
	require.Len(t, m.Setup, 1)

	first, _ := m.ComputeBudget[0].Data()
	second, _ := m.ComputeBudget[1].Data()
	assert.Equal(t, []byte{2}, first)
	assert.Equal(t, []byte{3}, second)
	assert.Equal(t, jupProgram, m.Swap.ProgramID().String())
	assert.Equal(t, tokenProgram, m.Cleanup.ProgramID().String())
	assert.Equal(t, res.AddressLookupTableAddresses, m.LookupTableAddresses)
}

func TestMaterialize_MissingOrBad(t *testing.T) {
	swap := descriptor(jupProgram, nil)
	bad := Instruction{ProgramID: "bad"}

	cases := map[string]*SwapInstructionsResponse{
		"no swap":     {CleanupInstruction: &swap},
		"no cleanup":  {SwapInstruction: &swap},
		"bad setup":   {SwapInstruction: &swap, CleanupInstruction: &swap, SetupInstructions: []Instruction{bad}},
		"bad budget":  {SwapInstruction: &swap, CleanupInstruction: &swap, ComputeBudgetInstructions: []Instruction{bad}},
		"bad swap":    {SwapInstruction: &bad, CleanupInstruction: &swap},
		"bad cleanup": {SwapInstruction: &swap, CleanupInstruction: &bad},
	}
	for name, res := range cases {
		_, err := res.Materialize()
		assert.ErrorIs(t, err, ErrMalformedResponse, name)
	}
}
