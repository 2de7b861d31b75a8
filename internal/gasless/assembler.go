package gasless

import (
	"errors"
	"fmt"
	"math"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
	"github.com/aman-zulfiqar/gasless-swap/internal/jupiter"
	"github.com/aman-zulfiqar/gasless-swap/internal/lookuptable"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrNoInstructions  = errors.New("no instructions")
	ErrTooManyAccounts = errors.New("too many account references")
	ErrTooLarge        = errors.New("transaction exceeds packet size")
)

// Assembler lays out and compiles the sponsored transaction.
type Assembler struct {
	Sponsor     solana.PublicKey
	FeeAccount  solana.PublicKey
	FeeLamports uint64
	OutputMint  solana.PublicKey
}

// Order returns the instruction sequence:
// create output ATA, compute budget, setup, swap, cleanup, fee transfer.
func (a *Assembler) Order(payer solana.PublicKey, swap *jupiter.SwapInstructions) ([]solana.Instruction, error) {
	if swap == nil || swap.Swap == nil || swap.Cleanup == nil {
		return nil, fmt.Errorf("incomplete swap instructions")
	}

	createATA, _, err := NewCreateAssociatedTokenAccountIx(a.Sponsor, payer, a.OutputMint)
	if err != nil {
		return nil, err
	}

	ixs := make([]solana.Instruction, 0, 4+len(swap.ComputeBudget)+len(swap.Setup))
	ixs = append(ixs, createATA)
	ixs = append(ixs, swap.ComputeBudget...)
	ixs = append(ixs, swap.Setup...)
	ixs = append(ixs, swap.Swap, swap.Cleanup)
	ixs = append(ixs, NewFeeTransferIx(payer, a.FeeAccount, a.FeeLamports))
	return ixs, nil
}

// Compile builds a v0 message paid by the sponsor. Accounts found in tables
// are loaded from the first table, in slice order, that holds them; signers
// and invoked programs are always inlined. The same inputs always compile to
// the same bytes.
func (a *Assembler) Compile(ixs []solana.Instruction, blockhash solana.Hash, tables []lookuptable.Table) (*solana.Transaction, error) {
	if len(ixs) == 0 {
		return nil, ErrNoInstructions
	}

	keys := collectKeys(a.Sponsor, ixs)
	if len(keys) > constants.MaxAccountKeys {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyAccounts, len(keys), constants.MaxAccountKeys)
	}

	msg, err := compileV0(keys, ixs, blockhash, tables)
	if err != nil {
		return nil, err
	}

	raw, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	if size := WireSize(msg.Header.NumRequiredSignatures, len(raw)); size > constants.MaxTransactionSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, size, constants.MaxTransactionSize)
	}

	return &solana.Transaction{
		Signatures: make([]solana.Signature, msg.Header.NumRequiredSignatures),
		Message:    *msg,
	}, nil
}

// WireSize is the serialized transaction size for a message of msgLen bytes.
func WireSize(numSigners uint8, msgLen int) int {
	// signature count is a compact-u16, one byte below 128
	return 1 + 64*int(numSigners) + msgLen
}

type accountKey struct {
	key      solana.PublicKey
	signer   bool
	writable bool
	invoked  bool
}

// collectKeys merges the flags of every account the instructions reference,
// payer first, then in order of first appearance.
func collectKeys(payer solana.PublicKey, ixs []solana.Instruction) []*accountKey {
	seen := make(map[solana.PublicKey]*accountKey)
	var out []*accountKey
	add := func(pk solana.PublicKey) *accountKey {
		if k, ok := seen[pk]; ok {
			return k
		}
		k := &accountKey{key: pk}
		seen[pk] = k
		out = append(out, k)
		return k
	}

	p := add(payer)
	p.signer, p.writable = true, true
	for _, ix := range ixs {
		add(ix.ProgramID()).invoked = true
		for _, acc := range ix.Accounts() {
			k := add(acc.PublicKey)
			k.signer = k.signer || acc.IsSigner
			k.writable = k.writable || acc.IsWritable
		}
	}
	return out
}

type tableSlot struct {
	table int
	index uint8
}

func compileV0(keys []*accountKey, ixs []solana.Instruction, blockhash solana.Hash, tables []lookuptable.Table) (*solana.Message, error) {
	// first table wins for an address held by several
	slots := make(map[solana.PublicKey]tableSlot)
	for ti, t := range tables {
		for ai, addr := range t.Addresses {
			if ai > math.MaxUint8 {
				break
			}
			if _, ok := slots[addr]; !ok {
				slots[addr] = tableSlot{table: ti, index: uint8(ai)}
			}
		}
	}

	// static groups: signer+writable, signer, writable, readonly
	var static [4][]solana.PublicKey
	writableIdx := make([][]uint8, len(tables))
	writableKeys := make([][]solana.PublicKey, len(tables))
	readonlyIdx := make([][]uint8, len(tables))
	readonlyKeys := make([][]solana.PublicKey, len(tables))

	for _, k := range keys {
		if slot, ok := slots[k.key]; ok && !k.signer && !k.invoked {
			if k.writable {
				writableIdx[slot.table] = append(writableIdx[slot.table], slot.index)
				writableKeys[slot.table] = append(writableKeys[slot.table], k.key)
			} else {
				readonlyIdx[slot.table] = append(readonlyIdx[slot.table], slot.index)
				readonlyKeys[slot.table] = append(readonlyKeys[slot.table], k.key)
			}
			continue
		}
		switch {
		case k.signer && k.writable:
			static[0] = append(static[0], k.key)
		case k.signer:
			static[1] = append(static[1], k.key)
		case k.writable:
			static[2] = append(static[2], k.key)
		default:
			static[3] = append(static[3], k.key)
		}
	}

	accountKeys := make(solana.PublicKeySlice, 0, len(keys))
	for _, group := range static {
		accountKeys = append(accountKeys, group...)
	}

	// loaded addresses follow the static keys: all writable, then all
	// readonly, each in table order
	ordered := append(solana.PublicKeySlice{}, accountKeys...)
	var lookups solana.MessageAddressTableLookupSlice
	for ti, t := range tables {
		if len(writableIdx[ti]) == 0 && len(readonlyIdx[ti]) == 0 {
			continue
		}
		lookups = append(lookups, solana.MessageAddressTableLookup{
			AccountKey:      t.Key,
			WritableIndexes: writableIdx[ti],
			ReadonlyIndexes: readonlyIdx[ti],
		})
		ordered = append(ordered, writableKeys[ti]...)
	}
	for ti := range tables {
		ordered = append(ordered, readonlyKeys[ti]...)
	}

	position := make(map[solana.PublicKey]uint16, len(ordered))
	for i, pk := range ordered {
		position[pk] = uint16(i)
	}

	compiled := make([]solana.CompiledInstruction, 0, len(ixs))
	for i, ix := range ixs {
		data, err := ix.Data()
		if err != nil {
			return nil, fmt.Errorf("instruction %d data: %w", i, err)
		}
		accounts := make([]uint16, 0, len(ix.Accounts()))
		for _, acc := range ix.Accounts() {
			accounts = append(accounts, position[acc.PublicKey])
		}
		compiled = append(compiled, solana.CompiledInstruction{
			ProgramIDIndex: position[ix.ProgramID()],
			Accounts:       accounts,
			Data:           solana.Base58(data),
		})
	}

	msg := &solana.Message{
		AccountKeys: accountKeys,
		Header: solana.MessageHeader{
			NumRequiredSignatures:       uint8(len(static[0]) + len(static[1])),
			NumReadonlySignedAccounts:   uint8(len(static[1])),
			NumReadonlyUnsignedAccounts: uint8(len(static[3])),
		},
		RecentBlockhash:     blockhash,
		Instructions:        compiled,
		AddressTableLookups: lookups,
	}
	msg.SetVersion(solana.MessageVersionV0)
	if len(lookups) > 0 {
		if err := msg.SetAddressTables(lookuptable.AddressTables(tables)); err != nil {
			return nil, fmt.Errorf("attach lookup tables: %w", err)
		}
	}
	return msg, nil
}
