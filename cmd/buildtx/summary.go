package main

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var errNoAccountKeys = errors.New("transaction has no account keys")

func feePayer(tx *solana.Transaction) (solana.PublicKey, error) {
	if len(tx.Message.AccountKeys) == 0 {
		return solana.PublicKey{}, errNoAccountKeys
	}
	return tx.Message.AccountKeys[0], nil
}

// summarize prints the parts of a transaction a reviewer checks before
// handing it to a wallet.
func summarize(feePayer string, tx *solana.Transaction) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		fmt.Println("marshal failed:", err)
		return
	}

	fmt.Printf("fee_payer=%s version=%d instructions=%d lookups=%d size=%d\n",
		feePayer,
		tx.Message.GetVersion(),
		len(tx.Message.Instructions),
		len(tx.Message.AddressTableLookups),
		len(raw),
	)

	var zero solana.Signature
	for i, sig := range tx.Signatures {
		signer := "?"
		if i < len(tx.Message.AccountKeys) {
			signer = tx.Message.AccountKeys[i].String()
		}
		state := "signed"
		if sig == zero {
			state = "pending"
		}
		fmt.Printf("  sig[%d] %s %s\n", i, signer, state)
	}
}
