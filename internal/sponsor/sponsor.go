package sponsor

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	ErrInvalidKey = errors.New("sponsor: invalid private key")
	// ErrNotSigner is returned when the sponsor is not a required signer of the message.
	ErrNotSigner = errors.New("sponsor: not a required signer")
)

// Sponsor holds the fee-paying keypair. It is read-only after Load and safe
// for concurrent use.
type Sponsor struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// Load parses a base58 64-byte keypair or a solana-keygen JSON byte array.
// The error never contains key material.
func Load(secret string) (*Sponsor, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	priv, err := parsePrivateKey(secret)
	if err != nil {
		return nil, err
	}

	seed := ed25519.PrivateKey(priv).Seed()
	derived := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	if !bytes.Equal(derived, priv[32:]) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
	}

	return &Sponsor{priv: priv, pub: priv.PublicKey()}, nil
}

func (s *Sponsor) PublicKey() solana.PublicKey { return s.pub }

// SignTransaction fills the sponsor's signature slot and leaves every other
// required signature zeroed for the co-signer.
func (s *Sponsor) SignTransaction(tx *solana.Transaction) error {
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("sponsor: encode message: %w", err)
	}

	n := int(tx.Message.Header.NumRequiredSignatures)
	idx := -1
	for i := 0; i < n && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(s.pub) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotSigner
	}

	sig, err := s.priv.Sign(msg)
	if err != nil {
		return fmt.Errorf("sponsor: sign: %w", err)
	}

	if len(tx.Signatures) != n {
		sigs := make([]solana.Signature, n)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	tx.Signatures[idx] = sig
	return nil
}

// Encode serializes tx in wire format and base64-encodes it.
func Encode(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("%w: not a JSON byte array", ErrInvalidKey)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: byte %d out of range", ErrInvalidKey, i)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(b), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: not base58", ErrInvalidKey)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(raw), nil
}
