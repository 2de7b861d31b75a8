package lookuptable

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidAddress is returned for a table key that is not a valid account.
	ErrInvalidAddress = errors.New("invalid lookup table address")
	// ErrUndecodable is returned when an account exists but does not hold a lookup table.
	ErrUndecodable = errors.New("undecodable lookup table account")
)

// AccountFetcher batch-reads raw account data. Result i belongs to key i and
// is nil when the account does not exist.
type AccountFetcher interface {
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error)
}

// Table is an on-chain lookup table.
type Table struct {
	Key       solana.PublicKey
	Addresses solana.PublicKeySlice
}

type Resolver struct {
	fetcher AccountFetcher
	logger  *logrus.Logger
}

func NewResolver(fetcher AccountFetcher, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve fetches every table in one round trip. Tables that do not exist are
// left out; the rest keep the order of keys.
func (r *Resolver) Resolve(ctx context.Context, keys []string) ([]Table, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pubkeys := make([]solana.PublicKey, 0, len(keys))
	for _, k := range keys {
		pk, err := solana.PublicKeyFromBase58(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, k, err)
		}
		pubkeys = append(pubkeys, pk)
	}

	accounts, err := r.fetcher.GetMultipleAccounts(ctx, pubkeys)
	if err != nil {
		return nil, fmt.Errorf("fetch lookup tables: %w", err)
	}
	if len(accounts) != len(pubkeys) {
		return nil, fmt.Errorf("fetch lookup tables: got %d accounts for %d keys", len(accounts), len(pubkeys))
	}

	tables := make([]Table, 0, len(pubkeys))
	for i, data := range accounts {
		key := pubkeys[i]
		if data == nil {
			r.logger.WithField("lut", key.String()).Warn("lookup table not found, skipping")
			continue
		}

		state, err := addresslookuptable.DecodeAddressLookupTableState(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUndecodable, key, err)
		}
		// deactivating tables remain loadable until the cooldown ends
		if !state.IsActive() {
			r.logger.WithFields(logrus.Fields{
				"lut":               key.String(),
				"deactivation_slot": state.DeactivationSlot,
			}).Debug("lookup table is deactivating")
		}

		tables = append(tables, Table{Key: key, Addresses: state.Addresses})
	}

	r.logger.WithFields(logrus.Fields{
		"requested": len(keys),
		"resolved":  len(tables),
	}).Debug("lookup tables resolved")

	return tables, nil
}

// AddressTables is the form solana.Message.SetAddressTables expects.
func AddressTables(tables []Table) map[solana.PublicKey]solana.PublicKeySlice {
	out := make(map[solana.PublicKey]solana.PublicKeySlice, len(tables))
	for _, t := range tables {
		out[t.Key] = t.Addresses
	}
	return out
}
