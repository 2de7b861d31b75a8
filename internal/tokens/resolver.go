package tokens

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Token is one entry of the strict list. Older lists carry the mint under
// "mintAddress", newer ones under "address".
type Token struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
	MintAddress string `json:"mintAddress,omitempty"`
	Decimals    int    `json:"decimals,omitempty"`
}

func (t Token) Mint() string {
	if t.MintAddress != "" {
		return t.MintAddress
	}
	return t.Address
}

// Catalog is anything that can produce the token list.
type Catalog interface {
	Fetch(ctx context.Context) ([]Token, error)
}

// Resolver maps symbols to mints.
type Resolver struct {
	catalog Catalog
	logger  *logrus.Logger
}

func NewResolver(catalog Catalog, logger *logrus.Logger) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{catalog: catalog, logger: logger}
}

// Normalize is the comparison form of a symbol.
func Normalize(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// Resolve returns the mint of the first catalog entry whose normalized symbol
// equals the normalized query. Later duplicates are ignored but logged.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (solana.PublicKey, error) {
	query := Normalize(symbol)
	if query == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: empty symbol", ErrTokenNotFound)
	}

	list, err := r.catalog.Fetch(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}

	match, found := Lookup(list, query)
	if !found {
		return solana.PublicKey{}, fmt.Errorf("%w: symbol %s", ErrTokenNotFound, strings.ToUpper(query))
	}

	if n := countMatches(list, query); n > 1 {
		r.logger.WithFields(logrus.Fields{
			"symbol":  query,
			"matches": n,
			"mint":    match.Mint(),
		}).Warn("ambiguous token symbol, using first match")
	}

	mint, err := solana.PublicKeyFromBase58(match.Mint())
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: invalid mint %q for %s", ErrMalformedResponse, match.Mint(), query)
	}
	return mint, nil
}

// Lookup finds the first token whose normalized symbol equals query. query
// must already be normalized.
func Lookup(list []Token, query string) (Token, bool) {
	for _, t := range list {
		if Normalize(t.Symbol) == query {
			return t, true
		}
	}
	return Token{}, false
}

func countMatches(list []Token, query string) int {
	n := 0
	for _, t := range list {
		if Normalize(t.Symbol) == query {
			n++
		}
	}
	return n
}
