package tokens

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	jupMint  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

type staticCatalog struct {
	list  []Token
	calls int
}

func (s *staticCatalog) Fetch(ctx context.Context) ([]Token, error) {
	s.calls++
	return s.list, nil
}

func testCatalog() *staticCatalog {
	return &staticCatalog{list: []Token{
		{Symbol: "USDC", Address: usdcMint},
		{Symbol: " JUP ", MintAddress: jupMint},
		{Symbol: "Bonk", Address: bonkMint},
	}}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(testCatalog(), nil)
	ctx := context.Background()

	cases := map[string]string{
		"USDC":   usdcMint,
		"usdc":   usdcMint,
		"  UsDc": usdcMint,
		"jup":    jupMint,
		"BONK":   bonkMint,
	}
	for symbol, want := range cases {
		mint, err := r.Resolve(ctx, symbol)
		require.NoError(t, err, "symbol %q", symbol)
		assert.Equal(t, want, mint.String(), "symbol %q", symbol)
	}
}

func TestResolver_NotFound(t *testing.T) {
	r := NewResolver(testCatalog(), nil)

	for _, symbol := range []string{"doge", "USD", "usdcc", ""} {
		_, err := r.Resolve(context.Background(), symbol)
		assert.ErrorIs(t, err, ErrTokenNotFound, "symbol %q", symbol)
	}
}

func TestResolver_FirstMatchWins(t *testing.T) {
	cat := &staticCatalog{list: []Token{
		{Symbol: "usdc", Address: usdcMint},
		{Symbol: "USDC", Address: bonkMint},
	}}
	mint, err := NewResolver(cat, nil).Resolve(context.Background(), "USDC")
	require.NoError(t, err)
	assert.Equal(t, usdcMint, mint.String())
}

func TestResolver_PrefersMintAddress(t *testing.T) {
	cat := &staticCatalog{list: []Token{
		{Symbol: "JUP", Address: bonkMint, MintAddress: jupMint},
	}}
	mint, err := NewResolver(cat, nil).Resolve(context.Background(), "jup")
	require.NoError(t, err)
	assert.Equal(t, jupMint, mint.String())
}

func TestResolver_InvalidMint(t *testing.T) {
	cat := &staticCatalog{list: []Token{{Symbol: "BAD", Address: "not-a-key"}}}
	_, err := NewResolver(cat, nil).Resolve(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestResolver_FetchesEveryCall(t *testing.T) {
	cat := testCatalog()
	r := NewResolver(cat, nil)
	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "usdc")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, cat.calls)
}

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[{"symbol":"USDC","address":"` + usdcMint + `","decimals":6},{"symbol":"JUP","mintAddress":"` + jupMint + `"}]`))
	}))
	defer srv.Close()

	list, err := NewClient(ClientConfig{URL: srv.URL}).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, usdcMint, list[0].Mint())
	assert.Equal(t, 6, list[0].Decimals)
	assert.Equal(t, jupMint, list[1].Mint())
}

func TestClient_FetchRetriesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, MaxRetries: 1, RetryBackoff: time.Millisecond})
	list, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_FetchMalformed(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"tokens":"nope"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{URL: srv.URL, MaxRetries: 2, RetryBackoff: time.Millisecond})
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
