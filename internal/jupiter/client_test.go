package jupiter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quoteBody = `{"inputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","inAmount":"2712345","outputMint":"So11111111111111111111111111111111111111112","outAmount":"15000000","otherAmountThreshold":"2793715","swapMode":"ExactOut","slippageBps":300,"priceImpactPct":"0","routePlan":[],"contextSlot":1,"unknownField":{"kept":true}}`

func u16(v uint16) *uint16 { return &v }
func boolp(v bool) *bool   { return &v }

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", q.Get("inputMint"))
		assert.Equal(t, "So11111111111111111111111111111111111111112", q.Get("outputMint"))
		assert.Equal(t, "15000000", q.Get("amount"))
		assert.Equal(t, "ExactOut", q.Get("swapMode"))
		assert.Equal(t, "true", q.Get("autoSlippage"))
		assert.Equal(t, "300", q.Get("maxAutoSlippageBps"))
		assert.Empty(t, q.Get("slippageBps"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(quoteBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	quote, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:          "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		OutputMint:         "So11111111111111111111111111111111111111112",
		Amount:             "15000000",
		SwapMode:           "ExactOut",
		AutoSlippage:       boolp(true),
		MaxAutoSlippageBps: u16(300),
	})
	require.NoError(t, err)
	assert.Equal(t, "2712345", quote.InAmount)
	assert.Equal(t, "15000000", quote.OutAmount)
	assert.JSONEq(t, quoteBody, string(quote.Raw()))
}

func TestClient_QuoteHTTPError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("busy"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{InputMint: "a", OutputMint: "b", Amount: "1"})
	var he *HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestClient_QuoteErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{InputMint: "a", OutputMint: "b", Amount: "1"})
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Could not find any route", ae.Message)
}

func TestClient_QuoteMalformed(t *testing.T) {
	for _, body := range []string{`not json`, `{"inputMint":"x"}`, `[]`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{InputMint: "a", OutputMint: "b", Amount: "1"})
		assert.ErrorIs(t, err, ErrMalformedResponse, "body %q", body)
		srv.Close()
	}
}

func TestClient_SwapInstructionsForwardsQuoteVerbatim(t *testing.T) {
	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(quoteBody), &quote))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/swap-instructions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		var got map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.JSONEq(t, quoteBody, string(got["quoteResponse"]))
		assert.JSONEq(t, `"payer111"`, string(got["userPublicKey"]))
		assert.JSONEq(t, `true`, string(got["wrapAndUnwrapSol"]))
		assert.JSONEq(t, `false`, string(got["useTokenLedger"]))
		assert.JSONEq(t, `true`, string(got["dynamicComputeUnitLimit"]))
		assert.JSONEq(t, `"auto"`, string(got["prioritizationFeeLamports"]))

		_, _ = w.Write([]byte(`{"computeBudgetInstructions":[],"setupInstructions":[],"swapInstruction":{"programId":"11111111111111111111111111111111","accounts":[],"data":""},"cleanupInstruction":{"programId":"11111111111111111111111111111111","accounts":[],"data":""},"addressLookupTableAddresses":["GxS6FiQ3mNnAar9HGQ6mxP7t6FcwmHkU7peSeQDUHmpN"]}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "").SwapInstructions(context.Background(), SwapInstructionsRequest{
		QuoteResponse:             &quote,
		UserPublicKey:             "payer111",
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	})
	require.NoError(t, err)
	require.NotNil(t, res.SwapInstruction)
	assert.Equal(t, []string{"GxS6FiQ3mNnAar9HGQ6mxP7t6FcwmHkU7peSeQDUHmpN"}, res.AddressLookupTableAddresses)
}

func TestClient_SwapInstructionsErrors(t *testing.T) {
	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(quoteBody), &quote))
	req := SwapInstructionsRequest{QuoteResponse: &quote, UserPublicKey: "payer"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"invalid quote"}`))
	}))
	_, err := NewClient(srv.URL, "").SwapInstructions(context.Background(), req)
	var ae *APIError
	assert.ErrorAs(t, err, &ae)
	srv.Close()

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	_, err = NewClient(srv.URL, "").SwapInstructions(context.Background(), req)
	var he *HTTPError
	assert.ErrorAs(t, err, &he)
	srv.Close()

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"swapInstruction":"nope"}`))
	}))
	_, err = NewClient(srv.URL, "").SwapInstructions(context.Background(), req)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	srv.Close()
}
