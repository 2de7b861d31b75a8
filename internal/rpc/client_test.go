package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestClient(url string, retries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:      url,
		Timeout:      2 * time.Second,
		MaxRetries:   retries,
		RetryBackoff: time.Millisecond,
	})
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	hash := solana.Hash(solana.NewWallet().PublicKey())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getLatestBlockhash", req.Method)

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":42},"value":{"blockhash":"` +
			hash.String() + `","lastValidBlockHeight":1000}}}`))
	}))
	defer srv.Close()

	got, height, err := newTestClient(srv.URL, 0).GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, got)
	assert.Equal(t, uint64(1000), height)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{"blockhash":"` +
			solana.Hash{}.String() + `","lastValidBlockHeight":5}}}`))
	}))
	defer srv.Close()

	_, height, err := newTestClient(srv.URL, 1).GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), height)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL, 3).GetLatestBlockhash(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RPCErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid params"}}`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL, 0).GetLatestBlockhash(context.Background())
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestClient_GetMultipleAccounts(t *testing.T) {
	present := solana.NewWallet().PublicKey()
	absent := solana.NewWallet().PublicKey()
	payload := []byte{1, 2, 3, 4}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getMultipleAccounts", req.Method)

		var keys []string
		require.NoError(t, json.Unmarshal(req.Params[0], &keys))
		assert.Equal(t, []string{present.String(), absent.String()}, keys)

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":7},"value":[` +
			`{"lamports":1,"owner":"AddressLookupTab1e1111111111111111111111111","data":["` +
			base64.StdEncoding.EncodeToString(payload) + `","base64"],"executable":false},null]}}`))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL, 0).GetMultipleAccounts(context.Background(), []solana.PublicKey{present, absent})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, payload, out[0])
	assert.Nil(t, out[1])
}

func TestClient_GetMultipleAccountsEmpty(t *testing.T) {
	// no server: an empty key set must not touch the network
	out, err := newTestClient("http://127.0.0.1:0", 0).GetMultipleAccounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
