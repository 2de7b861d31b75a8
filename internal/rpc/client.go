package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Client is an HTTP client with retry and timeout support for Solana RPC.
// Every method it exposes is a read, so retrying is safe.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	commitment   string
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Commitment   string // defaults to "confirmed"
	Logger       *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Commitment == "" {
		cfg.Commitment = "confirmed"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		commitment:   cfg.Commitment,
		logger:       cfg.Logger,
	}
}

// statusError is a non-200 reply from the RPC node.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	if e.code == http.StatusTooManyRequests {
		return "rate limited (429)"
	}
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// transport errors
	return true
}

// Call makes a JSON-RPC call with retry logic
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			lastErr = err
			if !retryable(err) || ctx.Err() != nil {
				break
			}
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%s failed after %d attempt(s): %w", method, c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// GetLatestBlockhash returns the most recent blockhash and the last block
// height at which it is still valid.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	params := []interface{}{
		map[string]interface{}{"commitment": c.commitment},
	}

	var resp LatestBlockhashResponse
	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, 0, err
	}
	if resp.Error != nil {
		return solana.Hash{}, 0, resp.Error
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("invalid blockhash format: %w", err)
	}

	return hash, resp.Result.Value.LastValidBlockHeight, nil
}

// GetMultipleAccounts fetches raw account data for keys in one call. The
// result is index-aligned with keys; a nil entry means the account does not
// exist.
func (c *Client) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	addrs := make([]string, len(keys))
	for i, k := range keys {
		addrs[i] = k.String()
	}
	params := []interface{}{
		addrs,
		map[string]interface{}{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var resp MultipleAccountsResponse
	if err := c.Call(ctx, "getMultipleAccounts", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	if len(resp.Result.Value) != len(keys) {
		return nil, fmt.Errorf("getMultipleAccounts: expected %d accounts, got %d", len(keys), len(resp.Result.Value))
	}

	out := make([][]byte, len(keys))
	for i, acc := range resp.Result.Value {
		if acc == nil {
			continue
		}
		if len(acc.Data) != 2 || acc.Data[1] != "base64" {
			return nil, fmt.Errorf("getMultipleAccounts: unexpected data encoding for %s", addrs[i])
		}
		raw, err := base64.StdEncoding.DecodeString(acc.Data[0])
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts: invalid base64 for %s: %w", addrs[i], err)
		}
		out[i] = raw
	}

	return out, nil
}
