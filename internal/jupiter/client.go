package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
)

// ErrMalformedResponse marks a router reply whose shape we do not accept.
var ErrMalformedResponse = errors.New("malformed jupiter response")

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = constants.DefaultJupiterURL
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

// APIError is an "error" field reported inside an otherwise successful reply.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "jupiter: " + e.Message
}

// Quote requests a single quote. It is never retried.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.InputMint) == "" {
		return nil, fmt.Errorf("inputMint is required")
	}
	if strings.TrimSpace(req.OutputMint) == "" {
		return nil, fmt.Errorf("outputMint is required")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, fmt.Errorf("amount is required")
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", req.Amount)

	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if req.SlippageBps != nil {
		q.Set("slippageBps", fmt.Sprintf("%d", *req.SlippageBps))
	}
	if req.AutoSlippage != nil {
		q.Set("autoSlippage", fmt.Sprintf("%t", *req.AutoSlippage))
	}
	if req.MaxAutoSlippageBps != nil {
		q.Set("maxAutoSlippageBps", fmt.Sprintf("%d", *req.MaxAutoSlippageBps))
	}

	body, err := c.do(ctx, http.MethodGet, c.BaseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	if msg := errorField(body); msg != "" {
		return nil, &APIError{Message: msg}
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode quote: %v", ErrMalformedResponse, err)
	}
	if out.InputMint == "" || out.OutputMint == "" || out.InAmount == "" || out.OutAmount == "" {
		return nil, fmt.Errorf("%w: quote is missing mints or amounts", ErrMalformedResponse)
	}
	return &out, nil
}

// SwapInstructions asks the router to decompose a quote into instructions
// for the given user. It is never retried.
func (c *Client) SwapInstructions(ctx context.Context, req SwapInstructionsRequest) (*SwapInstructionsResponse, error) {
	if req.QuoteResponse == nil {
		return nil, fmt.Errorf("quoteResponse is required")
	}
	if strings.TrimSpace(req.UserPublicKey) == "" {
		return nil, fmt.Errorf("userPublicKey is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode swap-instructions request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.BaseURL+"/swap-instructions", payload)
	if err != nil {
		return nil, err
	}

	var out SwapInstructionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decode swap instructions: %v", ErrMalformedResponse, err)
	}
	if out.Error != "" {
		return nil, &APIError{Message: out.Error}
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}

func errorField(body []byte) string {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.Error
}
