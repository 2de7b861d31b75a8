package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
	"github.com/sirupsen/logrus"
)

var (
	ErrTokenNotFound     = errors.New("token not found")
	ErrMalformedResponse = errors.New("malformed token list")
)

// Client reads the strict token list. The list is fetched on every call.
type Client struct {
	URL          string
	HTTP         *http.Client
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

type ClientConfig struct {
	URL          string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = constants.DefaultTokenListURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Client{
		URL:          strings.TrimSpace(cfg.URL),
		HTTP:         &http.Client{Timeout: cfg.Timeout},
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       cfg.Logger,
	}
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("token list http %d", e.StatusCode)
}

// Fetch downloads the full catalog. Transport errors, 429 and 5xx are
// retried up to MaxRetries times.
func (c *Client) Fetch(ctx context.Context) ([]Token, error) {
	var lastErr error
	backoff := c.RetryBackoff

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			c.Logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
			}).Debug("retrying token list fetch")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		list, err := c.fetchOnce(ctx)
		if err == nil {
			return list, nil
		}
		lastErr = err

		var he *HTTPError
		if errors.As(err, &he) && he.StatusCode != http.StatusTooManyRequests && he.StatusCode < 500 {
			break
		}
		if errors.Is(err, ErrMalformedResponse) || ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("fetch token list: %w", lastErr)
}

func (c *Client) fetchOnce(ctx context.Context) ([]Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode}
	}

	var list []Token
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return list, nil
}
