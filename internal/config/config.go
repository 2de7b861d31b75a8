package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
	"github.com/gagliardetto/solana-go"
)

type Config struct {
	// API server settings
	APIAddr        string
	APIKey         string // guards the /v1/flags admin routes
	DevMode        bool
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	// RPC settings
	RPCUrl string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Upstream services
	JupiterBaseURL string
	JupiterAPIKey  string
	TokenListURL   string

	// Swap settings
	DefaultInputMint string // used when the caller gives no symbol
	FeeAccount       string

	// Sponsor secret, base58 or JSON byte array. Never log this.
	SponsorPrivateKey string

	// Redis settings (operator flags). Empty disables flags.
	RedisAddr string
}

func Load() *Config {
	return &Config{
		// API
		APIAddr:        getEnv("API_ADDR", ":8090"),
		APIKey:         getEnv("API_KEY", ""),
		DevMode:        getBoolEnv("DEV_MODE", false),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 25*time.Second),
		RateLimitRPS:   getFloatEnv("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 10),

		// RPC
		RPCUrl: getEnv("SOLANA_RPC_URL", constants.DefaultRPCURL),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 1),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 250*time.Millisecond),

		// Upstream
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", constants.DefaultJupiterURL),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),
		TokenListURL:   getEnv("TOKEN_LIST_URL", constants.DefaultTokenListURL),

		// Swap
		DefaultInputMint: getEnv("DEFAULT_INPUT_MINT", constants.USDCMint),
		FeeAccount:       getEnv("FEE_ACCOUNT", constants.FeeAccount),

		// PAYER_PRIVATE_KEY is the name the first deployment used
		SponsorPrivateKey: getEnv("SPONSOR_PRIVATE_KEY", os.Getenv("PAYER_PRIVATE_KEY")),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),
	}
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIAddr) == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	if strings.TrimSpace(c.RPCUrl) == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if strings.TrimSpace(c.SponsorPrivateKey) == "" {
		return fmt.Errorf("SPONSOR_PRIVATE_KEY is required")
	}
	if _, err := solana.PublicKeyFromBase58(c.FeeAccount); err != nil {
		return fmt.Errorf("FEE_ACCOUNT is not a valid address: %w", err)
	}
	if c.DefaultInputMint != "" {
		if _, err := solana.PublicKeyFromBase58(c.DefaultInputMint); err != nil {
			return fmt.Errorf("DEFAULT_INPUT_MINT is not a valid address: %w", err)
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must be >= 0")
	}
	if c.RequestTimeout <= 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
