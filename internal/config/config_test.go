package config

import (
	"testing"
	"time"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "not-a-real-key"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SPONSOR_PRIVATE_KEY", testSecret)

	cfg := Load()
	assert.Equal(t, ":8090", cfg.APIAddr)
	assert.Equal(t, constants.DefaultRPCURL, cfg.RPCUrl)
	assert.Equal(t, constants.DefaultJupiterURL, cfg.JupiterBaseURL)
	assert.Equal(t, constants.USDCMint, cfg.DefaultInputMint)
	assert.Equal(t, constants.FeeAccount, cfg.FeeAccount)
	assert.Equal(t, 25*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Empty(t, cfg.RedisAddr)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SPONSOR_PRIVATE_KEY", testSecret)
	t.Setenv("API_ADDR", ":9000")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("MAX_RETRIES", "3")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.APIAddr)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("MAX_RETRIES", "lots")
	t.Setenv("DEV_MODE", "maybe")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 25*time.Second, cfg.RequestTimeout)
}

func TestLoad_LegacyKeyName(t *testing.T) {
	t.Setenv("SPONSOR_PRIVATE_KEY", "")
	t.Setenv("PAYER_PRIVATE_KEY", testSecret)

	assert.Equal(t, testSecret, Load().SponsorPrivateKey)
}

func TestValidate(t *testing.T) {
	t.Setenv("SPONSOR_PRIVATE_KEY", testSecret)

	cases := map[string]func(c *Config){
		"missing key":      func(c *Config) { c.SponsorPrivateKey = " " },
		"missing rpc":      func(c *Config) { c.RPCUrl = "" },
		"bad fee account":  func(c *Config) { c.FeeAccount = "nope" },
		"bad default mint": func(c *Config) { c.DefaultInputMint = "nope" },
		"negative retries": func(c *Config) { c.MaxRetries = -1 },
		"zero timeout":     func(c *Config) { c.RequestTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Load()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	// an empty default mint means callers must pass a symbol
	cfg := Load()
	cfg.DefaultInputMint = ""
	assert.NoError(t, cfg.Validate())
}
