package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/gasless-swap/internal/config"
	"github.com/aman-zulfiqar/gasless-swap/internal/gasless"
	"github.com/aman-zulfiqar/gasless-swap/internal/jupiter"
	"github.com/aman-zulfiqar/gasless-swap/internal/lookuptable"
	"github.com/aman-zulfiqar/gasless-swap/internal/rpc"
	"github.com/aman-zulfiqar/gasless-swap/internal/sponsor"
	"github.com/aman-zulfiqar/gasless-swap/internal/tokens"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

func main() {
	loadEnv()

	mode := flag.String("mode", "build", "quote | build | decode")
	account := flag.String("account", "", "payer wallet address (build)")
	symbol := flag.String("symbol", "", "input token symbol, empty uses DEFAULT_INPUT_MINT")
	encoded := flag.String("tx", "", "base64 transaction (decode)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	if *mode == "decode" {
		if *encoded == "" {
			fmt.Println("missing -tx")
			os.Exit(2)
		}
		tx, err := gasless.DecodeTransaction(*encoded)
		if err != nil {
			fmt.Println("decode failed:", err)
			os.Exit(1)
		}
		payer, err := feePayer(tx)
		if err != nil {
			fmt.Println("decode failed:", err)
			os.Exit(1)
		}
		summarize(payer.String(), tx)
		return
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	signer, err := sponsor.Load(cfg.SponsorPrivateKey)
	if err != nil {
		fmt.Println("failed to load sponsor key:", err)
		os.Exit(1)
	}

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	svc, err := gasless.NewService(gasless.Config{
		Tokens:           tokens.NewResolver(tokens.NewClient(tokenClientConfig(cfg, logger)), logger),
		Router:           jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey),
		Chain:            rpcClient,
		Tables:           lookuptable.NewResolver(rpcClient, logger),
		Signer:           signer,
		FeeAccount:       cfg.FeeAccount,
		DefaultInputMint: cfg.DefaultInputMint,
		Logger:           logger,
	})
	if err != nil {
		fmt.Println("failed to init service:", err)
		os.Exit(1)
	}

	ctx, cancelReq := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancelReq()

	switch *mode {
	case "quote":
		mint, q, err := svc.Preview(ctx, *symbol)
		if err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
		fmt.Printf("input_mint=%s in_amount=%s out_amount=%s slippage_bps=%d price_impact=%s\n",
			mint, q.InAmount, q.OutAmount, q.SlippageBps, q.PriceImpactPct)
	case "build":
		if *account == "" {
			fmt.Println("missing -account")
			os.Exit(2)
		}
		res, err := svc.Build(ctx, gasless.Request{Account: *account, Symbol: *symbol})
		if err != nil {
			fmt.Printf("build failed (%s): %v\n", gasless.KindOf(err), err)
			os.Exit(1)
		}
		fmt.Println(res.Encoded)
		summarize(signer.PublicKey().String(), res.Transaction)
		fmt.Printf("input_mint=%s in_amount=%s lookup_tables=%d\n", res.InputMint, res.InAmount, res.LookupTables)
	default:
		fmt.Println("unknown -mode:", *mode)
		os.Exit(2)
	}
}

// tokenClientConfig matches the api server's catalog client, retry included.
func tokenClientConfig(cfg *config.Config, logger *logrus.Logger) tokens.ClientConfig {
	return tokens.ClientConfig{
		URL:          cfg.TokenListURL,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	}
}
