package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/gasless-swap/internal/config"
	"github.com/aman-zulfiqar/gasless-swap/internal/flags"
	"github.com/aman-zulfiqar/gasless-swap/internal/gasless"
	"github.com/aman-zulfiqar/gasless-swap/internal/jupiter"
	"github.com/aman-zulfiqar/gasless-swap/internal/lookuptable"
	"github.com/aman-zulfiqar/gasless-swap/internal/rpc"
	"github.com/aman-zulfiqar/gasless-swap/internal/server"
	"github.com/aman-zulfiqar/gasless-swap/internal/sponsor"
	"github.com/aman-zulfiqar/gasless-swap/internal/tokens"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if cfg.DevMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	// The secret itself never reaches a log line, only the failure reason.
	signer, err := sponsor.Load(cfg.SponsorPrivateKey)
	if err != nil {
		logger.WithError(err).Fatal("failed to load sponsor key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	tokenClient := tokens.NewClient(tokens.ClientConfig{
		URL:          cfg.TokenListURL,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	svc, err := gasless.NewService(gasless.Config{
		Tokens:           tokens.NewResolver(tokenClient, logger),
		Router:           jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey),
		Chain:            rpcClient,
		Tables:           lookuptable.NewResolver(rpcClient, logger),
		Signer:           signer,
		FeeAccount:       cfg.FeeAccount,
		DefaultInputMint: cfg.DefaultInputMint,
		Logger:           logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create gasless service")
	}

	h := &server.Handlers{
		Builder:        svc,
		DevMode:        cfg.DevMode,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	}

	// Operator flags are optional; without redis the kill switch is off.
	if cfg.RedisAddr != "" {
		rclient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   0,
		})
		defer func() { _ = rclient.Close() }()

		if err := rclient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable at startup, flags will fail open")
		}
		flagStore, err := flags.NewStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create flags store")
		}
		h.Flags = flagStore
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:           cfg.APIAddr,
			DevMode:        cfg.DevMode,
			APIKey:         cfg.APIKey,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.APIAddr,
		"sponsor": signer.PublicKey().String(),
		"flags":   h.Flags != nil,
	}).Info("gasless swap api starting")

	if err := srv.Start(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			_ = srv.WaitClosed(context.Background())
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}
}
