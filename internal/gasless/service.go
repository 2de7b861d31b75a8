package gasless

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
	"github.com/aman-zulfiqar/gasless-swap/internal/jupiter"
	"github.com/aman-zulfiqar/gasless-swap/internal/lookuptable"
	"github.com/aman-zulfiqar/gasless-swap/internal/metrics"
	"github.com/aman-zulfiqar/gasless-swap/internal/sponsor"
	"github.com/aman-zulfiqar/gasless-swap/internal/tokens"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type TokenResolver interface {
	Resolve(ctx context.Context, symbol string) (solana.PublicKey, error)
}

type SwapRouter interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	SwapInstructions(ctx context.Context, req jupiter.SwapInstructionsRequest) (*jupiter.SwapInstructionsResponse, error)
}

type BlockhashSource interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
}

type TableResolver interface {
	Resolve(ctx context.Context, keys []string) ([]lookuptable.Table, error)
}

type TransactionSigner interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

type Config struct {
	Tokens TokenResolver
	Router SwapRouter
	Chain  BlockhashSource
	Tables TableResolver
	Signer TransactionSigner

	FeeAccount       string
	DefaultInputMint string // used for an empty symbol; empty means a symbol is required

	Logger *logrus.Logger
}

// Service builds sponsor-paid swap transactions. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	tokens TokenResolver
	router SwapRouter
	chain  BlockhashSource
	tables TableResolver
	signer TransactionSigner

	assembler    *Assembler
	defaultInput *solana.PublicKey
	logger       *logrus.Logger
}

type Request struct {
	Account string
	Symbol  string
}

type Result struct {
	Transaction *solana.Transaction
	Encoded     string // base64 wire format
	Message     string

	InputMint    solana.PublicKey
	InAmount     string
	LookupTables int
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Signer == nil {
		return nil, newError(SigningConfigurationError, StageStart, errors.New("no sponsor signer configured"))
	}
	if cfg.Tokens == nil || cfg.Router == nil || cfg.Chain == nil || cfg.Tables == nil {
		return nil, fmt.Errorf("gasless: all collaborators are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.FeeAccount == "" {
		cfg.FeeAccount = constants.FeeAccount
	}

	feeAccount, err := solana.PublicKeyFromBase58(cfg.FeeAccount)
	if err != nil {
		return nil, fmt.Errorf("gasless: fee account: %w", err)
	}

	s := &Service{
		tokens: cfg.Tokens,
		router: cfg.Router,
		chain:  cfg.Chain,
		tables: cfg.Tables,
		signer: cfg.Signer,
		assembler: &Assembler{
			Sponsor:     cfg.Signer.PublicKey(),
			FeeAccount:  feeAccount,
			FeeLamports: constants.ServiceFeeLamports,
			OutputMint:  solana.MustPublicKeyFromBase58(constants.WrappedSOLMint),
		},
		logger: cfg.Logger,
	}

	if cfg.DefaultInputMint != "" {
		mint, err := solana.PublicKeyFromBase58(cfg.DefaultInputMint)
		if err != nil {
			return nil, fmt.Errorf("gasless: default input mint: %w", err)
		}
		s.defaultInput = &mint
	}

	return s, nil
}

// Sponsor is the fee payer of every transaction the service builds.
func (s *Service) Sponsor() solana.PublicKey {
	return s.assembler.Sponsor
}

// Build runs the pipeline for one request. The blockhash is read alongside the
// resolve, quote, instructions and lookup table chain; any failure cancels the
// rest and no partial transaction is returned.
//
// The returned transaction carries only the sponsor's signature. The payer
// signs the fee transfer, so its slot is left zeroed for the wallet.
func (s *Service) Build(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"account": req.Account,
		"symbol":  tokens.Normalize(req.Symbol),
	})

	defer func() {
		metrics.BuildDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.BuildRequests.WithLabelValues(KindOf(err).String()).Inc()
			var e *Error
			if errors.As(err, &e) {
				log = log.WithField("stage", e.Stage.String())
			}
			log.WithError(err).Warn("sponsored build failed")
			return
		}
		metrics.BuildRequests.WithLabelValues("ok").Inc()
		log.WithFields(logrus.Fields{
			"input_mint":    res.InputMint.String(),
			"in_amount":     res.InAmount,
			"lookup_tables": res.LookupTables,
			"duration_ms":   time.Since(start).Milliseconds(),
		}).Info("sponsored build complete")
	}()

	payer, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Account))
	if err != nil {
		return nil, newError(InvalidInput, StageStart, fmt.Errorf("%w %q: %v", ErrInvalidAccount, req.Account, err))
	}
	if tokens.Normalize(req.Symbol) == "" && s.defaultInput == nil {
		return nil, newError(InvalidInput, StageStart, ErrSymbolRequired)
	}

	g, gctx := errgroup.WithContext(ctx)

	var blockhash solana.Hash
	g.Go(func() error {
		t := time.Now()
		h, _, err := s.chain.GetLatestBlockhash(gctx)
		if err != nil {
			return newError(ChainUnavailable, StageStart, fmt.Errorf("latest blockhash: %w", err))
		}
		metrics.StageDuration.WithLabelValues("blockhash").Observe(time.Since(t).Seconds())
		blockhash = h
		return nil
	})

	var (
		inputMint solana.PublicKey
		quote     *jupiter.QuoteResponse
		swap      *jupiter.SwapInstructions
		tables    []lookuptable.Table
	)
	g.Go(func() error {
		var err error
		if inputMint, err = s.resolve(gctx, req.Symbol); err != nil {
			return err
		}
		if quote, err = s.quote(gctx, inputMint); err != nil {
			return err
		}
		if swap, err = s.instructions(gctx, payer, quote); err != nil {
			return err
		}
		tables, err = s.lookupTables(gctx, swap.LookupTableAddresses)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ixs, err := s.assembler.Order(payer, swap)
	if err != nil {
		return nil, newError(MessageCompilationError, StageLookupTablesResolved, err)
	}
	tx, err := s.assembler.Compile(ixs, blockhash, tables)
	if err != nil {
		return nil, newError(MessageCompilationError, StageLookupTablesResolved, err)
	}

	if err := s.signer.SignTransaction(tx); err != nil {
		return nil, newError(SigningConfigurationError, StageMessageCompiled, err)
	}

	encoded, err := sponsor.Encode(tx)
	if err != nil {
		return nil, newError(Unknown, StageSigned, err)
	}
	metrics.TransactionSize.Observe(float64(base64.StdEncoding.DecodedLen(len(encoded))))

	return &Result{
		Transaction:  tx,
		Encoded:      encoded,
		Message:      constants.ActionMessage,
		InputMint:    inputMint,
		InAmount:     quote.InAmount,
		LookupTables: len(tables),
	}, nil
}

func (s *Service) resolve(ctx context.Context, symbol string) (solana.PublicKey, error) {
	if tokens.Normalize(symbol) == "" {
		return *s.defaultInput, nil
	}

	defer observe("resolve", time.Now())
	mint, err := s.tokens.Resolve(ctx, symbol)
	switch {
	case err == nil:
		return mint, nil
	case errors.Is(err, tokens.ErrTokenNotFound):
		return solana.PublicKey{}, newError(TokenNotFound, StageStart, err)
	case errors.Is(err, tokens.ErrMalformedResponse):
		return solana.PublicKey{}, newError(MalformedUpstreamResponse, StageStart, err)
	default:
		return solana.PublicKey{}, newError(CatalogUnavailable, StageStart, err)
	}
}

func (s *Service) quote(ctx context.Context, inputMint solana.PublicKey) (*jupiter.QuoteResponse, error) {
	defer observe("quote", time.Now())

	autoSlippage := true
	maxSlippage := constants.MaxAutoSlippageBps
	quote, err := s.router.Quote(ctx, jupiter.QuoteRequest{
		InputMint:          inputMint.String(),
		OutputMint:         constants.WrappedSOLMint,
		Amount:             strconv.FormatUint(constants.SwapOutputLamports, 10),
		SwapMode:           constants.SwapModeExactOut,
		AutoSlippage:       &autoSlippage,
		MaxAutoSlippageBps: &maxSlippage,
	})
	if err != nil {
		if errors.Is(err, jupiter.ErrMalformedResponse) {
			return nil, newError(MalformedUpstreamResponse, StageSymbolResolved, err)
		}
		return nil, newError(QuoteUnavailable, StageSymbolResolved, err)
	}
	if quote.OutputMint != constants.WrappedSOLMint {
		return nil, newError(MalformedUpstreamResponse, StageSymbolResolved,
			fmt.Errorf("quote output mint %s, want %s", quote.OutputMint, constants.WrappedSOLMint))
	}
	return quote, nil
}

func (s *Service) instructions(ctx context.Context, payer solana.PublicKey, quote *jupiter.QuoteResponse) (*jupiter.SwapInstructions, error) {
	defer observe("swap_instructions", time.Now())

	resp, err := s.router.SwapInstructions(ctx, jupiter.SwapInstructionsRequest{
		QuoteResponse:             quote,
		UserPublicKey:             payer.String(),
		WrapAndUnwrapSol:          true,
		UseTokenLedger:            false,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: "auto",
	})
	if err != nil {
		if errors.Is(err, jupiter.ErrMalformedResponse) {
			return nil, newError(MalformedUpstreamResponse, StageQuoted, err)
		}
		return nil, newError(SwapInstructionsUnavailable, StageQuoted, err)
	}

	swap, err := resp.Materialize()
	if err != nil {
		return nil, newError(MalformedUpstreamResponse, StageQuoted, err)
	}
	return swap, nil
}

func (s *Service) lookupTables(ctx context.Context, keys []string) ([]lookuptable.Table, error) {
	defer observe("lookup_tables", time.Now())

	tables, err := s.tables.Resolve(ctx, keys)
	if err != nil {
		if errors.Is(err, lookuptable.ErrInvalidAddress) {
			return nil, newError(MalformedUpstreamResponse, StageInstructionsMaterialized, err)
		}
		return nil, newError(ChainUnavailable, StageInstructionsMaterialized, err)
	}
	if dropped := len(keys) - len(tables); dropped > 0 {
		metrics.LookupTablesDropped.Add(float64(dropped))
	}
	return tables, nil
}

func observe(stage string, start time.Time) {
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// DecodeTransaction parses a base64 wire-format transaction.
func DecodeTransaction(encoded string) (*solana.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
}

// Preview resolves symbol and fetches the quote Build would use, without
// touching the chain. The input amount is only indicative; Build requotes.
func (s *Service) Preview(ctx context.Context, symbol string) (solana.PublicKey, *jupiter.QuoteResponse, error) {
	if tokens.Normalize(symbol) == "" && s.defaultInput == nil {
		return solana.PublicKey{}, nil, newError(InvalidInput, StageStart, ErrSymbolRequired)
	}
	mint, err := s.resolve(ctx, symbol)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	quote, err := s.quote(ctx, mint)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return mint, quote, nil
}
