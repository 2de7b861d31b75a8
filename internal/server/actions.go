package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aman-zulfiqar/gasless-swap/internal/constants"
	"github.com/aman-zulfiqar/gasless-swap/internal/gasless"
	"github.com/aman-zulfiqar/gasless-swap/internal/tokens"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	actionVersion = "2.1.3"
	blockchainID  = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp" // mainnet-beta

	actionPath = "/api/actions/swap"
)

// SwapMetadata serves the action descriptor for GET and OPTIONS.
func (h *Handlers) SwapMetadata(c echo.Context) error {
	return c.JSON(http.StatusOK, ActionGetResponse{
		Type:        "action",
		Title:       constants.ActionTitle,
		Icon:        constants.ActionIcon,
		Description: constants.ActionDescription,
		Label:       constants.ActionLabel,
		Links: &ActionLinks{
			Actions: []LinkedAction{{
				Label: "Swap",
				Href:  actionPath + "?symbol={symbol}",
				Parameters: []ActionParameter{{
					Name:  "symbol",
					Label: "Enter a token symbol eg. JUP",
				}},
			}},
		},
	})
}

// SwapBuild returns a sponsor-signed transaction for the caller's account.
func (h *Handlers) SwapBuild(c echo.Context) error {
	var req ActionPostRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, `Invalid "account" provided`, nil)
	}
	// reject bad accounts before touching the flag store
	if _, err := solana.PublicKeyFromBase58(strings.TrimSpace(req.Account)); err != nil {
		return h.err(c, http.StatusBadRequest, `Invalid "account" provided`, nil)
	}
	symbol := c.QueryParam("symbol")

	ctx, cancel := h.withTimeout(c.Request().Context(), h.RequestTimeout)
	defer cancel()

	if h.Flags != nil {
		on, err := h.Flags.Enabled(ctx, constants.FlagSponsorshipEnabled, true)
		if err != nil {
			h.log().WithError(err).Warn("flag lookup failed, sponsoring anyway")
		}
		if !on {
			return h.err(c, http.StatusServiceUnavailable, "sponsored swaps are paused", nil)
		}
	}

	res, err := h.Builder.Build(ctx, gasless.Request{Account: req.Account, Symbol: symbol})
	if err != nil {
		return h.buildErr(c, err, symbol)
	}

	return c.JSON(http.StatusOK, ActionPostResponse{
		Transaction: res.Encoded,
		Message:     res.Message,
	})
}

// QuotePreview shows what the swap would cost in the given token.
func (h *Handlers) QuotePreview(c echo.Context) error {
	symbol := c.QueryParam("symbol")

	ctx, cancel := h.withTimeout(c.Request().Context(), h.RequestTimeout)
	defer cancel()

	mint, quote, err := h.Builder.Preview(ctx, symbol)
	if err != nil {
		return h.buildErr(c, err, symbol)
	}

	name := strings.ToUpper(tokens.Normalize(symbol))
	if name == "" {
		name = mint.String()
	}
	return c.JSON(http.StatusOK, QuotePreviewResponse{
		Symbol:         name,
		InputMint:      mint.String(),
		InAmount:       quote.InAmount,
		OutAmount:      quote.OutAmount,
		SlippageBps:    quote.SlippageBps,
		PriceImpactPct: quote.PriceImpactPct,
		FeeLamports:    constants.ServiceFeeLamports,
	})
}

func (h *Handlers) ActionsJSON(c echo.Context) error {
	return c.JSON(http.StatusOK, ActionsJSON{Rules: []ActionRule{
		{PathPattern: "/api/actions/**", APIPath: "/api/actions/**"},
	}})
}

func (h *Handlers) buildErr(c echo.Context, err error, symbol string) error {
	kind := gasless.KindOf(err)
	code := statusFor(kind)

	var msg string
	switch {
	case errors.Is(err, gasless.ErrInvalidAccount):
		msg = `Invalid "account" provided`
	case errors.Is(err, gasless.ErrSymbolRequired):
		msg = "symbol is required"
	case kind == gasless.TokenNotFound:
		msg = fmt.Sprintf("Token with symbol %s not found.", strings.ToUpper(tokens.Normalize(symbol)))
	default:
		msg = publicMessage(kind)
	}

	if code >= http.StatusInternalServerError {
		h.log().WithFields(logrus.Fields{
			"kind":   kind.String(),
			"symbol": symbol,
		}).WithError(err).Error("swap action failed")
	}
	return h.err(c, code, msg, map[string]any{"kind": kind.String(), "err": err.Error()})
}
