package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aman-zulfiqar/gasless-swap/internal/flags"
	"github.com/aman-zulfiqar/gasless-swap/internal/gasless"
	"github.com/aman-zulfiqar/gasless-swap/internal/jupiter"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Builder produces sponsored transactions.
type Builder interface {
	Build(ctx context.Context, req gasless.Request) (*gasless.Result, error)
	Preview(ctx context.Context, symbol string) (solana.PublicKey, *jupiter.QuoteResponse, error)
	Sponsor() solana.PublicKey
}

// FlagStore is the operator flag backend.
type FlagStore interface {
	Set(ctx context.Context, key string, value bool, reason string) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	Enabled(ctx context.Context, key string, def bool) (bool, error)
	List(ctx context.Context) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Builder        Builder
	Flags          FlagStore      // optional, nil disables the kill switch and admin routes
	DevMode        bool           // Enable detailed error responses in development
	RequestTimeout time.Duration  // budget for one sponsored build
	Logger         *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) log() *logrus.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logrus.StandardLogger()
}

func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Builder != nil {
		resp.Sponsor = h.Builder.Sponsor().String()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Set(ctx, req.Key, req.Value, req.Reason)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	h.log().WithFields(logrus.Fields{"flag": out.Key, "value": out.Value}).Info("flag updated")
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Set(ctx, key, req.Value, req.Reason)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	h.log().WithFields(logrus.Fields{"flag": out.Key, "value": out.Value}).Info("flag updated")
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete returns 204 whether or not the flag existed.
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
