package server

import (
	"net/http"

	"github.com/aman-zulfiqar/gasless-swap/internal/gasless"
	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s and 429s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if he, ok := err.(*echo.HTTPError); ok {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps a pipeline failure to the response status.
func statusFor(kind gasless.Kind) int {
	switch kind {
	case gasless.InvalidInput:
		return http.StatusBadRequest
	case gasless.TokenNotFound:
		return http.StatusNotFound
	case gasless.CatalogUnavailable,
		gasless.QuoteUnavailable,
		gasless.SwapInstructionsUnavailable,
		gasless.MalformedUpstreamResponse,
		gasless.ChainUnavailable:
		return http.StatusBadGateway
	case gasless.MessageCompilationError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is what the caller sees. Only client-correctable failures
// carry specifics.
func publicMessage(kind gasless.Kind) string {
	switch kind {
	case gasless.CatalogUnavailable:
		return "token list unavailable"
	case gasless.QuoteUnavailable:
		return "no quote available for this token"
	case gasless.SwapInstructionsUnavailable:
		return "failed to get swap instructions"
	case gasless.MalformedUpstreamResponse:
		return "unexpected response from upstream"
	case gasless.ChainUnavailable:
		return "solana rpc unavailable"
	case gasless.MessageCompilationError:
		return "swap route does not fit in a single transaction"
	default:
		return "An unknown error occurred"
	}
}
