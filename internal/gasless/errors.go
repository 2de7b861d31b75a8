package gasless

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAccount = errors.New("invalid account")
	ErrSymbolRequired = errors.New("symbol is required")
)

// Kind classifies a pipeline failure for the caller.
type Kind int

const (
	Unknown Kind = iota
	InvalidInput
	TokenNotFound
	CatalogUnavailable
	QuoteUnavailable
	SwapInstructionsUnavailable
	MalformedUpstreamResponse
	ChainUnavailable
	MessageCompilationError
	SigningConfigurationError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case TokenNotFound:
		return "token_not_found"
	case CatalogUnavailable:
		return "catalog_unavailable"
	case QuoteUnavailable:
		return "quote_unavailable"
	case SwapInstructionsUnavailable:
		return "swap_instructions_unavailable"
	case MalformedUpstreamResponse:
		return "malformed_upstream_response"
	case ChainUnavailable:
		return "chain_unavailable"
	case MessageCompilationError:
		return "message_compilation_error"
	case SigningConfigurationError:
		return "signing_configuration_error"
	default:
		return "unknown"
	}
}

// Stage is the last state the pipeline reached.
type Stage int

const (
	StageStart Stage = iota
	StageSymbolResolved
	StageQuoted
	StageInstructionsMaterialized
	StageLookupTablesResolved
	StageMessageCompiled
	StageSigned
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageSymbolResolved:
		return "symbol_resolved"
	case StageQuoted:
		return "quoted"
	case StageInstructionsMaterialized:
		return "instructions_materialized"
	case StageLookupTablesResolved:
		return "lookup_tables_resolved"
	case StageMessageCompiled:
		return "message_compiled"
	case StageSigned:
		return "signed"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Error is a failed build. Stage is the last stage completed before the
// failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s after %s", e.Kind, e.Stage)
	}
	return fmt.Sprintf("%s after %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, &Error{Kind: TokenNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf reports the Kind of err, or Unknown when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
