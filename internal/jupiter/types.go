package jupiter

import "encoding/json"

type QuoteRequest struct {
	InputMint  string
	OutputMint string
	Amount     string // raw integer as string (uint64)

	SwapMode string // ExactIn | ExactOut

	SlippageBps        *uint16
	AutoSlippage       *bool
	MaxAutoSlippageBps *uint16
}

// QuoteResponse is the router's quote. The typed fields are read for
// validation and logging only; the exact bytes received are what gets sent
// back in the swap-instructions request.
type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PlatformFee          *PlatformFee    `json:"platformFee,omitempty"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	ContextSlot uint64  `json:"contextSlot,omitempty"`
	TimeTaken   float64 `json:"timeTaken,omitempty"`

	raw json.RawMessage
}

func (q *QuoteResponse) UnmarshalJSON(b []byte) error {
	type plain QuoteResponse
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*q = QuoteResponse(p)
	q.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (q QuoteResponse) MarshalJSON() ([]byte, error) {
	if len(q.raw) > 0 {
		return q.raw, nil
	}
	type plain QuoteResponse
	return json.Marshal(plain(q))
}

// Raw returns the quote exactly as the router sent it.
func (q *QuoteResponse) Raw() json.RawMessage {
	return q.raw
}

type PlatformFee struct {
	Amount string `json:"amount,omitempty"`
	FeeBps uint16 `json:"feeBps,omitempty"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent,omitempty"`
	Bps      uint16   `json:"bps,omitempty"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`

	FeeAmount *string `json:"feeAmount,omitempty"`
	FeeMint   *string `json:"feeMint,omitempty"`
}

type SwapInstructionsRequest struct {
	QuoteResponse             *QuoteResponse `json:"quoteResponse"`
	UserPublicKey             string         `json:"userPublicKey"`
	WrapAndUnwrapSol          bool           `json:"wrapAndUnwrapSol"`
	UseTokenLedger            bool           `json:"useTokenLedger"`
	DynamicComputeUnitLimit   bool           `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports any            `json:"prioritizationFeeLamports,omitempty"` // "auto" or a lamport amount
}

// SwapInstructionsResponse is the router's decomposition of a quote into
// instructions, grouped by role.
type SwapInstructionsResponse struct {
	TokenLedgerInstruction      *Instruction  `json:"tokenLedgerInstruction,omitempty"`
	ComputeBudgetInstructions   []Instruction `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction `json:"setupInstructions"`
	SwapInstruction             *Instruction  `json:"swapInstruction"`
	CleanupInstruction          *Instruction  `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string      `json:"addressLookupTableAddresses"`

	Error string `json:"error,omitempty"`
}

// Instruction is an instruction descriptor as the router encodes it.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"` // base64
}

type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}
