package server

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Sponsor string `json:"sponsor,omitempty"` // fee payer address
}

// ActionGetResponse is the Solana Action descriptor a wallet renders.
type ActionGetResponse struct {
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Label       string       `json:"label"`
	Links       *ActionLinks `json:"links,omitempty"`
}

type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

type LinkedAction struct {
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

type ActionParameter struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required,omitempty"`
}

type ActionPostRequest struct {
	Account string `json:"account"`
}

type ActionPostResponse struct {
	Transaction string `json:"transaction"` // base64, sponsor-signed, awaiting the payer's signature
	Message     string `json:"message,omitempty"`
}

// ActionsJSON is the /actions.json rules file used for Blink discovery.
type ActionsJSON struct {
	Rules []ActionRule `json:"rules"`
}

type ActionRule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

type QuotePreviewResponse struct {
	Symbol         string `json:"symbol"`
	InputMint      string `json:"inputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	SlippageBps    uint16 `json:"slippageBps"`
	PriceImpactPct string `json:"priceImpactPct"`
	FeeLamports    uint64 `json:"feeLamports"`
}

type FlagUpsertRequest struct {
	Key    string `json:"key"`
	Value  bool   `json:"value"`
	Reason string `json:"reason"`
}

type FlagUpdateRequest struct {
	Value  bool   `json:"value"`
	Reason string `json:"reason"`
}
