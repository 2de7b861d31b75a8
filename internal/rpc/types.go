package rpc

import "fmt"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Context is the slot the node answered at
type Context struct {
	Slot uint64 `json:"slot"`
}

// LatestBlockhashResponse is the response from getLatestBlockhash
type LatestBlockhashResponse struct {
	Result struct {
		Context Context `json:"context"`
		Value   struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// AccountInfo is a single account as returned with base64 encoding.
// Data is ["<payload>", "base64"].
type AccountInfo struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
}

// MultipleAccountsResponse is the response from getMultipleAccounts
type MultipleAccountsResponse struct {
	Result struct {
		Context Context        `json:"context"`
		Value   []*AccountInfo `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
