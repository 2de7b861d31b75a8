package constants

// Well-known mints and accounts
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// Receives the flat service fee refunded by the payer
	FeeAccount = "9bm4Zd7tjptorkhs71vP5gL2mjZKbUjNqxL36swznuHr"
)

// Swap parameters. These are protocol constants, not tunables.
const (
	// 0.015 SOL, in lamports
	SwapOutputLamports uint64 = 15_000_000

	// Flat fee moved from the payer to FeeAccount after the swap
	ServiceFeeLamports uint64 = 2_200_000

	MaxAutoSlippageBps uint16 = 300

	SwapModeExactOut = "ExactOut"
)

// Upstream endpoints
const (
	DefaultRPCURL       = "https://api.mainnet-beta.solana.com"
	DefaultJupiterURL   = "https://api.jup.ag/swap/v1"
	DefaultTokenListURL = "https://token.jup.ag/strict"
)

// Solana transaction limits
const (
	MaxTransactionSize = 1232 // bytes, serialized with signatures
	MaxAccountKeys     = 256
)

// Action presentation
const (
	ActionTitle       = "Gasless Swap from any SPL token!"
	ActionIcon        = "https://utfs.io/f/a12e4c3c-5f83-45a9-a35f-04113a236688-i0tr7r.jpg"
	ActionDescription = "Gaslessly swap from any SPL token into exactly 0.015 SOL"
	ActionLabel       = "Swap USDC to 0.015 SOL"
	ActionMessage     = "Gasless Swap powered by Monstrè"
)

// Operator flags
const (
	FlagSponsorshipEnabled = "sponsorship.enabled"
)
