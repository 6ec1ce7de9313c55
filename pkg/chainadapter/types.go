// Package chainadapter defines the uniform contract every per-chain
// implementation (EVM family, Bitcoin, Solana, ...) MUST satisfy, plus the
// chain-agnostic value types that cross that boundary.
package chainadapter

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/drxa/sdk/pkg/config"
)

// Priority is the caller's speed/cost preference for a transaction.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// UTXOSelection names a Bitcoin-family coin selection strategy.
type UTXOSelection string

const (
	UTXOSelectionAuto         UTXOSelection = "auto"
	UTXOSelectionLargestFirst UTXOSelection = "largest-first"
	UTXOSelectionSmallestFirst UTXOSelection = "smallest-first"
	UTXOSelectionManual       UTXOSelection = "manual"
)

// Capabilities advertises the feature flags a given adapter supports, so
// the facade and callers can branch without a type switch on chain tag.
type Capabilities struct {
	Chain                 config.ChainTag
	SupportsEIP1559       bool
	SupportsMemo          bool
	SupportsRBF           bool
	SupportsWebSocket     bool
	SupportsSubscriptions bool
	MaxMemoLength         int
	MinConfirmations      int
}

// TransactionConfig is the per-chain-category tagged union from spec.md
// §3, modeled as a Go sum type: a marker interface plus one concrete
// struct per chain family. Every adapter accepts any variant; each one
// type-asserts its own family's struct and falls back to its defaults
// when handed another variant or nil, so a mismatch is not a compile error.
type TransactionConfig interface {
	isTransactionConfig()
	Common() CommonConfig
}

// CommonConfig holds the fields every TransactionConfig variant shares.
type CommonConfig struct {
	Memo     string
	Priority Priority
	Timeout  time.Duration
}

// EVMConfig configures a Build/Send call on any EVM-family adapter.
type EVMConfig struct {
	CommonConfig
	GasLimit             *uint64
	GasPrice             *decimal.Decimal
	MaxFeePerGas         *decimal.Decimal
	MaxPriorityFeePerGas *decimal.Decimal
	Nonce                *uint64
	ChainID              *int64
	Type                 int // 2 dynamic-fee; any other value signs legacy unless both max-fee fields are set
	Data                 []byte
}

func (EVMConfig) isTransactionConfig()        {}
func (c EVMConfig) Common() CommonConfig      { return c.CommonConfig }

// UTXOConfig configures a Build/Send call on any UTXO-family adapter.
type UTXOConfig struct {
	CommonConfig
	FeeRate       *decimal.Decimal // sat/vB
	Selection     UTXOSelection
	SpecificUTXOs []string // "txid:vout"
	ScriptType    string
	RBF           bool
	LockTime      *uint32
	Sequence      *uint32
}

func (UTXOConfig) isTransactionConfig()   {}
func (c UTXOConfig) Common() CommonConfig { return c.CommonConfig }

// SolanaConfig configures a Build/Send call on the Solana adapter.
type SolanaConfig struct {
	CommonConfig
	ComputeUnits        *uint32
	ComputeUnitPrice    *uint64 // microlamports/CU
	PreflightCommitment string
	SkipPreflight       bool
	MaxRetries          *int
}

func (SolanaConfig) isTransactionConfig()  {}
func (c SolanaConfig) Common() CommonConfig { return c.CommonConfig }

// AptosConfig configures a Build/Send call on the Aptos adapter.
type AptosConfig struct {
	CommonConfig
	GasUnitPrice            *uint64
	MaxGasAmount            *uint64
	ExpirationTimestampSecs *int64
}

func (AptosConfig) isTransactionConfig()   {}
func (c AptosConfig) Common() CommonConfig { return c.CommonConfig }

// TONConfig configures a Build/Send call on the TON adapter.
type TONConfig struct {
	CommonConfig
	Bounce     *bool
	Seqno      *uint32
	ValidUntil *int64
}

func (TONConfig) isTransactionConfig()    {}
func (c TONConfig) Common() CommonConfig { return c.CommonConfig }

// TransactionResponse is returned as soon as the RPC accepts the
// transaction; it does not imply confirmation.
type TransactionResponse struct {
	TxHash        string
	Status        TxStatus
	BlockNumber   *uint64
	Confirmations int
	Fee           *decimal.Decimal
}

// TxStatus enumerates the lifecycle of a submitted transaction.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// FeeEstimate is the breakdown returned by EstimateFee.
type FeeEstimate struct {
	BaseFee     *decimal.Decimal
	PriorityFee *decimal.Decimal
	TotalFee    decimal.Decimal
	GasLimit    *uint64
	GasPrice    *decimal.Decimal
}

// IncomingTransaction is one transfer observed as arriving at a watched
// address, whether via polling (Subscription Engine) or a native push
// subscription.
type IncomingTransaction struct {
	TxHash        string
	From          string
	To            string
	Amount        decimal.Decimal
	BlockNumber   *uint64
	Timestamp     *time.Time
	TokenContract string
}
