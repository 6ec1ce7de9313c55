// Package solana implements chainadapter.ChainAdapter for Solana. Unlike
// the wallet-SDK reference implementation this package is modeled on,
// which derives a Solana address by truncating a secp256k1 public key to
// 32 bytes, this adapter derives a genuine Ed25519 keypair from the raw
// derived secret: Solana addresses ARE Ed25519 public keys, and a
// secp256k1-shaped value is not one.
package solana

import (
	"context"
	"crypto/ed25519"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/shopspring/decimal"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
	"github.com/drxa/sdk/pkg/walleterr"
)

// lamportsPerSOL is the fixed-point scale of Solana's native unit.
const lamportsPerSOL = 1_000_000_000

// baseFeeLamports is the signature-count fee Solana charges per
// transaction before any priority fee (compute unit price) is added.
const baseFeeLamports = 5000

// defaultComputeUnits is assumed for a simple transfer when
// SolanaConfig.ComputeUnits is unset.
const defaultComputeUnits = 200_000

// defaultMaxRetries is how many times Send resubmits a transaction whose
// broadcast returned an error before giving up, absent SolanaConfig.MaxRetries.
const defaultMaxRetries = 3

// defaultComputeUnitPrice maps a caller's Priority to a microlamports-per-
// compute-unit price when SolanaConfig.ComputeUnitPrice is unset.
func defaultComputeUnitPrice(priority chainadapter.Priority) uint64 {
	switch priority {
	case chainadapter.PriorityLow:
		return 5_000
	case chainadapter.PriorityHigh:
		return 50_000
	case chainadapter.PriorityUrgent:
		return 200_000
	default:
		return 10_000
	}
}

// RPC is the subset of Solana's JSON-RPC surface this adapter needs.
type RPC interface {
	BalanceLamports(ctx context.Context, address string) (uint64, error)
	RecentBlockhash(ctx context.Context) (solanago.Hash, error)
	SendTransaction(ctx context.Context, tx *solanago.Transaction) (solanago.Signature, error)
	History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for Solana.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs a Solana Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainSolana,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainSolana,
				SupportsMemo:     true,
				MinConfirmations: 32,
			},
		},
		rpc:   rpc,
		store: store,
	}
}

// ed25519Key derives the 64-byte Ed25519 keypair seeded by key's raw
// secret.
func ed25519Key(key chainadapter.SigningKey) solanago.PrivateKey {
	return solanago.PrivateKey(ed25519.NewKeyFromSeed(key.RawSecret[:]))
}

// DeriveAddress returns the base58-encoded Ed25519 public key for key.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	return ed25519Key(key).PublicKey().String(), nil
}

// Balance returns address's native SOL balance.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	lamports, err := a.rpc.BalanceLamports(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(int64(lamports), 0).Div(decimal.New(lamportsPerSOL, 0)), nil
}

// EstimateFee returns the per-signature base fee plus a priority fee
// (compute unit price in microlamports times compute unit budget): both
// SolanaConfig.ComputeUnits/ComputeUnitPrice are honored when set, and
// defaulted from the caller's Priority otherwise, so priority is never
// silently dropped.
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	var solCfg chainadapter.SolanaConfig
	if c, ok := cfg.(chainadapter.SolanaConfig); ok {
		solCfg = c
	}

	computeUnits := uint32(defaultComputeUnits)
	if solCfg.ComputeUnits != nil {
		computeUnits = *solCfg.ComputeUnits
	}
	computeUnitPrice := defaultComputeUnitPrice(solCfg.Common().Priority)
	if solCfg.ComputeUnitPrice != nil {
		computeUnitPrice = *solCfg.ComputeUnitPrice
	}

	totalLamports := int64(baseFeeLamports) + int64(computeUnits)*int64(computeUnitPrice)/1_000_000
	totalFee := decimal.New(totalLamports, 0).Div(decimal.New(lamportsPerSOL, 0))
	return chainadapter.FeeEstimate{TotalFee: totalFee}, nil
}

// Send builds, signs, and submits a system-program transfer of amount
// (in SOL, converted to lamports) to to.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	priv := ed25519Key(key)
	from := priv.PublicKey()

	toPub, err := solanago.PublicKeyFromBase58(to)
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeInvalidAddress, "invalid recipient address", err)
	}

	lamports := uint64(amount.Mul(decimal.New(lamportsPerSOL, 0)).IntPart())

	blockhash, err := a.rpc.RecentBlockhash(ctx)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	instr := system.NewTransferInstruction(lamports, from, toPub).Build()
	tx, err := solanago.NewTransaction([]solanago.Instruction{instr}, blockhash, solanago.TransactionPayer(from))
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeBroadcastFailure, "failed to build transaction", err)
	}

	_, err = tx.Sign(func(pub solanago.PublicKey) *solanago.PrivateKey {
		if pub.Equals(from) {
			return &priv
		}
		return nil
	})
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeSignatureFailure, "failed to sign transaction", err)
	}

	sig := tx.Signatures[0].String()
	if existing, ok := a.store.Get(sig); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: sig, Status: existing.Status}, nil
	}

	maxRetries := defaultMaxRetries
	if solCfg, ok := cfg.(chainadapter.SolanaConfig); ok && solCfg.MaxRetries != nil {
		maxRetries = *solCfg.MaxRetries
	}

	var signature solanago.Signature
	for attempt := 0; ; attempt++ {
		signature, err = a.rpc.SendTransaction(ctx, tx)
		if err == nil || attempt >= maxRetries {
			break
		}
	}
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(sig, txstore.State{TxHash: sig, Chain: config.ChainSolana, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now})
	return chainadapter.TransactionResponse{TxHash: signature.String(), Status: chainadapter.TxPending}, nil
}

// GetHistory delegates to the configured RPC's address history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, address, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
