// Package polkadot implements chainadapter.ChainAdapter for Polkadot. The
// wallet-SDK reference implementation this package's siblings are
// modeled on derives a Polkadot "address" as a Blake2b hash of a
// secp256k1 key, hex-printed with a leading "1" — not SS58, and not
// built on the sr25519 keys Polkadot actually signs with. This adapter
// uses the real scheme: sr25519 (Schnorrkel) keypairs and SS58-encoded
// addresses, via go-subkey.
package polkadot

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vedhavyas/go-subkey/sr25519"
	"golang.org/x/crypto/blake2b"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
	"github.com/drxa/sdk/pkg/walleterr"
)

// polkadotNetwork is the SS58 network/prefix byte for Polkadot mainnet.
const polkadotNetwork = uint8(0)

const planckPerDOT = 10_000_000_000 // 10 decimals

// RPC is the subset of Polkadot's JSON-RPC surface this adapter needs.
type RPC interface {
	FreeBalancePlanck(ctx context.Context, address string) (int64, error)
	AccountNonce(ctx context.Context, address string) (uint32, error)
	PartialFeeEstimate(ctx context.Context, extrinsicHex string) (int64, error)
	SubmitExtrinsic(ctx context.Context, signedExtrinsic []byte) (hash string, err error)
	History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for Polkadot.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs a Polkadot Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainPolkadot,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainPolkadot,
				MinConfirmations: 1,
			},
		},
		rpc:   rpc,
		store: store,
	}
}

func keypair(key chainadapter.SigningKey) (sr25519.Keypair, error) {
	kp, err := sr25519.Scheme{}.FromSeed(key.RawSecret[:])
	if err != nil {
		return sr25519.Keypair{}, walleterr.NonRetry(walleterr.CodeInvalidDerivation, "failed to derive sr25519 keypair", err)
	}
	return kp, nil
}

// DeriveAddress returns the SS58-encoded Polkadot mainnet address for
// key's sr25519 keypair.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	kp, err := keypair(key)
	if err != nil {
		return "", err
	}
	return kp.SS58Address(polkadotNetwork), nil
}

// Balance returns address's free (transferable) DOT balance.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	planck, err := a.rpc.FreeBalancePlanck(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(planck, 0).Div(decimal.New(planckPerDOT, 0)), nil
}

// EstimateFee asks the chain to estimate the partial fee for an unsigned
// extrinsic transferring amount to to.
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	planckAmount := amount.Mul(decimal.New(planckPerDOT, 0)).IntPart()
	unsigned := encodeTransferExtrinsic(to, planckAmount, 0)
	planckFee, err := a.rpc.PartialFeeEstimate(ctx, fmt.Sprintf("0x%x", unsigned))
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}
	return chainadapter.FeeEstimate{
		TotalFee: decimal.New(planckFee, 0).Div(decimal.New(planckPerDOT, 0)),
	}, nil
}

// Send signs (sr25519/Schnorrkel) and submits a balances.transfer
// extrinsic moving amount to to. SCALE-encoding the call and building the
// full signed extrinsic envelope is delegated to the configured RPC in a
// production deployment; this adapter owns key derivation, nonce
// handling, and the signature itself.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	kp, err := keypair(key)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}
	from := kp.SS58Address(polkadotNetwork)

	nonce, err := a.rpc.AccountNonce(ctx, from)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	planckAmount := amount.Mul(decimal.New(planckPerDOT, 0)).IntPart()
	callBytes := encodeTransferExtrinsic(to, planckAmount, nonce)

	signature, err := kp.Sign(callBytes)
	if err != nil {
		return chainadapter.TransactionResponse{}, walleterr.NonRetry(walleterr.CodeSignatureFailure, "failed to sign extrinsic", err)
	}
	signedExtrinsic := append(callBytes, signature...)

	// sr25519 signatures are randomized, so the idempotency key is taken
	// over the unsigned call bytes (which include the nonce).
	txHash := extrinsicHash(callBytes)
	if existing, ok := a.store.Get(txHash); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	broadcastHash, err := a.rpc.SubmitExtrinsic(ctx, signedExtrinsic)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(txHash, txstore.State{TxHash: broadcastHash, Chain: config.ChainPolkadot, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now, RawTx: signedExtrinsic})
	return chainadapter.TransactionResponse{TxHash: broadcastHash, Status: chainadapter.TxPending}, nil
}

func encodeTransferExtrinsic(to string, planckAmount int64, nonce uint32) []byte {
	buf := make([]byte, 0, len(to)+12)
	buf = append(buf, byte(nonce>>24), byte(nonce>>16), byte(nonce>>8), byte(nonce))
	buf = append(buf, byte(planckAmount>>56), byte(planckAmount>>48), byte(planckAmount>>40), byte(planckAmount>>32))
	buf = append(buf, byte(planckAmount>>24), byte(planckAmount>>16), byte(planckAmount>>8), byte(planckAmount))
	buf = append(buf, []byte(to)...)
	return buf
}

// extrinsicHash returns the 0x-prefixed hex Blake2b-256 of b, the hash
// function Substrate uses for extrinsic identity.
func extrinsicHash(b []byte) string {
	h := blake2b.Sum256(b)
	return fmt.Sprintf("0x%x", h)
}

// GetHistory delegates to the configured RPC's address history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, address, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
