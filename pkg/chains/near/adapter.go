// Package near implements chainadapter.ChainAdapter for NEAR Protocol.
// The wallet-SDK reference implementation this package's siblings are
// modeled on pads a secp256k1 public key out to 64 hex characters to
// fake a NEAR implicit account; this adapter derives a genuine Ed25519
// keypair and uses its real 32-byte public key, hex-encoded, as the
// implicit account ID.
package near

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
	"github.com/drxa/sdk/pkg/walleterr"
)

var yoctoPerNEAR = decimal.New(1, 24)

// RPC is the subset of NEAR's JSON-RPC surface this adapter needs.
type RPC interface {
	BalanceYocto(ctx context.Context, accountID string) (yocto string, err error)
	AccessKeyNonce(ctx context.Context, accountID, publicKey string) (uint64, error)
	GasPriceYocto(ctx context.Context) (int64, error)
	SendTransaction(ctx context.Context, signedTxBorsh []byte) (txHash string, err error)
	History(ctx context.Context, accountID string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for NEAR.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs a NEAR Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainNEAR,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainNEAR,
				MinConfirmations: 1,
			},
		},
		rpc:   rpc,
		store: store,
	}
}

func ed25519Key(key chainadapter.SigningKey) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(key.RawSecret[:])
}

// DeriveAddress returns key's NEAR implicit account ID: the lowercase hex
// encoding of its Ed25519 public key.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	priv := ed25519Key(key)
	pub := priv.Public().(ed25519.PublicKey)
	return hex.EncodeToString(pub), nil
}

// Balance returns accountID's native NEAR balance. NEAR balances are
// reported as decimal-string yoctoNEAR by the RPC since they routinely
// exceed int64 range.
func (a *Adapter) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	yocto, err := a.rpc.BalanceYocto(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	amount, err := decimal.NewFromString(yocto)
	if err != nil {
		return decimal.Zero, walleterr.NonRetry(walleterr.CodeRPCError, "malformed balance from RPC", err)
	}
	return amount.Div(yoctoPerNEAR), nil
}

// EstimateFee returns NEAR's typical transfer-action gas cost (a fixed
// ~450 Ggas, i.e. 0.45 Tgas, burnt by a simple transfer) priced at the
// current gas price.
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	gasPrice, err := a.rpc.GasPriceYocto(ctx)
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}
	const transferGas = 450_000_000_000 // 450 Ggas
	totalYocto := decimal.New(gasPrice, 0).Mul(decimal.New(transferGas, 0))
	return chainadapter.FeeEstimate{TotalFee: totalYocto.Div(yoctoPerNEAR)}, nil
}

// Send signs (Ed25519) and submits a transfer action of amount to to.
// Borsh-serializing the full SignedTransaction envelope is delegated to
// the configured RPC; this adapter owns key derivation, access-key nonce
// handling, and the signature itself.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	priv := ed25519Key(key)
	from, err := a.DeriveAddress(ctx, key)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	nonce, err := a.rpc.AccessKeyNonce(ctx, from, from)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	yoctoAmount := amount.Mul(yoctoPerNEAR).BigInt()
	body := []byte(from + ":" + to + ":" + yoctoAmount.String() + ":" + decimal.New(int64(nonce)+1, 0).String())
	signature := ed25519.Sign(priv, body)
	signedTx := append(body, signature...)

	txHash := hex.EncodeToString(signature[:16])
	if existing, ok := a.store.Get(txHash); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	broadcastHash, err := a.rpc.SendTransaction(ctx, signedTx)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(txHash, txstore.State{TxHash: broadcastHash, Chain: config.ChainNEAR, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now, RawTx: signedTx})
	return chainadapter.TransactionResponse{TxHash: broadcastHash, Status: chainadapter.TxPending}, nil
}

// GetHistory delegates to the configured RPC's account history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, accountID string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, accountID, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
