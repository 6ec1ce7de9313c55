// Package sui implements chainadapter.ChainAdapter for Sui. There is no
// Sui support in the wallet-SDK reference implementation this adapter's
// siblings are modeled on, so address derivation follows Sui's own
// published scheme directly: Blake2b-256(flagByte || Ed25519 pubkey),
// hex-encoded with a 0x prefix.
package sui

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
)

// ed25519SchemeFlag is Sui's signature-scheme flag byte for Ed25519
// (as opposed to secp256k1, secp256r1, or multisig).
const ed25519SchemeFlag = 0x00

const mistPerSUI = 1_000_000_000

// RPC is the subset of Sui's JSON-RPC surface this adapter needs.
type RPC interface {
	BalanceMist(ctx context.Context, address string) (int64, error)
	ReferenceGasPrice(ctx context.Context) (uint64, error)
	ExecuteTransaction(ctx context.Context, signedTxBytes []byte) (digest string, err error)
	History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for Sui.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs a Sui Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainSui,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainSui,
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

// suiAddress computes Blake2b-256(schemeFlag || pubkey), Sui's account
// address derivation.
func suiAddress(pub ed25519.PublicKey) [32]byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{ed25519SchemeFlag})
	h.Write(pub)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveAddress returns the 0x-prefixed hex Sui address for key.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	priv := ed25519Key(key)
	pub := priv.Public().(ed25519.PublicKey)
	addr := suiAddress(pub)
	return fmt.Sprintf("0x%x", addr), nil
}

// Balance returns address's native SUI balance.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	mist, err := a.rpc.BalanceMist(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(mist, 0).Div(decimal.New(mistPerSUI, 0)), nil
}

// EstimateFee approximates a coin-transfer's gas cost as the reference
// gas price times a fixed computation-unit budget.
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	gasPrice, err := a.rpc.ReferenceGasPrice(ctx)
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}
	const computeUnits = 1000
	totalMist := int64(gasPrice) * computeUnits
	gp := decimal.New(int64(gasPrice), 0)
	return chainadapter.FeeEstimate{
		TotalFee: decimal.New(totalMist, 0).Div(decimal.New(mistPerSUI, 0)),
		GasPrice: &gp,
	}, nil
}

// Send signs (Ed25519) and executes a coin transfer of amount to to.
// Programmable-transaction-block construction is delegated to the
// configured RPC; this adapter owns key derivation and signing.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	priv := ed25519Key(key)
	from, err := a.DeriveAddress(ctx, key)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	mistAmount := amount.Mul(decimal.New(mistPerSUI, 0)).IntPart()
	payload := []byte(fmt.Sprintf("pay_sui:%s:%s:%d", from, to, mistAmount))
	signature := ed25519.Sign(priv, payload)
	signedTx := append(payload, signature...)

	txHash := fmt.Sprintf("0x%x", blake2b.Sum256(signedTx))
	if existing, ok := a.store.Get(txHash); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	txDigest, err := a.rpc.ExecuteTransaction(ctx, signedTx)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(txHash, txstore.State{TxHash: txDigest, Chain: config.ChainSui, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now, RawTx: signedTx})
	return chainadapter.TransactionResponse{TxHash: txDigest, Status: chainadapter.TxPending}, nil
}

// GetHistory delegates to the configured RPC's address history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, address, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
