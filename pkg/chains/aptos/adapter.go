// Package aptos implements chainadapter.ChainAdapter for Aptos. The
// wallet-SDK reference implementation this package is modeled on computes
// an Aptos auth key with plain SHA-256, labeled in its own comments as "a
// simplified" stand-in. Aptos's actual single-signer auth-key scheme
// hashes with SHA3-256, and that difference changes every derived
// address, so this adapter uses golang.org/x/crypto/sha3 directly.
package aptos

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"crypto/ed25519"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
)

// Defaults for AptosConfig fields a caller leaves unset, matching Aptos
// mainnet's typical coin-transfer gas schedule.
const (
	defaultGasUnitPrice            = uint64(100)
	defaultMaxGasAmount            = uint64(2000)
	defaultExpirationOffsetSeconds = int64(300)
)

// singleSignerScheme is Aptos's scheme identifier byte for a single
// Ed25519 signer (as opposed to multi-ed25519 or other auth schemes).
const singleSignerScheme = 0x00

const octaPerAPT = 100_000_000

// RPC is the subset of Aptos's REST API this adapter needs.
type RPC interface {
	BalanceOcta(ctx context.Context, address string) (int64, error)
	AccountSequenceNumber(ctx context.Context, address string) (uint64, error)
	GasUnitPriceEstimate(ctx context.Context) (uint64, error)
	SubmitTransaction(ctx context.Context, signedTxBCS []byte) (txHash string, err error)
	History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for Aptos.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs an Aptos Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainAptos,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainAptos,
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

// authKey computes Aptos's SHA3-256(pubkey || schemeByte) account address.
func authKey(pub ed25519.PublicKey) [32]byte {
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{singleSignerScheme})
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveAddress returns the 0x-prefixed 64-hex-character Aptos account
// address for key.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	priv := ed25519Key(key)
	pub := priv.Public().(ed25519.PublicKey)
	addr := authKey(pub)
	return fmt.Sprintf("0x%x", addr), nil
}

// Balance returns address's native APT balance.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	octa, err := a.rpc.BalanceOcta(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(octa, 0).Div(decimal.New(octaPerAPT, 0)), nil
}

// EstimateFee returns gasUnitPrice * a fixed-budget coin-transfer gas
// estimate (Aptos coin transfers consume ~8-10 gas units in practice;
// 10 is used as a conservative ceiling).
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	gasPrice, err := a.rpc.GasUnitPriceEstimate(ctx)
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}
	const gasUnits = 10
	totalOcta := int64(gasPrice) * gasUnits
	gl := uint64(gasUnits)
	gp := decimal.New(int64(gasPrice), 0)
	return chainadapter.FeeEstimate{
		TotalFee: decimal.New(totalOcta, 0).Div(decimal.New(octaPerAPT, 0)),
		GasLimit: &gl,
		GasPrice: &gp,
	}, nil
}

// Send builds, signs (Ed25519), and submits a coin transfer of amount to
// to. The payload is built here by encodeCoinTransferPayload (a
// length-prefixed encoding, not BCS); the payload followed by its
// signature is handed to the configured RPC's SubmitTransaction.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	priv := ed25519Key(key)
	from, err := a.DeriveAddress(ctx, key)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	seq, err := a.rpc.AccountSequenceNumber(ctx, from)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	var aptosCfg chainadapter.AptosConfig
	if c, ok := cfg.(chainadapter.AptosConfig); ok {
		aptosCfg = c
	}
	gasUnitPrice := defaultGasUnitPrice
	if aptosCfg.GasUnitPrice != nil {
		gasUnitPrice = *aptosCfg.GasUnitPrice
	}
	maxGasAmount := defaultMaxGasAmount
	if aptosCfg.MaxGasAmount != nil {
		maxGasAmount = *aptosCfg.MaxGasAmount
	}
	expiration := time.Now().Unix() + defaultExpirationOffsetSeconds
	if aptosCfg.ExpirationTimestampSecs != nil {
		expiration = *aptosCfg.ExpirationTimestampSecs
	}

	octaAmount := amount.Mul(decimal.New(octaPerAPT, 0)).IntPart()
	payload := encodeCoinTransferPayload(from, to, octaAmount, seq, gasUnitPrice, maxGasAmount, expiration)
	signature := ed25519.Sign(priv, payload)

	signedTx := append(payload, signature...)
	txHash := fmt.Sprintf("0x%x", sha3.Sum256(signedTx))

	if existing, ok := a.store.Get(txHash); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	broadcastHash, err := a.rpc.SubmitTransaction(ctx, signedTx)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(txHash, txstore.State{TxHash: broadcastHash, Chain: config.ChainAptos, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now, RawTx: signedTx})
	return chainadapter.TransactionResponse{TxHash: broadcastHash, Status: chainadapter.TxPending}, nil
}

// encodeCoinTransferPayload encodes the fields of an Aptos coin-transfer
// entry-function payload (sender, recipient, amount, sequence number, and
// the gas/expiration triple every Aptos RawTransaction carries) into a
// fixed-layout byte string. The pack carries no Aptos BCS/transaction-
// builder library, so this is a hand-rolled length-prefixed encoding
// rather than true BCS; see DESIGN.md for why no ecosystem dependency
// could serve this step.
func encodeCoinTransferPayload(from, to string, amountOcta int64, seq, gasUnitPrice, maxGasAmount uint64, expirationTimestampSecs int64) []byte {
	buf := []byte(fmt.Sprintf("coin_transfer:%s:%s:%d:%d:", from, to, amountOcta, seq))
	var tail [24]byte
	binary.BigEndian.PutUint64(tail[0:8], gasUnitPrice)
	binary.BigEndian.PutUint64(tail[8:16], maxGasAmount)
	binary.BigEndian.PutUint64(tail[16:24], uint64(expirationTimestampSecs))
	return append(buf, tail[:]...)
}

// GetHistory delegates to the configured RPC's address history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, address, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
