// Package tron implements chainadapter.ChainAdapter for Tron. Address
// derivation mirrors Ethereum's Keccak256(pubkey)[-20:] scheme with a
// 0x41 mainnet prefix and a base58check (double-SHA256) checksum instead
// of EIP-55 mixed-case checksumming.
package tron

import (
	"context"
	"crypto/sha256"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
	"github.com/drxa/sdk/pkg/walleterr"
)

const mainnetPrefix = 0x41

// sunPerTRX is TRX's fixed-point scale (1 TRX = 1_000_000 sun).
const sunPerTRX = 1_000_000

// RPC is the subset of Tron's JSON-RPC / gRPC-gateway surface this
// adapter needs.
type RPC interface {
	BalanceSun(ctx context.Context, address string) (int64, error)
	CreateTransaction(ctx context.Context, from, to string, amountSun int64) (rawTx []byte, txID string, err error)
	SignAndBroadcast(ctx context.Context, rawTx []byte, privKey []byte) (txID string, err error)
	History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for Tron.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs a Tron Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainTron,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainTron,
				MinConfirmations: 19,
			},
		},
		rpc:   rpc,
		store: store,
	}
}

func doubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// deriveAddressBytes returns the 21-byte (prefix + 20-byte hash) Tron
// address for key, before base58check encoding.
func deriveAddressBytes(key chainadapter.SigningKey) ([]byte, error) {
	priv, err := ethcrypto.ToECDSA(key.RawSecret[:])
	if err != nil {
		return nil, walleterr.NonRetry(walleterr.CodeInvalidDerivation, "raw secret is not a valid secp256k1 scalar", err)
	}
	uncompressed := ethcrypto.FromECDSAPub(&priv.PublicKey)
	hash := ethcrypto.Keccak256(uncompressed[1:])
	addressBytes := hash[len(hash)-20:]
	return append([]byte{mainnetPrefix}, addressBytes...), nil
}

// DeriveAddress returns the base58check-encoded Tron address for key.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	addrBytes, err := deriveAddressBytes(key)
	if err != nil {
		return "", err
	}
	checksum := doubleSHA256(addrBytes)
	return base58.Encode(append(addrBytes, checksum[:4]...)), nil
}

// Balance returns address's native TRX balance.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	sun, err := a.rpc.BalanceSun(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(sun, 0).Div(decimal.New(sunPerTRX, 0)), nil
}

// EstimateFee returns Tron's typical bandwidth-covered transfer cost.
// A standard TRX transfer consumes ~268 bandwidth points; once an
// account's free daily bandwidth is exhausted those points are billed at
// the network's bandwidth price (fetched via RPC in a full deployment,
// approximated here as a fixed low-cost transfer).
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	const estimatedFeeSun = 100_000
	fee := decimal.New(estimatedFeeSun, 0).Div(decimal.New(sunPerTRX, 0))
	return chainadapter.FeeEstimate{TotalFee: fee}, nil
}

// Send creates, signs, and broadcasts a TRX transfer of amount to to.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	from, err := a.DeriveAddress(ctx, key)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	amountSun := amount.Mul(decimal.New(sunPerTRX, 0)).IntPart()
	rawTx, txID, err := a.rpc.CreateTransaction(ctx, from, to, amountSun)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	if existing, ok := a.store.Get(txID); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	broadcastID, err := a.rpc.SignAndBroadcast(ctx, rawTx, key.RawSecret[:])
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(txID, txstore.State{TxHash: broadcastID, Chain: config.ChainTron, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now, RawTx: rawTx})
	return chainadapter.TransactionResponse{TxHash: broadcastID, Status: chainadapter.TxPending}, nil
}

// GetHistory delegates to the configured RPC's address history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, address, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
