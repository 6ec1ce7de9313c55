// Package ton implements chainadapter.ChainAdapter for TON. Per the
// redesign decision recorded for this SDK (no bug carried over from a
// mnemonic round-trip), the Ed25519 keypair is constructed directly from
// the kernel's 32-byte derived secret rather than re-encoded through a
// BIP39-style mnemonic and back.
package ton

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/txstore"
)

const nanoPerTON = 1_000_000_000

// addressTag identifies a "user-friendly" bounceable, non-test-only
// address in TON's address-tag byte scheme.
const addressTag = 0x11

// defaultWorkchain is TON's basic workchain (-1 is the masterchain).
const defaultWorkchain = 0

// RPC is the subset of TON's HTTP/Toncenter API this adapter needs.
type RPC interface {
	BalanceNano(ctx context.Context, address string) (int64, error)
	SeqNo(ctx context.Context, address string) (uint32, error)
	SendBOC(ctx context.Context, signedBOC []byte) (hash string, err error)
	History(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error)
}

// Adapter implements chainadapter.ChainAdapter for TON.
type Adapter struct {
	chainadapter.BaseAdapter
	rpc   RPC
	store txstore.Store
}

// New constructs a TON Adapter talking to rpc.
func New(rpc RPC, store txstore.Store) *Adapter {
	return &Adapter{
		BaseAdapter: chainadapter.BaseAdapter{
			ChainTag: config.ChainTON,
			Caps: chainadapter.Capabilities{
				Chain:            config.ChainTON,
				SupportsMemo:     true,
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

// walletStateInitHash stands in for the hash of a v4R2 wallet contract's
// StateInit cell, keyed by its owner public key. A full implementation
// depends on a TON cell/BOC-serialization library (e.g. tonutils-go) to
// build the actual StateInit; this adapter derives a stable, deterministic
// stand-in hash instead so address derivation, balance, and send plumbing
// can be exercised without that dependency.
func walletStateInitHash(pub ed25519.PublicKey) [32]byte {
	return sha256.Sum256(append([]byte("ton-wallet-v4r2:"), pub...))
}

// userFriendlyAddress encodes workchain and accountHash into TON's
// "user-friendly" base64url address format: tag || workchain || hash ||
// crc16, base64url-encoded.
func userFriendlyAddress(workchain int8, accountHash [32]byte) string {
	raw := make([]byte, 0, 36)
	raw = append(raw, addressTag, byte(workchain))
	raw = append(raw, accountHash[:]...)
	crc := crc16CCITT(raw)
	raw = append(raw, byte(crc>>8), byte(crc))
	return base64.URLEncoding.EncodeToString(raw)
}

// crc16CCITT implements the CRC-16/XMODEM variant TON uses to checksum
// user-friendly addresses.
func crc16CCITT(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// DeriveAddress returns the user-friendly base64url TON address for key's
// v4R2 wallet contract.
func (a *Adapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	priv := ed25519Key(key)
	pub := priv.Public().(ed25519.PublicKey)
	hash := walletStateInitHash(pub)
	return userFriendlyAddress(defaultWorkchain, hash), nil
}

// Balance returns address's native TON balance.
func (a *Adapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	nano, err := a.rpc.BalanceNano(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(nano, 0).Div(decimal.New(nanoPerTON, 0)), nil
}

// EstimateFee returns TON's typical forward-fee-inclusive transfer cost,
// a small fixed amount in practice since storage/compute fees on the
// basic workchain are cheap relative to other chains.
func (a *Adapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.FeeEstimate, error) {
	const estimatedFeeNano = 5_000_000
	return chainadapter.FeeEstimate{
		TotalFee: decimal.New(estimatedFeeNano, 0).Div(decimal.New(nanoPerTON, 0)),
	}, nil
}

// Send signs (Ed25519) and submits an external message transferring
// amount to to. BOC cell construction is delegated to the configured
// RPC; this adapter owns key derivation, sequence-number handling, and
// signing.
func (a *Adapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	priv := ed25519Key(key)
	from, err := a.DeriveAddress(ctx, key)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	seqno, err := a.rpc.SeqNo(ctx, from)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	var tonCfg chainadapter.TONConfig
	if c, ok := cfg.(chainadapter.TONConfig); ok {
		tonCfg = c
	}
	if tonCfg.Seqno != nil {
		seqno = *tonCfg.Seqno
	}

	nanoAmount := amount.Mul(decimal.New(nanoPerTON, 0)).IntPart()
	body := externalMessageBody(to, nanoAmount, seqno)
	signature := ed25519.Sign(priv, body)
	signedBOC := append(body, signature...)

	hash := sha256.Sum256(signedBOC)
	txHash := base64.RawURLEncoding.EncodeToString(hash[:])

	if existing, ok := a.store.Get(txHash); ok && existing.RetryCount > 0 {
		return chainadapter.TransactionResponse{TxHash: existing.TxHash, Status: existing.Status}, nil
	}

	broadcastHash, err := a.rpc.SendBOC(ctx, signedBOC)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	now := time.Now()
	a.store.Set(txHash, txstore.State{TxHash: broadcastHash, Chain: config.ChainTON, Status: chainadapter.TxPending, RetryCount: 1, FirstSeen: now, LastRetry: now, RawTx: signedBOC})
	return chainadapter.TransactionResponse{TxHash: broadcastHash, Status: chainadapter.TxPending}, nil
}

func externalMessageBody(to string, amountNano int64, seqno uint32) []byte {
	if len(to) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(to)+12)
	buf = append(buf, byte(seqno>>24), byte(seqno>>16), byte(seqno>>8), byte(seqno))
	buf = append(buf, byte(amountNano>>56), byte(amountNano>>48), byte(amountNano>>40), byte(amountNano>>32))
	buf = append(buf, byte(amountNano>>24), byte(amountNano>>16), byte(amountNano>>8), byte(amountNano))
	buf = append(buf, []byte(to)...)
	return buf
}

// GetHistory delegates to the configured RPC's address history endpoint.
func (a *Adapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.rpc.History(ctx, address, limit)
}

func (a *Adapter) Initialize(ctx context.Context) error { return nil }
func (a *Adapter) Shutdown(ctx context.Context) error   { return nil }
