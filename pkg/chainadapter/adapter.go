package chainadapter

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/walleterr"
)

// SigningKey is the raw material a ChainAdapter needs to sign: the 32-byte
// secret recovered from entropy.DerivedEntropy.RawSecret, plus whatever
// reserved bytes an adapter's scheme wants (Taproot tweak, SLIP-10 chain
// code, ...). Adapters never see the master seed itself.
type SigningKey struct {
	RawSecret [32]byte
	Reserved  [32]byte
}

// ChainAdapter is the uniform surface every per-chain implementation
// presents to the wallet facade and registry. DeriveAddress, Balance, and
// Send are load-bearing for every chain; the remaining methods have a
// BaseAdapter fallback so a minimal adapter compiles without implementing
// every method, mirroring each chain's actual feature support instead of
// forcing a no-op everywhere.
type ChainAdapter interface {
	Chain() config.ChainTag
	Capabilities() Capabilities

	DeriveAddress(ctx context.Context, key SigningKey) (string, error)
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	Send(ctx context.Context, key SigningKey, to string, amount decimal.Decimal, cfg TransactionConfig) (TransactionResponse, error)

	EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg TransactionConfig) (FeeEstimate, error)
	GetHistory(ctx context.Context, address string, limit int) ([]IncomingTransaction, error)
	Subscribe(ctx context.Context, address string, onTx func(IncomingTransaction)) (unsubscribe func(), err error)
	Sign(ctx context.Context, key SigningKey, payload []byte) ([]byte, error)
	FetchLatestTx(ctx context.Context, address string) (*IncomingTransaction, error)

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// BaseAdapter supplies defaults for the optional ChainAdapter methods:
// Initialize and Shutdown return nil, and the others return a
// walleterr.CodeMethodNotImplemented stub. Concrete adapters embed it and
// override only the methods their chain actually supports; this is the
// idiomatic-Go stand-in for a partially-optional interface.
type BaseAdapter struct {
	ChainTag config.ChainTag
	Caps     Capabilities
}

func (b BaseAdapter) Chain() config.ChainTag       { return b.ChainTag }
func (b BaseAdapter) Capabilities() Capabilities   { return b.Caps }

func (b BaseAdapter) EstimateFee(ctx context.Context, to string, amount decimal.Decimal, cfg TransactionConfig) (FeeEstimate, error) {
	return FeeEstimate{}, b.notImplemented("EstimateFee")
}

func (b BaseAdapter) GetHistory(ctx context.Context, address string, limit int) ([]IncomingTransaction, error) {
	return nil, b.notImplemented("GetHistory")
}

func (b BaseAdapter) Subscribe(ctx context.Context, address string, onTx func(IncomingTransaction)) (func(), error) {
	return nil, b.notImplemented("Subscribe")
}

func (b BaseAdapter) Sign(ctx context.Context, key SigningKey, payload []byte) ([]byte, error) {
	return nil, b.notImplemented("Sign")
}

func (b BaseAdapter) FetchLatestTx(ctx context.Context, address string) (*IncomingTransaction, error) {
	return nil, b.notImplemented("FetchLatestTx")
}

func (b BaseAdapter) Initialize(ctx context.Context) error { return nil }
func (b BaseAdapter) Shutdown(ctx context.Context) error   { return nil }

func (b BaseAdapter) notImplemented(method string) error {
	return walleterr.NonRetry(walleterr.CodeMethodNotImplemented,
		string(b.ChainTag)+" adapter does not implement "+method, nil).
		WithContext(map[string]any{"chain": string(b.ChainTag), "method": method})
}
