package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/eventbus"
	"github.com/drxa/sdk/pkg/walleterr"
)

// DeriveAddress recovers the deterministic address for (scope, userID,
// chain, index), deriving a fresh SigningKey and asking the chain's
// adapter to encode it. Two calls with identical parameters always return
// the same address.
func (s *SDK) DeriveAddress(ctx context.Context, scope, userID string, chain config.ChainTag, index string) (addr string, err error) {
	defer s.record("wallet.deriveAddress", time.Now(), &err)

	key, err := s.derive(scope, userID, chain, index)
	if err != nil {
		return "", err
	}
	adapter, err := s.registry.Get(ctx, chain)
	if err != nil {
		return "", err
	}
	return adapter.DeriveAddress(ctx, key)
}

// Balance returns address's native-asset balance on chain.
func (s *SDK) Balance(ctx context.Context, chain config.ChainTag, address string) (bal decimal.Decimal, err error) {
	defer s.record("wallet.balance", time.Now(), &err)

	adapter, err := s.registry.Get(ctx, chain)
	if err != nil {
		return decimal.Zero, err
	}
	return adapter.Balance(ctx, address)
}

// BalanceQuery is one (chain, address) pair for BatchBalance.
type BalanceQuery struct {
	Chain   config.ChainTag
	Address string
}

// BalanceResult pairs a BalanceQuery with its outcome.
type BalanceResult struct {
	Query   BalanceQuery
	Balance decimal.Decimal
	Err     error
}

// BatchBalance runs Balance for each query concurrently and returns results
// in the same order as queries, regardless of completion order.
func (s *SDK) BatchBalance(ctx context.Context, queries []BalanceQuery) []BalanceResult {
	results := make([]BalanceResult, len(queries))
	done := make(chan int, len(queries))

	for i, q := range queries {
		go func(i int, q BalanceQuery) {
			bal, err := s.Balance(ctx, q.Chain, q.Address)
			results[i] = BalanceResult{Query: q, Balance: bal, Err: err}
			done <- i
		}(i, q)
	}
	for range queries {
		<-done
	}
	return results
}

// Send derives the SigningKey for (scope, userID, chain, index), builds
// and broadcasts a transfer of amount to to, and returns the adapter's
// response.
func (s *SDK) Send(ctx context.Context, scope, userID string, chain config.ChainTag, index string, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (resp chainadapter.TransactionResponse, err error) {
	defer s.record("wallet.send", time.Now(), &err)

	key, err := s.derive(scope, userID, chain, index)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}
	adapter, err := s.registry.Get(ctx, chain)
	if err != nil {
		return chainadapter.TransactionResponse{}, err
	}

	resp, err = adapter.Send(ctx, key, to, amount, cfg)
	if err == nil {
		s.bus.Publish(eventbus.TransactionEvent{
			Chain: chain, TxHash: resp.TxHash, Address: to, Direction: "outgoing", Time: time.Now(),
		})
	}
	return resp, err
}

// EstimateFee asks chain's adapter for a fee estimate without building or
// broadcasting a transaction.
func (s *SDK) EstimateFee(ctx context.Context, chain config.ChainTag, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (est chainadapter.FeeEstimate, err error) {
	defer s.record("wallet.estimateFee", time.Now(), &err)

	adapter, err := s.registry.Get(ctx, chain)
	if err != nil {
		return chainadapter.FeeEstimate{}, err
	}
	return adapter.EstimateFee(ctx, to, amount, cfg)
}

// GetHistory returns up to limit recent transfers observed for address on
// chain.
func (s *SDK) GetHistory(ctx context.Context, chain config.ChainTag, address string, limit int) (txs []chainadapter.IncomingTransaction, err error) {
	defer s.record("wallet.getHistory", time.Now(), &err)

	adapter, err := s.registry.Get(ctx, chain)
	if err != nil {
		return nil, err
	}
	return adapter.GetHistory(ctx, address, limit)
}

// Subscribe starts watching address on chain for new transfers, preferring
// the adapter's native push subscription and falling back to the polling
// subscription engine when the adapter does not implement one. Discovered
// transfers are published to the SDK's event bus and also delivered
// directly to onTx.
func (s *SDK) Subscribe(ctx context.Context, chain config.ChainTag, address string, onTx func(chainadapter.IncomingTransaction)) (unsubscribe func(), err error) {
	defer s.record("wallet.subscribe", time.Now(), &err)

	adapter, err := s.registry.Get(ctx, chain)
	if err != nil {
		return nil, err
	}

	stop, err := adapter.Subscribe(ctx, address, onTx)
	if walleterr.CodeOf(err) == walleterr.CodeMethodNotImplemented {
		stop = s.subs.Watch(ctx, adapter, address, onTx)
		err = nil
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s:%s", chain, address)
	s.mu.Lock()
	s.unsubscribe[key] = stop
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.unsubscribe, key)
		s.mu.Unlock()
		stop()
	}, nil
}

// PreloadAdapters eagerly builds and initializes adapters for every chain
// in chains, so later facade calls for those chains skip the first-use
// build latency.
func (s *SDK) PreloadAdapters(ctx context.Context, chains []config.ChainTag) error {
	return s.registry.Preload(ctx, chains)
}

// HasChain reports whether chain is in the SDK's supported closed set.
func (s *SDK) HasChain(chain config.ChainTag) bool {
	return config.IsSupported(chain)
}

// GetSupportedChains returns every chain tag the SDK recognizes, not only
// the ones with an adapter already built.
func (s *SDK) GetSupportedChains() []config.ChainTag {
	return config.AllChains
}

// record times one facade operation and reports it to s.metrics as
// "<op>" with its success flag; a failure is additionally recorded as
// "<op>.error".
func (s *SDK) record(op string, start time.Time, errOut *error) {
	duration := time.Since(start)
	success := errOut == nil || *errOut == nil
	s.metrics.RecordOperation(op, duration, success)
	if !success {
		s.metrics.RecordOperation(op+".error", duration, true)
	}
}
