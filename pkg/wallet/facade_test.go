package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/entropy"
	"github.com/drxa/sdk/pkg/eventbus"
)

type stubAdapter struct {
	chainadapter.BaseAdapter
	balance decimal.Decimal
	history []chainadapter.IncomingTransaction
}

func (a *stubAdapter) DeriveAddress(ctx context.Context, key chainadapter.SigningKey) (string, error) {
	return "addr-" + string(key.RawSecret[:4]), nil
}
func (a *stubAdapter) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return a.balance, nil
}
func (a *stubAdapter) Send(ctx context.Context, key chainadapter.SigningKey, to string, amount decimal.Decimal, cfg chainadapter.TransactionConfig) (chainadapter.TransactionResponse, error) {
	return chainadapter.TransactionResponse{TxHash: "0xdeadbeef", Status: chainadapter.TxPending}, nil
}
func (a *stubAdapter) GetHistory(ctx context.Context, address string, limit int) ([]chainadapter.IncomingTransaction, error) {
	return a.history, nil
}

func testSeed(t *testing.T) entropy.MasterSeed {
	t.Helper()
	s, err := entropy.NewMasterSeed(make([]byte, 32))
	require.NoError(t, err)
	return s
}

func newTestSDK(t *testing.T) *SDK {
	t.Helper()
	sdk := NewSDK(testSeed(t), Options{})
	sdk.Registry().Register(config.ChainEthereum, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return &stubAdapter{BaseAdapter: chainadapter.BaseAdapter{ChainTag: tag}, balance: decimal.NewFromInt(42)}, nil
	})
	return sdk
}

func TestSDK_DeriveAddressIsDeterministic(t *testing.T) {
	sdk := newTestSDK(t)
	ctx := context.Background()

	a, err := sdk.DeriveAddress(ctx, "wallet", "user-1", config.ChainEthereum, "0")
	require.NoError(t, err)
	b, err := sdk.DeriveAddress(ctx, "wallet", "user-1", config.ChainEthereum, "0")
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestSDK_DeriveAddressDiffersAcrossUsers(t *testing.T) {
	sdk := newTestSDK(t)
	ctx := context.Background()

	a, err := sdk.DeriveAddress(ctx, "wallet", "user-1", config.ChainEthereum, "0")
	require.NoError(t, err)
	b, err := sdk.DeriveAddress(ctx, "wallet", "user-2", config.ChainEthereum, "0")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestSDK_BalanceDelegatesToAdapter(t *testing.T) {
	sdk := newTestSDK(t)
	bal, err := sdk.Balance(context.Background(), config.ChainEthereum, "0xabc")
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.NewFromInt(42)))
}

func TestSDK_BatchBalancePreservesOrder(t *testing.T) {
	sdk := newTestSDK(t)
	queries := []BalanceQuery{
		{Chain: config.ChainEthereum, Address: "0x1"},
		{Chain: config.ChainEthereum, Address: "0x2"},
		{Chain: config.ChainEthereum, Address: "0x3"},
	}
	results := sdk.BatchBalance(context.Background(), queries)
	require.Len(t, results, 3)
	for i, r := range results {
		require.Equal(t, queries[i], r.Query)
		require.NoError(t, r.Err)
	}
}

func TestSDK_SendPublishesTransactionEvent(t *testing.T) {
	sdk := newTestSDK(t)
	received := make(chan eventbus.TransactionEvent, 1)
	unsub := sdk.OnEvent(eventbus.Filter{}, func(e eventbus.Event) {
		if tx, ok := e.(eventbus.TransactionEvent); ok {
			received <- tx
		}
	})
	defer unsub()

	resp, err := sdk.Send(context.Background(), "wallet", "user-1", config.ChainEthereum, "0", "0xdead", decimal.NewFromInt(1), nil)
	require.NoError(t, err)
	require.Equal(t, "0xdeadbeef", resp.TxHash)

	select {
	case tx := <-received:
		require.Equal(t, "0xdeadbeef", tx.TxHash)
	default:
		t.Fatal("expected a transaction event to be published synchronously")
	}
}

func TestSDK_SubscribeDeliversToOnTxCallback(t *testing.T) {
	sdk := NewSDK(testSeed(t), Options{})
	sdk.subs.Interval = 10 * time.Millisecond
	sdk.Registry().Register(config.ChainEthereum, func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error) {
		return &stubAdapter{
			BaseAdapter: chainadapter.BaseAdapter{ChainTag: tag},
			history:     []chainadapter.IncomingTransaction{{TxHash: "0xabc123", To: "0xdead"}},
		}, nil
	})

	delivered := make(chan chainadapter.IncomingTransaction, 1)
	unsubscribe, err := sdk.Subscribe(context.Background(), config.ChainEthereum, "0xdead", func(tx chainadapter.IncomingTransaction) {
		delivered <- tx
	})
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case tx := <-delivered:
		require.Equal(t, "0xabc123", tx.TxHash)
	case <-time.After(time.Second):
		t.Fatal("expected onTx to be called within 1s")
	}
}

func TestSDK_HasChainRejectsUnsupported(t *testing.T) {
	sdk := newTestSDK(t)
	require.True(t, sdk.HasChain(config.ChainEthereum))
	require.False(t, sdk.HasChain(config.ChainTag("dogecoin")))
}
