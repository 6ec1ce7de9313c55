package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/drxa/sdk/pkg/config"
)

func TestBus_PublishDeliversToMatchingSubscriber(t *testing.T) {
	b := New(10, nil)
	received := make(chan Event, 1)
	unsub := b.Subscribe(Filter{Chains: map[config.ChainTag]bool{config.ChainEthereum: true}}, func(e Event) {
		received <- e
	})
	defer unsub()

	b.Publish(TransactionEvent{Chain: config.ChainEthereum, TxHash: "0xabc", Time: time.Now()})

	select {
	case e := <-received:
		tx, ok := e.(TransactionEvent)
		require.True(t, ok)
		require.Equal(t, "0xabc", tx.TxHash)
	default:
		t.Fatal("expected synchronous delivery")
	}
}

func TestBus_FilterExcludesNonMatchingChain(t *testing.T) {
	b := New(10, nil)
	called := false
	unsub := b.Subscribe(Filter{Chains: map[config.ChainTag]bool{config.ChainBitcoin: true}}, func(e Event) {
		called = true
	})
	defer unsub()

	b.Publish(TransactionEvent{Chain: config.ChainEthereum, TxHash: "0xabc", Time: time.Now()})
	require.False(t, called)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := New(10, nil)
	count := 0
	unsub := b.Subscribe(Filter{}, func(e Event) { count++ })
	b.Publish(StatusEvent{Chain: config.ChainSolana, Status: "ready", Time: time.Now()})
	unsub()
	b.Publish(StatusEvent{Chain: config.ChainSolana, Status: "ready", Time: time.Now()})
	require.Equal(t, 1, count)
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	b := New(10, nil)
	secondCalled := false
	unsub1 := b.Subscribe(Filter{}, func(e Event) { panic("boom") })
	defer unsub1()
	unsub2 := b.Subscribe(Filter{}, func(e Event) { secondCalled = true })
	defer unsub2()

	require.NotPanics(t, func() {
		b.Publish(StatusEvent{Chain: config.ChainTron, Status: "ready", Time: time.Now()})
	})
	require.True(t, secondCalled)
}

func TestBus_RingBufferBounded(t *testing.T) {
	b := New(3, nil)
	for i := 0; i < 5; i++ {
		b.Publish(BlockEvent{Chain: config.ChainEthereum, BlockNumber: uint64(i), Time: time.Now()})
	}
	recent := b.Recent(10)
	require.Len(t, recent, 3)
	require.Equal(t, uint64(2), recent[0].(BlockEvent).BlockNumber)
	require.Equal(t, uint64(4), recent[2].(BlockEvent).BlockNumber)
}
