// Package subscription is the polling-based watcher the facade falls back
// to for chains whose adapter has no native push subscription: it polls
// GetHistory on an interval, dedupes against a bounded
// per-address seen-hash set, and republishes new transfers onto the event
// bus at most once each.
package subscription

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/eventbus"
)

const (
	// DefaultConcurrency bounds how many chains this engine polls at once.
	DefaultConcurrency = 4
	// DefaultSeenLimit bounds the per-address dedupe set, oldest evicted first.
	DefaultSeenLimit = 1000
	// DefaultInterval is how often each watched address is polled.
	DefaultInterval = 15 * time.Second
)

// seenSet is a FIFO-bounded set of transaction hashes already delivered
// for one address, so a polling loop never redelivers the same transfer.
type seenSet struct {
	limit int
	order []string
	set   map[string]bool
}

func newSeenSet(limit int) *seenSet {
	if limit <= 0 {
		limit = DefaultSeenLimit
	}
	return &seenSet{limit: limit, set: make(map[string]bool)}
}

func (s *seenSet) seenOrAdd(hash string) bool {
	if s.set[hash] {
		return true
	}
	s.set[hash] = true
	s.order = append(s.order, hash)
	if len(s.order) > s.limit {
		evict := s.order[0]
		s.order = s.order[1:]
		delete(s.set, evict)
	}
	return false
}

// watch holds the per-address polling state.
type watch struct {
	chain   string
	address string
	cancel  context.CancelFunc
}

// Engine runs one polling goroutine per (chain, address) subscription,
// bounded to Concurrency simultaneous in-flight polls across all
// subscriptions via a weighted semaphore.
type Engine struct {
	Concurrency int
	Interval    time.Duration
	SeenLimit   int

	bus *eventbus.Bus
	sem *semaphore.Weighted
}

// New creates an Engine publishing discovered transfers onto bus.
func New(bus *eventbus.Bus) *Engine {
	e := &Engine{
		Concurrency: DefaultConcurrency,
		Interval:    DefaultInterval,
		SeenLimit:   DefaultSeenLimit,
		bus:         bus,
	}
	e.sem = semaphore.NewWeighted(int64(e.Concurrency))
	return e
}

// Watch starts polling adapter.GetHistory for address every e.Interval,
// publishing each newly observed IncomingTransaction to the event bus and
// to onTx at most once. onTx may be nil if the caller only wants the bus
// publication. The returned function stops the polling loop.
func (e *Engine) Watch(ctx context.Context, adapter chainadapter.ChainAdapter, address string, onTx func(chainadapter.IncomingTransaction)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	seen := newSeenSet(e.SeenLimit)

	go func() {
		ticker := time.NewTicker(e.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.poll(ctx, adapter, address, seen, onTx)
			}
		}
	}()

	return cancel
}

func (e *Engine) poll(ctx context.Context, adapter chainadapter.ChainAdapter, address string, seen *seenSet, onTx func(chainadapter.IncomingTransaction)) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer e.sem.Release(1)

	txs, err := adapter.GetHistory(ctx, address, 25)
	if err != nil {
		e.bus.Publish(eventbus.ErrorEvent{
			Chain: adapter.Chain(), Err: err, Source: "subscription.poll", Time: time.Now(),
		})
		return
	}

	for _, tx := range txs {
		if seen.seenOrAdd(tx.TxHash) {
			continue
		}
		direction := "incoming"
		if tx.From == address {
			direction = "outgoing"
		}
		e.bus.Publish(eventbus.TransactionEvent{
			Chain:     adapter.Chain(),
			TxHash:    tx.TxHash,
			Address:   address,
			Direction: direction,
			Time:      time.Now(),
		})
		if onTx != nil {
			onTx(tx)
		}
	}
}
