// Package txstore is the in-memory broadcast idempotency ledger every
// adapter's Send method consults before resubmitting a transaction. It is
// intentionally not persisted: the SDK holds no custodial state across
// process restarts.
package txstore

import (
	"sort"
	"sync"
	"time"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
)

// State is the idempotency record kept per transaction hash.
type State struct {
	TxHash     string
	Chain      config.ChainTag
	Status     chainadapter.TxStatus
	RetryCount int
	FirstSeen  time.Time
	LastRetry  time.Time
	RawTx      []byte
}

// Store is the interface adapters depend on; Memory is the only
// implementation, matching the SDK's no-persistence stance.
type Store interface {
	Get(txHash string) (*State, bool)
	Set(txHash string, state State)
	Delete(txHash string)
	List() []State
	ListByStatus(status chainadapter.TxStatus) []State
	Clean(olderThan time.Duration) int
}

// Memory is a concurrency-safe, process-lifetime-only Store.
type Memory struct {
	mu    sync.RWMutex
	store map[string]State
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string]State)}
}

// Get returns a copy of the stored state for txHash, if present.
func (m *Memory) Get(txHash string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[txHash]
	if !ok {
		return nil, false
	}
	c := copyState(s)
	return &c, true
}

// Set stores a copy of state under txHash, overwriting any prior entry.
func (m *Memory) Set(txHash string, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[txHash] = copyState(state)
}

// Delete removes the entry for txHash, if any.
func (m *Memory) Delete(txHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, txHash)
}

// List returns every stored state, newest FirstSeen first.
func (m *Memory) List() []State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]State, 0, len(m.store))
	for _, s := range m.store {
		out = append(out, copyState(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.After(out[j].FirstSeen) })
	return out
}

// ListByStatus returns stored states matching status, newest first.
func (m *Memory) ListByStatus(status chainadapter.TxStatus) []State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]State, 0)
	for _, s := range m.store {
		if s.Status == status {
			out = append(out, copyState(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.After(out[j].FirstSeen) })
	return out
}

// Clean removes entries whose FirstSeen is older than olderThan, returning
// the count removed.
func (m *Memory) Clean(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for hash, s := range m.store {
		if s.FirstSeen.Before(cutoff) {
			delete(m.store, hash)
			removed++
		}
	}
	return removed
}

func copyState(s State) State {
	raw := make([]byte, len(s.RawTx))
	copy(raw, s.RawTx)
	s.RawTx = raw
	return s
}
