package eventbus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/drxa/sdk/pkg/config"
)

// DefaultBufferSize bounds the in-memory ring buffer Bus keeps for replay
// to late subscribers.
const DefaultBufferSize = 1000

// Filter narrows which events a subscriber receives. A nil or empty field
// matches everything for that dimension.
type Filter struct {
	Chains    map[config.ChainTag]bool
	Types     map[string]bool // "transaction", "block", "error", "status"
	Addresses map[string]bool
}

func (f Filter) matches(e Event) bool {
	if len(f.Chains) > 0 && !f.Chains[e.EventChain()] {
		return false
	}
	if len(f.Types) > 0 && !f.Types[typeName(e)] {
		return false
	}
	if len(f.Addresses) > 0 {
		addr, ok := addressOf(e)
		if !ok || !f.Addresses[addr] {
			return false
		}
	}
	return true
}

func typeName(e Event) string {
	switch e.(type) {
	case TransactionEvent:
		return "transaction"
	case BlockEvent:
		return "block"
	case ErrorEvent:
		return "error"
	case StatusEvent:
		return "status"
	default:
		return "unknown"
	}
}

func addressOf(e Event) (string, bool) {
	if tx, ok := e.(TransactionEvent); ok {
		return tx.Address, true
	}
	return "", false
}

type subscriber struct {
	id     uint64
	filter Filter
	handle func(Event)
}

// Bus is a synchronous, panic-isolated pub/sub dispatcher with a bounded
// ring buffer of recent events. Delivery happens on the publisher's
// goroutine; handlers that need to do slow work should hand off internally.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	nextID      uint64
	buffer      []Event
	bufferSize  int
	logger      *zap.Logger
}

// New creates a Bus with the given ring-buffer capacity (0 uses
// DefaultBufferSize) and logger for handler-panic reporting.
func New(bufferSize int, logger *zap.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subscribers: make(map[uint64]subscriber),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe registers handle to receive events matching filter, returning
// an unsubscribe function.
func (b *Bus) Subscribe(filter Filter, handle func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = subscriber{id: id, filter: filter, handle: handle}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Publish delivers e synchronously to every matching subscriber and
// appends it to the ring buffer. A panicking handler is recovered and
// logged so it cannot prevent delivery to the remaining subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.buffer = append(b.buffer, e)
	if len(b.buffer) > b.bufferSize {
		b.buffer = b.buffer[len(b.buffer)-b.bufferSize:]
	}
	handlers := make([]subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		if s.filter.matches(e) {
			handlers = append(handlers, s)
		}
	}
	b.mu.Unlock()

	for _, s := range handlers {
		b.dispatch(s, e)
	}
}

func (b *Bus) dispatch(s subscriber, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.Uint64("subscriber_id", s.id),
				zap.Any("recovered", r))
		}
	}()
	s.handle(e)
}

// Recent returns a snapshot of the last N buffered events (fewer if the
// buffer holds less), oldest first.
func (b *Bus) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 || n > len(b.buffer) {
		n = len(b.buffer)
	}
	out := make([]Event, n)
	copy(out, b.buffer[len(b.buffer)-n:])
	return out
}
