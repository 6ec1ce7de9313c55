package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/drxa/sdk/pkg/walleterr"
)

// State is a circuit breaker's current position in the CLOSED → OPEN →
// HALF_OPEN → CLOSED state machine.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker trips OPEN after FailureThreshold consecutive failures,
// rejecting calls until ResetTimeout elapses, then allows HalfOpenRetries
// trial calls before deciding whether to close again or re-open.
type CircuitBreaker struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenRetries  int

	mu              sync.Mutex
	state           State
	consecutiveFail int
	halfOpenCount   int
	openedAt        time.Time
}

// NewCircuitBreaker returns a breaker with the given thresholds. A
// HalfOpenRetries of 0 is treated as 1.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, halfOpenRetries int) *CircuitBreaker {
	if halfOpenRetries < 1 {
		halfOpenRetries = 1
	}
	return &CircuitBreaker{
		FailureThreshold: failureThreshold,
		ResetTimeout:     resetTimeout,
		HalfOpenRetries:  halfOpenRetries,
		state:            StateClosed,
	}
}

// State reports the breaker's current state, transitioning OPEN to
// HALF_OPEN as a side effect if ResetTimeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpenLocked()
	return cb.state
}

func (cb *CircuitBreaker) maybeTransitionToHalfOpenLocked() {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.ResetTimeout {
		cb.state = StateHalfOpen
		cb.halfOpenCount = 0
	}
}

// Execute runs fn if the breaker permits it, recording the outcome against
// the state machine. A call rejected by an OPEN breaker returns
// walleterr.CodeCircuitOpen without invoking fn.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	cb.mu.Lock()
	cb.maybeTransitionToHalfOpenLocked()
	if cb.state == StateOpen {
		cb.mu.Unlock()
		return walleterr.NonRetry(walleterr.CodeCircuitOpen, "circuit breaker is open", nil)
	}
	cb.mu.Unlock()

	err := fn(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFail++
		switch cb.state {
		case StateHalfOpen:
			cb.trip()
		case StateClosed:
			if cb.consecutiveFail >= cb.FailureThreshold {
				cb.trip()
			}
		}
		return err
	}

	switch cb.state {
	case StateHalfOpen:
		cb.halfOpenCount++
		if cb.halfOpenCount >= cb.HalfOpenRetries {
			cb.reset()
		}
	case StateClosed:
		cb.consecutiveFail = 0
	}
	return nil
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.halfOpenCount = 0
}

func (cb *CircuitBreaker) reset() {
	cb.state = StateClosed
	cb.consecutiveFail = 0
	cb.halfOpenCount = 0
}
