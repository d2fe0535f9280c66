package genai

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ecotrack/backend/internal/fn"
)

// ErrCircuitOpen is returned without calling the service while the breaker is open.
var ErrCircuitOpen = errors.New("genai: circuit breaker is open")

// BreakerState is the breaker's current mode.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling the service after MaxFailures consecutive failures
// and lets a single probe through once ResetTimeout has elapsed. It never
// retries a call itself.
type Breaker struct {
	mu           sync.Mutex
	maxFailures  int
	resetTimeout time.Duration
	state        BreakerState
	failures     int
	openedAt     time.Time
	probing      bool
	now          func() time.Time
}

// NewBreaker creates a closed breaker. Non-positive arguments fall back to
// 5 failures and 30 seconds.
func NewBreaker(maxFailures int, resetTimeout time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{maxFailures: maxFailures, resetTimeout: resetTimeout, now: time.Now}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// must hold mu
func (b *Breaker) currentState() BreakerState {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		b.state = StateHalfOpen
		b.probing = false
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.currentState() {
	case StateOpen:
		return false
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// The caller giving up says nothing about the service's health.
	if errors.Is(err, context.Canceled) {
		if b.state == StateHalfOpen {
			b.probing = false
		}
		return
	}

	if err == nil {
		b.state = StateClosed
		b.failures = 0
		b.probing = false
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = b.now()
		b.failures = 0
		b.probing = false
	}
}

// Do runs f through the breaker. A panic in f counts as a failure and is
// returned as a failed Result.
func Do[T any](b *Breaker, ctx context.Context, f func(context.Context) fn.Result[T]) (res fn.Result[T]) {
	if !b.allow() {
		return fn.Err[T](ErrCircuitOpen)
	}
	defer func() {
		if r := recover(); r != nil {
			res = fn.Errf[T]("genai: panic during call: %v", r)
		}
		b.record(res.Error())
	}()
	return f(ctx)
}
