package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/biblioteca/internal/platform/config"
)

// State is a circuit breaker state.
type State int

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
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

// Breaker stops calls to a failing downstream service.
//
// It opens after MaxFailures consecutive failures. Once Timeout has passed
// it lets up to HalfOpenLimit probes through; that many successful probes
// close it again, and any failed probe reopens it.
type Breaker struct {
	mu        sync.Mutex
	cfg       config.CircuitBreakerConfig
	state     State
	failures  int
	successes int
	probes    int
	openedAt  time.Time

	now      func() time.Time
	onChange func(from, to State)
}

// NewBreaker creates a closed breaker. onChange, if set, is called after
// every transition, outside the breaker's lock.
func NewBreaker(cfg config.CircuitBreakerConfig, onChange func(from, to State)) *Breaker {
	return &Breaker{
		cfg:      cfg,
		now:      time.Now,
		onChange: onChange,
	}
}

// Allow reports whether a call may proceed. Every allowed call must be
// followed by Success or Failure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	from := b.state
	allowed := false

	switch b.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if b.now().Sub(b.openedAt) >= b.cfg.Timeout {
			b.state = StateHalfOpen
			b.successes = 0
			b.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if b.probes < b.cfg.HalfOpenLimit {
			b.probes++
			allowed = true
		}
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)

	return allowed
}

// Success records a successful call.
func (b *Breaker) Success() {
	b.mu.Lock()
	from := b.state

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.probes = max(b.probes-1, 0)
		b.successes++

		if b.successes >= b.cfg.HalfOpenLimit {
			b.state = StateClosed
			b.failures = 0
			b.probes = 0
		}
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// Failure records a failed call.
func (b *Breaker) Failure() {
	b.mu.Lock()
	from := b.state

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.MaxFailures {
			b.open()
		}
	case StateHalfOpen:
		b.open()
	}

	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// open must be called with mu held.
func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.failures = 0
	b.successes = 0
	b.probes = 0
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(from, to)
	}
}
