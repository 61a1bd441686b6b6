package infra

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker guarding ledger reads. When a ledger's database keeps
// failing the breaker opens and the ledger is reported unavailable right away
// instead of holding up every reconciliation run.
//
//   closed    reads pass through, consecutive failures are counted
//   open      reads fail with ErrCircuitOpen until OpenTimeout has passed
//   half-open one read at a time is let through to probe for recovery

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Name             string
	FailureThreshold int              // consecutive failures before opening (default 5)
	SuccessThreshold int              // probe successes needed to close (default 1)
	OpenTimeout      time.Duration    // time spent open before probing (default 30s)
	IsFailure        func(error) bool // errors that count against the breaker (default: any)
	Now              func() time.Time
}

type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    BreakerState
	failures int
	probes   int
	inFlight bool
	openedAt time.Time
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{cfg: cfg}
}

func (cb *CircuitBreaker) Name() string { return cb.cfg.Name }

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.advance()
	return cb.state
}

// advance moves open to half-open once the timeout has elapsed. Caller holds mu.
func (cb *CircuitBreaker) advance() {
	if cb.state == BreakerOpen && cb.cfg.Now().Sub(cb.openedAt) >= cb.cfg.OpenTimeout {
		cb.state = BreakerHalfOpen
		cb.probes = 0
		cb.inFlight = false
	}
}

// Execute runs fn unless the breaker is open or a half-open probe is already
// running, in which case it returns ErrCircuitOpen without calling fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	cb.advance()
	switch cb.state {
	case BreakerOpen:
		cb.mu.Unlock()
		return ErrCircuitOpen
	case BreakerHalfOpen:
		if cb.inFlight {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.inFlight = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == BreakerHalfOpen {
		cb.inFlight = false
	}
	if err != nil {
		if cb.cfg.IsFailure(err) {
			cb.onFailure()
		}
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	switch cb.state {
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	case BreakerHalfOpen:
		cb.trip()
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case BreakerClosed:
		cb.failures = 0
	case BreakerHalfOpen:
		cb.probes++
		if cb.probes >= cb.cfg.SuccessThreshold {
			cb.state = BreakerClosed
			cb.failures = 0
			cb.probes = 0
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openedAt = cb.cfg.Now()
	cb.failures = 0
	cb.probes = 0
}
