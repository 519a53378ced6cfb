// Package breaker implements the circuit breaker shared by the MongoDB and
// Redis clients.
package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit is open and requests fail fast
var ErrOpen = errors.New("circuit breaker is open")

// State represents the state of the circuit breaker
type State int

const (
	// Closed means operations are allowed to proceed
	Closed State = iota
	// Open means operations fail fast
	Open
	// HalfOpen means a single operation may proceed as a test
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker opens after failureThreshold consecutive failures and lets a test
// request through once resetTimeout has passed
type Breaker struct {
	mu               sync.Mutex
	failureThreshold uint
	failureCount     uint
	resetTimeout     time.Duration
	lastFailureTime  time.Time
	state            State
	now              func() time.Time
}

// New creates a closed circuit breaker
func New(failureThreshold uint, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            Closed,
		now:              time.Now,
	}
}

// AllowRequest checks if a request should be allowed based on the circuit state
func (b *Breaker) AllowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.now().Sub(b.lastFailureTime) <= b.resetTimeout {
			return false
		}
		// We've waited long enough, let one request test the backend
		b.state = HalfOpen
	}
	return true
}

// RecordSuccess closes the circuit
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.state = Closed
}

// RecordFailure counts a failure; a failed test request reopens the circuit
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = b.now()
	if b.state == HalfOpen {
		b.state = Open
		return
	}

	b.failureCount++
	if b.failureCount >= b.failureThreshold {
		b.state = Open
	}
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs operation unless the circuit is open. Errors for which
// countable returns false do not count as backend failures.
func (b *Breaker) Execute(operation func() error, countable func(error) bool) error {
	if !b.AllowRequest() {
		return ErrOpen
	}
	err := operation()
	if err != nil && (countable == nil || countable(err)) {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return err
}
