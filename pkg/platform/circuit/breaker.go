// Package circuit tracks consecutive failures of a dependency so callers can
// report degradation once instead of on every failed call.
package circuit

import "sync"

// StateChange is set on the call that moved the breaker.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker is a two-state breaker. It opens after failureThreshold consecutive
// failures and closes after successThreshold consecutive successes while open.
// It never blocks calls; callers decide what open means for them.
type Breaker struct {
	mu               sync.Mutex
	name             string
	open             bool
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
}

type Option func(*Breaker)

// WithFailureThreshold defaults to 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold defaults to 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// RecordFailure returns whether the breaker is open after the failure.
func (b *Breaker) RecordFailure() (open bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	if b.open {
		return true, StateChange{}
	}
	if b.failures >= b.failureThreshold {
		b.open = true
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess returns whether the breaker is closed after the success.
func (b *Breaker) RecordSuccess() (closed bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if !b.open {
		return true, StateChange{}
	}
	b.successes++
	if b.successes < b.successThreshold {
		return false, StateChange{}
	}
	b.open = false
	b.successes = 0
	return true, StateChange{Closed: true}
}
