package qsplit

import (
	"log"
	"sync"
	"time"
)

/*
CircuitState represents the state of the circuit breaker guarding a device.
*/
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation state
	CircuitOpen                         // Device is failing, executions are rejected
	CircuitHalfOpen                     // Probationary state, allowing limited executions
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
CircuitBreaker stops sending sub-tapes to a device that keeps failing.

The circuit breaker operates in three states:
  - Closed: every execution is allowed
  - Open: the failure threshold was reached, executions are rejected
  - Half-Open: after the reset timeout a limited number of executions probe the device

A failed probe reopens the circuit; enough successful probes close it.
*/
type CircuitBreaker struct {
	mu               sync.Mutex
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMax      int
	failureCount     int
	state            CircuitState
	openTime         time.Time
	halfOpenAttempts int // successful probes
	halfOpenInFlight int // admitted probes
}

/*
NewCircuitBreaker creates a new circuit breaker instance in the closed state.

Parameters:
  - maxFailures: Number of consecutive failures before opening the circuit
  - resetTimeout: Duration to wait before probing an open circuit
  - halfOpenMax: Probes admitted while half-open, all of which must succeed to close the circuit
*/
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	if halfOpenMax < 1 {
		halfOpenMax = 1
	}
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  halfOpenMax,
		state:        CircuitClosed,
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// RecordFailure records a failed execution and opens the circuit once the
// threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch cb.state {
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.openTime = time.Now()
		cb.halfOpenAttempts = 0
		cb.halfOpenInFlight = 0
		log.Printf("Circuit breaker reopened from half-open state")
	case CircuitClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.state = CircuitOpen
			cb.openTime = time.Now()
			log.Printf("Circuit breaker opened after %d failures", cb.failureCount)
		}
	}
}

// RecordSuccess records a successful execution.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenAttempts++
		if cb.halfOpenAttempts >= cb.halfOpenMax {
			cb.state = CircuitClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			cb.halfOpenInFlight = 0
			log.Printf("Circuit breaker closed from half-open")
		}
	case CircuitClosed:
		cb.failureCount = 0
	}
}

// Allow determines if an execution may proceed, moving an open circuit to
// half-open once the reset timeout has passed. Each half-open period admits
// at most halfOpenMax executions.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.openTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.halfOpenAttempts = 0
			cb.halfOpenInFlight = 1
			return true
		}
		return false
	case CircuitHalfOpen:
		if cb.halfOpenInFlight >= cb.halfOpenMax {
			return false
		}
		cb.halfOpenInFlight++
		return true
	default:
		return false
	}
}
