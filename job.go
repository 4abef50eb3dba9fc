package qsplit

import (
	"context"
	"time"
)

// Job is one unit of work for the pool, usually the execution of a single sub-tape.
type Job struct {
	ID            string
	Fn            func(ctx context.Context) (any, error)
	RetryPolicy   *RetryPolicy
	CircuitID     string
	CircuitConfig *CircuitBreakerConfig
	TTL           time.Duration
	Attempt       int
	LastError     error
	StartTime     time.Time
}

// JobOption is a function type for configuring jobs
type JobOption func(*Job)

// CircuitBreakerConfig struct
type CircuitBreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	HalfOpenMax  int
}

// WithTTL configures how long a job's result is kept after it is stored.
func WithTTL(ttl time.Duration) JobOption {
	return func(j *Job) {
		j.TTL = ttl
	}
}
