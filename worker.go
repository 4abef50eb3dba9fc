package qsplit

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Worker processes jobs
type Worker struct {
	pool *Q
	jobs chan Job
}

func (w *Worker) run(ctx context.Context) {
	for {
		// Offer ourselves to the manager.
		select {
		case <-ctx.Done():
			return
		case w.pool.workers <- w.jobs:
		}

		select {
		case <-ctx.Done():
			return
		case job := <-w.jobs:
			result, err := w.processJob(ctx, job)
			w.pool.space.Store(job.ID, result, err, job.TTL)
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job Job) (any, error) {
	if err := w.checkCircuitBreaker(job.CircuitID); err != nil {
		return nil, err
	}

	w.pool.sem.Acquire()
	defer w.pool.sem.Release()

	result, err := w.executeWithRetries(ctx, job)
	w.pool.metrics.recordJobExecution(job.StartTime, err == nil)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (w *Worker) executeWithRetries(ctx context.Context, job Job) (any, error) {
	for job.Attempt = 0; job.Attempt < job.RetryPolicy.MaxAttempts; job.Attempt++ {
		if job.Attempt > 0 {
			delay := job.RetryPolicy.Strategy.NextDelay(job.Attempt)
			log.Printf("Job %s retrying attempt %d after %v", job.ID, job.Attempt+1, delay)
			w.pool.metrics.recordRetry()

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("job %s cancelled: %w", job.ID, ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := w.attempt(ctx, job)
		if err == nil {
			w.recordSuccess(job.CircuitID)
			return result, nil
		}

		job.LastError = err
		log.Printf("Job %s attempt %d failed with error: %v", job.ID, job.Attempt+1, err)
		w.recordFailure(job.CircuitID)

		if ctx.Err() != nil {
			break
		}
		if job.RetryPolicy.Filter != nil && !job.RetryPolicy.Filter(err) {
			break
		}
	}
	return nil, fmt.Errorf("all retries failed for job %s: %w", job.ID, job.LastError)
}

// attempt runs the job function once under the configured job timeout.
func (w *Worker) attempt(ctx context.Context, job Job) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, w.pool.config.jobTimeout())
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := job.Fn(ctx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("job %s timed out: %w", job.ID, ctx.Err())
	}
}

func (w *Worker) checkCircuitBreaker(circuitID string) error {
	if breaker := w.pool.breaker(circuitID); breaker != nil {
		if !breaker.Allow() {
			log.Printf("Job not allowed by circuit breaker %s", circuitID)
			w.pool.metrics.recordRejected("circuit_open")
			return fmt.Errorf("%w: %s", ErrCircuitOpen, circuitID)
		}
	}
	return nil
}

func (w *Worker) recordSuccess(circuitID string) {
	if breaker := w.pool.breaker(circuitID); breaker != nil {
		breaker.RecordSuccess()
	}
}

func (w *Worker) recordFailure(circuitID string) {
	if breaker := w.pool.breaker(circuitID); breaker != nil {
		breaker.RecordFailure()
	}
}
