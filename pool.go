package qsplit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/notorious-go/sync/semaphore"
)

// Q is the worker pool that executes sub-tapes
type Q struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Job
	jobs       chan Job
	space      *ResultSpace
	metrics    *Metrics
	sem        semaphore.Semaphore
	breakers   map[string]*CircuitBreaker
	breakersMu sync.Mutex
	config     *Config
	closeOnce  sync.Once
}

// Option configures a Q.
type Option func(*Q)

// WithMetrics makes the pool record into m instead of a recorder on the
// default Prometheus registerer.
func WithMetrics(m *Metrics) Option {
	return func(q *Q) {
		if m != nil {
			q.metrics = m
		}
	}
}

// NewQ starts a pool sized by config. A nil config uses NewConfig.
func NewQ(ctx context.Context, config *Config, opts ...Option) *Q {
	if config == nil {
		config = NewConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	workers := config.workers()

	q := &Q{
		ctx:      ctx,
		cancel:   cancel,
		breakers: make(map[string]*CircuitBreaker),
		jobs:     make(chan Job, workers*10),
		workers:  make(chan chan Job, workers),
		space:    newResultSpace(config.resultTTL()),
		sem:      semaphore.New(config.maxInFlight()),
		config:   config,
	}

	for _, opt := range opts {
		opt(q)
	}
	if q.metrics == nil {
		q.metrics = NewMetrics(nil, "")
	}

	for i := 0; i < workers; i++ {
		q.startWorker()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.manage()
	}()

	return q
}

// Metrics returns the pool's metrics recorder.
func (q *Q) Metrics() *Metrics {
	return q.metrics
}

// Pool management. A job taken off the queue waits for a worker for as
// long as it takes; only the enqueue in Schedule is bounded.
func (q *Q) manage() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			select {
			case <-q.ctx.Done():
				return
			case workerChan := <-q.workers:
				select {
				case workerChan <- job:
				case <-q.ctx.Done():
					return
				}
			}
		}
	}
}

/*
Schedule queues fn under id and returns a channel that receives its
Result once. Jobs retry with the config's policy unless an option
overrides it. A job that cannot be queued within the scheduling timeout
yields an error Result right away; a job behind an open circuit breaker
fails when a worker picks it up.
*/
func (q *Q) Schedule(id string, fn func(ctx context.Context) (any, error), opts ...JobOption) chan Result {
	return q.schedule(q.ctx, id, fn, opts...)
}

// schedule is Schedule bounded by the caller's ctx as well as the pool's.
func (q *Q) schedule(ctx context.Context, id string, fn func(ctx context.Context) (any, error), opts ...JobOption) chan Result {
	job := Job{
		ID:          id,
		Fn:          fn,
		RetryPolicy: q.config.retryPolicy(),
		TTL:         q.config.resultTTL(),
		StartTime:   time.Now(),
	}

	for _, opt := range opts {
		opt(&job)
	}
	if job.RetryPolicy == nil || job.RetryPolicy.MaxAttempts < 1 {
		job.RetryPolicy = &RetryPolicy{MaxAttempts: 1, Strategy: &ExponentialBackoff{Initial: time.Second}}
	}

	// Created here so the worker finds it; Allow is only consulted there.
	q.getCircuitBreaker(job)

	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	enqueue, cancel := context.WithTimeout(ctx, q.config.schedulingTimeout())
	defer cancel()

	select {
	case q.jobs <- job:
		return q.space.Await(id)
	case <-q.ctx.Done():
		return failed(fmt.Errorf("%w: %w", ErrSchedulingTimeout, q.ctx.Err()))
	case <-enqueue.Done():
		if err := ctx.Err(); err != nil {
			return failed(err)
		}
		log.Printf("No room in the queue for job: %s, timeout occurred", id)
		q.metrics.recordRejected("timeout")
		return failed(fmt.Errorf("%w: %w", ErrSchedulingTimeout, enqueue.Err()))
	}
}

func failed(err error) chan Result {
	ch := make(chan Result, 1)
	ch <- Result{Error: err, CreatedAt: time.Now()}
	close(ch)
	return ch
}

func (q *Q) startWorker() {
	worker := &Worker{
		pool: q,
		jobs: make(chan Job),
	}
	q.metrics.addWorkers(1)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer q.metrics.addWorkers(-1)
		worker.run(q.ctx)
	}()
}

func (q *Q) getCircuitBreaker(job Job) *CircuitBreaker {
	if job.CircuitID == "" || job.CircuitConfig == nil {
		return nil
	}

	q.breakersMu.Lock()
	defer q.breakersMu.Unlock()

	breaker, exists := q.breakers[job.CircuitID]
	if !exists {
		breaker = NewCircuitBreaker(
			job.CircuitConfig.MaxFailures,
			job.CircuitConfig.ResetTimeout,
			job.CircuitConfig.HalfOpenMax,
		)
		q.breakers[job.CircuitID] = breaker
	}

	return breaker
}

func (q *Q) breaker(id string) *CircuitBreaker {
	if id == "" {
		return nil
	}
	q.breakersMu.Lock()
	defer q.breakersMu.Unlock()
	return q.breakers[id]
}

// Close stops the workers and waits for them to exit. Results already
// awaited but not yet produced are never delivered.
func (q *Q) Close() {
	if q == nil {
		return
	}

	q.closeOnce.Do(func() {
		q.cancel()
		q.wg.Wait()
		q.space.Close()
	})
}
