package qsplit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/theapemachine/errnie"
)

/*
Run splits tape into commuting groups, executes every sub-tape on device
concurrently through the pool and returns the recombined result in the
original measurement order. With no grouping options the pool config's
relation is used.

Sub-tapes may finish in any order. The first failing sub-tape fails the
run; cancelling ctx abandons the wait and cancels in-flight device calls.
*/
func (q *Q) Run(ctx context.Context, device Device, tape *Tape, opts ...GroupOption) (any, error) {
	if device == nil {
		return nil, ErrNoDevice
	}

	if len(opts) == 0 {
		var err error
		if opts, err = q.config.GroupOptions(); err != nil {
			return nil, err
		}
	}

	tapes, recombine, err := Split(tape, opts...)
	if err != nil {
		return nil, err
	}
	q.metrics.recordSplit(len(tapes))

	var jobOpts []JobOption
	if b := q.config.Breaker; b.MaxFailures > 0 {
		jobOpts = append(jobOpts, func(j *Job) {
			j.CircuitID = deviceName(device)
			j.CircuitConfig = &CircuitBreakerConfig{
				MaxFailures:  b.MaxFailures,
				ResetTimeout: b.ResetTimeout,
				HalfOpenMax:  b.HalfOpenMax,
			}
		})
	}

	run := uuid.New()
	ids := make([]string, len(tapes))
	waits := make([]chan Result, len(tapes))

	for i, t := range tapes {
		ids[i] = fmt.Sprintf("%s/%s/%d", tape.ID, run, i)
		waits[i] = q.schedule(ctx, ids[i], executeOn(ctx, device, t), jobOpts...)
	}
	defer func() {
		for _, id := range ids {
			q.space.Forget(id)
		}
	}()

	results := make([]any, len(tapes))
	for i, ch := range waits {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r := <-ch:
			if r.Error != nil {
				return nil, fmt.Errorf("tape %d of %d: %w", i+1, len(tapes), r.Error)
			}
			results[i] = r.Value
		}
	}

	errnie.Info("executed tape %s as %d tapes", tape.ID, len(tapes))
	return recombine(results)
}

// executeOn binds a sub-tape to the device. The device call is cancelled
// when either the job context or the caller's context ends.
func executeOn(caller context.Context, device Device, t *Tape) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stop := context.AfterFunc(caller, cancel)
		defer stop()

		return device.Execute(ctx, t)
	}
}
