package qsplit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

// tableDevice answers each measurement from a fixed table of values.
type tableDevice struct {
	values   map[string]float64
	delay    func(t *Tape) time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (d *tableDevice) Name() string { return "table" }

func (d *tableDevice) Execute(ctx context.Context, t *Tape) (any, error) {
	d.calls.Add(1)
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		peak := d.peak.Load()
		if n <= peak || d.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if d.delay != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.delay(t)):
		}
	}

	out := make([]float64, len(t.Measurements))
	for i, m := range t.Measurements {
		out[i] = d.values[m.Observable.String()]
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func testConfig() *Config {
	cfg := NewConfig()
	cfg.Workers = 3
	cfg.JobTimeout = time.Second
	cfg.SchedulingTimeout = time.Second
	cfg.Retry = RetryConfig{MaxAttempts: 1, Initial: time.Millisecond}
	return cfg
}

func TestRun(t *testing.T) {
	Convey("Given a pool and a device", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cfg := testConfig()
		metrics := NewMetrics(prometheus.NewRegistry(), "test")
		q := NewQ(ctx, cfg, WithMetrics(metrics))

		device := &tableDevice{values: map[string]float64{
			"PauliZ(0) @ PauliZ(1)": 0,
			"PauliX(0)":             -1,
			"PauliZ(1)":             0,
			"PauliX(1) @ PauliX(4)": 0,
			"PauliX(3)":             1,
		}}

		tape := NewTape(
			[]Operation{
				{Name: "Hadamard", Wires: []int{1}},
				{Name: "Hadamard", Wires: []int{0}},
				{Name: "PauliZ", Wires: []int{0}},
				{Name: "Hadamard", Wires: []int{3}},
			},
			expvals("Z0 @ Z1", "X0", "Z1", "X1 @ X4", "X3"),
		)

		Reset(func() {
			q.Close()
			cancel()
		})

		Convey("When running a tape of non-commuting observables", func() {
			out, err := q.Run(ctx, device, tape)

			Convey("Results should come back in measurement order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []any{0.0, -1.0, 0.0, 0.0, 1.0})
			})

			Convey("Each group should have been executed once", func() {
				So(device.calls.Load(), ShouldEqual, 2)
				So(testutil.ToFloat64(metrics.splits), ShouldEqual, 1)
				So(testutil.ToFloat64(metrics.executions.WithLabelValues("success")), ShouldEqual, 2)
				So(metrics.Export()["job_count"], ShouldEqual, int64(2))
			})
		})

		Convey("When the first group finishes last", func() {
			device.delay = func(t *Tape) time.Duration {
				if len(t.Measurements) > 2 {
					return 100 * time.Millisecond
				}
				return 0
			}
			out, err := q.Run(ctx, device, tape)

			Convey("Results should still come back in measurement order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []any{0.0, -1.0, 0.0, 0.0, 1.0})
			})
		})

		Convey("When the tape needs no split", func() {
			single := NewTape(nil, expvals("X0"))
			out, err := q.Run(ctx, device, single)

			Convey("The device's raw output should be returned", func() {
				So(err, ShouldBeNil)
				So(out, ShouldEqual, -1.0)
			})
		})

		Convey("When grouping qubit-wise", func() {
			_, err := q.Run(ctx, device, tape, WithRelation(QubitWiseCommutes))

			Convey("The grouping options should be honoured", func() {
				So(err, ShouldBeNil)
				So(device.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the tape cannot be grouped", func() {
			_, err := q.Run(ctx, device, NewTape(nil, expvals("Z0", "Hadamard(0)")))

			Convey("Nothing should be executed", func() {
				So(errors.Is(err, ErrUnsupportedObservable), ShouldBeTrue)
				So(device.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When no device is given", func() {
			_, err := q.Run(ctx, nil, tape)
			So(errors.Is(err, ErrNoDevice), ShouldBeTrue)
		})

		Convey("When the caller has already cancelled", func() {
			runCtx, stop := context.WithCancel(ctx)
			stop()

			_, err := q.Run(runCtx, device, tape)

			Convey("No sub-tape should be scheduled", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(device.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the caller cancels while the device is busy", func() {
			device.delay = func(*Tape) time.Duration { return time.Minute }
			runCtx, stop := context.WithCancel(ctx)
			time.AfterFunc(50*time.Millisecond, stop)

			_, err := q.Run(runCtx, device, tape)

			Convey("Run should return the cancellation", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given a device that fails", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		cfg := testConfig()

		var mu sync.Mutex
		failures := map[int]int{}
		flaky := DeviceFunc(func(_ context.Context, t *Tape) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			n := len(t.Measurements)
			failures[n]++
			if failures[n] == 1 {
				return nil, errors.New("device busy")
			}
			if n == 1 {
				return 0.0, nil
			}
			return make([]float64, n), nil
		})

		Convey("Without retries the run should fail", func() {
			q := NewQ(ctx, cfg, WithMetrics(NewMetrics(prometheus.NewRegistry(), "test")))
			defer q.Close()

			_, err := q.Run(ctx, flaky, NewTape(nil, expvals("Z0", "X0", "Z0 @ Z1")))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "device busy")
		})

		Convey("With retries the run should succeed", func() {
			cfg.Retry.MaxAttempts = 2
			metrics := NewMetrics(prometheus.NewRegistry(), "test")
			q := NewQ(ctx, cfg, WithMetrics(metrics))
			defer q.Close()

			out, err := q.Run(ctx, flaky, NewTape(nil, expvals("Z0", "X0", "Z0 @ Z1")))
			So(err, ShouldBeNil)
			So(out, ShouldResemble, []any{0.0, 0.0, 0.0})
			So(testutil.ToFloat64(metrics.retries), ShouldEqual, 2)
		})

		Convey("With a circuit breaker the device should be cut off", func() {
			cfg.Breaker = BreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute, HalfOpenMax: 1}
			q := NewQ(ctx, cfg, WithMetrics(NewMetrics(prometheus.NewRegistry(), "test")))
			defer q.Close()

			broken := DeviceFunc(func(context.Context, *Tape) (any, error) {
				return nil, errors.New("device offline")
			})
			tape := NewTape(nil, expvals("Z0", "X0"))

			_, err := q.Run(ctx, broken, tape)
			So(err, ShouldNotBeNil)

			_, err = q.Run(ctx, broken, tape)
			So(errors.Is(err, ErrCircuitOpen), ShouldBeTrue)
		})

		Reset(func() {
			cancel()
		})
	})
}

func TestRunInFlightLimit(t *testing.T) {
	Convey("Given a pool limited to one device call at a time", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := testConfig()
		cfg.MaxInFlight = 1
		q := NewQ(ctx, cfg, WithMetrics(NewMetrics(prometheus.NewRegistry(), "test")))
		defer q.Close()

		device := &tableDevice{
			values: map[string]float64{},
			delay:  func(*Tape) time.Duration { return 20 * time.Millisecond },
		}

		_, err := q.Run(ctx, device, NewTape(nil, expvals("Z0", "X0", "Y0")))

		Convey("The device should never see concurrent calls", func() {
			So(err, ShouldBeNil)
			So(device.calls.Load(), ShouldEqual, 3)
			So(device.peak.Load(), ShouldEqual, 1)
		})
	})
}

func TestRunQueuedBehindSlowDevice(t *testing.T) {
	Convey("Given more groups than workers and a device slower than the scheduling timeout", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := testConfig()
		cfg.Workers = 1
		cfg.SchedulingTimeout = 100 * time.Millisecond
		cfg.JobTimeout = 2 * time.Second
		q := NewQ(ctx, cfg, WithMetrics(NewMetrics(prometheus.NewRegistry(), "test")))
		defer q.Close()

		device := &tableDevice{
			values: map[string]float64{"PauliZ(0)": 1, "PauliX(0)": -1, "PauliY(0)": 0.5},
			delay:  func(*Tape) time.Duration { return 300 * time.Millisecond },
		}

		out, err := q.Run(ctx, device, NewTape(nil, expvals("Z0", "X0", "Y0")))

		Convey("Every group should wait its turn and be recombined", func() {
			So(err, ShouldBeNil)
			So(out, ShouldResemble, []any{1.0, -1.0, 0.5})
			So(device.calls.Load(), ShouldEqual, 3)
		})
	})
}
