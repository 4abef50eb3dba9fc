package qsplit

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Metrics records what the execution pool does, both as Prometheus
collectors and as an in-memory snapshot that Export returns.

Collectors are registered lazily on first use. Registering on a
registerer that already holds collectors of the same name reuses them, so
several pools may share one registry.
*/
type Metrics struct {
	mu        sync.RWMutex
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	splits      prometheus.Counter
	groups      prometheus.Histogram
	executions  *prometheus.CounterVec
	retries     prometheus.Counter
	jobLatency  prometheus.Histogram
	rejected    *prometheus.CounterVec
	workerGauge prometheus.Gauge

	WorkerCount        int
	JobCount           int64
	FailedJobs         int64
	SchedulingFailures int64
	Splits             int64
	TotalJobTime       time.Duration
	AverageJobLatency  time.Duration
}

/*
NewMetrics creates a metrics recorder.

Parameters:
  - reg: Prometheus registerer (prometheus.DefaultRegisterer if nil)
  - namespace: metric namespace ("qsplit" if empty)
*/
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "qsplit"
	}
	return &Metrics{reg: reg, namespace: namespace}
}

func (m *Metrics) ensureRegistered() {
	m.once.Do(func() {
		m.splits = register(m.reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Name:      "splits_total",
			Help:      "Tapes whose measurements were grouped for execution.",
		}))
		m.groups = register(m.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Name:      "groups_per_split",
			Help:      "Number of commuting groups produced per tape.",
			Buckets:   prometheus.LinearBuckets(1, 1, 8),
		}))
		m.executions = register(m.reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "pool",
			Name:      "executions_total",
			Help:      "Sub-tape executions by result (success, failure).",
		}, []string{"result"}))
		m.retries = register(m.reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "pool",
			Name:      "retries_total",
			Help:      "Device calls retried after a failure.",
		}))
		m.jobLatency = register(m.reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "pool",
			Name:      "job_latency_seconds",
			Help:      "Time from scheduling a sub-tape to storing its result.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
		}))
		m.rejected = register(m.reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "pool",
			Name:      "rejected_total",
			Help:      "Jobs rejected before execution by reason (timeout, circuit_open).",
		}, []string{"reason"}))
		m.workerGauge = register(m.reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: "pool",
			Name:      "workers",
			Help:      "Running pool workers.",
		}))
	})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		log.Printf("metrics registration failed: %v", err)
	}
	return c
}

func (m *Metrics) recordSplit(groups int) {
	m.ensureRegistered()
	m.splits.Inc()
	m.groups.Observe(float64(groups))

	m.mu.Lock()
	m.Splits++
	m.mu.Unlock()
}

func (m *Metrics) recordJobExecution(startTime time.Time, success bool) {
	m.ensureRegistered()
	duration := time.Since(startTime)

	result := "success"
	if !success {
		result = "failure"
	}
	m.executions.WithLabelValues(result).Inc()
	m.jobLatency.Observe(duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalJobTime += duration
	m.JobCount++
	if !success {
		m.FailedJobs++
	}
	m.AverageJobLatency = m.TotalJobTime / time.Duration(m.JobCount)
}

func (m *Metrics) recordRetry() {
	m.ensureRegistered()
	m.retries.Inc()
}

func (m *Metrics) recordRejected(reason string) {
	m.ensureRegistered()
	m.rejected.WithLabelValues(reason).Inc()

	m.mu.Lock()
	m.SchedulingFailures++
	m.mu.Unlock()
}

func (m *Metrics) addWorkers(n int) {
	m.ensureRegistered()
	m.workerGauge.Add(float64(n))

	m.mu.Lock()
	m.WorkerCount += n
	m.mu.Unlock()
}

// Export returns a snapshot of the in-memory counters.
func (m *Metrics) Export() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := 0.0
	if m.JobCount > 0 {
		successRate = float64(m.JobCount-m.FailedJobs) / float64(m.JobCount)
	}

	return map[string]any{
		"worker_count":        m.WorkerCount,
		"job_count":           m.JobCount,
		"failed_jobs":         m.FailedJobs,
		"scheduling_failures": m.SchedulingFailures,
		"splits":              m.Splits,
		"success_rate":        successRate,
		"avg_latency":         m.AverageJobLatency.Milliseconds(),
	}
}
