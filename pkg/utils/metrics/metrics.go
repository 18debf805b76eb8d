package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. Collectors are created
// against an injected registerer so tests and multiple instances never fight
// over the global default registry. All record methods are nil-safe, so
// components can run without metrics wired.
type Metrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheShared    prometheus.Counter
	cacheEvictions prometheus.Counter

	evaluations  *prometheus.CounterVec
	evalDuration prometheus.Histogram

	ledgerAppends     prometheus.Counter
	integrityFailures prometheus.Counter
}

// Evaluation result labels
const (
	ResultOK        = "ok"
	ResultFailed    = "failed"
	ResultTimeout   = "timeout"
	ResultCancelled = "cancelled"
)

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "evalcache",
			Name:      "hits_total",
			Help:      "Number of evaluation cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "evalcache",
			Name:      "misses_total",
			Help:      "Number of evaluation cache misses",
		}),
		cacheShared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "evalcache",
			Name:      "shared_total",
			Help:      "Number of callers served by an in-flight computation",
		}),
		cacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "evalcache",
			Name:      "evictions_total",
			Help:      "Number of cache entries removed by invalidation or sweep",
		}),
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "evaluator",
			Name:      "evaluations_total",
			Help:      "Number of framework evaluations by result",
		}, []string{"result"}),
		evalDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "themis",
			Subsystem: "evaluator",
			Name:      "duration_seconds",
			Help:      "Duration of framework evaluations",
			Buckets:   prometheus.DefBuckets,
		}),
		ledgerAppends: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "ledger",
			Name:      "appends_total",
			Help:      "Number of audit entries appended",
		}),
		integrityFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "themis",
			Subsystem: "ledger",
			Name:      "integrity_failures_total",
			Help:      "Number of audit chain verification failures",
		}),
	}
}

func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Metrics) RecordCacheShared() {
	if m == nil {
		return
	}
	m.cacheShared.Inc()
}

func (m *Metrics) RecordCacheEvictions(n int) {
	if m == nil {
		return
	}
	m.cacheEvictions.Add(float64(n))
}

func (m *Metrics) RecordEvaluation(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(result).Inc()
	m.evalDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) RecordLedgerAppend() {
	if m == nil {
		return
	}
	m.ledgerAppends.Inc()
}

func (m *Metrics) RecordIntegrityFailure() {
	if m == nil {
		return
	}
	m.integrityFailures.Inc()
}
