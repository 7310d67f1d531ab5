package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "eosupdater"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	checkDuration    prom.Histogram
	checkOutcome     *prom.CounterVec
	candidates       *prom.GaugeVec
	skipped          prom.Counter
	triggers         *prom.CounterVec
	retries          prom.Counter
	retriesExhausted prom.Counter
	lastSuccess      prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.checkDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of update checks from query to persisted snapshot",
			Buckets:   prom.DefBuckets,
		})
		pr.checkOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "check_outcomes_total",
			Help:      "Update check outcomes by result",
		}, []string{"outcome"})
		pr.candidates = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "check_builds",
			Help:      "Builds reported by the last determined check",
		}, []string{"kind"})
		pr.skipped = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "feed_entries_skipped_total",
			Help:      "Feed entries dropped for missing or invalid fields",
		})
		pr.triggers = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "check_triggers_total",
			Help:      "Check triggers received by source",
		}, []string{"trigger"})
		pr.retries = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "check_retries_total",
			Help:      "Check retries scheduled after transient failures",
		})
		pr.retriesExhausted = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "check_retry_exhausted_total",
			Help:      "Count of failed checks whose retries were exhausted",
		})
		pr.lastSuccess = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last determined check",
		})
		reg.MustRegister(pr.checkDuration, pr.checkOutcome, pr.candidates, pr.skipped, pr.triggers, pr.retries, pr.retriesExhausted, pr.lastSuccess)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveCheckDuration(d time.Duration) {
	if p == nil || p.checkDuration == nil {
		return
	}
	p.checkDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCheckOutcome(outcome OutcomeLabel) {
	if p == nil || p.checkOutcome == nil {
		return
	}
	p.checkOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetCheckCounts(total, newCount, realCount int) {
	if p == nil || p.candidates == nil {
		return
	}
	p.candidates.WithLabelValues("total").Set(float64(total))
	p.candidates.WithLabelValues("new").Set(float64(newCount))
	p.candidates.WithLabelValues("real").Set(float64(realCount))
}

func (p *PrometheusRecorder) AddSkippedEntries(n int) {
	if p == nil || p.skipped == nil || n <= 0 {
		return
	}
	p.skipped.Add(float64(n))
}

func (p *PrometheusRecorder) IncTrigger(trigger string) {
	if p == nil || p.triggers == nil {
		return
	}
	p.triggers.WithLabelValues(trigger).Inc()
}

func (p *PrometheusRecorder) IncRetry() {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.Inc()
}

func (p *PrometheusRecorder) IncRetryExhausted() {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.Inc()
}

func (p *PrometheusRecorder) SetLastSuccess(t time.Time) {
	if p == nil || p.lastSuccess == nil {
		return
	}
	p.lastSuccess.Set(float64(t.Unix()))
}
