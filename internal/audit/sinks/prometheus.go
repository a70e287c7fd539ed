package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seoforge/keyword-engine/internal/audit"
)

// PrometheusSink exports audit-derived metrics via Prometheus. It owns all
// collectors for batch starts/completions and per-stage fault counters.
type PrometheusSink struct {
	batchesStarted   *prometheus.CounterVec
	batchesCompleted *prometheus.CounterVec
	batchRuntime     *prometheus.HistogramVec
	itemOutcomes     *prometheus.CounterVec
	itemFaults       *prometheus.CounterVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		batchesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyword_audit_batches_started_total",
			Help: "Total batches started, partitioned by stage.",
		}, []string{"stage"}),
		batchesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyword_audit_batches_completed_total",
			Help: "Total batches completed, partitioned by stage.",
		}, []string{"stage"}),
		batchRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "keyword_audit_batch_runtime_seconds",
			Help:    "Wall time per completed batch.",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		}, []string{"stage"}),
		itemOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyword_audit_items_total",
			Help: "Item outcomes per completed batch, partitioned by stage and outcome.",
		}, []string{"stage", "outcome"}),
		itemFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "keyword_audit_item_faults_total",
			Help: "Per-item faults, partitioned by stage and fault kind.",
		}, []string{"stage", "fault"}),
	}
	for _, collector := range []prometheus.Collector{
		s.batchesStarted,
		s.batchesCompleted,
		s.batchRuntime,
		s.itemOutcomes,
		s.itemFaults,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register audit collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []audit.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt audit.Event) {
	switch evt.Kind {
	case audit.KindBatchStart:
		s.batchesStarted.WithLabelValues(evt.Stage).Inc()
	case audit.KindBatchDone:
		s.batchesCompleted.WithLabelValues(evt.Stage).Inc()
		if evt.Dur > 0 {
			s.batchRuntime.WithLabelValues(evt.Stage).Observe(evt.Dur.Seconds())
		}
		s.itemOutcomes.WithLabelValues(evt.Stage, "accepted").Add(float64(evt.Counts.Accepted))
		s.itemOutcomes.WithLabelValues(evt.Stage, "rejected").Add(float64(evt.Counts.Rejected))
		s.itemOutcomes.WithLabelValues(evt.Stage, "errored").Add(float64(evt.Counts.Errored))
	case audit.KindItemFault:
		fault := string(evt.Fault)
		if fault == "" {
			fault = "unknown"
		}
		s.itemFaults.WithLabelValues(evt.Stage, fault).Inc()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
