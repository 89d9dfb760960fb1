package blocksync

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "blocksync"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of range batches processed, labelled by result.
	BatchesProcessed metrics.Counter
	// Number of blocks newly imported into the chain.
	BlocksImported metrics.Counter
	// Number of batches currently importing.
	BatchesInFlight metrics.Gauge
	// Number of parent lookups that could not be imported.
	ParentLookupsFailed metrics.Counter
	// Number of fork choice runs, labelled by whether they failed.
	ForkChoiceRuns metrics.Counter
	// Number of messages to the sync manager that could not be delivered.
	DroppedMessages metrics.Counter
	// Time taken to import one batch, in seconds.
	BatchImportTime metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	withLabel := func(name string) []string {
		return append(append(make([]string, 0, len(labels)+1), labels...), name)
	}
	return &Metrics{
		BatchesProcessed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_processed",
			Help:      "Number of range batches processed.",
		}, withLabel("result")).With(labelsAndValues...),
		BlocksImported: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "blocks_imported",
			Help:      "Number of blocks newly imported into the chain.",
		}, labels).With(labelsAndValues...),
		BatchesInFlight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_in_flight",
			Help:      "Number of batches currently importing.",
		}, labels).With(labelsAndValues...),
		ParentLookupsFailed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "parent_lookups_failed",
			Help:      "Number of parent lookups that could not be imported.",
		}, labels).With(labelsAndValues...),
		ForkChoiceRuns: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "fork_choice_runs",
			Help:      "Number of fork choice runs triggered by block import.",
		}, withLabel("failed")).With(labelsAndValues...),
		DroppedMessages: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "dropped_messages",
			Help:      "Number of messages to the sync manager that could not be delivered.",
		}, labels).With(labelsAndValues...),
		BatchImportTime: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_import_time",
			Help:      "Time taken to import one batch, in seconds.",
			Buckets:   stdprometheus.ExponentialBuckets(0.001, 4, 8),
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		BatchesProcessed:    discard.NewCounter(),
		BlocksImported:      discard.NewCounter(),
		BatchesInFlight:     discard.NewGauge(),
		ParentLookupsFailed: discard.NewCounter(),
		ForkChoiceRuns:      discard.NewCounter(),
		DroppedMessages:     discard.NewCounter(),
		BatchImportTime:     discard.NewHistogram(),
	}
}
