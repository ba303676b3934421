// Package metrics holds the Prometheus collectors of a run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lister"

type Metrics struct {
	SessionsActive   prometheus.Gauge
	SessionsFinished *prometheus.CounterVec
	PagesWalked      prometheus.Counter
	PostingsSeen     prometheus.Counter
	PostingsSkipped  *prometheus.CounterVec
	BatchesScored    *prometheus.CounterVec
	ScoreDuration    prometheus.Histogram
	JobsQualified    prometheus.Counter
	HandoffFailures  prometheus.Counter
}

// New creates and registers the collectors on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions currently walking a listing",
		}),
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Sessions that ended, by result",
		}, []string{"result"}),
		PagesWalked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_walked_total",
			Help:      "Listing pages extracted",
		}),
		PostingsSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_seen_total",
			Help:      "Posting rows extracted from listing pages",
		}),
		PostingsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_skipped_total",
			Help:      "Posting rows dropped by a local filter, by reason",
		}, []string{"reason"}),
		BatchesScored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_scored_total",
			Help:      "Batches sent to the scorer, by outcome",
		}, []string{"outcome"}),
		ScoreDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_duration_seconds",
			Help:      "Time to score one batch",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		JobsQualified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_qualified_total",
			Help:      "Jobs at or above the matching threshold",
		}),
		HandoffFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoff_failures_total",
			Help:      "Qualified batches the handoff collaborator rejected",
		}),
	}
}
