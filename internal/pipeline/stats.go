package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"go-job-acquirer/internal/metrics"
)

// Stats counts what a run did. It feeds the /stats endpoint, the final log
// line and, when set, the Prometheus collectors.
type Stats struct {
	started time.Time
	m       *metrics.Metrics

	sessionsActive atomic.Int64
	sessionsDone   atomic.Int64
	sessionsFailed atomic.Int64
	pages          atomic.Int64
	seen           atomic.Int64
	accepted       atomic.Int64
	batches        atomic.Int64
	scoreFailures  atomic.Int64
	qualified      atomic.Int64
	handoffErrors  atomic.Int64

	mu      sync.Mutex
	skipped map[SkipReason]int64
}

// NewStats returns empty counters. m may be nil.
func NewStats(m *metrics.Metrics) *Stats {
	return &Stats{
		started: time.Now(),
		m:       m,
		skipped: make(map[SkipReason]int64),
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Uptime         string               `json:"uptime"`
	SessionsActive int64                `json:"sessions_active"`
	SessionsDone   int64                `json:"sessions_done"`
	SessionsFailed int64                `json:"sessions_failed"`
	Pages          int64                `json:"pages"`
	Seen           int64                `json:"postings_seen"`
	Accepted       int64                `json:"postings_accepted"`
	Skipped        map[SkipReason]int64 `json:"postings_skipped"`
	Batches        int64                `json:"batches"`
	ScoreFailures  int64                `json:"score_failures"`
	Qualified      int64                `json:"qualified"`
	HandoffErrors  int64                `json:"handoff_errors"`
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	skipped := make(map[SkipReason]int64, len(s.skipped))
	for k, v := range s.skipped {
		skipped[k] = v
	}
	s.mu.Unlock()

	return Snapshot{
		Uptime:         time.Since(s.started).Round(time.Second).String(),
		SessionsActive: s.sessionsActive.Load(),
		SessionsDone:   s.sessionsDone.Load(),
		SessionsFailed: s.sessionsFailed.Load(),
		Pages:          s.pages.Load(),
		Seen:           s.seen.Load(),
		Accepted:       s.accepted.Load(),
		Skipped:        skipped,
		Batches:        s.batches.Load(),
		ScoreFailures:  s.scoreFailures.Load(),
		Qualified:      s.qualified.Load(),
		HandoffErrors:  s.handoffErrors.Load(),
	}
}

func (s *Stats) sessionStarted() {
	s.sessionsActive.Add(1)
	if s.m != nil {
		s.m.SessionsActive.Inc()
	}
}

func (s *Stats) sessionEnded(err error) {
	s.sessionsActive.Add(-1)
	result := "ok"
	if err != nil {
		s.sessionsFailed.Add(1)
		result = "failed"
	} else {
		s.sessionsDone.Add(1)
	}
	if s.m != nil {
		s.m.SessionsActive.Dec()
		s.m.SessionsFinished.WithLabelValues(result).Inc()
	}
}

func (s *Stats) page(rows int) {
	s.pages.Add(1)
	s.seen.Add(int64(rows))
	if s.m != nil {
		s.m.PagesWalked.Inc()
		s.m.PostingsSeen.Add(float64(rows))
	}
}

func (s *Stats) accept() {
	s.accepted.Add(1)
}

func (s *Stats) skip(reason SkipReason) {
	s.mu.Lock()
	s.skipped[reason]++
	s.mu.Unlock()
	if s.m != nil {
		s.m.PostingsSkipped.WithLabelValues(string(reason)).Inc()
	}
}

func (s *Stats) scored(d time.Duration, err error) {
	s.batches.Add(1)
	outcome := "ok"
	if err != nil {
		s.scoreFailures.Add(1)
		outcome = "failed"
	}
	if s.m != nil {
		s.m.BatchesScored.WithLabelValues(outcome).Inc()
		s.m.ScoreDuration.Observe(d.Seconds())
	}
}

func (s *Stats) qualify(n int) {
	s.qualified.Add(int64(n))
	if s.m != nil {
		s.m.JobsQualified.Add(float64(n))
	}
}

func (s *Stats) handoffFailed() {
	s.handoffErrors.Add(1)
	if s.m != nil {
		s.m.HandoffFailures.Inc()
	}
}
