package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/models"
)

// ErrSessionClosed is returned once a batch failure has closed the session.
var ErrSessionClosed = errors.New("session closed after batch failure")

// Scorer rates a batch of titles, one percentage per title.
type Scorer interface {
	Score(ctx context.Context, titles []string) ([]int, error)
}

// Handoff receives the qualified jobs of one batch together with the session
// they were found in. It owns everything that happens to them afterwards.
type Handoff interface {
	Handoff(ctx context.Context, sess *browser.Session, jobs []models.ScoredJob) error
}

// BatchProcessor is what a walker calls when its batch is full.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, sess *browser.Session, batch []models.Posting) error
}

type Coordinator struct {
	scorer    Scorer
	handoff   Handoff
	threshold int
	stats     *Stats
	logger    *log.Logger
}

func NewCoordinator(scorer Scorer, handoff Handoff, threshold int, stats *Stats, logger *log.Logger) *Coordinator {
	return &Coordinator{
		scorer:    scorer,
		handoff:   handoff,
		threshold: threshold,
		stats:     stats,
		logger:    logger.WithPrefix("coordinator"),
	}
}

// ProcessBatch scores batch, keeps the postings at or above the threshold
// and hands them off. A scoring failure means nothing in the batch
// qualifies. A handoff failure closes sess and returns ErrSessionClosed.
func (c *Coordinator) ProcessBatch(ctx context.Context, sess *browser.Session, batch []models.Posting) error {
	if len(batch) == 0 {
		return nil
	}

	titles := make([]string, len(batch))
	for i, p := range batch {
		titles[i] = p.Title
	}

	start := time.Now()
	scores, err := c.scorer.Score(ctx, titles)
	c.stats.scored(time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("⚠️ Scoring failed, no job in this batch qualifies", "session", sess.Index, "batch", len(batch), "err", err)
		return nil
	}

	jobs := FilterByThreshold(batch, scores, c.threshold)
	c.logger.Info("🎯 Batch scored", "session", sess.Index, "batch", len(batch), "qualified", len(jobs), "threshold", c.threshold)
	if len(jobs) == 0 {
		return nil
	}
	c.stats.qualify(len(jobs))

	if err := c.handoff.Handoff(ctx, sess, jobs); err != nil {
		c.stats.handoffFailed()
		c.logger.Error("❌ Handoff failed, closing session", "session", sess.Index, "err", err)
		if cerr := sess.Close(); cerr != nil {
			c.logger.Warn("⚠️ Error closing session", "session", sess.Index, "err", cerr)
		}
		return fmt.Errorf("%w: %w", ErrSessionClosed, err)
	}
	return nil
}

// FilterByThreshold pairs postings with scores by position and keeps those
// scoring at least threshold, in their original order. Unpaired postings
// are dropped.
func FilterByThreshold(postings []models.Posting, scores []int, threshold int) []models.ScoredJob {
	n := min(len(postings), len(scores))
	var jobs []models.ScoredJob
	for i := 0; i < n; i++ {
		if scores[i] >= threshold {
			jobs = append(jobs, models.ScoredJob{Posting: postings[i], Score: scores[i]})
		}
	}
	return jobs
}
