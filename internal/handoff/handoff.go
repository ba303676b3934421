// Package handoff delivers the qualified jobs of each batch to their sinks.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/models"
	"go-job-acquirer/internal/output"
	"go-job-acquirer/internal/pipeline"
)

// CSV appends qualified jobs to the output file of the session's listing.
type CSV struct {
	dir        string
	leaveBlank int
	now        func() time.Time
	logger     *log.Logger
}

func NewCSV(dir string, leaveBlank int, logger *log.Logger) *CSV {
	return &CSV{
		dir:        dir,
		leaveBlank: leaveBlank,
		now:        time.Now,
		logger:     logger.WithPrefix("csv"),
	}
}

func (c *CSV) Handoff(_ context.Context, sess *browser.Session, jobs []models.ScoredJob) error {
	path := filepath.Join(c.dir, sess.Output)
	date := c.now()

	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		rows[i] = output.Row(c.leaveBlank, date, j.Link, j.Score, j.Title, j.Company)
	}
	if err := output.AppendRows(path, rows); err != nil {
		return fmt.Errorf("csv handoff: %w", err)
	}
	c.logger.Info("💾 Saved qualified jobs", "file", path, "jobs", len(jobs))
	return nil
}

// Fanout sends every batch to all its sinks. A required sink failing fails
// the handoff; an optional one is only logged.
type Fanout struct {
	required []pipeline.Handoff
	optional []pipeline.Handoff
	logger   *log.Logger
}

func NewFanout(logger *log.Logger, required ...pipeline.Handoff) *Fanout {
	return &Fanout{required: required, logger: logger.WithPrefix("handoff")}
}

// WithOptional adds sinks whose failures must not stop a session, such as
// notifications.
func (f *Fanout) WithOptional(sinks ...pipeline.Handoff) *Fanout {
	f.optional = append(f.optional, sinks...)
	return f
}

func (f *Fanout) Handoff(ctx context.Context, sess *browser.Session, jobs []models.ScoredJob) error {
	var errs []error
	for _, h := range f.required {
		if err := h.Handoff(ctx, sess, jobs); err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range f.optional {
		if err := h.Handoff(ctx, sess, jobs); err != nil {
			f.logger.Warn("⚠️ Optional handoff failed", "session", sess.Index, "err", err)
		}
	}
	return errors.Join(errs...)
}
