package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/config"
	"go-job-acquirer/internal/dedup"
	"go-job-acquirer/internal/models"
	"go-job-acquirer/internal/netcheck"
	"go-job-acquirer/internal/retry"
)

const (
	navigateAttempts = 3
	termsTimeout     = 5 * time.Second
)

// Gate blocks while the network is down and refreshes r once it is back.
// *netcheck.Monitor implements it.
type Gate interface {
	Gate(ctx context.Context, r netcheck.Refresher) error
}

// WalkerConfig holds the per-walk knobs taken from the run config.
type WalkerConfig struct {
	Selectors   config.Selectors
	Timeouts    config.Timeouts
	BatchSize   int
	RandomSleep time.Duration
}

// Deps are the collaborators shared by every walker of a run.
type Deps struct {
	State       *SharedState
	Coordinator BatchProcessor
	Gate        Gate
	Solver      browser.ChallengeSolver
	Shots       *browser.ScreenShotDebugger
	Stats       *Stats
	Logger      *log.Logger

	// Humanize runs before every extraction; browser.Humanize when nil.
	Humanize func(ctx context.Context, page browser.Page) error
}

// Walker paginates one listing in one session and feeds accepted postings
// to the coordinator in batches.
type Walker struct {
	sess   *browser.Session
	deps   Deps
	cfg    WalkerConfig
	logger *log.Logger

	pending []models.Posting
	// every extracted link since the last flush, filtered or not
	raw []string
}

func NewWalker(sess *browser.Session, deps Deps, cfg WalkerConfig) *Walker {
	if deps.Humanize == nil {
		extra := cfg.RandomSleep
		deps.Humanize = func(ctx context.Context, page browser.Page) error {
			return browser.Humanize(ctx, page, browser.RandomDuration(0, extra))
		}
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Walker{
		sess:   sess,
		deps:   deps,
		cfg:    cfg,
		logger: deps.Logger.WithPrefix(fmt.Sprintf("walker-%d", sess.Index)),
	}
}

// Run walks the listing to the last page. The session is always closed on
// return; a close failure is logged, never returned.
func (w *Walker) Run(ctx context.Context) error {
	defer w.teardown()

	w.logger.Info("🚀 Starting listing", "url", w.sess.ListingURL)
	if err := w.navigate(ctx); err != nil {
		return err
	}

	if err := w.deps.Solver.DetectAndBypass(ctx, w.sess.Page); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Warn("⚠️ Challenge bypass failed, continuing", "err", err)
	}

	if err := w.pageLoop(ctx); err != nil {
		return err
	}

	// drain
	if err := w.flush(ctx); err != nil {
		return err
	}
	w.logger.Info("🏁 Listing finished", "url", w.sess.ListingURL)
	return nil
}

// navigate loads the listing with bounded retries. When every attempt
// fails the walk proceeds anyway and lets extraction decide.
func (w *Walker) navigate(ctx context.Context) error {
	page := w.sess.Page
	policy := retry.Policy{MaxAttempts: navigateAttempts, Delay: w.cfg.Timeouts.RetryDelay}

	err := retry.Do(ctx, policy, func(int) error {
		return page.Goto(w.sess.ListingURL, w.cfg.Timeouts.Navigate)
	}, func(attempt int, err error) {
		w.logger.Warn("⚠️ Navigation failed", "attempt", attempt, "of", navigateAttempts, "err", err)
		w.deps.Shots.CaptureAndLog(page, fmt.Sprintf("goto_failed_%d_%d", w.sess.Index, attempt), "Navigation failed")
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Error("❌ Could not load listing, proceeding anyway", "url", w.sess.ListingURL, "err", err)
	}

	if w.cfg.Selectors.AcceptTerms != "" {
		clicked, err := page.ClickVisible(w.cfg.Selectors.AcceptTerms, w.termsTimeout())
		switch {
		case err != nil:
			w.logger.Debug("terms banner click failed", "err", err)
		case clicked:
			w.logger.Info("🍪 Accepted terms banner")
		}
	}
	return nil
}

func (w *Walker) pageLoop(ctx context.Context) error {
	page := w.sess.Page

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.deps.Gate.Gate(ctx, page); err != nil {
			return err
		}

		if err := w.deps.Humanize(ctx, page); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Debug("humanize step failed", "err", err)
		}

		postings, err := w.extract()
		if err != nil {
			w.logger.Warn("⚠️ Extraction failed, ending pagination", "page", pageNum, "err", err)
			return nil
		}
		w.deps.Stats.page(len(postings))
		w.logger.Info("📄 Page extracted", "page", pageNum, "postings", len(postings))

		for _, p := range postings {
			if p.Link != "" {
				w.raw = append(w.raw, p.Link)
			}
			reason, ok := w.deps.State.Accept(p)
			if !ok {
				w.deps.Stats.skip(reason)
				if reason == SkipNoID {
					w.logger.Warn("⚠️ Posting without job id, skipping", "link", p.Link)
				} else {
					w.logger.Debug("skip", "reason", reason, "title", p.Title, "company", p.Company)
				}
				continue
			}
			w.deps.Stats.accept()
			w.pending = append(w.pending, p)

			if len(w.pending) >= w.cfg.BatchSize {
				if err := w.flush(ctx); err != nil {
					return err
				}
			}
		}

		next := fmt.Sprintf(w.cfg.Selectors.Pagination, pageNum+1)
		clicked, err := page.ClickVisible(next, w.cfg.Timeouts.Pagination)
		if err != nil || !clicked {
			w.deps.Shots.CaptureAndLog(page, fmt.Sprintf("last_page_%d", w.sess.Index), "No next page found, pagination finished")
			if err != nil {
				w.logger.Debug("pagination click failed", "err", err)
			}
			return nil
		}
	}
}

// flush sends the pending batch to the coordinator, then records every
// link extracted since the last flush in the ledger file, skipped rows
// included, whatever the outcome.
func (w *Walker) flush(ctx context.Context) error {
	var err error
	if len(w.pending) > 0 {
		batch := w.pending
		w.pending = nil
		err = w.deps.Coordinator.ProcessBatch(ctx, w.sess, batch)
	}

	if len(w.raw) > 0 {
		w.deps.State.Ledger.Append(w.raw)
		w.raw = nil
	}
	return err
}

// extract runs the three column queries concurrently and zips them by
// position. Any query failure fails the whole page.
func (w *Walker) extract() ([]models.Posting, error) {
	page := w.sess.Page
	sel := w.cfg.Selectors

	var titles, companies, links []string
	var g errgroup.Group
	g.Go(func() (err error) {
		titles, err = page.Texts(sel.Title)
		return err
	})
	g.Go(func() (err error) {
		companies, err = page.Texts(sel.Company)
		return err
	})
	g.Go(func() (err error) {
		links, err = page.Attrs(sel.Link, "href")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := min(len(titles), len(companies), len(links))
	if n != len(titles) || n != len(companies) || n != len(links) {
		w.logger.Warn("⚠️ Column counts differ, zipping the shortest", "titles", len(titles), "companies", len(companies), "links", len(links))
	}
	if len(titles)+len(companies)+len(links) == 0 {
		return nil, errors.New("no posting rows on page")
	}

	base, _ := url.Parse(w.sess.ListingURL)
	postings := make([]models.Posting, n)
	for i := 0; i < n; i++ {
		link := absolute(base, strings.TrimSpace(links[i]))
		postings[i] = models.Posting{
			ID:      dedup.JobID(link),
			Title:   strings.TrimSpace(titles[i]),
			Company: strings.TrimSpace(companies[i]),
			Link:    link,
		}
	}
	return postings, nil
}

func absolute(base *url.URL, href string) string {
	if base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func (w *Walker) teardown() {
	if err := w.sess.Close(); err != nil {
		w.logger.Warn("⚠️ Error closing session", "err", err)
	}
}

func (w *Walker) termsTimeout() time.Duration {
	if w.cfg.Timeouts.Selector > 0 {
		return w.cfg.Timeouts.Selector
	}
	return termsTimeout
}
