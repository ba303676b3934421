package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"go-job-acquirer/internal/browser"
	"go-job-acquirer/internal/config"
)

// SessionFactory builds isolated sessions and owns the shared browser.
// *browser.PlaywrightManager implements it.
type SessionFactory interface {
	NewSession(ctx context.Context, index int, listingURL, output string) (*browser.Session, error)
	Close() error
}

// Pool walks every listing in its own session, at most maxContexts at a
// time. A failed session is logged and never stops its siblings.
type Pool struct {
	factory     SessionFactory
	maxContexts int
	deps        Deps
	cfg         WalkerConfig
	logger      *log.Logger
}

func NewPool(factory SessionFactory, maxContexts int, deps Deps, cfg WalkerConfig) *Pool {
	if maxContexts < 1 {
		maxContexts = 1
	}
	return &Pool{
		factory:     factory,
		maxContexts: maxContexts,
		deps:        deps,
		cfg:         cfg,
		logger:      deps.Logger.WithPrefix("pool"),
	}
}

// Run blocks until every listing is walked or ctx is done, then closes the
// shared browser. It only returns an error for cancellation.
func (p *Pool) Run(ctx context.Context, listings []config.Listing) error {
	defer func() {
		if err := p.factory.Close(); err != nil {
			p.logger.Warn("⚠️ Error closing browser", "err", err)
		}
	}()

	p.logger.Info("🚀 Starting pool", "listings", len(listings), "max_contexts", p.maxContexts)

	var g errgroup.Group
	g.SetLimit(p.maxContexts)

	for i, listing := range listings {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := p.runOne(ctx, i, listing); err != nil {
				p.logger.Error("❌ Session failed", "session", i, "url", listing.URL, "err", err)
			}
			return nil // best-effort: don't cancel siblings
		})
	}
	_ = g.Wait()

	snap := p.deps.Stats.Snapshot()
	p.logger.Info("✅ Pool finished", "sessions_done", snap.SessionsDone, "sessions_failed", snap.SessionsFailed, "qualified", snap.Qualified)
	return ctx.Err()
}

func (p *Pool) runOne(ctx context.Context, index int, listing config.Listing) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.deps.Stats.sessionStarted()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in session: %v\n%s", r, debug.Stack())
		}
		p.deps.Stats.sessionEnded(err)
	}()

	sess, err := p.factory.NewSession(ctx, index, listing.URL, listing.Output)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	// closes an orphaned session if the walker panics before its own teardown
	defer sess.Close()

	return NewWalker(sess, p.deps, p.cfg).Run(ctx)
}
