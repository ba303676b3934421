package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/playwright-community/playwright-go"
)

// PlaywrightManager owns the driver and the one shared Chromium instance.
// Every session gets its own BrowserContext from it.
type PlaywrightManager struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	identities *Identities
	logger     *log.Logger
}

func NewPlaywright(headless bool, identities *Identities, logger *log.Logger) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}

	return &PlaywrightManager{
		pw:         pw,
		browser:    browser,
		identities: identities,
		logger:     logger,
	}, nil
}

// NewSession builds an isolated context for session index: proxy,
// fingerprint script and account cookies picked round-robin. When the
// indexed account's cookies are rejected a random account is used instead.
func (pm *PlaywrightManager) NewSession(_ context.Context, index int, listingURL, output string) (*Session, error) {
	id := pm.identities.For(index)

	opts := playwright.BrowserNewContextOptions{}
	if id.Proxy != nil {
		opts.Proxy = id.Proxy.toPlaywright()
	}

	bctx, err := pm.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	fail := func(err error) (*Session, error) {
		bctx.Close()
		return nil, err
	}

	if id.Fingerprint != "" {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(id.Fingerprint)}); err != nil {
			return fail(fmt.Errorf("add fingerprint script: %w", err))
		}
	}

	if len(id.Cookies) > 0 {
		if err := bctx.AddCookies(id.Cookies); err != nil {
			pm.logger.Warn("⚠️ Account cookies rejected, using a random account", "session", index, "err", err)
			if err := bctx.AddCookies(pm.identities.RandomAccount()); err != nil {
				return fail(fmt.Errorf("add fallback cookies: %w", err))
			}
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		return fail(fmt.Errorf("create page: %w", err))
	}

	return NewSession(index, listingURL, output, WrapPage(page), func() error {
		return bctx.Close()
	}), nil
}

func (pm *PlaywrightManager) Close() error {
	var errs []error
	if pm.browser != nil {
		errs = append(errs, pm.browser.Close())
	}
	if pm.pw != nil {
		errs = append(errs, pm.pw.Stop())
	}
	return errors.Join(errs...)
}

// Session is one isolated browser context bound to one listing URL. It is
// owned by exactly one worker and closed once, whoever closes it first.
type Session struct {
	Index      int
	ListingURL string
	Output     string
	Page       Page

	closeCtx  func() error
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

func NewSession(index int, listingURL, output string, page Page, closeCtx func() error) *Session {
	return &Session{
		Index:      index,
		ListingURL: listingURL,
		Output:     output,
		Page:       page,
		closeCtx:   closeCtx,
		closed:     make(chan struct{}),
	}
}

// Close closes the page and then the browser context.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.Page != nil {
			errs = append(errs, s.Page.Close())
		}
		if s.closeCtx != nil {
			errs = append(errs, s.closeCtx())
		}
		s.closeErr = errors.Join(errs...)
		close(s.closed)
	})
	return s.closeErr
}

func (s *Session) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
