// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Row is one posting row as the page shows it.
type Row struct {
	Title   string
	Company string
	Link    string
}

// Selectors tells the fake which queries return which column.
type Selectors struct {
	Title       string
	Company     string
	Link        string
	Pagination  string
	AcceptTerms string
}

// Page serves a fixed list of result pages. Clicking the pagination control
// for the next ordinal moves to the next result page.
type Page struct {
	mu sync.Mutex

	Sel     Selectors
	Results [][]Row

	// Titles are returned by Title in order; the last one repeats.
	Titles []string
	// GotoErrs fail Goto calls in order; nil entries succeed.
	GotoErrs []error
	// QueryErr, when set, fails every Texts and Attrs call.
	QueryErr error
	// TermsVisible makes the accept-terms button clickable.
	TermsVisible bool

	current     int
	titleCalls  int
	gotoCalls   int
	reloads     int
	clicks      []string
	screenshots []string
	closed      bool
}

func New(sel Selectors, results ...[]Row) *Page {
	return &Page{Sel: sel, Results: results}
}

func (p *Page) Goto(url string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.gotoCalls
	p.gotoCalls++
	if i < len(p.GotoErrs) {
		return p.GotoErrs[i]
	}
	return nil
}

func (p *Page) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reloads++
	return nil
}

func (p *Page) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Titles) == 0 {
		return "Jobs", nil
	}
	i := p.titleCalls
	if i >= len(p.Titles) {
		i = len(p.Titles) - 1
	}
	p.titleCalls++
	return p.Titles[i], nil
}

// Screenshot writes an empty file so callers that collect screenshots find it.
func (p *Page) Screenshot(path string) error {
	p.mu.Lock()
	p.screenshots = append(p.screenshots, path)
	p.mu.Unlock()
	return os.WriteFile(path, nil, 0644)
}

func (p *Page) column(selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.QueryErr != nil {
		return nil, p.QueryErr
	}
	if p.current >= len(p.Results) {
		return nil, nil
	}
	rows := p.Results[p.current]
	out := make([]string, len(rows))
	for i, r := range rows {
		switch selector {
		case p.Sel.Title:
			out[i] = r.Title
		case p.Sel.Company:
			out[i] = r.Company
		case p.Sel.Link:
			out[i] = r.Link
		default:
			return nil, fmt.Errorf("unknown selector %q", selector)
		}
	}
	return out, nil
}

func (p *Page) Texts(selector string) ([]string, error) {
	return p.column(selector)
}

func (p *Page) Attrs(selector, name string) ([]string, error) {
	if name != "href" {
		return nil, errors.New("only href is served")
	}
	return p.column(selector)
}

func (p *Page) ClickVisible(selector string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)

	if selector == p.Sel.AcceptTerms {
		return p.TermsVisible, nil
	}
	// Ordinals are 1-based: page current+1 is showing, current+2 is next.
	if p.Sel.Pagination != "" && selector == fmt.Sprintf(p.Sel.Pagination, p.current+2) && p.current+1 < len(p.Results) {
		p.current++
		return true, nil
	}
	return false, nil
}

func (p *Page) Scroll(dy float64) error { return nil }

func (p *Page) ScrollToBottom() error { return nil }

func (p *Page) Wait(d time.Duration) {}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Page) Reloads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloads
}

func (p *Page) GotoCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gotoCalls
}

func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

func (p *Page) Screenshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.screenshots...)
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
