package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Page is the slice of a browser tab the pipeline drives. The playwright
// implementation is below; tests use in-memory fakes.
type Page interface {
	Goto(url string, timeout time.Duration) error
	Reload() error
	Title() (string, error)
	Screenshot(path string) error
	// Texts returns the inner text of every element matching selector.
	Texts(selector string) ([]string, error)
	// Attrs returns attribute name of every element matching selector.
	Attrs(selector, name string) ([]string, error)
	// ClickVisible waits up to timeout for selector to become visible and
	// clicks it. It reports false, with no error, when it never shows up.
	ClickVisible(selector string, timeout time.Duration) (bool, error)
	Scroll(dy float64) error
	ScrollToBottom() error
	Wait(d time.Duration)
	Close() error
}

type pwPage struct {
	page playwright.Page
}

// WrapPage adapts a playwright page.
func WrapPage(p playwright.Page) Page {
	return &pwPage{page: p}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   ms(timeout),
	})
	return err
}

func (p *pwPage) Reload() error {
	_, err := p.page.Reload()
	return err
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

func (p *pwPage) Texts(selector string) ([]string, error) {
	elements, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := el.InnerText()
		if err != nil {
			return nil, fmt.Errorf("inner text of %q: %w", selector, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func (p *pwPage) Attrs(selector, name string) ([]string, error) {
	elements, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	values := make([]string, 0, len(elements))
	for _, el := range elements {
		v, err := el.GetAttribute(name)
		if err != nil {
			return nil, fmt.Errorf("attribute %s of %q: %w", name, selector, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func (p *pwPage) ClickVisible(selector string, timeout time.Duration) (bool, error) {
	locator := p.page.Locator(selector).First()
	err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	})
	if err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return false, nil
		}
		return false, err
	}
	if err := locator.Click(playwright.LocatorClickOptions{Timeout: ms(timeout)}); err != nil {
		return false, err
	}
	return true, nil
}

func (p *pwPage) Scroll(dy float64) error {
	return p.page.Mouse().Wheel(0, dy)
}

func (p *pwPage) ScrollToBottom() error {
	_, err := p.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}

func (p *pwPage) Wait(d time.Duration) {
	p.page.WaitForTimeout(float64(d.Milliseconds()))
}

func (p *pwPage) Close() error {
	return p.page.Close()
}
