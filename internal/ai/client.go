package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrNoResponse means every backend failed or answered empty.
	ErrNoResponse = errors.New("no scoring backend produced a response")
	// ErrMisaligned means the response did not carry one score per title.
	ErrMisaligned = errors.New("score count does not match title count")
)

// Backend is one language-model provider.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// FirstResponse asks each backend in order and returns the first non-empty
// answer unchanged, with the name of the backend that gave it.
func FirstResponse(ctx context.Context, backends []Backend, prompt string, logger *log.Logger) (string, string, error) {
	var errs []error
	for _, b := range backends {
		text, err := b.Complete(ctx, prompt)
		if err != nil {
			logger.Error("⚠️ Backend failed, falling back", "backend", b.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Warn("⚠️ Backend returned an empty response, falling back", "backend", b.Name())
			errs = append(errs, fmt.Errorf("%s: empty response", b.Name()))
			continue
		}
		logger.Debug("🤖 Backend response", "backend", b.Name(), "response", text)
		return text, b.Name(), nil
	}
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	return "", "", errors.Join(append([]error{ErrNoResponse}, errs...)...)
}

// buildPrompt embeds the policy document, the resume and the numbered
// titles, and asks for a bare JSON array so scores line up with titles.
func buildPrompt(policy, resume string, titles []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(policy))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(resume))
	b.WriteString("\n\nJobs Titles:\n")
	for i, t := range titles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, t)
	}
	fmt.Fprintf(&b, "\nRespond with ONLY a JSON array of exactly %d integers between 0 and 100, "+
		"the match percentage of each title in the order given. No other text.", len(titles))
	return b.String()
}
