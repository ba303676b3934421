package browser

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// ErrChallenge means an anti-bot interstitial was still up after waiting.
var ErrChallenge = errors.New("challenge page still present")

// ChallengeSolver is the best-effort CAPTCHA bypass step. Errors are logged
// by the caller and never stop a walk.
type ChallengeSolver interface {
	DetectAndBypass(ctx context.Context, page Page) error
}

var challengeTitles = []string{"Attention Required", "Just a moment", "Cloudflare"}

// TitleChallengeSolver recognises Cloudflare-style interstitials by page
// title and waits for them to clear on their own.
type TitleChallengeSolver struct {
	wait   time.Duration
	shots  *ScreenShotDebugger
	logger *log.Logger
}

func NewTitleChallengeSolver(wait time.Duration, shots *ScreenShotDebugger, logger *log.Logger) *TitleChallengeSolver {
	return &TitleChallengeSolver{wait: wait, shots: shots, logger: logger}
}

func isChallengeTitle(title string) bool {
	for _, t := range challengeTitles {
		if strings.Contains(title, t) {
			return true
		}
	}
	return false
}

func (s *TitleChallengeSolver) DetectAndBypass(ctx context.Context, page Page) error {
	title, err := page.Title()
	if err != nil {
		return err
	}
	if !isChallengeTitle(title) {
		return nil
	}

	s.logger.Warn("🛡️ Challenge detected, waiting", "title", title, "wait", s.wait)
	if err := Sleep(ctx, s.wait); err != nil {
		return err
	}

	title, err = page.Title()
	if err != nil {
		return err
	}
	if isChallengeTitle(title) {
		s.shots.CaptureAndLog(page, "challenge", "🚨 Challenge still present")
		return ErrChallenge
	}
	s.logger.Info("✅ Challenge cleared")
	return nil
}
