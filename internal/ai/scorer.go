package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

var digitToken = regexp.MustCompile(`\b\d+\b`)

// Scorer rates job titles against a resume. All sessions share one Scorer,
// so its limiter paces requests across the whole pool.
type Scorer struct {
	backends []Backend
	policy   string
	resume   string
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewScorer tries backends in the given order. requestsPerMinute <= 0
// disables pacing.
func NewScorer(backends []Backend, policy, resume string, requestsPerMinute float64, logger *log.Logger) *Scorer {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(requestsPerMinute / 60)
	}
	return &Scorer{
		backends: backends,
		policy:   policy,
		resume:   resume,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.WithPrefix("scorer"),
	}
}

// Score returns one percentage per title, index-aligned with titles.
func (s *Scorer) Score(ctx context.Context, titles []string) ([]int, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for scorer slot: %w", err)
	}

	prompt := buildPrompt(s.policy, s.resume, titles)
	text, backend, err := FirstResponse(ctx, s.backends, prompt, s.logger)
	if err != nil {
		return nil, err
	}

	scores, err := ParsePercentages(text, len(titles))
	if err != nil {
		s.logger.Warn("⚠️ Discarding unusable scores", "backend", backend, "titles", len(titles), "err", err)
		return nil, err
	}
	s.logger.Info("🤖 Scored batch", "backend", backend, "titles", len(titles), "scores", scores)
	return scores, nil
}

// ParsePercentages reads want scores from model text. A JSON array is
// preferred; otherwise every standalone integer token in [0,100] counts.
// Any other count is ErrMisaligned, never a silently shifted result.
func ParsePercentages(text string, want int) ([]int, error) {
	scores, ok := parseJSONArray(text)
	if !ok {
		scores = scanDigits(text)
	}
	if len(scores) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrMisaligned, len(scores), want)
	}
	return scores, nil
}

func parseJSONArray(text string) ([]int, bool) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, false
	}

	var raw []float64
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, false
	}
	scores := make([]int, 0, len(raw))
	for _, v := range raw {
		scores = append(scores, clamp(int(v)))
	}
	return scores, true
}

func scanDigits(text string) []int {
	var scores []int
	for _, tok := range digitToken.FindAllString(text, -1) {
		n, err := strconv.Atoi(tok)
		if err != nil || n > 100 {
			continue
		}
		scores = append(scores, n)
	}
	return scores
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
