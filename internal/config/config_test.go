package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("GEMINI_API_KEY", "")

	path := writeConfig(t, `
listings:
  - url: https://www.indeed.com/jobs?q=golang
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxContexts)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 8000, cfg.Ledger.Keep)
	assert.Equal(t, 10*time.Second, cfg.Connectivity.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Connectivity.Backoff)
	assert.Len(t, cfg.Connectivity.Endpoints, 4)
	assert.Equal(t, "listing_1.csv", cfg.Listings[0].Output)
	assert.Equal(t, 587, cfg.Report.Port)
	assert.Equal(t, 70, cfg.MatchingPercentage)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "groq-key", cfg.AI.GroqAPIKey)
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("EMAIL_SENDER", "bot@example.com")

	path := writeConfig(t, `
listings:
  - url: https://a.example/jobs
    output: a.csv
  - url: https://b.example/jobs
    output: a.csv
max_contexts: 2
batch_size: 4
per_company_jobs: 3
headless: false
leave_blank_cols: 3
timeouts:
  navigate: 45s
report:
  sender: ignored@example.com
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxContexts)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 3, cfg.PerCompanyJobs)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Navigate)
	assert.Equal(t, 2525, cfg.Report.Port)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, "bot@example.com", cfg.Report.Sender)
	assert.Equal(t, []string{"a.csv"}, cfg.OutputFiles())
	assert.Equal(t, 5, cfg.ScoreColumn())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Listings)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "no backend keys",
			cfg:     Config{},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name: "listing without url",
			cfg: Config{
				Listings: []Listing{{Output: "x.csv"}},
				AI:       AI{GroqAPIKey: "k"},
			},
			wantErr: "listings[0]",
		},
		{
			name: "pagination without page verb",
			cfg: Config{
				MatchingPercentage: 70,
				Selectors:          Selectors{Pagination: "[data-testid='pagination-next']"},
				AI:                 AI{GroqAPIKey: "k"},
			},
			wantErr: "selectors.pagination",
		},
		{
			name: "pagination with a second verb",
			cfg: Config{
				MatchingPercentage: 70,
				Selectors:          Selectors{Pagination: "[data-page='%d'] a:nth-child(%d)"},
				AI:                 AI{GroqAPIKey: "k"},
			},
			wantErr: "selectors.pagination",
		},
		{
			name: "negative threshold",
			cfg: Config{
				MatchingPercentage: -1,
				Selectors:          Selectors{Pagination: "[data-testid='pagination-page-%d']"},
				AI:                 AI{GroqAPIKey: "k"},
			},
			wantErr: "matching_percentage",
		},
		{
			name: "threshold out of range",
			cfg: Config{
				MatchingPercentage: 120,
				AI:                 AI{GroqAPIKey: "k"},
			},
			wantErr: "matching_percentage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidChatID(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("TELEGRAM_CHAT_ID", "abc")
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRead_SkipsValidation(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Read(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "data/processed_jobs.txt", cfg.Ledger.Path)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_ZeroThresholdIsKept(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")

	path := writeConfig(t, `
listings:
  - url: https://www.indeed.com/jobs?q=golang
matching_percentage: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MatchingPercentage, "an explicit 0 forwards every scored posting")
}

func TestLoad_RejectsPaginationWithoutPageNumber(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")

	path := writeConfig(t, `
selectors:
  pagination: "a[aria-label='Next Page']"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selectors.pagination")
}
