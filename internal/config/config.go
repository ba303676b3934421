// Load envs from .env
// Load YAML config
// Override secrets from env
// Provide default values and validate

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath               = "configs/config.yaml"
	DefaultMatchingPercentage = 70
)

// Listing is one job-board search page to walk, and the CSV file that
// receives the jobs qualified from it.
type Listing struct {
	URL    string `yaml:"url"`
	Output string `yaml:"output"`
}

type Selectors struct {
	Title       string `yaml:"title"`
	Company     string `yaml:"company"`
	Link        string `yaml:"link"`
	Pagination  string `yaml:"pagination"` // printf pattern, %d is the page ordinal
	AcceptTerms string `yaml:"accept_terms"`
}

type Timeouts struct {
	Navigate   time.Duration `yaml:"navigate"`
	Selector   time.Duration `yaml:"selector"`
	Pagination time.Duration `yaml:"pagination"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type Ledger struct {
	Path string `yaml:"path"`
	Keep int    `yaml:"keep"`
}

type Paths struct {
	Proxies      string `yaml:"proxies"`
	Accounts     string `yaml:"accounts"`
	Fingerprints string `yaml:"fingerprints"`
	Screenshots  string `yaml:"screenshots"`
	Output       string `yaml:"output"`
	LogFile      string `yaml:"log_file"`
}

type Connectivity struct {
	Endpoints []string      `yaml:"endpoints"`
	Timeout   time.Duration `yaml:"timeout"`
	Backoff   time.Duration `yaml:"backoff"`
}

type AI struct {
	PromptFile        string  `yaml:"prompt_file"`
	ResumeFile        string  `yaml:"resume_file"`
	GeminiModel       string  `yaml:"gemini_model"`
	GroqModel         string  `yaml:"groq_model"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	GeminiAPIKey      string  `yaml:"-"`
	GroqAPIKey        string  `yaml:"-"`
}

type Report struct {
	Sender    string `yaml:"sender"`
	Password  string `yaml:"-"`
	Recipient string `yaml:"recipient"`
	Server    string `yaml:"server"`
	Port      int    `yaml:"port"`
}

type Telegram struct {
	Token  string `yaml:"-"`
	ChatID int64  `yaml:"chat_id"`
}

type Config struct {
	Listings []Listing `yaml:"listings"`

	//Concurrency and batching
	MaxContexts        int           `yaml:"max_contexts"`
	BatchSize          int           `yaml:"batch_size"`
	MatchingPercentage int           `yaml:"matching_percentage"`
	PerCompanyJobs     int           `yaml:"per_company_jobs"`
	Headless           bool          `yaml:"headless"`
	RandomSleep        time.Duration `yaml:"random_sleep"`

	//Local filters
	IgnoreCompanies      []string `yaml:"ignore_companies"`
	ExcludeTitleKeywords []string `yaml:"exclude_title_keywords"`

	Selectors    Selectors    `yaml:"selectors"`
	Timeouts     Timeouts     `yaml:"timeouts"`
	Ledger       Ledger       `yaml:"ledger"`
	Paths        Paths        `yaml:"paths"`
	Connectivity Connectivity `yaml:"connectivity"`
	AI           AI           `yaml:"ai"`
	Report       Report       `yaml:"report"`
	Telegram     Telegram     `yaml:"telegram"`

	DatabaseURL    string `yaml:"-"`
	StatusAddr     string `yaml:"status_addr"`
	LeaveBlankCols int    `yaml:"leave_blank_cols"`
	LogLevel       string `yaml:"log_level"`
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads .env and the YAML file at path, then applies env overrides and
// defaults. A missing YAML file is not an error: every field has a default
// except the listings.
func Read(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	// zero is a valid threshold, so its default is set before decoding
	cfg := &Config{Headless: true, MatchingPercentage: DefaultMatchingPercentage}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.AI.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Report.Password = os.Getenv("EMAIL_PASSWORD")

	if v := os.Getenv("EMAIL_SENDER"); v != "" {
		c.Report.Sender = v
	}
	if v := os.Getenv("EMAIL_RECIPIENT"); v != "" {
		c.Report.Recipient = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.Report.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		c.Report.Port = port
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MaxContexts <= 0 {
		c.MaxContexts = 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.PerCompanyJobs <= 0 {
		c.PerCompanyJobs = 2
	}

	if c.Selectors.Title == "" {
		c.Selectors.Title = ".jobTitle"
	}
	if c.Selectors.Company == "" {
		c.Selectors.Company = "[data-testid='company-name']"
	}
	if c.Selectors.Link == "" {
		c.Selectors.Link = "tr td a"
	}
	if c.Selectors.Pagination == "" {
		c.Selectors.Pagination = "[data-testid='pagination-page-%d']"
	}
	if c.Selectors.AcceptTerms == "" {
		c.Selectors.AcceptTerms = `button[data-gnav-element-name="AcceptButton"]`
	}

	if c.Timeouts.Navigate <= 0 {
		c.Timeouts.Navigate = 30 * time.Second
	}
	if c.Timeouts.Selector <= 0 {
		c.Timeouts.Selector = 5 * time.Second
	}
	if c.Timeouts.Pagination <= 0 {
		c.Timeouts.Pagination = 10 * time.Second
	}
	if c.Timeouts.RetryDelay <= 0 {
		c.Timeouts.RetryDelay = 2 * time.Second
	}

	if c.Ledger.Path == "" {
		c.Ledger.Path = "data/processed_jobs.txt"
	}
	if c.Ledger.Keep <= 0 {
		c.Ledger.Keep = 8000
	}

	if c.Paths.Proxies == "" {
		c.Paths.Proxies = "data/proxies.json"
	}
	if c.Paths.Accounts == "" {
		c.Paths.Accounts = "data/accounts"
	}
	if c.Paths.Fingerprints == "" {
		c.Paths.Fingerprints = "data/fingerprints"
	}
	if c.Paths.Screenshots == "" {
		c.Paths.Screenshots = "debugging_screenshots"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "output"
	}
	if c.Paths.LogFile == "" {
		c.Paths.LogFile = "logs/spider.log"
	}

	if len(c.Connectivity.Endpoints) == 0 {
		c.Connectivity.Endpoints = []string{
			"https://1.1.1.1",
			"https://www.cloudflare.com",
			"https://example.com",
			"https://www.bing.com",
		}
	}
	if c.Connectivity.Timeout <= 0 {
		c.Connectivity.Timeout = 10 * time.Second
	}
	if c.Connectivity.Backoff <= 0 {
		c.Connectivity.Backoff = 10 * time.Second
	}

	if c.AI.PromptFile == "" {
		c.AI.PromptFile = "configs/prompt.txt"
	}
	if c.AI.ResumeFile == "" {
		c.AI.ResumeFile = "configs/resume.json"
	}
	if c.AI.GeminiModel == "" {
		c.AI.GeminiModel = "gemini-2.0-flash"
	}
	if c.AI.GroqModel == "" {
		c.AI.GroqModel = "llama-3.3-70b-versatile"
	}
	if c.AI.RequestsPerMinute <= 0 {
		c.AI.RequestsPerMinute = 15
	}

	if c.Report.Port == 0 {
		c.Report.Port = 587
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	for i := range c.Listings {
		if c.Listings[i].Output == "" {
			c.Listings[i].Output = fmt.Sprintf("listing_%d.csv", i+1)
		}
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	for i, l := range c.Listings {
		if l.URL == "" {
			errs = append(errs, fmt.Errorf("listings[%d]: url is required", i))
		}
	}
	if c.MatchingPercentage < 0 || c.MatchingPercentage > 100 {
		errs = append(errs, fmt.Errorf("matching_percentage must be in [0,100], got %d", c.MatchingPercentage))
	}
	if c.AI.GeminiAPIKey == "" && c.AI.GroqAPIKey == "" {
		errs = append(errs, errors.New("at least one of GEMINI_API_KEY or GROQ_API_KEY is required"))
	}
	if sel := c.Selectors.Pagination; strings.Count(sel, "%d") != 1 || strings.Contains(fmt.Sprintf(sel, 2), "%!") {
		errs = append(errs, fmt.Errorf("selectors.pagination must contain exactly one %%d for the page number, got %q", sel))
	}
	if c.LeaveBlankCols < 0 {
		errs = append(errs, errors.New("leave_blank_cols must not be negative"))
	}
	return errors.Join(errs...)
}

// OutputFiles returns the CSV file names of every listing, in order.
func (c *Config) OutputFiles() []string {
	seen := make(map[string]bool, len(c.Listings))
	var files []string
	for _, l := range c.Listings {
		if seen[l.Output] {
			continue
		}
		seen[l.Output] = true
		files = append(files, l.Output)
	}
	return files
}

// ScoreColumn is the index of the score column in the output CSV rows.
func (c *Config) ScoreColumn() int {
	return c.LeaveBlankCols + 2
}
