package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"go-job-acquirer/internal/ai"
	"go-job-acquirer/internal/config"
	"go-job-acquirer/internal/logging"
	"go-job-acquirer/internal/models"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "lister",
	Short: "Walk job listings in a headless browser and keep the ones that match",
	Long: "lister paginates job-board listings in isolated browser sessions, drops postings already seen,\n" +
		"scores the rest against a resume with a language model and hands off the matches.",
	// no subcommand runs the pipeline
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: LISTER_CONFIG env var or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// configPath resolves the config path.
// Priority: --config > LISTER_CONFIG env var > configs/config.yaml
func configPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	if env := os.Getenv("LISTER_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath
}

// loadConfig reads the config; validate is for commands that talk to the
// scoring backends.
func loadConfig(validate bool) (*config.Config, error) {
	if validate {
		return config.Load(configPath())
	}
	return config.Read(configPath())
}

func setupLogger(cfg *config.Config) (*log.Logger, io.Closer, error) {
	return logging.New(cfg.LogLevel, cfg.Paths.LogFile, debug)
}

// buildScorer wires Gemini first and Groq as fallback, skipping a backend
// whose key is unset.
func buildScorer(ctx context.Context, cfg *config.Config, logger *log.Logger) (*ai.Scorer, error) {
	var backends []ai.Backend
	if cfg.AI.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiBackend(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			logger.Warn("⚠️ Gemini unavailable", "err", err)
		} else {
			backends = append(backends, gemini)
		}
	}
	if cfg.AI.GroqAPIKey != "" {
		backends = append(backends, ai.NewGroqBackend(cfg.AI.GroqAPIKey, cfg.AI.GroqModel))
	}
	if len(backends) == 0 {
		return nil, errors.New("no scoring backend available")
	}

	policy, err := os.ReadFile(cfg.AI.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("read prompt: %w", err)
	}
	resume, err := models.LoadResumeText(cfg.AI.ResumeFile)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.Name()
	}
	logger.Info("🤖 Scorer ready", "backends", strings.Join(names, " -> "), "rpm", cfg.AI.RequestsPerMinute)
	return ai.NewScorer(backends, strings.TrimSpace(string(policy)), resume, cfg.AI.RequestsPerMinute, logger), nil
}
