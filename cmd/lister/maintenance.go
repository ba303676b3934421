package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-job-acquirer/internal/config"
	"go-job-acquirer/internal/dedup"
	"go-job-acquirer/internal/netcheck"
)

var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "Sort the output CSV files by score",
	Long:  "Sorts every configured output CSV by the score column, highest first, keeping its encoding and header.",
	RunE:  runSort,
}

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Trim the processed jobs file",
	Long:  "Keeps only the most recent entries of the processed jobs file (ledger.keep, 8000 by default).",
	RunE:  runTrim,
}

var netcheckCmd = &cobra.Command{
	Use:   "netcheck",
	Short: "Probe the connectivity endpoints once",
	RunE:  runNetcheck,
}

func init() {
	rootCmd.AddCommand(sortCmd)
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(netcheckCmd)
}

func readConfig() (*config.Config, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
	}
	return cfg, err
}

func runSort(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	sortOutputs(cfg, logger)
	return nil
}

func runTrim(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	lock, err := dedup.Lock(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	trimLedger(cfg, logger)
	return nil
}

func runNetcheck(cmd *cobra.Command, args []string) error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}
	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(len(cfg.Connectivity.Endpoints)+1)*cfg.Connectivity.Timeout)
	defer cancel()

	monitor := netcheck.NewMonitor(cfg.Connectivity.Endpoints, cfg.Connectivity.Timeout, cfg.Connectivity.Backoff, logger)
	if !monitor.IsReachable(ctx) {
		return fmt.Errorf("none of %s answered", strings.Join(cfg.Connectivity.Endpoints, ", "))
	}
	fmt.Println("✅ online")
	return nil
}

var scoreCmd = &cobra.Command{
	Use:   "score TITLE...",
	Short: "Score job titles against the resume",
	Long:  "Sends the given titles to the configured scoring backends and prints one percentage per title.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}
	logger, closer, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	scorer, err := buildScorer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	scores, err := scorer.Score(ctx, args)
	if err != nil {
		return err
	}
	for i, title := range args {
		mark := " "
		if scores[i] >= cfg.MatchingPercentage {
			mark = "✔"
		}
		fmt.Printf("%s %3d%%  %s\n", mark, scores[i], title)
	}
	return nil
}
