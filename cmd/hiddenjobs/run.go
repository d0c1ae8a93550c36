package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/hiddenjobs/internal/model"
)

var errNoSources = errors.New("no sources to scrape")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Refresh once and exit",
	Long:  "Scrapes every enabled source, publishes the artifact, notifies about new postings, and exits.",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run every stage but write, notify and mirror nothing")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.EnabledSources()),
		"output", cfg.Output.Path,
		"parallel", cfg.Fetch.Parallel,
		"timeout", cfg.Fetch.Timeout.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, cleanup, err := buildPipeline(ctx, cfg, dryRun, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	sum, err := p.Run(ctx, time.Now())
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	if dryRun {
		printJobs(sum.Jobs, 20)
	}
	return nil
}

// printJobs writes the first limit jobs as a plain table to stdout.
func printJobs(jobs []model.JobPosting, limit int) {
	fmt.Printf("%-5s %-25s %-40s %-20s %s\n", "Score", "Company", "Title", "Location", "Source")
	for i, j := range jobs {
		if i == limit {
			fmt.Printf("... and %d more\n", len(jobs)-limit)
			break
		}
		loc := j.LocationOrEmpty()
		if loc == "" {
			loc = "-"
		}
		fmt.Printf("%-5d %-25s %-40s %-20s %s\n", j.HiddenScore, clip(j.Company, 25), clip(j.Title, 40), clip(loc, 20), j.Source)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
