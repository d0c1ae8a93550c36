package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/hiddenjobs/internal/adapter"
	"github.com/amishk599/hiddenjobs/internal/config"
	"github.com/amishk599/hiddenjobs/internal/mirror"
	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/notifier"
	"github.com/amishk599/hiddenjobs/internal/pipeline"
)

var (
	cfgPath string
	debug   bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "hiddenjobs",
	Short: "Job listings from the corners of the web, in one file",
	Long:  "hiddenjobs scrapes forum threads and job boards, deduplicates and scores the postings, and publishes them as one JSON file you can browse and query.",
	// Default to `run` so that `hiddenjobs` with no args does one refresh,
	// which is what a cron job or CI workflow wants.
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: HIDDENJOBS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run every stage but write, notify and mirror nothing")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > HIDDENJOBS_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	return config.Load(resolveConfigPath(path))
}

func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("HIDDENJOBS_CONFIG"); env != "" {
		return env
	}
	return "config.yaml"
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Fetch.Timeout}
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// setupMirrors connects the configured mirrors. A mirror that cannot connect
// is logged and left out; the file artifact does not depend on it.
func setupMirrors(ctx context.Context, cfg *config.Config, logger *slog.Logger) []mirror.Mirror {
	var mirrors []mirror.Mirror
	if cfg.Mirror.RedisURL != "" {
		m, err := mirror.NewRedisMirror(ctx, cfg.Mirror.RedisURL, cfg.Mirror.RedisKey)
		if err != nil {
			logger.Error("redis mirror disabled", "error", err)
		} else {
			mirrors = append(mirrors, m)
			logger.Info("using redis mirror", "key", cfg.Mirror.RedisKey)
		}
	}
	if cfg.Mirror.PostgresURL != "" {
		m, err := mirror.NewPostgresMirror(ctx, cfg.Mirror.PostgresURL)
		if err != nil {
			logger.Error("postgres mirror disabled", "error", err)
		} else {
			mirrors = append(mirrors, m)
			logger.Info("using postgres mirror")
		}
	}
	return mirrors
}

// buildPipeline wires adapters, notifier and mirrors. The returned cleanup
// closes the mirrors.
func buildPipeline(ctx context.Context, cfg *config.Config, dry bool, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	httpClient := newHTTPClient(cfg)
	deps := adapter.Deps{
		Client:    httpClient,
		Pages:     adapter.NewHTTPPageFetcher(httpClient, cfg.Fetch.UserAgent),
		Browser:   adapter.NewBrowserPageFetcher(cfg.Fetch.UserAgent),
		UserAgent: cfg.Fetch.UserAgent,
	}

	adapters := pipeline.BuildAdapters(cfg, deps, logger)
	if len(adapters) == 0 {
		return nil, func() {}, errNoSources
	}

	opts := pipeline.Options{
		MaxNotify: cfg.Notification.MaxJobs,
		DryRun:    dry,
	}
	if !dry {
		opts.Notifier = setupNotifier(cfg, httpClient, logger)
		opts.Mirrors = setupMirrors(ctx, cfg, logger)
	}

	cleanup := func() {
		for _, m := range opts.Mirrors {
			if err := m.Close(); err != nil {
				logger.Warn("closing mirror", "mirror", m.Name(), "error", err)
			}
		}
	}
	return pipeline.New(cfg, adapters, opts, logger), cleanup, nil
}
