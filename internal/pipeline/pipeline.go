// Package pipeline runs one refresh: collect, normalize, deduplicate, score,
// publish, then notify and mirror.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/hiddenjobs/internal/config"
	"github.com/amishk599/hiddenjobs/internal/dedup"
	"github.com/amishk599/hiddenjobs/internal/mirror"
	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/normalize"
	"github.com/amishk599/hiddenjobs/internal/publish"
	"github.com/amishk599/hiddenjobs/internal/score"
)

// Options are the optional collaborators of a Pipeline.
type Options struct {
	Notifier  model.Notifier  // nil disables notifications
	Mirrors   []mirror.Mirror // receive every written artifact
	MaxNotify int             // cap on postings per notification, 0 means no cap
	DryRun    bool            // run every stage but write, notify and mirror nothing
}

// Summary reports the collection sizes seen by one run.
type Summary struct {
	RunID      string
	Fetched    int
	Normalized int
	Unique     int
	Published  int
	New        int
	Written    bool
	Jobs       []model.JobPosting // scored and sorted, as published
}

// Pipeline owns the full refresh for all configured sources.
type Pipeline struct {
	collector  *Collector
	normalizer *normalize.Normalizer
	deduper    *dedup.Deduplicator
	scorer     *score.Scorer
	publisher  *publish.Publisher
	opts       Options
	logger     *slog.Logger
}

// New wires a pipeline from configuration and already-built adapters.
func New(cfg *config.Config, adapters []model.SourceAdapter, opts Options, logger *slog.Logger) *Pipeline {
	scorer := score.New(score.Policy{
		Weights:       cfg.Scoring.Weights,
		DefaultWeight: cfg.Scoring.DefaultWeight,
		DayBonus:      cfg.Scoring.DayBonus,
		WeekBonus:     cfg.Scoring.WeekBonus,
	})
	thresholds := dedup.Thresholds{
		Key:     cfg.Dedup.Threshold,
		Company: cfg.Dedup.CompanyThreshold,
		Title:   cfg.Dedup.TitleThreshold,
	}

	return &Pipeline{
		collector:  NewCollector(adapters, cfg.Fetch.Parallel, cfg.Fetch.Timeout, logger),
		normalizer: normalize.New(logger),
		deduper:    dedup.New(thresholds, scorer, logger),
		scorer:     scorer,
		publisher:  publish.New(cfg.Output, logger),
		opts:       opts,
		logger:     logger,
	}
}

// Run executes one refresh as of now. Only a failure to write the primary
// artifact is returned as an error; source, notifier and mirror failures are
// logged and the run continues.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", sum.RunID)
	start := time.Now()
	logger.Info("run started", "dry_run", p.opts.DryRun)

	raw := p.collector.Collect(ctx)
	sum.Fetched = len(raw)
	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run %s: %w", sum.RunID, err)
	}

	jobs := p.normalizer.Normalize(raw, now)
	sum.Normalized = len(jobs)

	jobs = p.deduper.Dedupe(jobs)
	sum.Unique = len(jobs)

	jobs = publish.SortJobs(p.scorer.Score(jobs, now))
	sum.Published = len(jobs)
	sum.Jobs = jobs

	if p.opts.DryRun {
		logger.Info("dry run, nothing written",
			"fetched", sum.Fetched,
			"normalized", sum.Normalized,
			"unique", sum.Unique,
		)
		return sum, nil
	}

	res, err := p.publisher.Publish(jobs, now)
	sum.Written = res.Written
	if err != nil && !res.Written {
		return sum, fmt.Errorf("run %s: publishing: %w", sum.RunID, err)
	}
	if err != nil {
		logger.Error("some copies failed", "error", err)
	}

	if res.Written {
		newJobs := res.NewJobs()
		sum.New = len(newJobs)
		p.notify(logger, newJobs, len(res.PreviousIDs) == 0)
		p.mirror(ctx, logger, res.Artifact)
	}

	logger.Info("run finished",
		"fetched", sum.Fetched,
		"normalized", sum.Normalized,
		"unique", sum.Unique,
		"published", sum.Published,
		"new", sum.New,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return sum, nil
}

// notify reports the highest-scoring new postings. The first publish has no
// previous artifact to compare against, so it seeds silently.
func (p *Pipeline) notify(logger *slog.Logger, newJobs []model.JobPosting, firstRun bool) {
	if p.opts.Notifier == nil || len(newJobs) == 0 {
		return
	}
	if firstRun {
		logger.Info("first publish, seeding without notification", "jobs", len(newJobs))
		return
	}

	// newJobs inherits the artifact's score order.
	if p.opts.MaxNotify > 0 && len(newJobs) > p.opts.MaxNotify {
		newJobs = newJobs[:p.opts.MaxNotify]
	}
	if err := p.opts.Notifier.Notify(newJobs); err != nil {
		logger.Error("notification failed", "jobs", len(newJobs), "error", err)
	}
}

func (p *Pipeline) mirror(ctx context.Context, logger *slog.Logger, a publish.Artifact) {
	for _, m := range p.opts.Mirrors {
		if err := m.Store(ctx, a); err != nil {
			logger.Error("mirror failed", "mirror", m.Name(), "error", err)
			continue
		}
		logger.Info("artifact mirrored", "mirror", m.Name(), "jobs", a.TotalJobs)
	}
}
