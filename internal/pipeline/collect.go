package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Collector runs every source adapter and gathers their raw postings.
type Collector struct {
	adapters []model.SourceAdapter
	parallel int
	timeout  time.Duration
	logger   *slog.Logger
}

// NewCollector creates a collector that runs at most parallel adapters at a
// time, each bounded by timeout. A non-positive timeout means no per-source limit.
func NewCollector(adapters []model.SourceAdapter, parallel int, timeout time.Duration, logger *slog.Logger) *Collector {
	return &Collector{
		adapters: adapters,
		parallel: max(1, parallel),
		timeout:  timeout,
		logger:   logger,
	}
}

// Collect fetches from all adapters concurrently. A failing or slow adapter
// contributes nothing and is logged; it never fails the run. Results are
// concatenated in adapter order regardless of completion order.
func (c *Collector) Collect(ctx context.Context) []model.RawPosting {
	results := make([][]model.RawPosting, len(c.adapters))

	var g errgroup.Group
	g.SetLimit(c.parallel)
	for i, a := range c.adapters {
		g.Go(func() error {
			results[i] = c.fetchOne(ctx, a)
			return nil
		})
	}
	_ = g.Wait()

	var all []model.RawPosting
	for _, r := range results {
		all = append(all, r...)
	}
	return all
}

func (c *Collector) fetchOne(ctx context.Context, a model.SourceAdapter) []model.RawPosting {
	if ctx.Err() != nil {
		return nil
	}

	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	postings, err := a.FetchPostings(fetchCtx)
	if err != nil {
		c.logger.Warn("source failed, continuing without it",
			"source", a.Name(),
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
			"error", err,
		)
		return nil
	}

	c.logger.Info("source fetched",
		"source", a.Name(),
		"postings", len(postings),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return postings
}
