package pipeline

import (
	"log/slog"

	"github.com/amishk599/hiddenjobs/internal/adapter"
	"github.com/amishk599/hiddenjobs/internal/config"
	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/ratelimit"
	"github.com/amishk599/hiddenjobs/internal/retry"
)

// perPageSources fetch one page per job, so their pages are limited one by
// one instead of once per fetch.
var perPageSources = map[string]bool{
	config.SourceWorkAtAStartup: true,
}

// BuildAdapters creates an adapter for every enabled source. Each adapter is
// rate limited per source type and retried on transient failures. Sources
// that cannot be built are logged and skipped.
func BuildAdapters(cfg *config.Config, deps adapter.Deps, logger *slog.Logger) []model.SourceAdapter {
	limiter := ratelimit.NewSiteRateLimiter(cfg.Fetch.MinDelay)

	var adapters []model.SourceAdapter
	for _, src := range cfg.EnabledSources() {
		d := deps
		perPage := perPageSources[src.Type]
		if perPage {
			if d.Pages != nil {
				d.Pages = ratelimit.NewRateLimitedPageFetcher(d.Pages, limiter, src.Type)
			}
			if d.Browser != nil {
				d.Browser = ratelimit.NewRateLimitedPageFetcher(d.Browser, limiter, src.Type)
			}
		}

		a, err := adapter.New(src, d)
		if err != nil {
			logger.Warn("skipping source", "source", src.Name, "error", err)
			continue
		}

		if !perPage {
			a = ratelimit.NewRateLimitedAdapter(a, limiter, src.Type)
		}
		a = retry.NewRetryAdapter(a, cfg.Fetch.Retries, cfg.Fetch.RetryDelay, logger)
		adapters = append(adapters, a)
		logger.Debug("registered source", "name", src.Name, "type", src.Type, "render", src.Render)
	}
	return adapters
}
