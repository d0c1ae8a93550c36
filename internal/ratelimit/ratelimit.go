// Package ratelimit spaces out requests to the same job board.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// SiteRateLimiter enforces a minimum delay between requests to the same site.
// Sources that share a host (every Greenhouse board, say) share one limiter key.
type SiteRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter // key: site
	minDelay time.Duration
}

// NewSiteRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same site.
func NewSiteRateLimiter(minDelay time.Duration) *SiteRateLimiter {
	return &SiteRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

func (r *SiteRateLimiter) limiter(site string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[site]
	if !ok {
		limit := rate.Inf
		if r.minDelay > 0 {
			limit = rate.Every(r.minDelay)
		}
		l = rate.NewLimiter(limit, 1)
		r.limiters[site] = l
	}
	return l
}

// Wait blocks until a request to site is allowed.
// Returns an error if the context is cancelled while waiting.
func (r *SiteRateLimiter) Wait(ctx context.Context, site string) error {
	if err := r.limiter(site).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", site, err)
	}
	return nil
}

// RateLimitedAdapter is a decorator that enforces site-level rate limiting
// before delegating to the wrapped SourceAdapter.
type RateLimitedAdapter struct {
	inner   model.SourceAdapter
	limiter *SiteRateLimiter
	site    string
}

// NewRateLimitedAdapter wraps a SourceAdapter with site-level rate limiting.
// All adapters targeting the same site should share the same limiter instance.
func NewRateLimitedAdapter(inner model.SourceAdapter, limiter *SiteRateLimiter, site string) *RateLimitedAdapter {
	return &RateLimitedAdapter{
		inner:   inner,
		limiter: limiter,
		site:    site,
	}
}

// Name returns the wrapped adapter's source name.
func (a *RateLimitedAdapter) Name() string { return a.inner.Name() }

// FetchPostings waits for the rate limiter, then delegates to the wrapped adapter.
func (a *RateLimitedAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	if err := a.limiter.Wait(ctx, a.site); err != nil {
		return nil, err
	}
	return a.inner.FetchPostings(ctx)
}

// PageFetcher matches the page sources handed to HTML adapters.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// RateLimitedPageFetcher waits for the site limiter before every page. It
// paces sources that fetch a listing and then one page per job, where a
// single wait per fetch would let the job pages through back to back.
type RateLimitedPageFetcher struct {
	inner   PageFetcher
	limiter *SiteRateLimiter
	site    string
}

// NewRateLimitedPageFetcher wraps inner with per-page limiting for site.
func NewRateLimitedPageFetcher(inner PageFetcher, limiter *SiteRateLimiter, site string) *RateLimitedPageFetcher {
	return &RateLimitedPageFetcher{inner: inner, limiter: limiter, site: site}
}

// FetchPage waits for the limiter, then fetches url.
func (f *RateLimitedPageFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, f.site); err != nil {
		return nil, err
	}
	return f.inner.FetchPage(ctx, url)
}
