// Package retry re-runs a source fetch after transient failures without
// letting the backoff outlive the source's own fetch timeout.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// reason names why a failed fetch is worth another attempt. The empty
// reason means the failure is permanent.
type reason string

const (
	permanent   reason = ""
	rateLimited reason = "rate_limited"
	serverError reason = "server_error"
	network     reason = "network"
)

// RetryAdapter decorates a SourceAdapter. Rate limiting (429), server errors
// and network failures are retried with exponential backoff; a Retry-After
// from the board overrides the computed delay.
type RetryAdapter struct {
	inner     model.SourceAdapter
	retries   int
	baseDelay time.Duration
	logger    *slog.Logger

	now    func() time.Time
	jitter func() float64 // in [-1, 1)
}

// NewRetryAdapter wraps inner. retries is the number of attempts after the
// first failure; baseDelay doubles on each retry.
func NewRetryAdapter(inner model.SourceAdapter, retries int, baseDelay time.Duration, logger *slog.Logger) *RetryAdapter {
	return &RetryAdapter{
		inner:     inner,
		retries:   retries,
		baseDelay: baseDelay,
		logger:    logger,
		now:       time.Now,
		jitter:    func() float64 { return rand.Float64()*2 - 1 },
	}
}

// Name returns the wrapped adapter's source name.
func (a *RetryAdapter) Name() string { return a.inner.Name() }

// FetchPostings fetches from the wrapped source, retrying transient failures
// while the context's deadline leaves room for the next backoff.
func (a *RetryAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	for attempt := 0; ; attempt++ {
		postings, err := a.inner.FetchPostings(ctx)
		if err == nil {
			if attempt > 0 {
				a.logger.Info("source recovered", "source", a.Name(), "attempts", attempt+1)
			}
			return postings, nil
		}

		why := classify(err)
		if why == permanent || attempt >= a.retries {
			return nil, err
		}

		delay := a.delay(attempt+1, err)
		if left, ok := a.timeLeft(ctx); ok && left < delay {
			a.logger.Warn("not retrying, source timeout expires first",
				"source", a.Name(),
				"reason", string(why),
				"delay", delay,
				"time_left", left,
				"error", err,
			)
			return nil, err
		}

		a.logger.Warn("retrying source",
			"source", a.Name(),
			"reason", string(why),
			"attempt", attempt+1,
			"max_retries", a.retries,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("retry %s cancelled: %w", a.Name(), ctx.Err())
		case <-timer.C:
		}
	}
}

// delay is the wait before retry number attempt (1-based): the board's
// Retry-After when it sent one, else baseDelay*2^(attempt-1) with ±30% jitter.
func (a *RetryAdapter) delay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	d := a.baseDelay << (attempt - 1)
	return time.Duration(float64(d) * (1 + 0.3*a.jitter()))
}

func (a *RetryAdapter) timeLeft(ctx context.Context) (time.Duration, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return deadline.Sub(a.now()), true
}

func classify(err error) reason {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return permanent
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return rateLimited
		case httpErr.StatusCode == http.StatusRequestTimeout, httpErr.StatusCode >= 500:
			return serverError
		default:
			// A missing board or a blocked scraper stays that way.
			return permanent
		}
	}

	// Connection resets, DNS failures, truncated bodies.
	return network
}

// ParseRetryAfter reads a Retry-After header in either form: delay seconds
// ("120") or an HTTP date. Absent, past or malformed values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	at, err := http.ParseTime(value)
	if err != nil || !at.After(now) {
		return 0
	}
	return at.Sub(now)
}
