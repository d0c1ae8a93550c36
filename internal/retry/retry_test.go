package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockAdapter calls a function on each invocation, tracking call count.
type mockAdapter struct {
	calls int
	fn    func(attempt int) ([]model.RawPosting, error)
}

func (m *mockAdapter) Name() string { return "mock" }

func (m *mockAdapter) FetchPostings(_ context.Context) ([]model.RawPosting, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	postings := []model.RawPosting{{Company: "Acme", Title: "Engineer"}}
	mock := &mockAdapter{fn: func(_ int) ([]model.RawPosting, error) {
		return postings, nil
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := ra.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Company != "Acme" {
		t.Fatalf("unexpected postings: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
	if ra.Name() != "mock" {
		t.Errorf("expected Name to pass through, got %q", ra.Name())
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	postings := []model.RawPosting{{Company: "Acme"}}
	mock := &mockAdapter{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return postings, nil
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := ra.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_RetriesWrappedNetworkError(t *testing.T) {
	mock := &mockAdapter{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt < 3 {
			return nil, fmt.Errorf("hn fetch: %w", errors.New("connection reset by peer"))
		}
		return nil, nil
	}}

	ra := NewRetryAdapter(mock, 2, time.Millisecond, discardLogger())
	if _, err := ra.FetchPostings(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, fmt.Errorf("lever fetch for acme: %w", &model.HTTPError{StatusCode: 404, Err: errors.New("not found")})
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := ra.FetchPostings(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ra := NewRetryAdapter(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := ra.FetchPostings(context.Background())
	if err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries = 3
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls (1 + 2 retries), got %d", mock.calls)
	}
}

func noJitter(ra *RetryAdapter) *RetryAdapter {
	ra.jitter = func() float64 { return 0 }
	return ra
}

func TestRetry_DelayDoublesPerAttempt(t *testing.T) {
	ra := noJitter(NewRetryAdapter(&mockAdapter{}, 3, 10*time.Millisecond, discardLogger()))
	err := &model.HTTPError{StatusCode: 503}

	for attempt, want := range map[int]time.Duration{1: 10 * time.Millisecond, 2: 20 * time.Millisecond, 3: 40 * time.Millisecond} {
		if got := ra.delay(attempt, err); got != want {
			t.Errorf("delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	ra := NewRetryAdapter(&mockAdapter{}, 2, time.Hour, discardLogger())
	err := &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second, Err: errors.New("slow down")}
	if got := ra.delay(1, err); got != 7*time.Second {
		t.Errorf("delay = %v, want 7s", got)
	}
}

func TestRetry_SkipsBackoffLongerThanTimeLeft(t *testing.T) {
	tests := []struct {
		name string
		err  error
		base time.Duration
	}{
		{"computed backoff", &model.HTTPError{StatusCode: 503, Err: errors.New("unavailable")}, time.Second},
		{"retry-after", &model.HTTPError{StatusCode: 429, RetryAfter: 10 * time.Second, Err: errors.New("slow down")}, time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockAdapter{fn: func(_ int) ([]model.RawPosting, error) { return nil, tt.err }}
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			ra := noJitter(NewRetryAdapter(mock, 2, tt.base, discardLogger()))
			start := time.Now()
			_, err := ra.FetchPostings(ctx)

			if !errors.Is(err, tt.err) {
				t.Fatalf("expected the source error back, got %v", err)
			}
			if mock.calls != 1 {
				t.Fatalf("expected 1 call, got %d", mock.calls)
			}
			if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
				t.Errorf("gave up after %v, want immediately", elapsed)
			}
		})
	}
}

func TestRetry_RetriesWithinDeadline(t *testing.T) {
	mock := &mockAdapter{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 502, Err: errors.New("bad gateway")}
		}
		return []model.RawPosting{{Company: "Acme"}}, nil
	}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ra := NewRetryAdapter(mock, 2, time.Millisecond, discardLogger())
	if _, err := ra.FetchPostings(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want reason
	}{
		{"429", &model.HTTPError{StatusCode: 429}, rateLimited},
		{"503", fmt.Errorf("yc fetch: %w", &model.HTTPError{StatusCode: 503}), serverError},
		{"408", &model.HTTPError{StatusCode: 408}, serverError},
		{"403", &model.HTTPError{StatusCode: 403}, permanent},
		{"network", errors.New("connection reset by peer"), network},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), permanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "120", 120 * time.Second},
		{"padded seconds", " 30 ", 30 * time.Second},
		{"negative", "-5", 0},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{"past http date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRetryAfter(tt.value, now); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockAdapter{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel immediately so the backoff sleep is interrupted.
	cancel()

	ra := NewRetryAdapter(mock, 2, time.Second, discardLogger())
	_, err := ra.FetchPostings(ctx)
	if err == nil {
		t.Fatal("expected error from context cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}
