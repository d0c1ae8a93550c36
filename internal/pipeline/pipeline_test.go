package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/hiddenjobs/internal/adapter"
	"github.com/amishk599/hiddenjobs/internal/config"
	"github.com/amishk599/hiddenjobs/internal/mirror"
	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/publish"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes ---

type fakeAdapter struct {
	name     string
	postings []model.RawPosting
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.postings, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]model.JobPosting
}

func (n *recordingNotifier) Notify(jobs []model.JobPosting) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, append([]model.JobPosting(nil), jobs...))
	return nil
}

type fakeMirror struct {
	name   string
	err    error
	stored []publish.Artifact
}

func (m *fakeMirror) Name() string { return m.name }

func (m *fakeMirror) Store(_ context.Context, a publish.Artifact) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, a)
	return nil
}

func (m *fakeMirror) Close() error { return nil }

// --- helpers ---

func raw(company, title, source string, postedAgo time.Duration, tech ...string) model.RawPosting {
	posted := now.Add(-postedAgo)
	return model.RawPosting{
		Company:   company,
		Title:     title,
		Location:  "Remote",
		TechStack: tech,
		URL:       "https://example.com/" + company,
		Source:    source,
		PostedAt:  &posted,
		ScrapedAt: now,
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Fetch: config.FetchConfig{Timeout: time.Second, Parallel: 2},
		Scoring: config.ScoringConfig{
			Weights:       config.DefaultWeights,
			DefaultWeight: 20,
			DayBonus:      10,
			WeekBonus:     5,
		},
		Dedup:  config.DedupConfig{Threshold: 0.85, TitleThreshold: 0.70},
		Output: config.OutputConfig{Path: filepath.Join(t.TempDir(), "jobs.json")},
	}
}

func ids(jobs []model.JobPosting) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

// --- collector ---

func TestCollect_PreservesAdapterOrder(t *testing.T) {
	slow := &fakeAdapter{name: "slow", delay: 50 * time.Millisecond, postings: []model.RawPosting{raw("Slow", "Engineer", "hn", time.Hour)}}
	fast := &fakeAdapter{name: "fast", postings: []model.RawPosting{raw("Fast", "Engineer", "yc", time.Hour)}}

	c := NewCollector([]model.SourceAdapter{slow, fast}, 2, time.Second, discardLogger())
	got := c.Collect(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, "Slow", got[0].Company)
	assert.Equal(t, "Fast", got[1].Company)
}

func TestCollect_FailingSourceYieldsNothing(t *testing.T) {
	broken := &fakeAdapter{name: "broken", err: errors.New("boom")}
	ok := &fakeAdapter{name: "ok", postings: []model.RawPosting{raw("Acme", "Engineer", "hn", time.Hour)}}

	c := NewCollector([]model.SourceAdapter{broken, ok}, 1, time.Second, discardLogger())
	got := c.Collect(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Company)
	assert.EqualValues(t, 1, broken.calls.Load())
}

func TestCollect_TimeoutYieldsNothing(t *testing.T) {
	hung := &fakeAdapter{name: "hung", delay: time.Hour}
	ok := &fakeAdapter{name: "ok", postings: []model.RawPosting{raw("Acme", "Engineer", "hn", time.Hour)}}

	c := NewCollector([]model.SourceAdapter{hung, ok}, 2, 50*time.Millisecond, discardLogger())

	start := time.Now()
	got := c.Collect(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Company)
}

// --- pipeline ---

func TestRun_PublishesScoredSortedUniqueJobs(t *testing.T) {
	cfg := testConfig(t)
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "hn", postings: []model.RawPosting{
			raw("Acme", "Backend Engineer", "hn", 12*time.Hour, "Go"),
			raw("Nimbus", "Data Engineer", "hn", 20*24*time.Hour),
			{Company: "", Title: "No Company", Source: "hn", ScrapedAt: now},
		}},
		&fakeAdapter{name: "remoteok", postings: []model.RawPosting{
			raw("ACME", "Backend  Engineer", "remoteok", time.Hour, "go"),
			raw("Orbit", "Frontend Developer", "remoteok", 3*24*time.Hour),
		}},
	}

	p := New(cfg, adapters, Options{}, discardLogger())
	sum, err := p.Run(context.Background(), now)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 5, sum.Fetched)
	assert.Equal(t, 4, sum.Normalized)
	assert.Equal(t, 3, sum.Unique)
	assert.True(t, sum.Written)

	a, err := publish.ReadArtifact(cfg.Output.Path)
	require.NoError(t, err)
	require.Len(t, a.Jobs, 3)
	assert.Equal(t, 3, a.TotalJobs)

	// fresh hn, then stale hn, then remoteok with the week bonus.
	assert.Equal(t, "Acme", a.Jobs[0].Company)
	assert.Equal(t, "hn", a.Jobs[0].Source)
	assert.Equal(t, 100, a.Jobs[0].HiddenScore)
	assert.Equal(t, 90, a.Jobs[1].HiddenScore)
	assert.Equal(t, 65, a.Jobs[2].HiddenScore)

	for i, j := range a.Jobs {
		assert.GreaterOrEqual(t, j.HiddenScore, 0)
		assert.LessOrEqual(t, j.HiddenScore, 100)
		if i > 0 {
			assert.GreaterOrEqual(t, a.Jobs[i-1].HiddenScore, j.HiddenScore)
		}
	}
}

func TestRun_SameInputSameNowIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	adapters := []model.SourceAdapter{
		&fakeAdapter{name: "hn", postings: []model.RawPosting{
			raw("Acme", "Backend Engineer", "hn", time.Hour, "go", "postgres"),
			raw("Beta", "Platform Engineer", "hn", time.Hour),
		}},
		&fakeAdapter{name: "yc", postings: []model.RawPosting{
			raw("Gamma", "SRE", "yc", 2*time.Hour, "kubernetes"),
		}},
	}
	p := New(cfg, adapters, Options{}, discardLogger())

	first, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)

	second, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)

	assert.Equal(t, first.Jobs, second.Jobs)
	assert.Equal(t, string(firstBytes), string(secondBytes))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_NotifiesOnlyNewJobsAfterFirstRun(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeAdapter{name: "hn", postings: []model.RawPosting{
		raw("Acme", "Backend Engineer", "hn", time.Hour),
	}}
	n := &recordingNotifier{}
	p := New(cfg, []model.SourceAdapter{src}, Options{Notifier: n, MaxNotify: 2}, discardLogger())

	_, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, n.calls, "first publish seeds without notifying")

	src.postings = append(src.postings,
		raw("Beta", "Data Engineer", "hn", time.Hour),
		raw("Gamma", "ML Engineer", "hn", 2*24*time.Hour),
		raw("Delta", "Frontend Developer", "hn", 30*24*time.Hour),
	)
	sum, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.New)

	require.Len(t, n.calls, 1)
	got := n.calls[0]
	require.Len(t, got, 2, "capped at MaxNotify")
	assert.Equal(t, "Beta", got[0].Company)
	assert.Equal(t, "Gamma", got[1].Company)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	n := &recordingNotifier{}
	m := &fakeMirror{name: "fake"}
	src := &fakeAdapter{name: "hn", postings: []model.RawPosting{raw("Acme", "Backend Engineer", "hn", time.Hour)}}

	p := New(cfg, []model.SourceAdapter{src}, Options{Notifier: n, Mirrors: []mirror.Mirror{m}, DryRun: true}, discardLogger())
	sum, err := p.Run(context.Background(), now)
	require.NoError(t, err)

	assert.False(t, sum.Written)
	assert.Len(t, sum.Jobs, 1)
	_, statErr := os.Stat(cfg.Output.Path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	assert.Empty(t, n.calls)
	assert.Empty(t, m.stored)
}

func TestRun_MirrorFailureDoesNotFailRun(t *testing.T) {
	cfg := testConfig(t)
	broken := &fakeMirror{name: "broken", err: errors.New("connection refused")}
	ok := &fakeMirror{name: "ok"}
	src := &fakeAdapter{name: "hn", postings: []model.RawPosting{raw("Acme", "Backend Engineer", "hn", time.Hour)}}

	p := New(cfg, []model.SourceAdapter{src}, Options{Mirrors: []mirror.Mirror{broken, ok}}, discardLogger())
	sum, err := p.Run(context.Background(), now)
	require.NoError(t, err)

	assert.True(t, sum.Written)
	require.Len(t, ok.stored, 1)
	assert.Equal(t, 1, ok.stored[0].TotalJobs)
}

func TestRun_NoPostingsKeepsPreviousArtifact(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeAdapter{name: "hn", postings: []model.RawPosting{raw("Acme", "Backend Engineer", "hn", time.Hour)}}
	p := New(cfg, []model.SourceAdapter{src}, Options{}, discardLogger())

	_, err := p.Run(context.Background(), now)
	require.NoError(t, err)
	before, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)

	src.err = errors.New("site down")
	sum, err := p.Run(context.Background(), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, sum.Written)

	after, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := testConfig(t)
	src := &fakeAdapter{name: "hn", postings: []model.RawPosting{raw("Acme", "Backend Engineer", "hn", time.Hour)}}
	p := New(cfg, []model.SourceAdapter{src}, Options{}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, now)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, src.calls.Load())
}

// --- build ---

func TestBuildAdapters_SkipsUnbuildableSources(t *testing.T) {
	cfg := testConfig(t)
	cfg.Fetch.Retries = 1
	cfg.Sources = []config.SourceConfig{
		{Name: "hn-oct", Type: config.SourceHN, URL: "https://news.ycombinator.com/item?id=1", Render: config.RenderHTTP, Enabled: true},
		{Name: "wellfound", Type: config.SourceWellfound, Render: config.RenderBrowser, Enabled: true},
		{Name: "acme", Type: config.SourceGreenhouse, BoardToken: "acme", Company: "Acme", Render: config.RenderHTTP, Enabled: true},
		{Name: "off", Type: config.SourceRemoteOK, Render: config.RenderHTTP, Enabled: false},
		{Name: "waas", Type: config.SourceWorkAtAStartup, Render: config.RenderHTTP, Enabled: true},
	}

	deps := adapter.Deps{
		Client: http.DefaultClient,
		Pages:  adapter.NewHTTPPageFetcher(http.DefaultClient, "test-agent"),
	}
	got := BuildAdapters(cfg, deps, discardLogger())

	require.Len(t, got, 3)
	assert.Equal(t, "hn-oct", got[0].Name())
	assert.Equal(t, "acme", got[1].Name())
	assert.Equal(t, "waas", got[2].Name())
}
