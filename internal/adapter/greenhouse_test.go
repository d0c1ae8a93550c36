package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

var fixedNow = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func TestGreenhouse_FetchPostings_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer",
				"location": {"name": "San Francisco, CA"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"first_published": "2026-02-10T09:00:00Z",
				"updated_at": "2026-02-13T10:00:00Z",
				"content": "&lt;p&gt;We use Go and Postgres.&lt;/p&gt;"
			},
			{
				"id": 67890,
				"title": "Backend Engineer",
				"location": {"name": "Remote, US"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"updated_at": "2026-02-13T11:30:00Z"
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/boards/acme/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("content") != "true" {
			t.Errorf("expected content=true, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv, "acme", "Acme Corp")

	postings, err := adapter.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", p.Company)
	}
	if p.Title != "Software Engineer" {
		t.Errorf("expected title Software Engineer, got %s", p.Title)
	}
	if p.Location != "San Francisco, CA" {
		t.Errorf("expected location San Francisco, CA, got %s", p.Location)
	}
	if p.Source != "greenhouse" {
		t.Errorf("expected source greenhouse, got %s", p.Source)
	}
	if !p.ScrapedAt.Equal(fixedNow) {
		t.Errorf("expected ScrapedAt %v, got %v", fixedNow, p.ScrapedAt)
	}
	if p.PostedAt == nil {
		t.Fatal("expected PostedAt to be set")
	}
	if p.PostedAt.Day() != 10 {
		t.Errorf("expected first_published to win, got %v", p.PostedAt)
	}
	if len(p.TechStack) != 2 || p.TechStack[0] != "go" || p.TechStack[1] != "postgres" {
		t.Errorf("unexpected tech stack: %v", p.TechStack)
	}
	if p.RawText != "We use Go and Postgres." {
		t.Errorf("unexpected raw text: %q", p.RawText)
	}

	if postings[1].PostedAt == nil || postings[1].PostedAt.Day() != 13 {
		t.Errorf("expected updated_at fallback, got %v", postings[1].PostedAt)
	}
}

func TestGreenhouse_FetchPostings_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv, "empty-co", "Empty Co")

	postings, err := adapter.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings, got %d", len(postings))
	}
}

func TestGreenhouse_FetchPostings_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv, "bad-co", "Bad Co")

	_, err := adapter.FetchPostings(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestGreenhouse_FetchPostings_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := newTestAdapter(srv, "fail-co", "Fail Co")

	_, err := adapter.FetchPostings(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 429, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *model.HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryAfter != 30*time.Second {
		t.Errorf("unexpected HTTPError: %+v", httpErr)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "double-encoded HTML from Greenhouse API",
			input: "This is the job description. &lt;p&gt;Any HTML included.&lt;/p&gt;",
			want:  "This is the job description. Any HTML included.",
		},
		{
			name:  "typical job description with nested tags and whitespace",
			input: "&lt;p&gt;We are hiring.&lt;/p&gt;\n&lt;ul&gt;\n  &lt;li&gt;Write code&lt;/li&gt;\n  &lt;li&gt;Review PRs&lt;/li&gt;\n&lt;/ul&gt;",
			want:  "We are hiring. Write code Review PRs",
		},
		{
			name:  "plain text with no HTML",
			input: "No tags here.",
			want:  "No tags here.",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := extractText(tc.input)
			if got != tc.want {
				t.Errorf("extractText(%q)\n got  %q\n want %q", tc.input, got, tc.want)
			}
		})
	}
}

// --- helpers ---

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// redirectClient sends every request to srv regardless of the requested host.
func redirectClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

// newTestAdapter creates a GreenhouseAdapter wired to a test server.
func newTestAdapter(srv *httptest.Server, token, company string) *GreenhouseAdapter {
	a := NewGreenhouseAdapter("greenhouse-"+token, token, company, redirectClient(srv), "test-agent")
	a.now = func() time.Time { return fixedNow }
	return a
}

// fakePages serves canned HTML keyed by URL.
type fakePages struct {
	pages map[string]string
	err   error
	calls []string
}

func (f *fakePages) FetchPage(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, &model.HTTPError{StatusCode: http.StatusNotFound, Err: errors.New("not found")}
	}
	return []byte(body), nil
}
