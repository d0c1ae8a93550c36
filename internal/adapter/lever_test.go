package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLeverAdapter_FetchPostings_Success(t *testing.T) {
	payload := `[
		{
			"id": "ff7ef527-b0d3-4c44-836a-8d6b58ac321e",
			"text": "Software Engineer",
			"description": "<div>Full HTML description</div>",
			"descriptionPlain": "Plain text job description. We write Python and React.",
			"categories": {
				"team": "Engineering",
				"department": "Platform",
				"location": "San Francisco, CA",
				"commitment": "Full-time",
				"allLocations": ["San Francisco, CA", "Remote"]
			},
			"createdAt": 1769784074110,
			"workplaceType": "hybrid",
			"hostedUrl": "https://jobs.lever.co/acme/ff7ef527-b0d3-4c44-836a-8d6b58ac321e",
			"applyUrl": "https://jobs.lever.co/acme/ff7ef527-b0d3-4c44-836a-8d6b58ac321e/apply"
		},
		{
			"id": "a1b2c3d4-e5f6-7890-abcd-ef1234567890",
			"text": "Backend Engineer",
			"description": "<div>Backend job description</div>",
			"descriptionPlain": "Backend job description",
			"categories": {
				"team": "Engineering",
				"department": "Backend",
				"location": "Remote",
				"commitment": "Full-time",
				"allLocations": ["Remote"]
			},
			"createdAt": 1769870474110,
			"workplaceType": "remote",
			"hostedUrl": "https://jobs.lever.co/acme/a1b2c3d4-e5f6-7890-abcd-ef1234567890",
			"applyUrl": "https://jobs.lever.co/acme/a1b2c3d4-e5f6-7890-abcd-ef1234567890/apply"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "acme", "Acme Corp")

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
	if p.Location != "San Francisco, CA, Remote" {
		t.Errorf("expected location 'San Francisco, CA, Remote', got %s", p.Location)
	}
	if p.URL != "https://jobs.lever.co/acme/ff7ef527-b0d3-4c44-836a-8d6b58ac321e" {
		t.Errorf("expected hostedUrl, got %s", p.URL)
	}
	if p.Source != "lever" {
		t.Errorf("expected source lever, got %s", p.Source)
	}
	if p.PostedAt == nil {
		t.Fatal("expected PostedAt to be set from createdAt")
	}
	expected := time.UnixMilli(1769784074110).UTC()
	if !p.PostedAt.Equal(expected) {
		t.Errorf("expected PostedAt %v, got %v", expected, p.PostedAt)
	}
	if len(p.TechStack) != 2 || p.TechStack[0] != "python" || p.TechStack[1] != "react" {
		t.Errorf("unexpected tech stack: %v", p.TechStack)
	}

	p2 := postings[1]
	if p2.Location != "Remote" {
		t.Errorf("expected location Remote, got %s", p2.Location)
	}
	if p2.RawText != "Backend job description" {
		t.Errorf("expected raw text 'Backend job description', got %q", p2.RawText)
	}
}

func TestLeverAdapter_FetchPostings_EmptyBoard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "empty-co", "Empty Co")

	postings, err := adapter.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Fatalf("expected 0 postings, got %d", len(postings))
	}
}

func TestLeverAdapter_FetchPostings_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "bad-co", "Bad Co")

	_, err := adapter.FetchPostings(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestLeverAdapter_FetchPostings_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "fail-co", "Fail Co")

	_, err := adapter.FetchPostings(context.Background())
	if err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
}

func TestLeverAdapter_FetchPostings_LocationFallback(t *testing.T) {
	payload := `[
		{
			"id": "test-id-123",
			"text": "Test Engineer",
			"descriptionPlain": "Test",
			"categories": {
				"team": "Engineering",
				"department": "QA",
				"location": "New York, NY",
				"commitment": "Full-time",
				"allLocations": []
			},
			"createdAt": 1769784074110,
			"workplaceType": "onsite",
			"hostedUrl": "https://jobs.lever.co/acme/test-id-123",
			"applyUrl": "https://jobs.lever.co/acme/test-id-123/apply"
		},
		{
			"id": "test-id-456",
			"text": "Platform Engineer",
			"categories": {},
			"workplaceType": "remote",
			"applyUrl": "https://jobs.lever.co/acme/test-id-456/apply"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	adapter := newLeverTestAdapter(srv, "acme", "Acme Corp")

	postings, err := adapter.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	if postings[0].Location != "New York, NY" {
		t.Errorf("expected fallback to categories.location, got %s", postings[0].Location)
	}
	if postings[1].Location != "remote" {
		t.Errorf("expected workplaceType fallback, got %s", postings[1].Location)
	}
	if postings[1].URL != "https://jobs.lever.co/acme/test-id-456/apply" {
		t.Errorf("expected applyUrl fallback, got %s", postings[1].URL)
	}
	if postings[1].PostedAt != nil {
		t.Errorf("expected nil PostedAt without createdAt, got %v", postings[1].PostedAt)
	}
}

// --- helpers ---

// newLeverTestAdapter creates a LeverAdapter wired to a test server.
func newLeverTestAdapter(srv *httptest.Server, slug, company string) *LeverAdapter {
	a := NewLeverAdapter("lever-"+slug, slug, company, redirectClient(srv), "test-agent")
	a.now = func() time.Time { return fixedNow }
	return a
}
