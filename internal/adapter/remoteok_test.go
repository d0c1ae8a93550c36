package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRemoteOKAdapter_FetchPostings(t *testing.T) {
	payload := `[
		{"legal": "API terms of service"},
		{
			"id": "1001",
			"epoch": 1760000000,
			"date": "2026-10-09T08:00:00+00:00",
			"company": "Orbit",
			"position": "Senior Rust Engineer",
			"tags": ["rust", "backend"],
			"location": "",
			"description": "<p>Build services in Rust and Kafka.</p>",
			"url": "https://remoteok.com/remote-jobs/1001"
		},
		{
			"id": "1002",
			"epoch": 1760100000,
			"company": "Lumen",
			"position": "Frontend Developer",
			"tags": [],
			"location": "Europe",
			"apply_url": "https://lumen.example/apply"
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("expected user agent to be sent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter("remoteok", srv.URL, srv.Client(), "test-agent")
	a.now = func() time.Time { return fixedNow }

	postings, err := a.FetchPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected legal notice to be skipped, got %d postings", len(postings))
	}

	p := postings[0]
	if p.Company != "Orbit" || p.Title != "Senior Rust Engineer" {
		t.Errorf("unexpected company/title: %q/%q", p.Company, p.Title)
	}
	if p.Location != "remote" {
		t.Errorf("expected empty location to default to remote, got %q", p.Location)
	}
	if p.Source != "remoteok" {
		t.Errorf("expected source remoteok, got %q", p.Source)
	}
	if p.PostedAt == nil || p.PostedAt.Day() != 9 {
		t.Errorf("expected PostedAt from date, got %v", p.PostedAt)
	}
	if p.RawText != "Build services in Rust and Kafka." {
		t.Errorf("unexpected raw text: %q", p.RawText)
	}
	var hasBackendTag bool
	for _, tech := range p.TechStack {
		if tech == "backend" {
			hasBackendTag = true
		}
	}
	if !hasBackendTag {
		t.Errorf("expected API tags in tech stack, got %v", p.TechStack)
	}

	p2 := postings[1]
	if p2.Location != "Europe" {
		t.Errorf("expected location Europe, got %q", p2.Location)
	}
	if p2.URL != "https://lumen.example/apply" {
		t.Errorf("expected apply_url fallback, got %q", p2.URL)
	}
	if p2.PostedAt == nil || !p2.PostedAt.Equal(time.Unix(1760100000, 0)) {
		t.Errorf("expected PostedAt from epoch, got %v", p2.PostedAt)
	}
}

func TestRemoteOKAdapter_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewRemoteOKAdapter("remoteok", srv.URL, srv.Client(), "")
	if _, err := a.FetchPostings(context.Background()); err == nil {
		t.Fatal("expected error for HTTP 403, got nil")
	}
}
