package model

import (
	"context"
	"time"
)

// RawPosting is a candidate job record exactly as a source adapter extracted it.
// Fields may be missing, oddly cased, or padded with whitespace.
type RawPosting struct {
	Company   string
	Title     string
	Location  string
	TechStack []string
	URL       string     // apply link, if the adapter found one
	SourceURL string     // page the posting was scraped from
	Source    string     // adapter name
	PostedAt  *time.Time // nullable (not every site exposes a post date)
	ScrapedAt time.Time  // our clock
	RawText   string
	CommentID string // forum comment id (hn)
}

// JobPosting is the canonical, published representation of a job.
type JobPosting struct {
	ID          string     `json:"id"`
	Company     string     `json:"company"`
	Title       string     `json:"title"`
	Location    *string    `json:"location"`
	TechStack   []string   `json:"tech_stack"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	PostedDate  *time.Time `json:"posted_date"`
	ScrapedAt   time.Time  `json:"scraped_at"`
	HiddenScore int        `json:"hidden_score"`
	RawText     string     `json:"raw_text,omitempty"`
}

// RecencyTime returns the posted date when known, else the scrape time.
func (j JobPosting) RecencyTime() time.Time {
	if j.PostedDate != nil {
		return *j.PostedDate
	}
	return j.ScrapedAt
}

// LocationOrEmpty returns the location, or "" when unspecified.
func (j JobPosting) LocationOrEmpty() string {
	if j.Location == nil {
		return ""
	}
	return *j.Location
}

// SourceAdapter fetches raw postings from one job site or thread.
type SourceAdapter interface {
	Name() string
	FetchPostings(ctx context.Context) ([]RawPosting, error)
}

// SourceWeigher reports the base ranking weight of a source.
type SourceWeigher interface {
	Weight(source string) int
}

// SavedStore persists the client-only jobId -> saved relation.
type SavedStore interface {
	IsSaved(jobID string) (bool, error)
	SetSaved(jobID string, saved bool) error
	SavedIDs() (map[string]bool, error)
}

// Notifier reports postings that are new since the previous publish.
type Notifier interface {
	Notify(jobs []JobPosting) error
}
