// Package normalize turns raw adapter output into canonical job postings.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/gomoji"
	"golang.org/x/text/unicode/norm"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const unknownSource = "unknown"

// Normalizer validates raw postings and maps them onto model.JobPosting.
type Normalizer struct {
	logger *slog.Logger
}

// New creates a Normalizer that reports dropped records to logger.
func New(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts every valid raw posting. Records missing a company or
// title are dropped with a warning; the rest keep their input order.
func (n *Normalizer) Normalize(raw []model.RawPosting, now time.Time) []model.JobPosting {
	jobs := make([]model.JobPosting, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		job, err := Posting(r, now)
		if err != nil {
			dropped++
			n.logger.Warn("dropping posting",
				"source", r.Source,
				"url", r.URL,
				"error", err,
			)
			continue
		}
		jobs = append(jobs, job)
	}
	if dropped > 0 {
		n.logger.Info("normalization complete", "kept", len(jobs), "dropped", dropped)
	}
	return jobs
}

// Posting normalizes a single raw posting. It returns an error wrapping
// model.ErrMalformedPosting when a required field is missing.
func Posting(r model.RawPosting, now time.Time) (model.JobPosting, error) {
	company := cleanText(r.Company)
	title := cleanText(r.Title)
	switch {
	case company == "" && title == "":
		return model.JobPosting{}, fmt.Errorf("missing company and title: %w", model.ErrMalformedPosting)
	case company == "":
		return model.JobPosting{}, fmt.Errorf("missing company: %w", model.ErrMalformedPosting)
	case title == "":
		return model.JobPosting{}, fmt.Errorf("missing title: %w", model.ErrMalformedPosting)
	}

	source := strings.ToLower(strings.TrimSpace(r.Source))
	if source == "" {
		source = unknownSource
	}

	url := strings.TrimSpace(r.URL)
	if url == "" {
		url = strings.TrimSpace(r.SourceURL)
	}

	scrapedAt := r.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = now
	}

	var posted *time.Time
	if r.PostedAt != nil && !r.PostedAt.IsZero() {
		t := *r.PostedAt
		posted = &t
	}

	return model.JobPosting{
		ID:         PostingID(company, title, source),
		Company:    company,
		Title:      title,
		Location:   Location(r.Location),
		TechStack:  TechStack(r.TechStack),
		URL:        url,
		Source:     source,
		PostedDate: posted,
		ScrapedAt:  scrapedAt,
		RawText:    strings.TrimSpace(r.RawText),
	}, nil
}

// PostingID is the stable identifier of a logical posting: the first 32 hex
// characters of sha256(lower(company)|lower(title)|lower(source)).
func PostingID(company, title, source string) string {
	key := strings.ToLower(company) + "|" + strings.ToLower(title) + "|" + strings.ToLower(source)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32]
}

// TechStack lower-cases and trims every entry, drops empties and
// case-insensitive duplicates, and sorts the result.
func TechStack(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// cleanText applies NFC, strips emoji, and collapses whitespace.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	s = gomoji.RemoveEmojis(s)
	return strings.Join(strings.Fields(s), " ")
}
