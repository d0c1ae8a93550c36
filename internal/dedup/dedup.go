// Package dedup collapses near-identical postings into one representative.
package dedup

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Thresholds decide when two postings are the same job. Key and Title are
// in (0, 1]; Company is in [0, 1] and zero disables the secondary rule.
type Thresholds struct {
	Key     float64 // similarity of lower(company)|lower(title)
	Company float64 // company similarity for the secondary rule, 0 = off
	Title   float64 // title similarity required alongside Company
}

// DefaultThresholds match the shipped configuration. The secondary rule is
// off: "Backend Engineer" and "Frontend Engineer" at one company are two jobs.
var DefaultThresholds = Thresholds{Key: 0.85, Title: 0.70}

// Deduplicator clusters duplicate postings and keeps one per cluster.
type Deduplicator struct {
	thresholds Thresholds
	weigher    model.SourceWeigher
	logger     *slog.Logger
}

// New creates a Deduplicator. weigher ranks sources when picking a cluster's representative.
func New(thresholds Thresholds, weigher model.SourceWeigher, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{thresholds: thresholds, weigher: weigher, logger: logger}
}

type entry struct {
	key, company, title          string
	keyLen, companyLen, titleLen int
}

func newEntry(j model.JobPosting) entry {
	company := strings.ToLower(j.Company)
	title := strings.ToLower(j.Title)
	key := company + "|" + title
	return entry{
		key:        key,
		company:    company,
		title:      title,
		keyLen:     utf8.RuneCountInString(key),
		companyLen: utf8.RuneCountInString(company),
		titleLen:   utf8.RuneCountInString(title),
	}
}

// Dedupe returns one posting per duplicate cluster. Representatives keep
// their input order and are never modified; singletons pass through.
func (d *Deduplicator) Dedupe(jobs []model.JobPosting) []model.JobPosting {
	if len(jobs) < 2 {
		return append([]model.JobPosting(nil), jobs...)
	}

	entries := make([]entry, len(jobs))
	for i, j := range jobs {
		entries[i] = newEntry(j)
	}

	uf := newUnionFind(len(jobs))
	for i := 0; i < len(jobs); i++ {
		for k := i + 1; k < len(jobs); k++ {
			if uf.find(i) == uf.find(k) {
				continue
			}
			if jobs[i].ID == jobs[k].ID || d.similar(entries[i], entries[k]) {
				uf.union(i, k)
			}
		}
	}

	best := make(map[int]int, len(jobs)) // root -> representative index
	for i := range jobs {
		root := uf.find(i)
		cur, ok := best[root]
		if !ok || d.better(jobs[i], jobs[cur]) {
			best[root] = i
		}
	}

	out := make([]model.JobPosting, 0, len(best))
	for i, j := range jobs {
		if best[uf.find(i)] == i {
			out = append(out, j)
		}
	}

	if removed := len(jobs) - len(out); removed > 0 {
		d.logger.Info("removed duplicates", "before", len(jobs), "after", len(out), "removed", removed)
	}
	return out
}

// similar applies the key rule, then the company-and-title rule when it is
// enabled. Length bounds rule out most pairs before any LCS is computed.
func (d *Deduplicator) similar(a, b entry) bool {
	t := d.thresholds
	if ratioUpperBound(a.keyLen, b.keyLen) >= t.Key && Ratio(a.key, b.key) >= t.Key {
		return true
	}
	if t.Company <= 0 {
		return false
	}
	if ratioUpperBound(a.companyLen, b.companyLen) < t.Company ||
		ratioUpperBound(a.titleLen, b.titleLen) < t.Title {
		return false
	}
	return Ratio(a.company, b.company) >= t.Company && Ratio(a.title, b.title) >= t.Title
}

// better reports whether a should replace b as representative: higher source
// weight, then more recent. Equal candidates keep the earlier one.
func (d *Deduplicator) better(a, b model.JobPosting) bool {
	wa, wb := d.weigher.Weight(a.Source), d.weigher.Weight(b.Source)
	if wa != wb {
		return wa > wb
	}
	return a.RecencyTime().After(b.RecencyTime())
}
