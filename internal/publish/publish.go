// Package publish sorts, summarizes and atomically writes the job artifact.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/amishk599/hiddenjobs/internal/config"
	"github.com/amishk599/hiddenjobs/internal/model"
)

// Result describes what a Publish call did.
type Result struct {
	Artifact    Artifact
	PreviousIDs map[string]bool // ids in the artifact that was replaced, empty on first run
	Written     bool            // false when there was nothing to publish
}

// NewJobs returns the published jobs whose id was not in the previous artifact.
func (r Result) NewJobs() []model.JobPosting {
	var out []model.JobPosting
	for _, j := range r.Artifact.Jobs {
		if !r.PreviousIDs[j.ID] {
			out = append(out, j)
		}
	}
	return out
}

// Publisher writes the primary artifact and any configured copies.
type Publisher struct {
	cfg    config.OutputConfig
	logger *slog.Logger
}

// New creates a Publisher for the given output settings.
func New(cfg config.OutputConfig, logger *slog.Logger) *Publisher {
	return &Publisher{cfg: cfg, logger: logger}
}

// Publish sorts jobs and writes them atomically. An empty collection leaves
// the existing artifact untouched.
func (p *Publisher) Publish(jobs []model.JobPosting, now time.Time) (Result, error) {
	res := Result{PreviousIDs: map[string]bool{}}
	prev, err := ReadArtifact(p.cfg.Path)
	switch {
	case err == nil:
		res.PreviousIDs = prev.IDs()
	case errors.Is(err, fs.ErrNotExist):
	default:
		p.logger.Warn("could not read previous artifact", "path", p.cfg.Path, "error", err)
	}

	if len(jobs) == 0 {
		p.logger.Warn("no postings to publish, keeping previous artifact", "path", p.cfg.Path)
		return res, nil
	}

	sorted := SortJobs(jobs)
	if !p.cfg.IncludeRawText {
		for i := range sorted {
			sorted[i].RawText = ""
		}
	}

	res.Artifact = NewArtifact(sorted, now)
	if err := writeJSON(p.cfg.Path, res.Artifact); err != nil {
		return res, err
	}
	res.Written = true
	p.logger.Info("artifact published", "path", p.cfg.Path, "jobs", res.Artifact.TotalJobs)

	var copyErrs []error
	for _, c := range p.cfg.Copies {
		n, err := writeCopy(c, res.Artifact, now)
		if err != nil {
			copyErrs = append(copyErrs, err)
			continue
		}
		p.logger.Info("copy published", "path", c.Path, "format", c.Format, "jobs", n)
	}
	return res, errors.Join(copyErrs...)
}

// SortJobs returns a copy of jobs ordered by hidden score descending, then
// scrape time descending, then id ascending.
func SortJobs(jobs []model.JobPosting) []model.JobPosting {
	out := append([]model.JobPosting(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HiddenScore != b.HiddenScore {
			return a.HiddenScore > b.HiddenScore
		}
		if !a.ScrapedAt.Equal(b.ScrapedAt) {
			return a.ScrapedAt.After(b.ScrapedAt)
		}
		return a.ID < b.ID
	})
	return out
}

// FilterLocation keeps jobs whose location contains sub, case-insensitively.
// An empty sub keeps everything.
func FilterLocation(jobs []model.JobPosting, sub string) []model.JobPosting {
	sub = strings.ToLower(strings.TrimSpace(sub))
	if sub == "" {
		return jobs
	}
	out := make([]model.JobPosting, 0, len(jobs))
	for _, j := range jobs {
		if strings.Contains(strings.ToLower(j.LocationOrEmpty()), sub) {
			out = append(out, j)
		}
	}
	return out
}

func writeCopy(c config.CopyConfig, a Artifact, now time.Time) (int, error) {
	jobs := FilterLocation(a.Jobs, c.Location)
	if c.Format == config.FormatLegacy {
		if jobs == nil {
			jobs = []model.JobPosting{}
		}
		return len(jobs), writeJSON(c.Path, jobs)
	}
	if c.Location != "" {
		a = NewArtifact(jobs, now)
	}
	return len(jobs), writeJSON(c.Path, a)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", path, err)
		}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
