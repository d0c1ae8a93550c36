package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/amishk599/hiddenjobs/internal/model"
)

// Page is one screen of results.
type Page struct {
	Jobs       []model.JobPosting
	Total      int // matches across all pages
	Page       int // 1-based, clamped to [1, TotalPages]
	TotalPages int // at least 1
	Label      string
}

// ComputeVisibleJobs filters, sorts and paginates jobs for state. saved holds
// the ids the user saved. It has no side effects and does not modify jobs.
func ComputeVisibleJobs(state ViewState, jobs []model.JobPosting, saved map[string]bool) Page {
	var matched []model.JobPosting
	for _, j := range jobs {
		if Match(state, j, saved) {
			matched = append(matched, j)
		}
	}

	sortJobs(matched, state.sort)

	pageSize := state.pageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := max(1, (len(matched)+pageSize-1)/pageSize)
	page := min(max(1, state.page), totalPages)

	start := min((page-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))

	return Page{
		Jobs:       matched[start:end],
		Total:      len(matched),
		Page:       page,
		TotalPages: totalPages,
		Label:      Label(len(matched)),
	}
}

// Label describes a result count, e.g. "3 jobs found".
func Label(n int) string {
	if n == 1 {
		return "1 job found"
	}
	return fmt.Sprintf("%d jobs found", n)
}

// Match reports whether job passes every predicate of state.
// Matching is case-insensitive. Empty criteria pass all.
func Match(state ViewState, job model.JobPosting, saved map[string]bool) bool {
	if state.query != "" {
		q := strings.ToLower(state.query)
		if !strings.Contains(strings.ToLower(job.Company), q) &&
			!strings.Contains(strings.ToLower(job.Title), q) {
			return false
		}
	}

	if state.location != "" {
		if !strings.EqualFold(strings.TrimSpace(job.LocationOrEmpty()), state.location) {
			return false
		}
	}

	for _, want := range state.techs {
		matched := false
		for _, have := range job.TechStack {
			if strings.EqualFold(have, want) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if state.savedOnly && !saved[job.ID] {
		return false
	}

	return true
}

func sortJobs(jobs []model.JobPosting, order SortOrder) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i], jobs[j]
		if order == SortRecent {
			ta, tb := a.RecencyTime(), b.RecencyTime()
			if !ta.Equal(tb) {
				return ta.After(tb)
			}
			return a.ID < b.ID
		}
		if a.HiddenScore != b.HiddenScore {
			return a.HiddenScore > b.HiddenScore
		}
		if !a.ScrapedAt.Equal(b.ScrapedAt) {
			return a.ScrapedAt.After(b.ScrapedAt)
		}
		return a.ID < b.ID
	})
}
