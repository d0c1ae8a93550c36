// Package filter implements client-side search, filtering, sorting and
// pagination over published postings.
package filter

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder selects how visible jobs are ordered.
type SortOrder string

const (
	SortScore  SortOrder = "score"
	SortRecent SortOrder = "recent"
)

// DefaultPageSize is used when a non-positive page size is requested.
const DefaultPageSize = 20

// ParseSort converts a user-supplied sort name.
func ParseSort(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortScore, "":
		return SortScore, nil
	case SortRecent:
		return SortRecent, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want %q or %q)", s, SortScore, SortRecent)
	}
}

// ViewState is the consumer's current query. It is a value: every mutator
// returns a new state and leaves the receiver untouched. Mutators other than
// WithPage reset the page to 1.
type ViewState struct {
	query     string
	location  string
	techs     []string // lower-cased, sorted, never shared between states
	savedOnly bool
	sort      SortOrder
	page      int
	pageSize  int
}

// NewViewState returns the initial state: no filters, score order, page 1.
func NewViewState(pageSize int) ViewState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ViewState{sort: SortScore, page: 1, pageSize: pageSize}
}

// Query is the free-text search over company and title.
func (v ViewState) Query() string { return v.query }

// Location is the selected location, empty for any.
func (v ViewState) Location() string { return v.location }

// SavedOnly reports whether only saved jobs are shown.
func (v ViewState) SavedOnly() bool { return v.savedOnly }

// Sort is the current ordering.
func (v ViewState) Sort() SortOrder { return v.sort }

// Page is the requested 1-based page, before clamping to the result count.
func (v ViewState) Page() int { return v.page }

// PageSize is the number of jobs per page.
func (v ViewState) PageSize() int { return v.pageSize }

// Techs returns a copy of the selected technologies.
func (v ViewState) Techs() []string {
	return append([]string(nil), v.techs...)
}

// HasTech reports whether tech is selected.
func (v ViewState) HasTech(tech string) bool {
	tech = strings.ToLower(strings.TrimSpace(tech))
	for _, t := range v.techs {
		if t == tech {
			return true
		}
	}
	return false
}

// WithQuery sets the search text and returns to page 1.
func (v ViewState) WithQuery(q string) ViewState {
	v.query = strings.TrimSpace(q)
	v.page = 1
	return v
}

// WithLocation sets the location filter ("" clears it) and returns to page 1.
func (v ViewState) WithLocation(loc string) ViewState {
	v.location = strings.TrimSpace(loc)
	v.page = 1
	return v
}

// ToggleTech selects tech if it is not selected and deselects it otherwise.
func (v ViewState) ToggleTech(tech string) ViewState {
	tech = strings.ToLower(strings.TrimSpace(tech))
	if tech == "" {
		return v
	}
	next := make([]string, 0, len(v.techs)+1)
	found := false
	for _, t := range v.techs {
		if t == tech {
			found = true
			continue
		}
		next = append(next, t)
	}
	if !found {
		next = append(next, tech)
		sort.Strings(next)
	}
	v.techs = next
	v.page = 1
	return v
}

// WithSavedOnly turns the saved-only filter on or off and returns to page 1.
func (v ViewState) WithSavedOnly(on bool) ViewState {
	v.savedOnly = on
	v.page = 1
	return v
}

// WithSort changes the ordering and returns to page 1.
func (v ViewState) WithSort(s SortOrder) ViewState {
	v.sort = s
	v.page = 1
	return v
}

// WithPage moves to page p. Values below 1 clamp to 1; the upper bound is
// applied by ComputeVisibleJobs, which knows the result count.
func (v ViewState) WithPage(p int) ViewState {
	v.page = max(1, p)
	return v
}
