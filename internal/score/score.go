// Package score computes the hidden score of each posting.
package score

import (
	"strings"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	minScore = 0
	maxScore = 100
)

// Policy is the scoring configuration: a weight per source plus recency bonuses.
type Policy struct {
	Weights       map[string]int // keyed by lower-cased source
	DefaultWeight int            // for sources missing from Weights
	DayBonus      int            // added when the posting is at most 24h old
	WeekBonus     int            // added when the posting is at most 7 days old
}

// Scorer attaches a hidden score to postings. It also satisfies
// model.SourceWeigher so dedup can rank sources with the same table.
type Scorer struct {
	policy Policy
}

// New creates a Scorer for the given policy.
func New(policy Policy) *Scorer {
	weights := make(map[string]int, len(policy.Weights))
	for k, v := range policy.Weights {
		weights[strings.ToLower(strings.TrimSpace(k))] = v
	}
	policy.Weights = weights
	return &Scorer{policy: policy}
}

// Weight returns the base weight of source.
func (s *Scorer) Weight(source string) int {
	if w, ok := s.policy.Weights[strings.ToLower(strings.TrimSpace(source))]; ok {
		return w
	}
	return s.policy.DefaultWeight
}

// RecencyBonus returns the bonus for a posting last seen at t, judged at now.
func (s *Scorer) RecencyBonus(t, now time.Time) int {
	age := now.Sub(t)
	switch {
	case age <= 24*time.Hour:
		return s.policy.DayBonus
	case age <= 7*24*time.Hour:
		return s.policy.WeekBonus
	default:
		return 0
	}
}

// ScoreOne returns the clamped hidden score of a single posting.
func (s *Scorer) ScoreOne(job model.JobPosting, now time.Time) int {
	score := s.Weight(job.Source) + s.RecencyBonus(job.RecencyTime(), now)
	return max(minScore, min(maxScore, score))
}

// Score returns a copy of jobs with HiddenScore set. The input is not modified.
func (s *Scorer) Score(jobs []model.JobPosting, now time.Time) []model.JobPosting {
	out := make([]model.JobPosting, len(jobs))
	for i, j := range jobs {
		j.HiddenScore = s.ScoreOne(j, now)
		out[i] = j
	}
	return out
}
