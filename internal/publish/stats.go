package publish

import (
	"math"
	"sort"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const topN = 10

// Count is one entry of a top-N list.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ScoreDistribution summarizes hidden scores.
type ScoreDistribution struct {
	Min     int     `json:"min"`
	Max     int     `json:"max"`
	Average float64 `json:"average"`
}

// Stats are the aggregate figures published next to the jobs.
type Stats struct {
	BySource        map[string]int    `json:"by_source"`
	TopTechnologies []Count           `json:"top_technologies"`
	TopLocations    []Count           `json:"top_locations"`
	TopCompanies    []Count           `json:"top_companies"`
	Score           ScoreDistribution `json:"score"`
}

// ComputeStats aggregates jobs. Top-N ties break by name.
func ComputeStats(jobs []model.JobPosting) Stats {
	bySource := make(map[string]int)
	techs := make(map[string]int)
	locations := make(map[string]int)
	companies := make(map[string]int)

	var dist ScoreDistribution
	total := 0
	for i, j := range jobs {
		bySource[j.Source]++
		for _, t := range j.TechStack {
			techs[t]++
		}
		if j.Location != nil {
			locations[*j.Location]++
		}
		companies[j.Company]++

		if i == 0 || j.HiddenScore < dist.Min {
			dist.Min = j.HiddenScore
		}
		if i == 0 || j.HiddenScore > dist.Max {
			dist.Max = j.HiddenScore
		}
		total += j.HiddenScore
	}
	if len(jobs) > 0 {
		dist.Average = math.Round(float64(total)/float64(len(jobs))*100) / 100
	}

	return Stats{
		BySource:        bySource,
		TopTechnologies: top(techs, topN),
		TopLocations:    top(locations, topN),
		TopCompanies:    top(companies, topN),
		Score:           dist,
	}
}

func top(counts map[string]int, n int) []Count {
	out := make([]Count, 0, len(counts))
	for name, c := range counts {
		out = append(out, Count{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
