package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	leverSource  = "lever"
	leverBaseURL = "https://api.lever.co/v0/postings"
)

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team         string   `json:"team"`
	Department   string   `json:"department"`
	Location     string   `json:"location"`
	Commitment   string   `json:"commitment"`
	AllLocations []string `json:"allLocations"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"`
	WorkplaceType    string          `json:"workplaceType"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
}

// LeverAdapter fetches postings from the Lever public postings API.
type LeverAdapter struct {
	name        string
	companySlug string
	companyName string
	client      *http.Client
	userAgent   string
	now         func() time.Time
}

// NewLeverAdapter creates a new adapter for a Lever board.
func NewLeverAdapter(name, companySlug, companyName string, client *http.Client, userAgent string) *LeverAdapter {
	return &LeverAdapter{
		name:        name,
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
		userAgent:   userAgent,
		now:         time.Now,
	}
}

// Name returns the configured source name.
func (a *LeverAdapter) Name() string { return a.name }

// FetchPostings retrieves all postings from the Lever board.
func (a *LeverAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, url, a.userAgent, &leverJobs); err != nil {
		return nil, fmt.Errorf("lever fetch for %s: %w", a.companySlug, err)
	}

	scrapedAt := a.now()
	postings := make([]model.RawPosting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}
		if location == "" && strings.EqualFold(lj.WorkplaceType, "remote") {
			location = "remote"
		}

		// createdAt is Unix milliseconds.
		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			postedAt = &t
		}

		jobURL := lj.HostedURL
		if jobURL == "" {
			jobURL = lj.ApplyURL
		}

		postings = append(postings, model.RawPosting{
			Company:   a.companyName,
			Title:     lj.Text,
			Location:  location,
			TechStack: extractTechStack(lj.Text + " " + lj.DescriptionPlain),
			URL:       jobURL,
			SourceURL: url,
			Source:    leverSource,
			PostedAt:  postedAt,
			ScrapedAt: scrapedAt,
			RawText:   truncate(strings.Join(strings.Fields(lj.DescriptionPlain), " "), 500),
		})
	}

	return postings, nil
}
