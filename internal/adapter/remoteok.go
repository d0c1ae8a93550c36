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
	remoteOKSource = "remoteok"
	remoteOKAPIURL = "https://remoteok.com/api"
)

// remoteOKJob is one entry of the RemoteOK API. The first array element is a
// legal notice with no position, which we skip.
type remoteOKJob struct {
	ID          string   `json:"id"`
	Epoch       int64    `json:"epoch"`
	Date        string   `json:"date"`
	Company     string   `json:"company"`
	Position    string   `json:"position"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	ApplyURL    string   `json:"apply_url"`
}

// RemoteOKAdapter fetches postings from the RemoteOK public JSON API.
type RemoteOKAdapter struct {
	name      string
	apiURL    string
	client    *http.Client
	userAgent string
	now       func() time.Time
}

// NewRemoteOKAdapter creates a RemoteOK adapter. An empty apiURL uses the public endpoint.
func NewRemoteOKAdapter(name, apiURL string, client *http.Client, userAgent string) *RemoteOKAdapter {
	if apiURL == "" {
		apiURL = remoteOKAPIURL
	}
	return &RemoteOKAdapter{
		name:      name,
		apiURL:    apiURL,
		client:    client,
		userAgent: userAgent,
		now:       time.Now,
	}
}

// Name returns the configured source name.
func (a *RemoteOKAdapter) Name() string { return a.name }

// FetchPostings retrieves the current RemoteOK feed.
func (a *RemoteOKAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	var entries []remoteOKJob
	if err := getJSON(ctx, a.client, a.apiURL, a.userAgent, &entries); err != nil {
		return nil, fmt.Errorf("remoteok fetch: %w", err)
	}

	scrapedAt := a.now()
	postings := make([]model.RawPosting, 0, len(entries))
	for _, e := range entries {
		if e.Position == "" {
			continue
		}

		description := extractText(e.Description)
		tech := extractTechStack(e.Position + " " + description)
		tech = append(tech, e.Tags...)

		location := e.Location
		if strings.TrimSpace(location) == "" {
			location = "remote"
		}

		url := e.URL
		if url == "" {
			url = e.ApplyURL
		}

		p := model.RawPosting{
			Company:   e.Company,
			Title:     e.Position,
			Location:  location,
			TechStack: tech,
			URL:       url,
			SourceURL: a.apiURL,
			Source:    remoteOKSource,
			ScrapedAt: scrapedAt,
			RawText:   truncate(description, 500),
		}
		if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
			p.PostedAt = &t
		} else if e.Epoch > 0 {
			t := time.Unix(e.Epoch, 0).UTC()
			p.PostedAt = &t
		}
		postings = append(postings, p)
	}

	return postings, nil
}
