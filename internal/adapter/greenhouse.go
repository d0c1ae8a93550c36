package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	greenhouseSource  = "greenhouse"
	greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"
)

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Location       greenhouseLocation `json:"location"`
	AbsoluteURL    string             `json:"absolute_url"`
	FirstPublished string             `json:"first_published"`
	UpdatedAt      string             `json:"updated_at"`
	Content        string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// GreenhouseAdapter fetches postings from one company's Greenhouse board.
type GreenhouseAdapter struct {
	name        string
	boardToken  string
	companyName string
	client      *http.Client
	userAgent   string
	now         func() time.Time
}

// NewGreenhouseAdapter creates a new adapter for a Greenhouse board.
func NewGreenhouseAdapter(name, boardToken, companyName string, client *http.Client, userAgent string) *GreenhouseAdapter {
	return &GreenhouseAdapter{
		name:        name,
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
		userAgent:   userAgent,
		now:         time.Now,
	}
}

// Name returns the configured source name.
func (a *GreenhouseAdapter) Name() string { return a.name }

// FetchPostings retrieves all jobs on the board, including their descriptions.
func (a *GreenhouseAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, url, a.userAgent, &ghResp); err != nil {
		return nil, fmt.Errorf("greenhouse fetch for %s: %w", a.boardToken, err)
	}

	scrapedAt := a.now()
	postings := make([]model.RawPosting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		description := extractText(gj.Content)
		p := model.RawPosting{
			Company:   a.companyName,
			Title:     gj.Title,
			Location:  gj.Location.Name,
			TechStack: extractTechStack(gj.Title + " " + description),
			URL:       gj.AbsoluteURL,
			SourceURL: url,
			Source:    greenhouseSource,
			ScrapedAt: scrapedAt,
			RawText:   truncate(description, 500),
		}

		// Prefer first_published; updated_at moves on every edit.
		for _, ts := range []string{gj.FirstPublished, gj.UpdatedAt} {
			if ts == "" {
				continue
			}
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				p.PostedAt = &t
				break
			}
		}

		postings = append(postings, p)
	}

	return postings, nil
}
