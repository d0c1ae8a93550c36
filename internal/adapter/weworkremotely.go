package adapter

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	wwrSource  = "weworkremotely"
	wwrJobsURL = "https://weworkremotely.com/categories/remote-programming-jobs"
)

// WeWorkRemotelyAdapter scrapes the We Work Remotely programming category page.
type WeWorkRemotelyAdapter struct {
	name    string
	pageURL string
	pages   PageFetcher
	now     func() time.Time
}

// NewWeWorkRemotelyAdapter creates the adapter. An empty pageURL uses the programming category.
func NewWeWorkRemotelyAdapter(name, pageURL string, pages PageFetcher) *WeWorkRemotelyAdapter {
	if pageURL == "" {
		pageURL = wwrJobsURL
	}
	return &WeWorkRemotelyAdapter{name: name, pageURL: pageURL, pages: pages, now: time.Now}
}

// Name returns the configured source name.
func (a *WeWorkRemotelyAdapter) Name() string { return a.name }

// FetchPostings parses every job list item on the category page.
func (a *WeWorkRemotelyAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	body, err := a.pages.FetchPage(ctx, a.pageURL)
	if err != nil {
		return nil, fmt.Errorf("weworkremotely fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("weworkremotely parse: %w", err)
	}

	scrapedAt := a.now()
	seen := make(map[string]bool)
	var postings []model.RawPosting
	doc.Find("section.jobs li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find(`a[href*="/remote-jobs/"]`).First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		url := absoluteURL(a.pageURL, href)
		if seen[url] {
			return
		}

		title := strings.TrimSpace(li.Find(".title").First().Text())
		company := strings.TrimSpace(li.Find(".company").First().Text())
		if title == "" || company == "" {
			return
		}
		seen[url] = true

		text := strings.Join(strings.Fields(li.Text()), " ")
		location := strings.TrimSpace(li.Find(".region").First().Text())
		if location == "" {
			location = "remote"
		}

		p := model.RawPosting{
			Company:   company,
			Title:     title,
			Location:  location,
			TechStack: extractTechStack(text),
			URL:       url,
			SourceURL: a.pageURL,
			Source:    wwrSource,
			ScrapedAt: scrapedAt,
			RawText:   truncate(text, 500),
		}
		if dt, ok := li.Find("time").Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, dt); err == nil {
				p.PostedAt = &t
			}
		}
		postings = append(postings, p)
	})

	return postings, nil
}
