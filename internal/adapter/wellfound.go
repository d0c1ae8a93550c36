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
	wellfoundSource  = "wellfound"
	wellfoundJobsURL = "https://wellfound.com/jobs"
)

// WellfoundAdapter scrapes the Wellfound (formerly AngelList) jobs page.
// The page is rendered client-side, so it is normally paired with a BrowserPageFetcher.
type WellfoundAdapter struct {
	name    string
	pageURL string
	pages   PageFetcher
	now     func() time.Time
}

// NewWellfoundAdapter creates the adapter. An empty pageURL uses the public jobs page.
func NewWellfoundAdapter(name, pageURL string, pages PageFetcher) *WellfoundAdapter {
	if pageURL == "" {
		pageURL = wellfoundJobsURL
	}
	return &WellfoundAdapter{name: name, pageURL: pageURL, pages: pages, now: time.Now}
}

// Name returns the configured source name.
func (a *WellfoundAdapter) Name() string { return a.name }

// FetchPostings parses each startup card and the job links inside it.
func (a *WellfoundAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	body, err := a.pages.FetchPage(ctx, a.pageURL)
	if err != nil {
		return nil, fmt.Errorf("wellfound fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("wellfound parse: %w", err)
	}

	scrapedAt := a.now()
	seen := make(map[string]bool)
	var postings []model.RawPosting
	doc.Find(`[data-test="StartupResult"]`).Each(func(_ int, card *goquery.Selection) {
		company := strings.TrimSpace(card.Find("h2").First().Text())
		if company == "" {
			return
		}

		card.Find(`a[href*="/jobs/"]`).Each(func(_ int, link *goquery.Selection) {
			href := link.AttrOr("href", "")
			title := strings.Join(strings.Fields(link.Text()), " ")
			url := absoluteURL(a.pageURL, href)
			if title == "" || seen[url] {
				return
			}
			seen[url] = true

			row := link.Parent()
			text := strings.Join(strings.Fields(row.Text()), " ")

			postings = append(postings, model.RawPosting{
				Company:   company,
				Title:     title,
				Location:  extractLocation(text),
				TechStack: extractTechStack(text),
				URL:       url,
				SourceURL: a.pageURL,
				Source:    wellfoundSource,
				ScrapedAt: scrapedAt,
				RawText:   truncate(text, 500),
			})
		})
	})

	return postings, nil
}
