package adapter

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	ycSource  = "yc"
	ycJobsURL = "https://www.ycombinator.com/jobs"
)

var ycJobPathRegex = regexp.MustCompile(`^(?:https://www\.ycombinator\.com)?/companies/([^/]+)/jobs/[^/?#]+`)

// YCAdapter scrapes the Y Combinator jobs board.
type YCAdapter struct {
	name    string
	pageURL string
	pages   PageFetcher
	now     func() time.Time
}

// NewYCAdapter creates the adapter. An empty pageURL uses the public board.
func NewYCAdapter(name, pageURL string, pages PageFetcher) *YCAdapter {
	if pageURL == "" {
		pageURL = ycJobsURL
	}
	return &YCAdapter{name: name, pageURL: pageURL, pages: pages, now: time.Now}
}

// Name returns the configured source name.
func (a *YCAdapter) Name() string { return a.name }

// FetchPostings parses every /companies/<slug>/jobs/<id> link on the board.
func (a *YCAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	body, err := a.pages.FetchPage(ctx, a.pageURL)
	if err != nil {
		return nil, fmt.Errorf("yc fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("yc parse: %w", err)
	}

	scrapedAt := a.now()
	seen := make(map[string]bool)
	var postings []model.RawPosting
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		m := ycJobPathRegex.FindStringSubmatch(href)
		if m == nil {
			return
		}
		url := absoluteURL(a.pageURL, href)
		title := strings.Join(strings.Fields(link.Text()), " ")
		if seen[url] || len(title) < 5 {
			return
		}
		seen[url] = true

		card := link.Closest("li")
		if card.Length() == 0 {
			card = link.Parent().Parent()
		}
		company := strings.TrimSpace(card.Find(`a[href="/companies/` + m[1] + `"]`).First().Text())
		if company == "" {
			company = humanizeSlug(m[1])
		}
		text := strings.Join(strings.Fields(card.Text()), " ")

		postings = append(postings, model.RawPosting{
			Company:   company,
			Title:     title,
			Location:  extractLocation(text),
			TechStack: extractTechStack(text),
			URL:       url,
			SourceURL: a.pageURL,
			Source:    ycSource,
			ScrapedAt: scrapedAt,
			RawText:   truncate(text, 500),
		})
	})

	return postings, nil
}

// humanizeSlug turns "acme-robotics" into "Acme Robotics".
func humanizeSlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
