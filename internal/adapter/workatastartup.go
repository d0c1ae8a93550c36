package adapter

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	waasSource       = "workatastartup"
	waasJobsURL      = "https://www.workatastartup.com/jobs/l/software-engineer"
	waasCompanyHost  = "https://www.ycombinator.com"
	waasMaxPages     = 5
	waasMaxPerPage   = 50
	waasDefaultTitle = "Software Engineer"
)

var (
	waasJobPathRegex   = regexp.MustCompile(`/companies/([^/?#]+)/jobs/[^/?#]+`)
	waasSlugSuffixExpr = regexp.MustCompile(`-\d+$`)
)

// WorkAtAStartupAdapter walks a Work at a Startup role listing and visits
// each job page for the description. Listing pages are followed with
// ?page=N until one adds no new jobs.
type WorkAtAStartupAdapter struct {
	name     string
	listURL  string
	pages    PageFetcher
	maxPages int
	now      func() time.Time
}

// NewWorkAtAStartupAdapter creates the adapter. An empty listURL uses the
// software engineer listing.
func NewWorkAtAStartupAdapter(name, listURL string, pages PageFetcher) *WorkAtAStartupAdapter {
	if listURL == "" {
		listURL = waasJobsURL
	}
	return &WorkAtAStartupAdapter{
		name:     name,
		listURL:  listURL,
		pages:    pages,
		maxPages: waasMaxPages,
		now:      time.Now,
	}
}

// Name returns the configured source name.
func (a *WorkAtAStartupAdapter) Name() string { return a.name }

type waasLink struct {
	url   string
	slug  string
	title string
}

// FetchPostings returns one posting per job link. A job page that fails to
// load falls back to what the listing card shows. Only a failed first
// listing page fails the source.
func (a *WorkAtAStartupAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	scrapedAt := a.now()
	seen := make(map[string]bool)
	var postings []model.RawPosting

	for page := 1; page <= a.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("workatastartup: %w", err)
		}

		links, err := a.listPage(ctx, listingPageURL(a.listURL, page))
		if err != nil {
			if page == 1 {
				return nil, err
			}
			break
		}

		added := 0
		for _, l := range links {
			if seen[l.url] || added >= waasMaxPerPage {
				continue
			}
			seen[l.url] = true

			p, err := a.jobPage(ctx, l, scrapedAt)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("workatastartup: %w", ctx.Err())
				}
				p = a.fromListing(l, scrapedAt)
			}
			postings = append(postings, p)
			added++
		}
		if added == 0 {
			break
		}
	}
	return postings, nil
}

func (a *WorkAtAStartupAdapter) listPage(ctx context.Context, pageURL string) ([]waasLink, error) {
	body, err := a.pages.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("workatastartup fetch %s: %w", pageURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("workatastartup parse %s: %w", pageURL, err)
	}

	var links []waasLink
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		m := waasJobPathRegex.FindStringSubmatch(href)
		if m == nil {
			return
		}

		title := strings.TrimSpace(s.Closest("div, li, article, section").
			Find(`[class*="title"], [class*="role"], [class*="position"]`).First().Text())
		if title == "" {
			title = strings.Join(strings.Fields(s.Text()), " ")
		}

		links = append(links, waasLink{url: a.resolve(href), slug: m[1], title: title})
	})
	return links, nil
}

func (a *WorkAtAStartupAdapter) jobPage(ctx context.Context, l waasLink, scrapedAt time.Time) (model.RawPosting, error) {
	body, err := a.pages.FetchPage(ctx, l.url)
	if err != nil {
		return model.RawPosting{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return model.RawPosting{}, err
	}

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	company := firstNonEmpty(
		doc.Find(`[class*="company"]`).First().Text(),
		doc.Find(`nav a[href^="/companies/"]`).Last().Text(),
		slugCompany(l.slug),
	)

	description := doc.Find(`[class*="description"]`).First()
	for _, sel := range []string{"main", "article", "body"} {
		if strings.TrimSpace(description.Text()) != "" {
			break
		}
		description = doc.Find(sel).First()
	}
	text := strings.Join(strings.Fields(description.Text()), " ")

	return model.RawPosting{
		Company:   truncate(company, 100),
		Title:     waasTitle(firstNonEmpty(title, l.title)),
		Location:  extractLocation(text),
		TechStack: extractTechStack(text),
		URL:       l.url,
		SourceURL: a.listURL,
		Source:    waasSource,
		ScrapedAt: scrapedAt,
		RawText:   truncate(text, 500),
	}, nil
}

func (a *WorkAtAStartupAdapter) fromListing(l waasLink, scrapedAt time.Time) model.RawPosting {
	return model.RawPosting{
		Company:   slugCompany(l.slug),
		Title:     waasTitle(l.title),
		Location:  extractLocation(l.title),
		TechStack: extractTechStack(l.title),
		URL:       l.url,
		SourceURL: a.listURL,
		Source:    waasSource,
		ScrapedAt: scrapedAt,
		RawText:   l.title,
	}
}

// resolve makes job links absolute. Company job pages live on
// ycombinator.com even when linked from workatastartup.com.
func (a *WorkAtAStartupAdapter) resolve(href string) string {
	if strings.HasPrefix(href, "/companies/") {
		return waasCompanyHost + href
	}
	return absoluteURL(a.listURL, href)
}

func listingPageURL(listURL string, page int) string {
	if page <= 1 {
		return listURL
	}
	u, err := url.Parse(listURL)
	if err != nil {
		return listURL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// slugCompany turns "camber-2" into "Camber".
func slugCompany(slug string) string {
	return humanizeSlug(waasSlugSuffixExpr.ReplaceAllString(slug, ""))
}

func waasTitle(title string) string {
	title = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), "Jobs"))
	if title == "" {
		return waasDefaultTitle
	}
	return truncate(title, 100)
}
