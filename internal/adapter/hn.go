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
	hnSource       = "hn"
	hnMinTextLen   = 20
	hnMaxFieldLen  = 100
	hnDefaultTitle = "Software Engineer"
)

var (
	hnSeparators   = []string{"|", " - ", ":", "•"}
	hnSkipPrefixes = []string{"reply", "^", "this", "thanks", "interested", "pm me"}
	hnJobKeywords  = []string{"hiring", "engineer", "developer", "software", "position", "role", "job", "opportunity"}
	hnTitleWords   = []string{
		"engineer", "developer", "software", "swe", "sde",
		"backend", "frontend", "fullstack", "full-stack",
		"devops", "sre", "data", "ml", "ai", "architect",
	}
	hnApplyHrefRegex = regexp.MustCompile(`apply|application|careers|jobs|hiring|lever\.co|greenhouse|workable|ashbyhq|linkedin\.com/jobs`)
	hnTextURLRegex   = regexp.MustCompile(`https?://[^\s<>"]+`)
)

// HNAdapter extracts postings from a Hacker News "Who is hiring?" thread.
// Every top-level comment is treated as one candidate posting.
type HNAdapter struct {
	name      string
	threadURL string
	pages     PageFetcher
	now       func() time.Time
}

// NewHNAdapter creates an adapter for the thread at threadURL.
func NewHNAdapter(name, threadURL string, pages PageFetcher) *HNAdapter {
	return &HNAdapter{
		name:      name,
		threadURL: threadURL,
		pages:     pages,
		now:       time.Now,
	}
}

// Name returns the configured source name.
func (a *HNAdapter) Name() string { return a.name }

// FetchPostings fetches the thread and parses each top-level comment.
func (a *HNAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	body, err := a.pages.FetchPage(ctx, a.threadURL)
	if err != nil {
		return nil, fmt.Errorf("hn fetch for %s: %w", a.threadURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hn parse for %s: %w", a.threadURL, err)
	}

	scrapedAt := a.now()
	var postings []model.RawPosting
	doc.Find("tr.athing.comtr").Each(func(_ int, row *goquery.Selection) {
		if indent := row.Find("td.ind").AttrOr("indent", "0"); indent != "0" {
			return
		}
		if p, ok := a.parseComment(row, scrapedAt); ok {
			postings = append(postings, p)
		}
	})

	return postings, nil
}

func (a *HNAdapter) parseComment(row *goquery.Selection, scrapedAt time.Time) (model.RawPosting, bool) {
	comment := row.Find(".commtext").First()
	fragment, err := comment.Html()
	if err != nil || fragment == "" {
		return model.RawPosting{}, false
	}

	lines := htmlLines(fragment)
	text := strings.Join(lines, "\n")
	if !looksLikeJobPost(text) {
		return model.RawPosting{}, false
	}

	company, title := splitHeader(lines)

	p := model.RawPosting{
		Company:   company,
		Title:     title,
		Location:  extractLocation(text),
		TechStack: extractTechStack(text),
		URL:       applicationURL(comment, text),
		SourceURL: a.threadURL,
		Source:    hnSource,
		ScrapedAt: scrapedAt,
		RawText:   text,
		CommentID: row.AttrOr("id", ""),
	}
	if p.CommentID != "" {
		p.SourceURL = absoluteURL(a.threadURL, "item?id="+p.CommentID)
	}
	if posted, ok := parseHNAge(row.Find("span.age").AttrOr("title", "")); ok {
		p.PostedAt = &posted
	}
	return p, true
}

func looksLikeJobPost(text string) bool {
	if len(strings.TrimSpace(text)) < hnMinTextLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, prefix := range hnSkipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	if strings.HasPrefix(strings.TrimSpace(text), ">") {
		return false
	}
	for _, kw := range hnJobKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitHeader pulls company and title out of the conventional
// "Company | Role | Location | ..." first line.
func splitHeader(lines []string) (company, title string) {
	if len(lines) == 0 {
		return "", ""
	}
	first := lines[0]

	for _, sep := range hnSeparators {
		if !strings.Contains(first, sep) {
			continue
		}
		parts := strings.Split(first, sep)
		company = strings.TrimSpace(parts[0])
		if len(parts) > 1 {
			title = strings.TrimSpace(parts[1])
		}
		break
	}
	if company == "" {
		company = first
	}

	if title == "" {
		title = titleFromLines(lines)
	}
	return truncate(company, hnMaxFieldLen), truncate(title, hnMaxFieldLen)
}

func titleFromLines(lines []string) string {
	for i, line := range lines {
		if i >= 5 {
			break
		}
		lower := strings.ToLower(line)
		for _, kw := range hnTitleWords {
			if strings.Contains(lower, kw) && len(strings.Fields(line)) <= 8 {
				return line
			}
		}
	}
	return hnDefaultTitle
}

// applicationURL prefers links that look like careers/apply pages, then
// links whose text says so, then bare URLs in the text.
func applicationURL(comment *goquery.Selection, text string) string {
	var byHref, byText string
	comment.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := s.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		if hnApplyHrefRegex.MatchString(strings.ToLower(href)) {
			byHref = href
			return false
		}
		if byText == "" {
			linkText := strings.ToLower(s.Text())
			for _, kw := range []string{"apply", "application", "careers", "jobs"} {
				if strings.Contains(linkText, kw) {
					byText = href
					break
				}
			}
		}
		return true
	})
	if byHref != "" {
		return byHref
	}
	if byText != "" {
		return byText
	}

	for _, u := range hnTextURLRegex.FindAllString(text, -1) {
		lower := strings.ToLower(u)
		for _, kw := range []string{"apply", "jobs", "careers", "lever", "greenhouse", "workable"} {
			if strings.Contains(lower, kw) {
				return u
			}
		}
	}
	return ""
}

// parseHNAge parses the title attribute of span.age, e.g. "2026-10-01T16:00:01 1759334401".
func parseHNAge(title string) (time.Time, bool) {
	fields := strings.Fields(title)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", fields[0], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
