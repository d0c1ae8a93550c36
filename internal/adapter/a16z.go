package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amishk599/hiddenjobs/internal/model"
)

const (
	a16zSource  = "a16z"
	a16zBaseURL = "https://jobs.a16z.com"
	a16zJobsURL = a16zBaseURL + "/jobs?department=engineering"
	a16zDataVar = "serverInitialData"
)

var (
	a16zAssignRegex = regexp.MustCompile(`window\.serverInitialData\s*=\s*`)

	engineeringRoleRegex = regexp.MustCompile(`(?i)\b(engineer|engineering|developer|software|backend|frontend|full[- ]?stack|devops|sre|site reliability|infrastructure|platform|systems|security|data|machine learning|ml|ai|mobile|ios|android|web|qa|test|automation|cloud|network|database|api|architect|technical|programming)\b`)
	nonEngineeringRegex  = regexp.MustCompile(`(?i)\b(sales engineer|solutions engineer|customer success|support|product manager|designer|marketing|recruiter|hr|finance|accounting|legal|operations|business analyst)\b`)
)

// A16ZAdapter reads the a16z portfolio job board. The board renders client
// side from a JSON blob assigned to window.serverInitialData, so the adapter
// decodes that instead of walking markup.
type A16ZAdapter struct {
	name    string
	pageURL string
	pages   PageFetcher
	now     func() time.Time
}

// NewA16ZAdapter creates the adapter. An empty pageURL uses the engineering board.
func NewA16ZAdapter(name, pageURL string, pages PageFetcher) *A16ZAdapter {
	if pageURL == "" {
		pageURL = a16zJobsURL
	}
	return &A16ZAdapter{name: name, pageURL: pageURL, pages: pages, now: time.Now}
}

// Name returns the configured source name.
func (a *A16ZAdapter) Name() string { return a.name }

// FetchPostings returns the engineering roles found in the embedded board data.
func (a *A16ZAdapter) FetchPostings(ctx context.Context) ([]model.RawPosting, error) {
	body, err := a.pages.FetchPage(ctx, a.pageURL)
	if err != nil {
		return nil, fmt.Errorf("a16z fetch: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("a16z parse: %w", err)
	}

	var board *a16zBoard
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, a16zDataVar) {
			return true
		}
		board, err = decodeA16ZBoard(text)
		return err != nil
	})
	if board == nil {
		if err == nil {
			err = fmt.Errorf("no %s script", a16zDataVar)
		}
		return nil, fmt.Errorf("a16z board data: %w", err)
	}

	scrapedAt := a.now()
	var postings []model.RawPosting
	for _, j := range board.jobs() {
		title := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(firstNonEmpty(j.Title, j.Name)), "Jobs"))
		if !isEngineeringRole(title) {
			continue
		}
		description := extractText(j.Description)

		location := firstNonEmpty(string(j.Location), j.City)
		if location == "" {
			location = extractLocation(description)
		}

		url := firstNonEmpty(j.URL, j.ApplyURL)
		if url == "" && j.ID != nil {
			url = fmt.Sprintf("%s/jobs/%v", a16zBaseURL, j.ID)
		}
		if url != "" {
			url = absoluteURL(a16zBaseURL, url)
		}

		postings = append(postings, model.RawPosting{
			Company:   firstNonEmpty(string(j.Company), j.CompanyName),
			Title:     truncate(title, 100),
			Location:  location,
			TechStack: extractTechStack(title + " " + description),
			URL:       url,
			SourceURL: a.pageURL,
			Source:    a16zSource,
			ScrapedAt: scrapedAt,
			RawText:   truncate(description, 500),
		})
	}
	return postings, nil
}

type a16zBoard struct {
	Jobs     []a16zJob `json:"jobs"`
	Results  []a16zJob `json:"results"`
	Listings []a16zJob `json:"listings"`
}

func (b *a16zBoard) jobs() []a16zJob {
	switch {
	case len(b.Jobs) > 0:
		return b.Jobs
	case len(b.Results) > 0:
		return b.Results
	default:
		return b.Listings
	}
}

type a16zJob struct {
	ID          any       `json:"id"`
	Title       string    `json:"title"`
	Name        string    `json:"name"`
	Company     a16zNamed `json:"company"`
	CompanyName string    `json:"companyName"`
	Location    a16zNamed `json:"location"`
	City        string    `json:"city"`
	URL         string    `json:"url"`
	ApplyURL    string    `json:"applyUrl"`
	Description string    `json:"description"`
}

// a16zNamed accepts both "Acme" and {"name": "Acme"}.
type a16zNamed string

func (n *a16zNamed) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = a16zNamed(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		*n = a16zNamed(obj.Name)
	}
	return nil
}

// decodeA16ZBoard decodes the first JSON value after the assignment. The
// decoder stops at the end of that value, so trailing script is ignored.
func decodeA16ZBoard(script string) (*a16zBoard, error) {
	loc := a16zAssignRegex.FindStringIndex(script)
	if loc == nil {
		return nil, fmt.Errorf("no %s assignment", a16zDataVar)
	}
	var board a16zBoard
	if err := json.NewDecoder(strings.NewReader(script[loc[1]:])).Decode(&board); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a16zDataVar, err)
	}
	return &board, nil
}

// isEngineeringRole keeps technical titles and drops sales, support and
// other business roles that happen to mention engineering.
func isEngineeringRole(title string) bool {
	return engineeringRoleRegex.MatchString(title) && !nonEngineeringRegex.MatchString(title)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
