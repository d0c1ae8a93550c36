package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/amishk599/hiddenjobs/internal/model"
	"github.com/amishk599/hiddenjobs/internal/retry"
)

// maxPageBytes caps how much of a response body we read.
const maxPageBytes = 10 << 20

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// HTTPPageFetcher fetches pages with a plain HTTP GET.
type HTTPPageFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPPageFetcher returns a fetcher that sends userAgent on every request.
func NewHTTPPageFetcher(client *http.Client, userAgent string) *HTTPPageFetcher {
	return &HTTPPageFetcher{client: client, userAgent: userAgent}
}

// FetchPage GETs url and returns the body. Non-200 responses become *model.HTTPError.
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	resp, err := get(ctx, f.client, url, f.userAgent)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// getJSON GETs url and decodes the JSON body into v.
func getJSON(ctx context.Context, client *http.Client, url, userAgent string, v any) error {
	resp, err := get(ctx, client, url, userAgent)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func get(ctx context.Context, client *http.Client, url, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retry.ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			Err:        fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode),
		}
	}
	return resp, nil
}
