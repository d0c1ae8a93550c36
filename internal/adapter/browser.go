package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserPageFetcher renders pages in headless Chrome so JavaScript-built
// listings (Wellfound, parts of YC) are present in the returned HTML.
type BrowserPageFetcher struct {
	userAgent string
	settle    time.Duration // extra wait after body is ready, for client-side rendering
}

// NewBrowserPageFetcher returns a fetcher that drives a fresh headless Chrome per page.
func NewBrowserPageFetcher(userAgent string) *BrowserPageFetcher {
	return &BrowserPageFetcher{userAgent: userAgent, settle: 2 * time.Second}
}

// FetchPage navigates to url and returns the rendered document HTML.
func (f *BrowserPageFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(f.userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return []byte(html), nil
}
