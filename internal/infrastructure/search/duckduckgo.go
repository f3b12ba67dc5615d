package search

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chemdex/backend/internal/domain"
)

// browserUserAgent is sent on scraped backends; the lite endpoints serve
// plain HTML to anything that looks like a browser.
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"

// DuckDuckGoClient scrapes the DuckDuckGo Lite HTML endpoint. It is the
// first fallback when the Custom Search API fails or runs out of quota.
type DuckDuckGoClient struct {
	httpClient *http.Client
	baseURL    string
	politeWait time.Duration
}

// NewDuckDuckGoClient creates a new DuckDuckGo Lite scraper
func NewDuckDuckGoClient(timeout time.Duration) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    "https://lite.duckduckgo.com/lite/",
		politeWait: 800 * time.Millisecond,
	}
}

// Name identifies this backend in failover logs.
func (c *DuckDuckGoClient) Name() string {
	return "duckduckgo"
}

// SetBaseURL overrides the scrape endpoint, used in tests.
func (c *DuckDuckGoClient) SetBaseURL(u string) {
	c.baseURL = u
}

// Search scrapes the lite results page for the query. Result hrefs come
// back wrapped in the uddg redirector, which the caller unwraps.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	log.Printf("[SEARCH] duckduckgo query: %q", query)

	reqURL := c.baseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	// Scraped endpoints get a politeness delay instead of a token bucket
	select {
	case <-time.After(c.politeWait):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: duckduckgo status %d", domain.ErrSearchFailure, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var hits []domain.SearchHit
	doc.Find("a.result-link").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		// Lite serves protocol-relative redirector links
		if strings.HasPrefix(href, "//") {
			href = "https:" + href
		}
		hits = append(hits, domain.SearchHit{
			URL:   href,
			Title: strings.TrimSpace(s.Text()),
		})
	})

	log.Printf("[SEARCH] duckduckgo returned %d hits for %q", len(hits), query)
	return hits, nil
}
