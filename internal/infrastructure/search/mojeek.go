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

// MojeekClient scrapes Mojeek's HTML results page. It is the last resort
// backend, used when both the API and the lite scrape fail.
type MojeekClient struct {
	httpClient *http.Client
	baseURL    string
	politeWait time.Duration
}

// NewMojeekClient creates a new Mojeek scraper
func NewMojeekClient(timeout time.Duration) *MojeekClient {
	return &MojeekClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    "https://www.mojeek.com/search",
		politeWait: 500 * time.Millisecond,
	}
}

// Name identifies this backend in failover logs.
func (c *MojeekClient) Name() string {
	return "mojeek"
}

// SetBaseURL overrides the scrape endpoint, used in tests.
func (c *MojeekClient) SetBaseURL(u string) {
	c.baseURL = u
}

// Search scrapes the standard results list for the query.
func (c *MojeekClient) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	log.Printf("[SEARCH] mojeek query: %q", query)

	reqURL := c.baseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

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
		return nil, fmt.Errorf("%w: mojeek status %d", domain.ErrSearchFailure, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var hits []domain.SearchHit
	doc.Find("ul.results-standard li").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("h2 a").First()
		if link.Length() == 0 {
			link = s.Find("a.title").First()
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		hits = append(hits, domain.SearchHit{
			URL:   href,
			Title: strings.TrimSpace(link.Text()),
		})
	})

	log.Printf("[SEARCH] mojeek returned %d hits for %q", len(hits), query)
	return hits, nil
}
