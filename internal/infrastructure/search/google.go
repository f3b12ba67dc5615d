package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/chemdex/backend/internal/domain"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a search response we read into memory.
const maxBodyBytes = 2 << 20 // 2MB

// GoogleClient queries the Google Custom Search JSON API.
type GoogleClient struct {
	httpClient  *http.Client
	apiKey      string
	cx          string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// googleSearchResponse mirrors the slice of the CSE response we consume.
type googleSearchResponse struct {
	Items []googleItem `json:"items"`
	Error *googleError `json:"error,omitempty"`
}

// googleItem is a single CSE result entry.
type googleItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// googleError is the CSE error envelope returned with non-200 statuses.
type googleError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewGoogleClient creates a new Custom Search client
func NewGoogleClient(apiKey, cx, baseURL string, timeout time.Duration) *GoogleClient {
	// The free CSE tier allows 100 queries/day; a slow steady limit with a
	// small burst keeps batch discovery from burning quota in one spike.
	limiter := rate.NewLimiter(rate.Limit(0.5), 5)

	return &GoogleClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      apiKey,
		cx:          cx,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// Name identifies this backend in failover logs.
func (c *GoogleClient) Name() string {
	return "google"
}

// SetDebug enables verbose request/response logging
func (c *GoogleClient) SetDebug(enabled bool) {
	c.debug = enabled
}

// debugLog logs only when debug mode is enabled
func (c *GoogleClient) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[SEARCH] "+format, args...)
	}
}

// Search runs one query against the CSE endpoint and maps the items to
// domain hits. An empty result set is a valid answer, not an error.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	log.Printf("[SEARCH] google query: %q", query)

	params := url.Values{}
	params.Add("key", c.apiKey)
	params.Add("cx", c.cx)
	params.Add("q", query)
	params.Add("num", "10") // CSE caps num at 10 per request

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[SEARCH] rate limiter error: %v", err)
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Printf("[SEARCH] google request error (attempt %d): %v", attempt, err)
			lastErr = err
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, err := readLimitedBody(resp.Body, maxBodyBytes)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		// Quota exhaustion and server errors are retryable, other 4xx are not
		if resp.StatusCode != http.StatusOK {
			c.debugLog("google status %d body: %s", resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = fmt.Errorf("%w: google status %d", domain.ErrSearchFailure, resp.StatusCode)
				time.Sleep(exponentialBackoff(attempt))
				continue
			}
			return nil, fmt.Errorf("%w: google status %d", domain.ErrSearchFailure, resp.StatusCode)
		}

		var searchResp googleSearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			log.Printf("[SEARCH] google JSON decode error: %v", err)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		hits := mapGoogleItems(searchResp.Items)
		log.Printf("[SEARCH] google returned %d hits for %q", len(hits), query)
		return hits, nil
	}

	log.Printf("[SEARCH] google retries exhausted for %q", query)
	return nil, lastErr
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *GoogleClient) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ChemDex/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailure, err)
	}

	return resp, nil
}

// mapGoogleItems converts CSE result items to domain hits, dropping
// entries without a link.
func mapGoogleItems(items []googleItem) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(items))
	for _, item := range items {
		if item.Link == "" {
			continue
		}
		hits = append(hits, domain.SearchHit{
			URL:   item.Link,
			Title: item.Title,
		})
	}
	return hits
}

// exponentialBackoff returns the delay before the given retry attempt.
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(250<<attempt) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r.
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}
