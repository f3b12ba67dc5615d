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

// PageExpander fetches a search hit's page and pulls out same-site links.
// Barcode lookups land on retailer product pages rather than documents, so
// the page itself is mined for SDS links and for the product title.
type PageExpander struct {
	httpClient *http.Client
	maxLinks   int
}

// NewPageExpander creates a new result-page expander
func NewPageExpander(timeout time.Duration, maxLinks int) *PageExpander {
	if maxLinks <= 0 {
		maxLinks = 10
	}
	return &PageExpander{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxLinks: maxLinks,
	}
}

// Expand fetches pageURL and returns its title plus same-host links,
// preferring anchors whose text or target mentions a safety document.
func (e *PageExpander) Expand(ctx context.Context, pageURL string) (*domain.PageSummary, error) {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching result page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("result page returned %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("result page is %s, not html", ct)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	summary := &domain.PageSummary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	var preferred, rest []domain.SearchHit
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}

		resolved := resolveHref(href, base)
		if resolved == "" {
			return true
		}

		text := strings.TrimSpace(s.Text())
		hit := domain.SearchHit{URL: resolved, Title: text}

		if looksLikeDocumentLink(resolved, text) {
			preferred = append(preferred, hit)
		} else if sameHost(resolved, base.Host) {
			rest = append(rest, hit)
		}
		return len(preferred) < e.maxLinks
	})

	summary.Links = append(preferred, rest...)
	if len(summary.Links) > e.maxLinks {
		summary.Links = summary.Links[:e.maxLinks]
	}

	log.Printf("[SEARCH] expanded %s: title=%q links=%d", base.Host, summary.Title, len(summary.Links))
	return summary, nil
}

// resolveHref resolves a potentially relative href against a base,
// skipping non-navigational schemes and stripping fragments.
func resolveHref(href string, base *url.URL) string {
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// looksLikeDocumentLink reports whether an anchor plausibly points at a
// safety data sheet. Off-site links only qualify through this check.
func looksLikeDocumentLink(resolved, text string) bool {
	lowerURL := strings.ToLower(resolved)
	lowerText := strings.ToLower(text)

	if strings.HasSuffix(lowerURL, ".pdf") {
		return true
	}
	for _, term := range []string{"sds", "msds", "safety data", "safety-data"} {
		if strings.Contains(lowerURL, term) || strings.Contains(lowerText, term) {
			return true
		}
	}
	return false
}

// sameHost reports whether rawURL lives on host, treating www as equal.
func sameHost(rawURL, host string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	trim := func(h string) string {
		return strings.TrimPrefix(strings.ToLower(h), "www.")
	}
	return trim(parsed.Host) == trim(host)
}
