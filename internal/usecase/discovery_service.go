package usecase

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/chemdex/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)
	multipleSpacesRegex  = regexp.MustCompile(`\s+`)

	// resultPagePathRegex marks same-site search/listing pages worth expanding
	// in barcode mode
	resultPagePathRegex = regexp.MustCompile(`(?i)/search\b|/results?\b|/catalogsearch\b|/find\b`)
)

// resultPageQueryKeys are query parameters that mark a hit as an on-site
// search-result page rather than a concrete product page
var resultPageQueryKeys = []string{"q", "s", "query", "keyword", "keywords", "search", "term"}

// DiscoveryServiceConfig holds configuration for the discovery service
type DiscoveryServiceConfig struct {
	CacheTTL    time.Duration
	ExpandPages int // same-site result pages followed per barcode pass
	MaxProbes   int // candidates classified per resolve pass
}

// BarcodeDiscovery is what a barcode-only pass learned about a product
type BarcodeDiscovery struct {
	Name       string
	Size       string
	Candidates []domain.CandidateLink
}

// ResolveOutcome reports a resolve pass: the verified document URL, if any,
// every candidate that was tried along the way, and the product row the
// pass was recorded against when a barcode was known
type ResolveOutcome struct {
	SDSURL     string                 `json:"sdsUrl"`
	Candidates []domain.CandidateLink `json:"candidateLinksTried"`
	Product    *domain.Product        `json:"product,omitempty"`
}

// DiscoveryService turns a product description into ranked candidate links
// and, with the classifier and verification gate, into a verified SDS URL.
// Backends are tried in order until one yields usable links; total backend
// failure produces an empty list, never an error.
type DiscoveryService struct {
	cache       domain.CacheRepository
	products    domain.ProductRepository
	backends    []domain.SearchBackend
	expander    domain.ResultPageExpander
	scorer      *CandidateScorer
	classifier  domain.DocumentClassifier
	parser      domain.ParserClient
	cacheTTL    time.Duration
	expandPages int
	maxProbes   int
}

// NewDiscoveryService creates a discovery service with dependencies. The
// product repository is optional: without it resolve passes still work but
// nothing is written back.
func NewDiscoveryService(
	cache domain.CacheRepository,
	products domain.ProductRepository,
	backends []domain.SearchBackend,
	expander domain.ResultPageExpander,
	scorer *CandidateScorer,
	classifier domain.DocumentClassifier,
	parser domain.ParserClient,
	config DiscoveryServiceConfig,
) *DiscoveryService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	expandPages := config.ExpandPages
	if expandPages <= 0 {
		expandPages = 3
	}
	maxProbes := config.MaxProbes
	if maxProbes <= 0 {
		maxProbes = 8
	}

	return &DiscoveryService{
		cache:       cache,
		products:    products,
		backends:    backends,
		expander:    expander,
		scorer:      scorer,
		classifier:  classifier,
		parser:      parser,
		cacheTTL:    cacheTTL,
		expandPages: expandPages,
		maxProbes:   maxProbes,
	}
}

// DiscoverSDS returns ranked candidate links for a product's safety data
// sheet. Flow: check cache -> query backends with failover -> resolve and
// dedupe -> rank -> cache -> return.
func (s *DiscoveryService) DiscoverSDS(ctx context.Context, name, size string) []domain.CandidateLink {
	if strings.TrimSpace(name) == "" {
		return nil
	}

	cacheKey := s.generateCacheKey(name, size)
	if cached := s.getFromCache(ctx, cacheKey); cached != nil {
		log.Printf("[DISCOVERY] cache hit for %q (%d candidates)", name, len(cached))
		return cached
	}

	queries := BuildSDSQueries(name, size)
	candidates := s.searchWithFailover(ctx, queries)
	ranked := s.scorer.Rank(candidates, name, true)

	if len(ranked) > 0 {
		s.setInCache(ctx, cacheKey, ranked)
	}

	log.Printf("[DISCOVERY] %q: %d candidates from %d queries", name, len(ranked), len(queries))
	return ranked
}

// DiscoverByBarcode runs a barcode-only pass: barcode-oriented queries, then
// expansion of same-site result pages to surface concrete product pages and
// a product name/size guess from the best page title.
func (s *DiscoveryService) DiscoverByBarcode(ctx context.Context, barcode string) *BarcodeDiscovery {
	queries := BuildBarcodeQueries(barcode)
	if len(queries) == 0 {
		return &BarcodeDiscovery{}
	}

	candidates := s.searchWithFailover(ctx, queries)

	expanded := 0
	var extra []domain.CandidateLink
	discovery := &BarcodeDiscovery{}

	for _, cand := range candidates {
		if expanded >= s.expandPages || s.expander == nil {
			break
		}
		if !isResultPage(cand.URL) {
			continue
		}
		expanded++

		summary, err := s.expander.Expand(ctx, cand.URL)
		if err != nil {
			log.Printf("[DISCOVERY] expanding %s failed: %v", cand.URL, err)
			continue
		}
		if discovery.Name == "" && summary.Title != "" {
			discovery.Name = CleanProductName(summary.Title)
			discovery.Size = SizeFromTitle(summary.Title)
		}
		for _, hit := range summary.Links {
			extra = append(extra, domain.CandidateLink{
				URL:         hit.URL,
				Title:       hit.Title,
				SourceQuery: cand.SourceQuery,
			})
		}
	}

	all := dedupeCandidates(append(candidates, extra...))
	rankName := discovery.Name
	if rankName == "" {
		rankName = barcode
	}
	discovery.Candidates = s.scorer.Rank(all, rankName, false)

	log.Printf("[DISCOVERY] barcode %s: %d candidates, %d pages expanded, name guess %q",
		barcode, len(discovery.Candidates), expanded, discovery.Name)
	return discovery
}

// ResolveSDS runs the full resolve pass: discovery, then sequential
// classification and verification of the top candidates with an early exit
// on the first verified document. Probing stays sequential on purpose to
// keep outbound request volume against third-party sites low.
func (s *DiscoveryService) ResolveSDS(ctx context.Context, name, size string) *ResolveOutcome {
	outcome := &ResolveOutcome{}

	candidates := s.DiscoverSDS(ctx, name, size)
	for _, cand := range candidates {
		if len(outcome.Candidates) >= s.maxProbes {
			break
		}
		if ctx.Err() != nil {
			break
		}
		outcome.Candidates = append(outcome.Candidates, cand)

		probe, err := s.classifier.Classify(ctx, cand.URL)
		if err != nil {
			log.Printf("[DISCOVERY] probe of %s failed: %v", cand.URL, err)
			continue
		}
		if !probe.IsPDF {
			continue
		}

		verdict, err := s.parser.Verify(ctx, probe.FinalURL, name)
		if err != nil {
			log.Printf("[DISCOVERY] verification of %s failed: %v", probe.FinalURL, err)
			continue
		}
		if verdict.Verified {
			outcome.SDSURL = probe.FinalURL
			log.Printf("[DISCOVERY] resolved %q -> %s (%d candidates tried)",
				name, probe.FinalURL, len(outcome.Candidates))
			return outcome
		}
	}

	log.Printf("[DISCOVERY] no verified document for %q (%d candidates tried)",
		name, len(outcome.Candidates))
	return outcome
}

// ResolveProduct runs a resolve pass for a scanned product and records what
// it learned. A known barcode short-circuits to the stored row when that row
// already carries a document URL; otherwise the pass falls back to a barcode
// search for the name guess, resolves, and upserts the result so the next
// scan of the same barcode never repeats the work.
func (s *DiscoveryService) ResolveProduct(ctx context.Context, barcode, name, size string) *ResolveOutcome {
	if barcode != "" && s.products != nil {
		existing, err := s.products.GetByBarcode(ctx, barcode)
		if err != nil {
			log.Printf("[DISCOVERY] looking up barcode %s failed: %v", barcode, err)
		} else if existing != nil {
			if existing.SDSURL != "" {
				log.Printf("[DISCOVERY] barcode %s already resolved -> %s", barcode, existing.SDSURL)
				return &ResolveOutcome{SDSURL: existing.SDSURL, Product: existing}
			}
			if name == "" {
				name = existing.Name
			}
			if size == "" {
				size = existing.Size
			}
		}
	}

	if name == "" && barcode != "" {
		found := s.DiscoverByBarcode(ctx, barcode)
		if found.Name != "" {
			name = found.Name
			if size == "" {
				size = found.Size
			}
		}
	}
	if name == "" {
		return &ResolveOutcome{}
	}

	outcome := s.ResolveSDS(ctx, name, size)

	if barcode != "" && s.products != nil {
		saved, err := s.products.Upsert(ctx, &domain.Product{
			Barcode: barcode,
			Name:    name,
			Size:    size,
			SDSURL:  outcome.SDSURL,
		})
		if err != nil {
			log.Printf("[DISCOVERY] recording product %s failed: %v", barcode, err)
		} else {
			outcome.Product = saved
		}
	}
	return outcome
}

// searchWithFailover runs every query against one backend at a time, moving
// to the next backend only when the current one is unavailable or yields no
// usable links. Raw hits are unwrapped, filtered and deduplicated here.
func (s *DiscoveryService) searchWithFailover(ctx context.Context, queries []string) []domain.CandidateLink {
	for _, backend := range s.backends {
		var collected []domain.CandidateLink
		failed := 0

		for _, query := range queries {
			hits, err := backend.Search(ctx, query)
			if err != nil {
				failed++
				log.Printf("[DISCOVERY] backend %s query %q failed: %v", backend.Name(), query, err)
				continue
			}
			for _, hit := range hits {
				resolved := ResolveRedirect(hit.URL)
				parsed, err := url.Parse(resolved)
				if err != nil || parsed.Host == "" {
					continue
				}
				if IsSearchEngineHost(parsed.Host) {
					continue
				}
				collected = append(collected, domain.CandidateLink{
					URL:         resolved,
					Title:       hit.Title,
					SourceQuery: query,
				})
			}
		}

		collected = dedupeCandidates(collected)
		if len(collected) > 0 {
			if failed > 0 {
				log.Printf("[DISCOVERY] backend %s: %d usable links, %d/%d queries failed",
					backend.Name(), len(collected), failed, len(queries))
			}
			return collected
		}
		log.Printf("[DISCOVERY] backend %s yielded no usable links, failing over", backend.Name())
	}

	return nil
}

// dedupeCandidates removes candidates that normalize to the same URL,
// keeping first-seen order
func dedupeCandidates(links []domain.CandidateLink) []domain.CandidateLink {
	seen := make(map[string]bool, len(links))
	var out []domain.CandidateLink
	for _, link := range links {
		key := NormalizeURL(link.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, link)
	}
	return out
}

// isResultPage reports whether a URL looks like an on-site search-result or
// listing page rather than a concrete product page
func isResultPage(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if resultPagePathRegex.MatchString(parsed.Path) {
		return true
	}
	values := parsed.Query()
	for _, key := range resultPageQueryKeys {
		if values.Get(key) != "" {
			return true
		}
	}
	return false
}

// generateCacheKey creates a normalized cache key for one discovery pass.
// Format: "discovery:{normalized_name}:{normalized_size}"
func (s *DiscoveryService) generateCacheKey(name, size string) string {
	return fmt.Sprintf("discovery:%s:%s", normalizeForCacheKey(name), normalizeForCacheKey(size))
}

// normalizeForCacheKey normalizes a string for use as cache key component
func normalizeForCacheKey(v string) string {
	normalized := strings.ToLower(strings.TrimSpace(v))
	normalized = nonAlphanumericRegex.ReplaceAllString(normalized, "")
	normalized = multipleSpacesRegex.ReplaceAllString(normalized, " ")
	return strings.ReplaceAll(normalized, " ", "_")
}

func (s *DiscoveryService) getFromCache(ctx context.Context, key string) []domain.CandidateLink {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	links, ok := cached.([]domain.CandidateLink)
	if !ok {
		return nil
	}
	return links
}

func (s *DiscoveryService) setInCache(ctx context.Context, key string, links []domain.CandidateLink) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, links, s.cacheTTL); err != nil {
		log.Printf("[DISCOVERY] caching %s failed: %v", key, err)
	}
}
