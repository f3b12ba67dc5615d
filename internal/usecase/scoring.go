package usecase

import (
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/chemdex/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex = regexp.MustCompile(`[^\w\s]`)
	promoRegex       = regexp.MustCompile(`(?i)\b(buy|shop|discount|sale|cheap|deal|price|cart)\b|%\s*off`)
)

// Scoring points
const (
	tokenCoveragePoints = 60 // max contribution of product-name token coverage
	pdfURLBonus         = 20 // URL looks like the document itself
	sdsTermBonus        = 10 // safety-document vocabulary in the title
	regionBonus         = 15 // host in a preferred-geography domain
	marketplacePenalty  = 30
	promoPenalty        = 15
)

// sdsTitleTerms mark a result title as safety-document related
var sdsTitleTerms = []string{"safety data sheet", "sds", "msds"}

// marketplaceBrands are registrable-domain labels of generic marketplaces and
// document mirror sites that rarely host an authoritative SDS
var marketplaceBrands = map[string]bool{
	"amazon": true, "ebay": true, "alibaba": true, "aliexpress": true,
	"temu": true, "wish": true, "etsy": true, "gumtree": true,
	"catch": true, "kogan": true, "facebook": true, "pinterest": true,
	"youtube": true, "instagram": true,
	"scribd": true, "coursehero": true, "studocu": true, "yumpu": true,
	"pdfcoffee": true,
}

// extendedStopWords includes basic English stop words plus retail noise that
// carries no signal when matching product names against URLs and titles
var extendedStopWords = map[string]bool{
	// Basic English stop words
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	// Size/quantity units
	"ml": true, "lt": true, "ltr": true, "litre": true, "litres": true,
	"liter": true, "liters": true, "kg": true, "gm": true, "mg": true,
	"oz": true, "gal": true, "gallon": true,
	// Packaging terms
	"pack": true, "packs": true, "bottle": true, "bottles": true,
	"drum": true, "drums": true, "pail": true, "carton": true,
	"container": true, "jerrican": true, "cube": true, "tub": true,
	"jar": true, "box": true, "bag": true, "each": true, "ea": true,
	"pk": true, "ct": true, "count": true,
	// Web/retail noise
	"online": true, "store": true, "official": true, "website": true,
	"home": true, "page": true, "product": true, "products": true,
	"item": true, "sku": true,
}

// CandidateScorer ranks candidate links for a product by relevance
type CandidateScorer struct {
	regionSuffixes     []string
	enableDebugLogging bool
}

// NewCandidateScorer creates a scorer preferring the given domain suffixes
func NewCandidateScorer(regionSuffixes []string, enableDebugLogging bool) *CandidateScorer {
	return &CandidateScorer{
		regionSuffixes:     regionSuffixes,
		enableDebugLogging: enableDebugLogging,
	}
}

// Rank scores every link against the product name and returns them ordered
// best-first. The sort is stable, so equal scores keep first-seen order.
func (s *CandidateScorer) Rank(links []domain.CandidateLink, productName string, wantPDF bool) []domain.CandidateLink {
	nameTokens := tokenize(productName)

	ranked := make([]domain.CandidateLink, len(links))
	copy(ranked, links)

	for i := range ranked {
		ranked[i].Score = s.Score(ranked[i], nameTokens, wantPDF)
		if s.enableDebugLogging {
			log.Printf("[SCORE] %d %q (%q)", ranked[i].Score, ranked[i].URL, ranked[i].Title)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// Score computes the relevance of one candidate link.
// Token coverage of the product name against URL path + title dominates;
// document-looking URLs, safety vocabulary and preferred-region hosts add
// bonuses; marketplaces and promotional titles are penalized.
func (s *CandidateScorer) Score(link domain.CandidateLink, nameTokens []string, wantPDF bool) int {
	u, err := url.Parse(link.URL)
	if err != nil || u.Host == "" {
		return -100
	}

	candTokens := tokenize(u.Path + " " + link.Title)

	score := 0
	if len(nameTokens) > 0 {
		matched, _ := matchTokenCount(nameTokens, candTokens)
		coverage := float64(matched) / float64(len(nameTokens))
		score += int(coverage*tokenCoveragePoints + 0.5)
	}

	lowerPath := strings.ToLower(u.Path)
	if wantPDF && (strings.HasSuffix(lowerPath, ".pdf") || hasToken(candTokens, "sds") || hasToken(candTokens, "msds")) {
		score += pdfURLBonus
	}

	lowerTitle := strings.ToLower(link.Title)
	for _, term := range sdsTitleTerms {
		if strings.Contains(lowerTitle, term) {
			score += sdsTermBonus
			break
		}
	}

	if s.regionMatch(u.Host) {
		score += regionBonus
	}

	if isMarketplaceHost(u.Host) {
		score -= marketplacePenalty
	}

	if promoRegex.MatchString(link.Title) {
		score -= promoPenalty
	}

	return score
}

// regionMatch reports whether the host sits under one of the preferred
// geography suffixes, using the public suffix list rather than naive
// string matching so "com.au" style suffixes resolve correctly.
func (s *CandidateScorer) regionMatch(host string) bool {
	suffix, _ := publicsuffix.PublicSuffix(canonicalHost(host))
	if suffix == "" {
		return false
	}
	dotted := "." + suffix
	for _, region := range s.regionSuffixes {
		if dotted == region || strings.HasSuffix(dotted, region) {
			return true
		}
	}
	return false
}

// isMarketplaceHost checks the registrable domain's first label against the
// marketplace list, so amazon.com, amazon.com.au and amazon.de all match
func isMarketplaceHost(host string) bool {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(canonicalHost(host))
	if err != nil {
		return false
	}
	brand := strings.SplitN(etld1, ".", 2)[0]
	return marketplaceBrands[brand]
}

// matchTokenCount counts product-name tokens present in the candidate token
// set, allowing edit distance 1 for longer tokens to tolerate misspellings.
// Returns the count and the matched tokens.
func matchTokenCount(nameTokens, candTokens []string) (int, []string) {
	set := make(map[string]bool)
	for _, t := range candTokens {
		set[t] = true
	}

	var matched []string
	for _, t := range nameTokens {
		if set[t] {
			matched = append(matched, t)
			continue
		}
		for c := range set {
			if fuzzyTokenMatch(t, c, 1) {
				matched = append(matched, t)
				break
			}
		}
	}

	return len(matched), matched
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words, retail noise, and pure numeric tokens.
func tokenize(s string) []string {
	// Remove punctuation and convert to lowercase
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	// Split on whitespace
	words := strings.Fields(cleaned)

	var tokens []string
	for _, word := range words {
		// Skip short tokens (1 char or less)
		if len(word) <= 1 {
			continue
		}
		// Skip stop words and retail noise
		if extendedStopWords[word] {
			continue
		}
		// Skip pure numeric tokens (e.g., barcodes, sizes)
		if isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens of 4+ chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	// Quick length check - if lengths differ by more than threshold, can't match
	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	// Use two rows instead of full matrix for space efficiency
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	// Initialize first row
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	// Fill matrix
	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
