package usecase

import (
	"log"
	"strings"

	"github.com/chemdex/backend/internal/domain"
)

// sdsVocabulary is the safety-document keyword list checked against extracted
// text. A single match marks the document as plausible; the list is broad on
// purpose because legitimate sheets vary wildly in phrasing. Includes the
// Australian regulatory terms the rest of the pipeline is tuned for.
var sdsVocabulary = []string{
	// Core document names
	"safety data sheet", "sds", "msds", "material safety data sheet",
	"product safety data sheet", "chemical safety data sheet",
	"hazard communication", "ghs",

	// Standard section headers
	"product identification", "hazard identification", "composition",
	"first aid measures", "fire fighting measures", "accidental release",
	"handling and storage", "exposure controls", "physical and chemical properties",
	"stability and reactivity", "toxicological information", "ecological information",
	"disposal considerations", "transport information", "regulatory information",

	// Format indicators
	"un number", "cas number", "dangerous goods", "hazard class",
	"packing group", "signal word", "hazard statement", "precautionary statement",

	// Numbered sections (sheets run 1-16)
	"section 1", "section 2", "section 3", "section 4", "section 5",

	// Common supporting terms
	"emergency contact", "manufacturer", "supplier", "emergency phone",
	"revision date", "preparation date", "issue date",
	"flammable", "corrosive", "toxic", "irritant", "oxidizing",
	"exposure limit", "threshold limit", "workplace exposure",
	"personal protective equipment", "respiratory protection",
	"eye protection", "skin protection", "hand protection",

	// Australian regulatory terms
	"australian dangerous goods", "adg", "hazchem",
	"workplace health and safety", "whs", "safe work australia",
	"poisons schedule", "nohsc",
}

// sdsURLTerms in the URL itself mark a link as document-intended, which
// relaxes the product-name overlap requirement
var sdsURLTerms = []string{"sds", "msds", "safety", "datasheet", "data-sheet"}

// VerificationService decides whether extracted document text is plausibly
// the safety data sheet for a given product
type VerificationService struct {
	minKeywordMatches int
}

// NewVerificationService creates a verification gate with the default
// single-keyword threshold
func NewVerificationService() *VerificationService {
	return &VerificationService{minKeywordMatches: 1}
}

// Verify checks document text against the SDS vocabulary and the product
// name. trusted marks URLs supplied directly by a caller rather than found
// through discovery; those skip the name-overlap requirement, as do URLs
// whose own path carries safety-document terms.
func (v *VerificationService) Verify(pdfURL, text, productName string, trusted bool) *domain.VerifyResult {
	lowerText := strings.ToLower(text)

	var matched []string
	for _, term := range sdsVocabulary {
		if strings.Contains(lowerText, term) {
			matched = append(matched, term)
		}
	}

	result := &domain.VerifyResult{
		MatchedTerms: matched,
		Text:         text,
	}

	if len(matched) < v.minKeywordMatches {
		log.Printf("[VERIFY] %q rejected: %d/%d vocabulary matches", truncateForLog(pdfURL), len(matched), v.minKeywordMatches)
		return result
	}

	if trusted || urlLooksLikeSDS(pdfURL) {
		result.Verified = true
		log.Printf("[VERIFY] %q accepted: %d vocabulary matches, document-intended source", truncateForLog(pdfURL), len(matched))
		return result
	}

	// Discovery-found links additionally need the product name to appear:
	// at least one significant name token in the text or the URL itself.
	nameTokens := tokenize(productName)
	if len(nameTokens) == 0 {
		result.Verified = true
		return result
	}

	lowerURL := strings.ToLower(pdfURL)
	for _, token := range nameTokens {
		if strings.Contains(lowerText, token) || strings.Contains(lowerURL, token) {
			result.Verified = true
			log.Printf("[VERIFY] %q accepted: %d vocabulary matches, name token %q present", truncateForLog(pdfURL), len(matched), token)
			return result
		}
	}

	log.Printf("[VERIFY] %q rejected: vocabulary present but no product-name overlap for %q", truncateForLog(pdfURL), productName)
	return result
}

// urlLooksLikeSDS reports whether the URL path or query carries
// safety-document vocabulary
func urlLooksLikeSDS(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, term := range sdsURLTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func truncateForLog(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
