package usecase

import (
	"fmt"
	"regexp"
	"strings"
)

// Compiled regex patterns for query building
var (
	// Matches size/quantity patterns like "5L", "500 ml", "2.5 litre", "20kg"
	sizePatternRegex = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(ml|l|lt|ltr|litres?|liters?|kg|g|gm|mg|oz|gal|gallons?)\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "4-pk", "24 ct"
	packCountRegex = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\bcarton\s*of\s*\d+\b`)

	// Lone punctuation left behind after stripping
	orphanPunctRegex   = regexp.MustCompile(`\s+[,\-;:]+\s+`)
	trailingPunctRegex = regexp.MustCompile(`[,\-;:]+\s*$`)
	leadingPunctRegex  = regexp.MustCompile(`^\s*[,\-;:]+`)

	// Multiple spaces cleanup
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// queryNoiseWords to remove from queries (marketing terms, generic descriptors)
var queryNoiseWords = map[string]bool{
	// Marketing terms
	"value": true, "bonus": true, "new": true, "improved": true,
	"premium": true, "select": true, "quality": true, "best": true,
	"special": true, "original": true, "genuine": true,
	// Size descriptors
	"size": true, "large": true, "medium": true, "small": true,
	"mini": true, "jumbo": true, "bulk": true, "single": true,
	"twin": true, "triple": true,
	// Packaging terms
	"package": true, "box": true, "bag": true, "bottle": true,
	"can": true, "jar": true, "tub": true, "carton": true,
	"pouch": true, "roll": true, "tube": true, "drum": true,
	"pail": true, "jerrican": true,
	// Generic terms that don't narrow anything down
	"item": true, "product": true, "brand": true, "assorted": true,
}

// CleanProductName strips size, pack-count and marketing noise from a
// product name so search queries carry only identifying terms
func CleanProductName(name string) string {
	if name == "" {
		return ""
	}

	cleaned := sizePatternRegex.ReplaceAllString(name, " ")
	cleaned = packCountRegex.ReplaceAllString(cleaned, " ")
	cleaned = removeQueryNoiseWords(cleaned)
	cleaned = orphanPunctRegex.ReplaceAllString(cleaned, " ")
	cleaned = trailingPunctRegex.ReplaceAllString(cleaned, "")
	cleaned = leadingPunctRegex.ReplaceAllString(cleaned, "")
	cleaned = multiSpaceRegex.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// Limit query length to keep search engines happy
	if len(cleaned) > 100 {
		cleaned = cleaned[:100]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > 50 {
			cleaned = cleaned[:lastSpace]
		}
	}

	return cleaned
}

// BuildSDSQueries builds the ordered query variants used to locate a
// product's safety data sheet
func BuildSDSQueries(name, size string) []string {
	cleaned := CleanProductName(name)
	if cleaned == "" {
		return nil
	}

	var queries []string
	if size != "" {
		queries = append(queries, fmt.Sprintf("%s %s safety data sheet pdf", cleaned, size))
	}
	queries = append(queries,
		cleaned+" safety data sheet pdf",
		cleaned+" sds pdf",
		`"`+cleaned+`" safety data sheet`,
		cleaned+" msds",
	)

	return dedupeStrings(queries)
}

// BuildBarcodeQueries builds the query variants used to identify a product
// from its barcode alone
func BuildBarcodeQueries(barcode string) []string {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil
	}

	return []string{
		`"` + barcode + `"`,
		barcode + " product",
		"barcode " + barcode,
	}
}

// SizeFromTitle pulls the first size/quantity pattern out of a result title,
// used to fill contents_size_weight for barcode-discovered products
func SizeFromTitle(title string) string {
	return strings.TrimSpace(sizePatternRegex.FindString(title))
}

// removeQueryNoiseWords removes marketing and generic terms from the query
func removeQueryNoiseWords(s string) string {
	words := strings.Fields(s)
	var kept []string

	for _, word := range words {
		// Clean punctuation from word for checking
		cleanWord := strings.ToLower(strings.Trim(word, ",.!?;:-'\""))

		if !queryNoiseWords[cleanWord] {
			// Preserve original word (with punctuation)
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
