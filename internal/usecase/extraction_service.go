package usecase

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/chemdex/backend/internal/domain"
)

// Confidence by extraction tier. An explicit label with the value on the
// same line is near-certain; each step away from that costs confidence.
const (
	confidenceSameLine   = 0.95
	confidenceNextLine   = 0.85
	confidenceTable      = 0.75
	confidencePositional = 0.6
	confidenceBackstop   = 0.5
)

// DefaultConfidenceThreshold below which an extracted value is treated as
// absent rather than stored
const DefaultConfidenceThreshold = 0.5

const (
	nextLineWindow  = 5  // lines searched below a bare label
	minSectionChars = 30 // shorter section slices are OCR noise
)

var (
	tableCellSplitRe     = regexp.MustCompile(`\s{2,}|\t|\|`)
	tableTokenSplitRe    = regexp.MustCompile(`\s+|\|`)
	transportHazardRe    = regexp.MustCompile(`(?i)Transport\s+hazard`)
	transportHazardCutRe = regexp.MustCompile(`(?i)^.*?Transport\s+hazard\s*(?:class(?:\(es\))?)?\s*`)
	dgClassRowRe         = regexp.MustCompile(`(?i)DG\s*Class|Class\s*:`)
	packingGroupRowRe    = regexp.MustCompile(`(?i)packing\s+group`)
	packingGroupCutRe    = regexp.MustCompile(`(?i)^.*?packing\s+group\s*`)

	sdsHeaderLikeRe     = regexp.MustCompile(`(?i)\b(?:sds|safety\s+data\s+sheet)\b`)
	sectionOneLineRe    = regexp.MustCompile(`(?i)^\s*(?:section\s*)?1(?:\s|[:.\-]|$)`)
	companySuffixOnlyRe = regexp.MustCompile(`(?i)^(?:Pty\s+Ltd|Ltd|Inc\.?|Corp\.?|Company|Corporation)$`)
	webAddressRe        = regexp.MustCompile(`(?i)@|www\.|\.com|\.org`)
	leadingNumberRe     = regexp.MustCompile(`^\d+(?:\.\d+)?\s*`)
	numberDashRe        = regexp.MustCompile(`^\d+\s*[-–]`)
	labelLikeValueRe    = regexp.MustCompile(`(?i)^(?:product\s+identifier|product\s+name|trade\s+name|commercial\s+product\s+name)$`)
	sectionNumberedRe   = regexp.MustCompile(`(?i)^\s*\d+\.?\s*(?:identification|hazard)\b`)
	skipContextRe       = regexp.MustCompile(`(?i)identification|supplier|manufacturer|emergency|contact|telephone|fax|email|web\s*site|details|address|synonym|regulation`)
	accordingToRe       = regexp.MustCompile(`(?i)safety\s+data\s+sheet|according\s+to`)
	transportPhraseRe   = regexp.MustCompile(`(?i)proper\s+shipping\s+name|shipping\s+name|un\s+number|transport|hazchem|epg|chemical\s+formula|not\s+applicable`)
	dateHeaderLineRe    = regexp.MustCompile(`(?i)^(?:msds\s+date|sds\s+date|date\s+of\s+issue|revision\s+date|version\s+date)\b`)
	productNameLeadRe   = regexp.MustCompile(`(?i)^(?:product\s+name|sds\s+no\.?|sds\s+number)`)
	companyIndicatorRe  = regexp.MustCompile(`(?i)\b(?:Pty\s+Ltd|Ltd|Inc\.?|Corp\.?|Company|Corporation)\b`)
	productNameLabelRe  = regexp.MustCompile(`(?i)Product\s+Name\s*:`)
	supplierDetailsRe   = regexp.MustCompile(`(?i)Details\s+of\s+the\s+supplier[^\n]*`)
	supplierInlineRe    = regexp.MustCompile(`(?i)Details\s+of\s+the\s+supplier[^\n]*?:\s*(.+)`)
	vendorSplitRe       = regexp.MustCompile(`(?i)\b(?:Product\s+Name|Trade\s+name)\b`)
	obviousLabelRe      = regexp.MustCompile(`(?i)^(?:Alternative\s+number\(s\)|Other\s+Name\(s\)|Formulation\s+#|Registration\s+no\.?\s*[–\-]?\s*US:?)$`)

	productNameSplitRe  = regexp.MustCompile(`(?i)Product\s+Name[:\s]+([^:\n]+)`)
	trailingCompanyRe   = regexp.MustCompile(`(?i)\s+(?:Pty\s+Ltd|Ltd|Inc\.?|Corp\.?).*$`)
	dgBackstopRe        = regexp.MustCompile(`(?i)(?:dangerous\s+goods?\s+class|dg\s+class|transport\s+hazard\s+class(?:\(es\))?|hazard\s+class(?:\(es\))?)[^\n]{0,30}?[\s:|\-]([1-9](?:\.[1-9])?)(?:[^\d.]|$)`)
	pgBackstopRe        = regexp.MustCompile(`(?i)packing\s+group[^\n]{0,30}?\b(III|II|IV|I)\b`)
	descriptionPrefixRe = regexp.MustCompile(`(?i)^(?:of\s+the\s+substance\s+or\s+mixture\s+and\s+uses\s+advised\s+against\s*|/\s*Mixture\s*:\s*)`)

	notClassifiedHazardousRe = regexp.MustCompile(`(?i)\bnot\s+(?:classified|regarded|considered)\s+as\s+hazardous\b|\bnon-?hazardous\s+(?:substance|chemical|material)\b`)
	classifiedHazardousRe    = regexp.MustCompile(`(?i)\bclassified\s+as\s+(?:a\s+)?hazardous\b|\bhazardous\s+(?:substance|chemical)\.?\s+according\s+to\b`)
)

// FieldExtractor turns raw SDS text into structured field values with
// per-tier confidence. Stateless apart from the acceptance threshold.
type FieldExtractor struct {
	threshold float64
}

// NewFieldExtractor creates an extractor; values whose tier confidence falls
// below threshold are dropped from the result
func NewFieldExtractor(threshold float64) *FieldExtractor {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &FieldExtractor{threshold: threshold}
}

// Parse extracts the chemical metadata fields from SDS text. Every value is
// validated for its field; a failed validation drops only that field, never
// the parse. The derived hazard flags are always set for non-empty text.
func (e *FieldExtractor) Parse(text string) *domain.ParseResult {
	result := &domain.ParseResult{Fields: make(map[string]domain.FieldResult)}

	if strings.TrimSpace(text) == "" {
		result.Warnings = append(result.Warnings, "no text to parse")
		return result
	}

	section1 := sectionSlice(text, 1)
	if strings.TrimSpace(section1) == "" {
		section1 = headLines(text, 15)
	}
	section14 := sectionSlice(text, 14)

	log.Printf("[EXTRACT] section 1: %d chars, section 14: %d chars", len(section1), len(section14))

	name, conf := e.extractProductName(section1, text)
	e.setField(result, domain.FieldProductName, name, conf)

	vendor, conf := e.extractVendor(section1, text)
	e.setField(result, domain.FieldVendor, vendor, conf)

	desc, conf := e.extractDescription(section1)
	e.setField(result, domain.FieldDescription, desc, conf)

	class, conf := e.extractDGClass(section14, text)
	e.setField(result, domain.FieldDangerousGoodsClass, class, conf)

	risks, conf := e.extractSubsidiaryRisks(section14)
	e.setField(result, domain.FieldSubsidiaryRisks, risks, conf)

	group, conf := e.extractPackingGroup(section14, text)
	e.setField(result, domain.FieldPackingGroup, group, conf)

	issued, conf := e.extractDate(text)
	e.setField(result, domain.FieldIssueDate, issued, conf)

	e.deriveHazardFlags(result, text)

	for name, f := range result.Fields {
		log.Printf("[EXTRACT] %s = %q (%.2f)", name, f.Value, f.Confidence)
	}

	return result
}

// setField records a value that cleared the threshold; empty or rejected
// values become a warning instead
func (e *FieldExtractor) setField(result *domain.ParseResult, name string, value string, conf float64) {
	if value == "" || conf < e.threshold {
		if value != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s below confidence threshold", name))
		}
		return
	}
	result.Fields[name] = domain.FieldResult{Value: value, Confidence: conf}
}

// extractProductName resolves the product name through four tiers: explicit
// label, doubled-letter label, positional scan of the identification section,
// and finally a flat scan of the whole document
func (e *FieldExtractor) extractProductName(section1, fullText string) (string, float64) {
	if value, conf := extractAfterLabel(section1, fieldLabels[domain.FieldProductName]); value != "" {
		if cleaned := validateProductName(value); cleaned != "" {
			return cleaned, conf
		}
	}

	// OCR double-render pass: the label letters arrive doubled but the value
	// is clean, so label matching above never fires
	for _, line := range strings.Split(section1, "\n") {
		stripped := stripDoubledLabelPrefix(line)
		if stripped == strings.TrimSpace(line) {
			continue
		}
		if cleaned := validateProductName(stripped); cleaned != "" {
			return cleaned, confidenceSameLine
		}
	}

	if value, ok := positionalProductName(section1); ok {
		if cleaned := validateProductName(value); cleaned != "" {
			return cleaned, confidencePositional
		}
	}

	if m := productNameSplitRe.FindStringSubmatch(fullText); m != nil {
		candidate := trailingCompanyRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		candidate = cleanExtractedValue(candidate)
		if len(candidate) > 2 && !obviousLabelRe.MatchString(candidate) {
			if cleaned := validateProductName(candidate); cleaned != "" {
				return cleaned, confidenceBackstop
			}
		}
	}

	log.Printf("[EXTRACT] could not extract product name")
	return "", 0
}

// validateProductName cleans a candidate and rejects label echoes, company
// suffixes, transport phrases and document headers. Returns empty on
// rejection.
func validateProductName(value string) string {
	cleaned := stripLabelEcho(value)
	cleaned = stripDoubledLabelPrefix(cleaned)
	cleaned = collapseRepeatedPhrase(cleaned)
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) < 3 || len(cleaned) > 100 {
		return ""
	}
	if isNoiseText(cleaned) || headerContinuation(cleaned) {
		return ""
	}
	if labelLikeValueRe.MatchString(cleaned) || obviousLabelRe.MatchString(cleaned) {
		return ""
	}
	if companySuffixOnlyRe.MatchString(cleaned) || sectionNumberedRe.MatchString(cleaned) {
		return ""
	}
	if sdsHeaderLikeRe.MatchString(cleaned) {
		return ""
	}
	if looksLikeNumericCode(cleaned) {
		return ""
	}
	lowered := strings.ToLower(cleaned)
	for _, tok := range []string{"proper shipping name", "chemical formula", "un number"} {
		if strings.Contains(lowered, tok) {
			return ""
		}
	}
	if lowered == "not applicable" || lowered == "n/a" || lowered == "na" {
		return ""
	}
	return cleaned
}

// positionalProductName takes the first plausible line of the identification
// section once headers, labels, contact blocks and dates are skipped
func positionalProductName(section1 string) (string, bool) {
	lines := strings.Split(section1, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}

	for _, raw := range lines {
		clean := strings.TrimSpace(raw)
		if clean == "" {
			continue
		}
		if sectionHeaderRe.MatchString(clean) || sectionOneLineRe.MatchString(clean) {
			continue
		}
		if skipContextRe.MatchString(clean) || accordingToRe.MatchString(clean) {
			continue
		}
		if strings.HasPrefix(clean, "(") || isNoiseText(clean) || punctOnlyRe.MatchString(clean) {
			continue
		}
		if isBareLabel(clean) || obviousLabelRe.MatchString(clean) {
			continue
		}

		candidate := leadingNumberRe.ReplaceAllString(clean, "")
		candidate = stripDoubledLabelPrefix(candidate)
		candidate = stripLabelEcho(candidate)
		if productNameLeadRe.MatchString(candidate) || numberDashRe.MatchString(candidate) {
			continue
		}
		if dateHeaderLineRe.MatchString(candidate) || transportPhraseRe.MatchString(strings.ToLower(candidate)) {
			continue
		}
		if len(candidate) <= 3 || len(candidate) > 100 {
			continue
		}
		if webAddressRe.MatchString(candidate) || phoneAnywhereRe.MatchString(candidate) {
			continue
		}
		return collapseRepeatedPhrase(candidate), true
	}

	return "", false
}

// isBareLabel reports whether the line is a field label with no value
func isBareLabel(line string) bool {
	for _, label := range allLabelPatterns {
		if label.alone.MatchString(line) {
			return true
		}
	}
	return false
}

// extractVendor resolves the manufacturer/supplier through label extraction,
// the supplier-details block, a company-suffix line scan and a final pass
// over the document head
func (e *FieldExtractor) extractVendor(section1, fullText string) (string, float64) {
	if value, conf := extractAfterLabel(section1, fieldLabels[domain.FieldVendor]); value != "" {
		if cleaned := validateVendor(value); cleaned != "" {
			return cleaned, conf
		}
	}

	if m := supplierInlineRe.FindStringSubmatch(section1); m != nil {
		first := strings.TrimSpace(strings.SplitN(m[1], "\n", 2)[0])
		if cleaned := validateVendor(first); cleaned != "" {
			return cleaned, confidenceTable
		}
	}

	if value, ok := supplierDetailsBlock(section1); ok {
		if cleaned := validateVendor(value); cleaned != "" {
			return cleaned, confidenceTable
		}
	}

	if value, ok := companyIndicatorLine(section1); ok {
		if cleaned := validateVendor(value); cleaned != "" {
			return cleaned, confidencePositional
		}
	}

	// Supplier details sometimes sit above the first section header
	if value, conf := extractAfterLabel(headLines(fullText, 60), fieldLabels[domain.FieldVendor]); value != "" && conf > 0 {
		if cleaned := validateVendor(value); cleaned != "" {
			return cleaned, confidenceBackstop
		}
	}

	log.Printf("[EXTRACT] could not extract manufacturer")
	return "", 0
}

// validateVendor cleans a company candidate and rejects leaked labels and
// header fragments. Returns empty on rejection.
func validateVendor(value string) string {
	cleaned := vendorSplitRe.Split(value, 2)[0]
	cleaned = stripLabelEcho(cleaned)
	cleaned = collapseRepeatedPhrase(cleaned)
	cleaned = cleanCompanyName(cleaned)

	if len(cleaned) < 3 {
		return ""
	}
	if isNoiseText(cleaned) || headerContinuation(cleaned) {
		return ""
	}
	if sdsHeaderLikeRe.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// supplierDetailsBlock scans the lines following a "Details of the supplier"
// header for the first line that reads like a company name
func supplierDetailsBlock(section1 string) (string, bool) {
	loc := supplierDetailsRe.FindStringIndex(section1)
	if loc == nil {
		return "", false
	}

	rest := section1[loc[1]:]
	lines := strings.Split(rest, "\n")
	if len(lines) > 6 {
		lines = lines[:6]
	}

	for _, raw := range lines {
		clean := strings.TrimSpace(raw)
		if clean == "" || len(clean) <= 3 {
			continue
		}
		if isNoiseText(clean) || phoneAnywhereRe.MatchString(clean) {
			continue
		}
		if accordingToRe.MatchString(clean) || sectionHeaderRe.MatchString(clean) {
			continue
		}
		return clean, true
	}

	return "", false
}

// companyIndicatorLine finds a line carrying a corporate suffix, which in the
// identification section is almost always the supplier
func companyIndicatorLine(section1 string) (string, bool) {
	lines := strings.Split(section1, "\n")
	if len(lines) > 15 {
		lines = lines[:15]
	}

	for _, raw := range lines {
		clean := strings.TrimSpace(raw)
		if clean == "" {
			continue
		}
		if !companyIndicatorRe.MatchString(clean) {
			continue
		}
		if productNameLabelRe.MatchString(clean) || isNoiseText(clean) {
			continue
		}
		return clean, true
	}

	return "", false
}

// extractDescription pulls the recommended-use text from the identification
// section
func (e *FieldExtractor) extractDescription(section1 string) (string, float64) {
	value, conf := extractAfterLabel(section1, fieldLabels[domain.FieldDescription])
	if value == "" {
		return "", 0
	}

	value = strings.TrimSpace(descriptionPrefixRe.ReplaceAllString(value, ""))
	if value == "" || headerContinuation(value) || isNoiseText(value) {
		return "", 0
	}
	return value, conf
}

// extractDGClass resolves the dangerous goods class from the transport
// section: labels first, then table rows, then a flat document scan
func (e *FieldExtractor) extractDGClass(section14, fullText string) (string, float64) {
	if value, conf := extractAfterLabel(section14, fieldLabels[domain.FieldDangerousGoodsClass]); value != "" {
		if validDGClass(value) {
			return strings.TrimSpace(value), conf
		}
		log.Printf("[EXTRACT] invalid dangerous goods class rejected: %q", value)
	}

	if value, ok := dgClassFromTable(section14); ok {
		return value, confidenceTable
	}

	if m := dgBackstopRe.FindStringSubmatch(fullText); m != nil {
		return m[1], confidenceBackstop
	}

	return "", 0
}

// dgClassFromTable handles tabular transport layouts where label matching
// fails
func dgClassFromTable(section14 string) (string, bool) {
	if section14 == "" {
		return "", false
	}

	var lines []string
	for _, raw := range strings.Split(section14, "\n") {
		if clean := strings.TrimSpace(raw); clean != "" {
			lines = append(lines, clean)
		}
	}

	// Transport-hazard rows, including headers wrapped onto the next line.
	// In ADG/IMDG/IATA column layouts the first valid token is the ADG value.
	for i, line := range lines {
		if !transportHazardRe.MatchString(line) {
			continue
		}
		combined := line
		if i+1 < len(lines) {
			combined += " " + lines[i+1]
		}
		tail := transportHazardCutRe.ReplaceAllString(combined, "")
		for _, token := range splitTableTokens(tail) {
			if validDGClass(token) {
				return token, true
			}
		}
	}

	for i, line := range lines {
		if !dgClassRowRe.MatchString(line) {
			continue
		}
		end := i + 6
		if end > len(lines) {
			end = len(lines)
		}
		for _, row := range lines[i:end] {
			for _, token := range splitTableTokens(row) {
				if validDGClass(token) {
					return token, true
				}
			}
		}
	}

	return "", false
}

// extractSubsidiaryRisks reads the subsidiary risk from the transport
// section; explicit none-phrases mean no subsidiary risk, so the field stays
// absent
func (e *FieldExtractor) extractSubsidiaryRisks(section14 string) (string, float64) {
	value, conf := extractAfterLabel(section14, fieldLabels[domain.FieldSubsidiaryRisks])
	if value == "" {
		return "", 0
	}
	if dgNotApplicableRe.MatchString(value) || packingGroupNoneRe.MatchString(value) {
		return "", 0
	}
	return value, conf
}

// extractPackingGroup resolves the packing group: labels, then table rows,
// then a flat scan. Values normalize to upper-case roman numerals; explicit
// none-phrases leave the field absent.
func (e *FieldExtractor) extractPackingGroup(section14, fullText string) (string, float64) {
	if value, conf := extractAfterLabel(section14, fieldLabels[domain.FieldPackingGroup]); value != "" {
		if normalized, ok := normalizePackingGroup(value); ok {
			return normalized, conf
		}
		if packingGroupNoneRe.MatchString(strings.TrimSpace(value)) {
			return "", 0
		}
	}

	if value, ok := packingGroupFromTable(section14); ok {
		if normalized, ok := normalizePackingGroup(value); ok {
			return normalized, confidenceTable
		}
		return "", 0 // explicit none-phrase in the table
	}

	if m := pgBackstopRe.FindStringSubmatch(fullText); m != nil {
		return strings.ToUpper(m[1]), confidenceBackstop
	}

	return "", 0
}

// normalizePackingGroup collapses duplicated tokens ("II II") and upper-cases
// the roman numeral. Returns false for none-phrases and invalid values.
func normalizePackingGroup(value string) (string, bool) {
	tokens := strings.Fields(strings.TrimSpace(value))
	if len(tokens) == 0 {
		return "", false
	}
	first := tokens[0]
	for _, t := range tokens[1:] {
		if !strings.EqualFold(t, first) {
			return "", false
		}
	}
	if !packingGroupRe.MatchString(first) {
		return "", false
	}
	return strings.ToUpper(first), true
}

// packingGroupFromTable handles tabular layouts: the value may share the
// header line or sit in a cell a few rows below
func packingGroupFromTable(section14 string) (string, bool) {
	if section14 == "" {
		return "", false
	}

	lines := strings.Split(section14, "\n")
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if !packingGroupRowRe.MatchString(line) {
			continue
		}

		tail := packingGroupCutRe.ReplaceAllString(line, "")
		for _, token := range splitTableTokens(tail) {
			if validPackingGroup(token) {
				return token, true
			}
		}

		end := i + 4
		if end > len(lines) {
			end = len(lines)
		}
		for _, rowRaw := range lines[i+1 : end] {
			row := strings.TrimSpace(rowRaw)
			if row == "" {
				continue
			}
			for _, cell := range tableCellSplitRe.Split(row, -1) {
				cell = strings.Trim(strings.TrimSpace(cell), ",;")
				if cell != "" && validPackingGroup(cell) {
					return cell, true
				}
			}
		}
	}

	return "", false
}

// splitTableTokens splits a table row remainder into candidate cells
func splitTableTokens(s string) []string {
	var out []string
	for _, t := range tableTokenSplitRe.Split(s, -1) {
		t = strings.Trim(strings.TrimSpace(t), ",;")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// extractDate maps the date pass tiers onto confidences
func (e *FieldExtractor) extractDate(text string) (string, float64) {
	iso, tier := extractIssueDate(text)
	switch tier {
	case dateTierLabeled:
		return iso, confidenceSameLine
	case dateTierFallback:
		return iso, confidenceBackstop
	default:
		return "", 0
	}
}

// deriveHazardFlags computes dangerous_good from the validated class and
// hazardous_substance from the document's own classification statement,
// falling back to mirroring dangerous_good
func (e *FieldExtractor) deriveHazardFlags(result *domain.ParseResult, text string) {
	dangerous := false
	if f, ok := result.Fields[domain.FieldDangerousGoodsClass]; ok {
		dangerous = validDGClassRe.MatchString(strings.TrimSpace(f.Value))
	}
	result.DangerousGood = &dangerous

	hazardous := dangerous
	if notClassifiedHazardousRe.MatchString(text) {
		hazardous = false
	} else if classifiedHazardousRe.MatchString(text) {
		hazardous = true
	}
	result.HazardousSubstance = &hazardous
}

// extractAfterLabel finds the first label whose value survives cleanup, on
// the label's own line or on one of the lines below a bare label. Returns the
// value and the tier confidence, or empty.
func extractAfterLabel(sectionText string, labels []*labelPattern) (string, float64) {
	if sectionText == "" {
		return "", 0
	}

	lines := strings.Split(sectionText, "\n")
	for i, raw := range lines {
		clean := strings.TrimSpace(raw)
		if clean == "" {
			continue
		}

		for _, label := range labels {
			m := label.sameLine.FindStringSubmatch(clean)
			if m == nil {
				m = label.spaced.FindStringSubmatch(clean)
			}

			searchNext := false
			if m != nil {
				value := strings.TrimSpace(m[1])
				if headerContinuation(value) {
					continue
				}
				if productCodeRe.MatchString(value) {
					continue
				}
				value = cleanExtractedValue(value)
				if value != "" && !isNoiseText(value) {
					return value, confidenceSameLine
				}
				searchNext = true
			}

			if searchNext || label.alone.MatchString(clean) {
				if value, ok := valueFromFollowingLines(lines, i); ok {
					return value, confidenceNextLine
				}
			}
		}
	}

	return "", 0
}

// valueFromFollowingLines scans the window below a bare label for the value,
// stopping when another label begins
func valueFromFollowingLines(lines []string, labelIdx int) (string, bool) {
	for j := labelIdx + 1; j < len(lines) && j <= labelIdx+nextLineWindow; j++ {
		candidate := strings.TrimSpace(lines[j])
		if candidate == "" {
			continue
		}
		candidate = strings.TrimSpace(strings.TrimPrefix(candidate, ":"))
		if candidate == "" {
			continue
		}
		if matchesAnyLabel(candidate) {
			break
		}
		candidate = cleanExtractedValue(candidate)
		if candidate != "" && !isNoiseText(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// sectionSlice extracts one numbered section of the document. The slice runs
// from the section header to the next section header; slices too short to be
// real fall back to a looser line scan.
func sectionSlice(text string, n int) string {
	headerRe := sectionStartPattern(n)
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if headerRe.MatchString(line) {
			start = i
			break
		}
	}

	if start >= 0 {
		end := len(lines)
		for j := start + 1; j < len(lines); j++ {
			if sectionHeaderRe.MatchString(lines[j]) {
				end = j
				break
			}
		}
		section := strings.Join(lines[start:end], "\n")
		if len(strings.TrimSpace(section)) >= minSectionChars {
			return section
		}
	}

	return looseSectionSlice(lines, n)
}

func sectionStartPattern(n int) *regexp.Regexp {
	switch n {
	case 1:
		return section1HeaderRe
	case 14:
		return section14HeaderRe
	default:
		return regexp.MustCompile(fmt.Sprintf(`(?i)^\s*(?:section\s*)?%d\s*[:.\-]\s`, n))
	}
}

// looseSectionSlice is the fallback for layouts whose headers lack
// punctuation entirely. It accepts any line opening with the section number
// and ends at the next higher section number.
func looseSectionSlice(lines []string, n int) string {
	start := -1
	for i, line := range lines {
		if num, ok := looseSectionNumber(line); ok && num == n {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for j := start + 1; j < len(lines); j++ {
		if num, ok := looseSectionNumber(lines[j]); ok && num > n {
			end = j
			break
		}
	}

	return strings.Join(lines[start:end], "\n")
}

// looseSectionNumber reads a section number off the front of a line,
// rejecting decimal subsections ("14.1") and slashed fractions ("1/2")
func looseSectionNumber(line string) (int, bool) {
	m := looseSectionRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	rest := line[len(m[0]):]
	if m[2] == "." && len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		return 0, false
	}
	if strings.HasPrefix(strings.TrimSpace(rest), "/") {
		return 0, false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return num, true
}

// headLines returns the first n lines of text
func headLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}

// BuildMetadata maps a parse result onto the persisted metadata row. Fields
// below threshold stay null; raw_json keeps the complete result with
// confidences plus the provenance marker.
func BuildMetadata(productID string, result *domain.ParseResult, threshold float64) *domain.SDSMetadata {
	meta := &domain.SDSMetadata{
		ProductID: productID,
		RawJSON: map[string]interface{}{
			"provenance": domain.ProvenanceParsed,
			"fields":     result.Fields,
		},
	}
	if result.Method != "" {
		meta.RawJSON["method"] = result.Method
	}
	if len(result.Warnings) > 0 {
		meta.RawJSON["warnings"] = result.Warnings
	}

	assign := func(name string, dst **string) {
		if f, ok := result.Fields[name]; ok && f.Confidence >= threshold && f.Value != "" {
			v := f.Value
			*dst = &v
		}
	}
	assign(domain.FieldVendor, &meta.Vendor)
	assign(domain.FieldIssueDate, &meta.IssueDate)
	assign(domain.FieldDangerousGoodsClass, &meta.DangerousGoodsClass)
	assign(domain.FieldPackingGroup, &meta.PackingGroup)
	assign(domain.FieldSubsidiaryRisks, &meta.SubsidiaryRisks)
	assign(domain.FieldDescription, &meta.Description)

	meta.DangerousGood = result.DangerousGood
	meta.HazardousSubstance = result.HazardousSubstance

	return meta
}
