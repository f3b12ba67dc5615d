package usecase

import (
	"regexp"
	"strings"
)

// Noise recognition. A candidate value matching any of these is a leaked
// label, contact fragment or page artifact, never a real field value.
var noiseValueRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Telephone\b`),
	regexp.MustCompile(`(?i)^Tel\.?$`),
	regexp.MustCompile(`(?i)^Phone\b`),
	regexp.MustCompile(`(?i)^Fax\b`),
	regexp.MustCompile(`(?i)^E[\-]?mail\b`),
	regexp.MustCompile(`(?i)^Website\b`),
	regexp.MustCompile(`(?i)^Emergency$`),
	regexp.MustCompile(`(?i)^Emergency\s+(?:telephone|phone|contact)\b`),
	regexp.MustCompile(`(?i)^Address\b`),
	regexp.MustCompile(`(?i)^Poisons?(?:\s+Information)?$`),
	regexp.MustCompile(`(?i)^Product\s+code\b`),
	regexp.MustCompile(`(?i)^HS\s+Code\b`),
	regexp.MustCompile(`(?i)^SDS\s+n(?:o\.?|umber)$`),
	regexp.MustCompile(`(?i)^Page\s+\d+`),
	regexp.MustCompile(`(?i)^Date\s+of\s+issue$`),
	regexp.MustCompile(`(?i)^Revision\s+date$`),
	regexp.MustCompile(`(?i)^MSDS\s+Date$`),
	regexp.MustCompile(`(?i)^Version$`),
	regexp.MustCompile(`(?i)^Details\s+of\s+the\s+supplier$`),
	regexp.MustCompile(`(?i)^Contact\s+details\b`),
	regexp.MustCompile(`(?i)^Alternative\s+number`),
	regexp.MustCompile(`(?i)^Facsimile\s+Number$`),
	regexp.MustCompile(`(?i)^Registered\s+company\s+name$`),
	regexp.MustCompile(`(?i)^Safety\s+data\s+sheet$`),
	regexp.MustCompile(`(?i)^Document\s+(?:number|type)$`),
	regexp.MustCompile(`(?i)^Country$`),
	regexp.MustCompile(`(?i)^Language$`),
	regexp.MustCompile(`(?i)^Format$`),
	regexp.MustCompile(`(?i)^Company(?:\s+No\.?)?[:.]?\s*$`),
	regexp.MustCompile(`(?i)^Other\s+Name\(s\)$`),
	regexp.MustCompile(`(?i)^Formulation\s+#$`),
	regexp.MustCompile(`(?i)^Registration\s+no\.?\s*[–\-]?\s*US:?\s*$`),
	regexp.MustCompile(`(?i)^Group$`),
	regexp.MustCompile(`(?i)^Synonyms?\b`),
	regexp.MustCompile(`(?i)^Australia\s+-\s+\d+`),
	regexp.MustCompile(`(?i)^UK,?\s+NPIS\b`),
	regexp.MustCompile(`^\d{2,4}[-\s]\d{2,4}[-\s]\d{2,4}`), // phone number shapes
	regexp.MustCompile(`^["'` + "`" + `´’]+s$`),            // orphaned possessive
	regexp.MustCompile(`^-\s*-$`),
	regexp.MustCompile(`^:$`),
}

var (
	punctOnlyRe     = regexp.MustCompile(`^[:\-\s]*$`)
	phoneAnywhereRe = regexp.MustCompile(`\b\d{2,4}\s+\d{2,4}\s+\d{2,4}\b`)
	countryHeaderRe = regexp.MustCompile(`^(?:UK|US|USA|EU|AU|NZ|JP|CN),?\s+[A-Z]{2,4}\b`)
	bareDGDigitRe   = regexp.MustCompile(`^\d(?:\.\d)?$`)
)

// noiseWords are single generic words that never stand alone as a value
var noiseWords = map[string]bool{
	"name": true, "date": true, "address": true, "contact": true,
	"details": true, "information": true,
	"australia": true, "new zealand": true, "united states": true,
	"united kingdom": true, "usa": true, "uk": true, "canada": true,
	"germany": true,
}

// isNoiseText reports whether a candidate value is a leaked label or contact
// artifact rather than real content. Single digits survive because a bare "3"
// is a legitimate dangerous goods class.
func isNoiseText(text string) bool {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return true
	}
	if len(clean) < 2 && !bareDGDigitRe.MatchString(clean) {
		return true
	}
	if punctOnlyRe.MatchString(clean) {
		return true
	}
	for _, re := range noiseValueRes {
		if re.MatchString(clean) {
			return true
		}
	}
	if phoneAnywhereRe.MatchString(clean) {
		return true
	}
	if countryHeaderRe.MatchString(clean) {
		return true
	}
	if noiseWords[strings.ToLower(clean)] {
		return true
	}
	return false
}

// Value cleanup patterns
var (
	possessiveArtifactRe = regexp.MustCompile(`^["'` + "`" + `´’]+s\b\s*`)
	trailingSeparatorRe  = regexp.MustCompile(`\s*[:\-]\s*$`)
	trailingPageRe       = regexp.MustCompile(`(?i)\s+Page\s+\d+.*$`)
	contactSplitRe       = regexp.MustCompile(`(?i)\s+(?:Tel|Phone|Fax|Email|Website|Emergency|Address|Contact|Product\s+code):`)
	productCodeRe        = regexp.MustCompile(`(?i)product\s+code`)
)

// cleanExtractedValue trims the junk that rides along with a field value when
// a PDF flattens table cells onto one line: contact blocks, page footers,
// other labels, trailing separators
func cleanExtractedValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	value = possessiveArtifactRe.ReplaceAllString(value, "")

	if loc := contactSplitRe.FindStringIndex(value); loc != nil {
		value = value[:loc[0]]
	}

	for _, re := range commonLabelTrimRes {
		if loc := re.FindStringIndex(value); loc != nil && loc[0] > 0 {
			value = value[:loc[0]]
			break
		}
	}

	value = trailingPageRe.ReplaceAllString(value, "")
	value = trailingSeparatorRe.ReplaceAllString(value, "")

	return strings.TrimSpace(value)
}

// Company cleanup patterns
var (
	leadingBulletRe     = regexp.MustCompile(`^[\s\-–—:*•■●►➤▼◆▪]+`)
	companyLabelRe      = regexp.MustCompile(`(?i)^(?:Company\s+and\s+address|Company|Manufacturer|Supplier(?:\s+Name)?|Distributor|Producer)\s*[:\-]\s*`)
	companySectionRe    = regexp.MustCompile(`(?i)^(?:Section\s*\d+\b|\d+\.?\s*(?:Identification|Hazard)\b)`)
	registryParensRe    = regexp.MustCompile(`(?i)\s*\([^)]*(?:ABN|ACN|Formerly)\s*[^)]*\)`)
	companyNoiseTokenRe = regexp.MustCompile(`(?i)\b(?:Association\s*/?\s*Organisation|Poisons?\s+Information|Emergency(?:\s+telephone|\s+phone)?|ABN|ACN|Address|Contact|Website|Email|Tel\.?|Phone|Fax)\b`)
	legalSuffixClipRe   = regexp.MustCompile(`(?i)^(.*?\b(?:PTY\s+LTD|P/L|LTD|LIMITED|INC\.?|CORP\.?|CORPORATION|GMBH|PLC|BV|S\.?A\.?|S\.P\.A\.|LLC))\b`)
	trailingPunctTailRe = regexp.MustCompile(`[\s,.;:]+$`)
)

// cleanCompanyName tidies a manufacturer/supplier candidate: strips bullets
// and leaked label prefixes, drops registry parentheticals, truncates at
// contact noise and clips everything after the legal-entity suffix.
// Returns empty when the candidate is really a section header.
func cleanCompanyName(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}

	s = leadingBulletRe.ReplaceAllString(s, "")
	s = companyLabelRe.ReplaceAllString(s, "")

	if companySectionRe.MatchString(s) {
		return ""
	}

	s = registryParensRe.ReplaceAllString(s, "")

	if loc := companyNoiseTokenRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}

	if m := legalSuffixClipRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	s = trailingPunctTailRe.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

// labelEchoRes strip a leading field label that leaked into a value
var labelEchoRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^product\s+identifier\s*[:\-]?\s*`),
	regexp.MustCompile(`(?i)^product\s+name\s*[:\-]?\s*`),
	regexp.MustCompile(`(?i)^trade\s+name\s*[:\-]?\s*`),
	regexp.MustCompile(`(?i)^commercial\s+product\s+name\s*[:\-]?\s*`),
	regexp.MustCompile(`(?i)^(?:manufacturer|supplier\s+name|supplier|company\s+name\s+of\s+supplier|producer|company\s+name|registered\s+company\s+name|distributor)\s*[:\-]?\s*`),
}

func stripLabelEcho(value string) string {
	out := value
	for _, re := range labelEchoRes {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}
	return out
}

var innerSpaceRe = regexp.MustCompile(`\s+`)

// collapseRepeatedPhrase collapses a value that is the same phrase twice in a
// row ("Chemtools Pty Ltd Chemtools Pty Ltd"), a common artifact of PDF
// column bleed
func collapseRepeatedPhrase(value string) string {
	cleaned := strings.TrimSpace(innerSpaceRe.ReplaceAllString(value, " "))
	words := strings.Fields(cleaned)
	if len(words) < 2 || len(words)%2 != 0 {
		return cleaned
	}
	half := len(words) / 2
	for i := 0; i < half; i++ {
		if words[i] != words[half+i] {
			return cleaned
		}
	}
	return strings.Join(words[:half], " ")
}

// compressDoubledLetters collapses runs of the same letter ("PPRROODDUUCCTT"
// to "PRODUCT"). Only used to recognize corrupted labels, never applied to
// values, since legitimate names carry double letters ("Bitter").
func compressDoubledLetters(token string) string {
	if token == "" {
		return token
	}
	var b strings.Builder
	b.Grow(len(token))
	var prev rune = -1
	for _, r := range token {
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// doubledLabelHeads are label spellings recognized even when every letter is
// doubled by a duplicated OCR pass
var doubledLabelHeads = [][]string{
	{"PRODUCT", "NAME"},
	{"PRODUCT", "IDENTIFIER"},
	{"TRADE", "NAME"},
	{"GHS", "PRODUCT", "IDENTIFIER"},
}

// stripDoubledLabelPrefix strips a leading label head whose letters were
// doubled by OCR ("PPRROODDUUCCTT NNAAMMEE Whiteboard cleaner" yields
// "Whiteboard cleaner"). Returns the input unchanged when no head matches.
func stripDoubledLabelPrefix(line string) string {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return raw
	}

	parts := strings.Fields(raw)
	for _, head := range doubledLabelHeads {
		if len(parts) < len(head) {
			continue
		}
		match := true
		for i, want := range head {
			norm := strings.ToUpper(compressDoubledLetters(parts[i]))
			norm = strings.Trim(norm, " :\t-._")
			if norm != want {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		remainder := strings.Join(parts[len(head):], " ")
		remainder = strings.TrimSpace(strings.TrimLeft(remainder, " :\t-._"))
		if remainder != "" {
			return remainder
		}
		return raw
	}

	return raw
}

var hasLetterRe = regexp.MustCompile(`[A-Za-z]`)

// looksLikeNumericCode reports whether a candidate is primarily a numeric
// code ("0000003477") rather than a name
func looksLikeNumericCode(value string) bool {
	s := strings.TrimSpace(value)
	if len(s) < 6 {
		return false
	}
	if hasLetterRe.MatchString(s) {
		return false
	}
	return strings.ContainsAny(s, "0123456789")
}
