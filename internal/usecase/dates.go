package usecase

import (
	"regexp"
	"strings"
	"time"
)

// dateTier records which pass produced a date, so callers can weight
// authoritative issue/revision labels above print-and-update footers
type dateTier int

const (
	dateTierNone dateTier = iota
	dateTierLabeled
	dateTierFallback
)

// dateCandidateExpr matches the date value shapes seen across real sheets:
// day-first numerics, ISO, month names before or after the day, and bare
// month-year headers
const dateCandidateExpr = `(` +
	`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}` +
	`|\d{4}-\d{2}-\d{2}` +
	`|\d{1,2}[\s\-/.][A-Za-z]{3,}\.?[\s\-/.,]+\d{2,4}` +
	`|[A-Za-z]{3,}\.?\s+\d{1,2},?\s*\d{4}` +
	`|[A-Za-z]{3,}\.?\s+\d{4}` +
	`)`

var (
	// Authoritative labels: the document's own issue/revision metadata
	labeledDateRe = regexp.MustCompile(
		`(?i)\b(?:Revision(?:\s+Date)?|Rev|Issue\s+Date|Date\s+of\s+issue|Version\s+date|SDS\s+creation\s+date|Date\s+Prepared|Prepared\s+on|Issued|MSDS\s+Date|SDS\s+Date)\b[^\n]{0,40}?[:\-]?\s*` + dateCandidateExpr)

	// Weaker labels: print and last-touched footers, accepted only when
	// nothing authoritative parses
	fallbackDateRe = regexp.MustCompile(
		`(?i)\b(?:Last\s+Updated|Last\s+Revision|Last\s+Revised|Updated\s+on|Last\s+Modified|Effective\s+Date|Print(?:ed|ing)?\s+Date|Date\s+of\s+print(?:ing)?|Date)\b[^\n]{0,40}?[:\-]?\s*` + dateCandidateExpr)

	monthDotRe  = regexp.MustCompile(`\b([A-Za-z]{3,})\.`)
	monthYearRe = regexp.MustCompile(`^([A-Za-z]{3,})\s+(\d{4})$`)
)

// issueDateFormats in trial order. Day-first comes before everything else
// because Australian sheets write DD/MM/YYYY; ISO and month-name forms are
// unambiguous either way.
var issueDateFormats = []string{
	"2/1/2006", // DD/MM/YYYY and D/M/YYYY
	"2-1-2006",
	"2.1.2006",
	"2/1/06", // two-digit years
	"2-1-06",
	"2006-01-02", // ISO
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2.Jan.2006",
	"2 Jan, 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
}

// extractIssueDate pulls the document's issue/revision date out of the raw
// text, normalized to YYYY-MM-DD. Labels naming an issue, revision or
// preparation date win over print-date and last-updated footers; future
// dates are OCR misreads and are skipped.
func extractIssueDate(text string) (string, dateTier) {
	if iso := firstParseableDate(labeledDateRe.FindAllStringSubmatch(text, -1)); iso != "" {
		return iso, dateTierLabeled
	}
	if iso := firstParseableDate(fallbackDateRe.FindAllStringSubmatch(text, -1)); iso != "" {
		return iso, dateTierFallback
	}
	return "", dateTierNone
}

func firstParseableDate(matches [][]string) string {
	for _, m := range matches {
		if iso, ok := parseFlexibleDate(m[1]); ok {
			return iso
		}
	}
	return ""
}

// parseFlexibleDate normalizes one date candidate to ISO form. Month-year
// candidates with no day resolve to the first of the month.
func parseFlexibleDate(candidate string) (string, bool) {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return "", false
	}

	// Month abbreviations with a trailing dot ("Jan.") break layout matching
	s = monthDotRe.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(innerSpaceRe.ReplaceAllString(s, " "))

	today := time.Now()

	for _, layout := range issueDateFormats {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.After(today) {
			continue
		}
		return t.Format("2006-01-02"), true
	}

	if m := monthYearRe.FindStringSubmatch(s); m != nil {
		for _, layout := range []string{"Jan 2006", "January 2006"} {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
			if first.After(today) {
				continue
			}
			return first.Format("2006-01-02"), true
		}
	}

	return "", false
}
