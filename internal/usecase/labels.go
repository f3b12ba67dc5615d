package usecase

import (
	"regexp"
	"strings"

	"github.com/chemdex/backend/internal/domain"
)

// labelPattern holds the compiled forms of one field label. Labels come from
// real-world SDS layouts, where the value may follow the label on the same
// line (with or without a separator) or sit on a line of its own below it.
type labelPattern struct {
	sameLine *regexp.Regexp // label: value  (colon or dash separated)
	spaced   *regexp.Regexp // label value   (whitespace only)
	alone    *regexp.Regexp // label with no value on the line
	loose    *regexp.Regexp // unanchored, for stop-at-next-label checks
}

func compileLabel(expr string) *labelPattern {
	return &labelPattern{
		sameLine: regexp.MustCompile(`(?i)^` + expr + `\s*[:\-]\s*(.+)$`),
		spaced:   regexp.MustCompile(`(?i)^` + expr + `\b\s+(.+)$`),
		alone:    regexp.MustCompile(`(?i)^` + expr + `\s*[:\-]?\s*$`),
		loose:    regexp.MustCompile(`(?i)` + expr),
	}
}

func compileLabels(exprs ...string) []*labelPattern {
	out := make([]*labelPattern, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, compileLabel(e))
	}
	return out
}

// fieldLabels maps each target field to its known label spellings, most
// specific first. The bare `Class` label stays last so it only fires when
// nothing better matched on the line.
var fieldLabels = map[string][]*labelPattern{
	domain.FieldProductName: compileLabels(
		`Product\s+identifier`,
		`Product\s+name`,
		`Trade\s+name`,
		`Commercial\s+product\s+name`,
		`Product\s+designation`,
		`GHS\s+product\s+identifier`,
	),
	domain.FieldVendor: compileLabels(
		`Manufacturer\s*/\s*Supplier`,
		`Company\s+name\s+of\s+supplier`,
		`Registered\s+company\s+name`,
		`Supplier\s+Name`,
		`Manufacturer`,
		`Supplier`,
		`Producer`,
		`Company\s+name`,
		`Distributor`,
	),
	domain.FieldDescription: compileLabels(
		`Product\s+description`,
		`Description`,
		`Use\s+of\s+the\s+substance`,
		`Recommended\s+use`,
		`Intended\s+use`,
		`Product\s+use`,
		`Relevant\s+identified\s+uses`,
		`Identified\s+uses`,
		`Application`,
	),
	domain.FieldDangerousGoodsClass: compileLabels(
		`DG\s*Class`,
		`Class\s*/\s*Division`,
		`Transport\s+hazard\s+class(?:\(es\))?`,
		`(?:IMDG|IATA|ADG)\s*Hazard\s+Class(?:\(es\))?`,
		`Australian\s+Dangerous\s+Goods\s+class`,
		`Dangerous\s+goods\s+class`,
		`UN\s+Class`,
		`Hazard\s+class(?:\(es\))?`,
		`Class`,
	),
	domain.FieldSubsidiaryRisks: compileLabels(
		`Subsidiary\s+risk(?:\(s\))?`,
		`Subsidiary\s+hazard`,
		`Secondary\s+risk`,
	),
	domain.FieldPackingGroup: compileLabels(
		`Packing\s*group(?:\(s\))?`,
		`Packing\s*group\s*\(if\s*applicable\)`,
		`Australian\s+Dangerous\s+Goods\s+packing\s+group`,
		`PG`,
	),
}

// allLabelPatterns aggregates every label for the stop-at-next-label check
// when scanning lines below a bare label
var allLabelPatterns = func() []*labelPattern {
	var all []*labelPattern
	for _, labels := range fieldLabels {
		all = append(all, labels...)
	}
	return all
}()

func matchesAnyLabel(line string) bool {
	for _, label := range allLabelPatterns {
		if label.loose.MatchString(line) {
			return true
		}
	}
	return false
}

// commonLabelTrimRes cover labels from any field family that bleed into an
// extracted value when a PDF renders two table cells onto one line
var commonLabelTrimRes = func() []*regexp.Regexp {
	exprs := []string{
		`Product\s+identifier`, `Product\s+name`, `Trade\s+name`,
		`Commercial\s+product\s+name`, `Manufacturer`, `Supplier\s+Name`,
		`Supplier`, `Company\s+name\s+of\s+supplier`, `Producer`,
		`Company\s+name`, `Registered\s+company\s+name`, `Distributor`,
		`Product\s+description`, `Use\s+of\s+the\s+substance`,
		`Recommended\s+use`, `Intended\s+use`, `Product\s+use`,
		`Relevant\s+identified\s+uses`, `Identified\s+uses`,
		`Chemical\s+Name`, `Product\s+code`, `Synonyms?`,
		`Proper\s+shipping\s+name`, `UN\s+number`, `Hazchem`, `EPG`,
		`Packing\s*Group(?:\(s\))?`, `Hazard\s*class(?:\(es\))?`,
	}
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e+`\s*[:\-]?`))
	}
	return out
}()

// Validation patterns for transport fields. A dangerous goods class is a
// single digit 1-9 with an optional single-digit subdivision; bare UN numbers
// ("1950") and section numbers ("14.5") must not pass.
var (
	validDGClassRe     = regexp.MustCompile(`^[1-9](?:\.[1-9])?$`)
	dgNotApplicableRe  = regexp.MustCompile(`(?i)^(?:not?\s+regulated\b.*|not?\s+applicable\b.*|not?\s+required\b.*|not?\s+subject\b.*|none|n/?a\.?|not\s+a\s+dangerous\s+good\b.*)$`)
	packingGroupRe     = regexp.MustCompile(`(?i)^(?:III|II|IV|I)$`)
	packingGroupNoneRe = regexp.MustCompile(`(?i)^(?:N\.?/?A\.?|None|Not\s+(?:applicable|required|assigned)|Not\s+subject\b.*)$`)
)

// validDGClass accepts a proper class number or an explicit not-applicable
// phrase; anything else (UN numbers, free text) is rejected
func validDGClass(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	return validDGClassRe.MatchString(value) || dgNotApplicableRe.MatchString(value)
}

// validPackingGroup accepts roman numerals I-IV or a not-applicable phrase
func validPackingGroup(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	return packingGroupRe.MatchString(value) || packingGroupNoneRe.MatchString(value)
}

// headerContinuationRes are second halves of wrapped section headers
// ("Identification | of the safety data sheet") that label matching can
// mistake for values
var headerContinuationRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^of\s+the\s+chemical\s+and\s+restrictions\s+on\s+use$`),
	regexp.MustCompile(`(?i)^of\s+the\s+safety\s+data\s+sheet$`),
	regexp.MustCompile(`(?i)^or\s+supplier'?s\s+details$`),
	regexp.MustCompile(`(?i)^of\s+the\s+company/undertaking$`),
	regexp.MustCompile(`(?i)^of\s+the\s+substance\s+or\s+mixture\s+and\s+uses\s+advised\s+against\s*$`),
}

func headerContinuation(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, re := range headerContinuationRes {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// Section header recognition. Sections 1 and 14 tolerate leading bullets and
// missing punctuation because identification and transport pages are the most
// OCR-mangled; other sections require punctuation after the number so street
// addresses ("2 Fred Street") do not open a section.
var (
	section1HeaderRe  = regexp.MustCompile(`(?i)^\W*(?:section\s*)?1\s*[:.\-]?\s`)
	section14HeaderRe = regexp.MustCompile(`(?i)^\W*(?:section\s*)?14\s*[:.\-]?\s`)
	sectionHeaderRe   = regexp.MustCompile(`(?i)^\W*(?:section\s*)?(\d{1,2})\s*[:.\-]\s`)
	looseSectionRe    = regexp.MustCompile(`(?i)^\s*(?:section\s*)?(\d{1,2})([\s:.\-])`)
)
