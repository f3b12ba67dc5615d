package usecase

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/chemdex/backend/internal/domain"
)

const whiteboardSheet = `SAFETY DATA SHEET
According to WHS Regulations and GHS requirements

SECTION 1: Identification of the substance/mixture and of the company/undertaking
Product name: Whiteboard Cleaner
Product code: CT-1004
Recommended use: Cleaning agent for whiteboard surfaces
Supplier: Chemtools Pty Ltd
Address: 14 Ricketty Street, Mascot NSW 2020
Emergency telephone: 1800 638 556

SECTION 2: Hazards identification
Classified as hazardous according to criteria of Safe Work Australia.
Flammable liquid Category 3

SECTION 14: Transport information
UN Number: 1993
Proper shipping name: FLAMMABLE LIQUID, N.O.S.
Transport hazard class(es): 3
Subsidiary risk: None allocated
Packing group: III
Hazchem code: 3Y

Revision date: 15/03/2022
Version: 2.1`

func mustField(t *testing.T, res *domain.ParseResult, name string) domain.FieldResult {
	t.Helper()
	f, ok := res.Fields[name]
	if !ok {
		t.Fatalf("Parse() missing field %q, got %v", name, res.Fields)
	}
	return f
}

func TestFieldExtractor_Parse_LabeledSheet(t *testing.T) {
	res := NewFieldExtractor(DefaultConfidenceThreshold).Parse(whiteboardSheet)

	name := mustField(t, res, domain.FieldProductName)
	if name.Value != "Whiteboard Cleaner" {
		t.Errorf("product name = %q, want %q", name.Value, "Whiteboard Cleaner")
	}
	if name.Confidence < 0.9 {
		t.Errorf("product name confidence = %.2f, want same-line tier", name.Confidence)
	}

	vendor := mustField(t, res, domain.FieldVendor)
	if vendor.Value != "Chemtools Pty Ltd" {
		t.Errorf("vendor = %q, want %q", vendor.Value, "Chemtools Pty Ltd")
	}

	desc := mustField(t, res, domain.FieldDescription)
	if desc.Value != "Cleaning agent for whiteboard surfaces" {
		t.Errorf("description = %q", desc.Value)
	}

	class := mustField(t, res, domain.FieldDangerousGoodsClass)
	if class.Value != "3" {
		t.Errorf("dangerous goods class = %q, want %q", class.Value, "3")
	}

	risks := mustField(t, res, domain.FieldSubsidiaryRisks)
	if risks.Value != "None allocated" {
		t.Errorf("subsidiary risks = %q, want %q", risks.Value, "None allocated")
	}

	group := mustField(t, res, domain.FieldPackingGroup)
	if group.Value != "III" {
		t.Errorf("packing group = %q, want %q", group.Value, "III")
	}

	issued := mustField(t, res, domain.FieldIssueDate)
	if issued.Value != "2022-03-15" {
		t.Errorf("issue date = %q, want %q", issued.Value, "2022-03-15")
	}

	if res.DangerousGood == nil || !*res.DangerousGood {
		t.Errorf("dangerous good = %v, want true for class 3", res.DangerousGood)
	}
	if res.HazardousSubstance == nil || !*res.HazardousSubstance {
		t.Errorf("hazardous substance = %v, want true for a classified sheet", res.HazardousSubstance)
	}
}

func TestFieldExtractor_Parse_DoubledLetterLabel(t *testing.T) {
	text := `1. IDENTIFICATION OF THE MATERIAL AND SUPPLIER
PPRROODDUUCCTT NNAAMMEE:: Whiteboard Cleaner
Supplier: Chemtools Pty Ltd`

	res := NewFieldExtractor(DefaultConfidenceThreshold).Parse(text)

	name := mustField(t, res, domain.FieldProductName)
	if name.Value != "Whiteboard Cleaner" {
		t.Errorf("product name = %q, want clean value despite doubled label", name.Value)
	}
	if name.Confidence < 0.9 {
		t.Errorf("product name confidence = %.2f, want same-line tier", name.Confidence)
	}
}

func TestFieldExtractor_Parse_RejectsUNNumberAsClass(t *testing.T) {
	text := `SECTION 1: Identification
Product name: Spray Adhesive
Supplier: Bond Industrial Ltd

SECTION 14: Transport information
UN Number: 1950
Proper shipping name: AEROSOLS
DG Class: 1950
Special provisions: 63`

	res := NewFieldExtractor(DefaultConfidenceThreshold).Parse(text)

	if f, ok := res.Fields[domain.FieldDangerousGoodsClass]; ok {
		t.Errorf("dangerous goods class = %q, want absent for UN number candidate", f.Value)
	}
	if res.DangerousGood == nil || *res.DangerousGood {
		t.Errorf("dangerous good = %v, want false when no valid class extracted", res.DangerousGood)
	}

	// The rejection must not poison the rest of the parse.
	name := mustField(t, res, domain.FieldProductName)
	if name.Value != "Spray Adhesive" {
		t.Errorf("product name = %q, want %q", name.Value, "Spray Adhesive")
	}
}

func TestFieldExtractor_Parse_BareLabelValueBelow(t *testing.T) {
	text := `1 IDENTIFICATION
Product identifier
Isocol Rubbing Alcohol
Recommended use
Antiseptic rubbing alcohol`

	res := NewFieldExtractor(DefaultConfidenceThreshold).Parse(text)

	name := mustField(t, res, domain.FieldProductName)
	if name.Value != "Isocol Rubbing Alcohol" {
		t.Errorf("product name = %q, want value from line below label", name.Value)
	}
	if name.Confidence >= 0.95 || name.Confidence < 0.8 {
		t.Errorf("product name confidence = %.2f, want next-line tier", name.Confidence)
	}

	desc := mustField(t, res, domain.FieldDescription)
	if desc.Value != "Antiseptic rubbing alcohol" {
		t.Errorf("description = %q, want value from line below label", desc.Value)
	}
}

func TestFieldExtractor_Parse_EmptyText(t *testing.T) {
	res := NewFieldExtractor(DefaultConfidenceThreshold).Parse("   \n  ")

	if len(res.Fields) != 0 {
		t.Errorf("Parse(empty) fields = %v, want none", res.Fields)
	}
	if len(res.Warnings) == 0 {
		t.Error("Parse(empty) produced no warning")
	}
	if res.DangerousGood != nil || res.HazardousSubstance != nil {
		t.Error("Parse(empty) derived hazard flags, want unknown")
	}
}

func TestSectionSlice(t *testing.T) {
	t.Run("numbered headers bound the slice", func(t *testing.T) {
		text := `SAFETY DATA SHEET
SECTION 1: Identification
Product name: Acetone
SECTION 2: Hazards identification
Flammable liquid`

		got := sectionSlice(text, 1)
		if !strings.Contains(got, "Product name: Acetone") {
			t.Errorf("sectionSlice(1) = %q, want the identification body", got)
		}
		if strings.Contains(got, "Flammable") {
			t.Errorf("sectionSlice(1) = %q, leaked into section 2", got)
		}
	})

	t.Run("decimal subsections are not boundaries", func(t *testing.T) {
		text := `SECTION 14: Transport information
14.1 UN number
1993
14.3 Transport hazard class(es)
3
SECTION 15: Regulatory information
Listed on AICS`

		got := sectionSlice(text, 14)
		if !strings.Contains(got, "14.1 UN number") || !strings.Contains(got, "14.3 Transport hazard") {
			t.Errorf("sectionSlice(14) = %q, want subsections kept inside", got)
		}
		if strings.Contains(got, "Regulatory") {
			t.Errorf("sectionSlice(14) = %q, leaked into section 15", got)
		}
	})

	t.Run("unpunctuated headers found by loose scan", func(t *testing.T) {
		text := `SECTION 1: Identification
Product name: Acetone
2 HAZARDS IDENTIFICATION
Flammable liquid category 2
3 COMPOSITION
Acetone 100%`

		got := sectionSlice(text, 2)
		if !strings.Contains(got, "Flammable liquid category 2") {
			t.Errorf("sectionSlice(2) = %q, want loose header match", got)
		}
		if strings.Contains(got, "100%") {
			t.Errorf("sectionSlice(2) = %q, leaked into section 3", got)
		}
	})

	t.Run("missing section yields empty", func(t *testing.T) {
		if got := sectionSlice("no sections at all", 14); got != "" {
			t.Errorf("sectionSlice(14) = %q, want empty", got)
		}
	})
}

func TestExtractAfterLabel(t *testing.T) {
	labels := fieldLabels[domain.FieldProductName]

	tests := []struct {
		name     string
		text     string
		want     string
		wantConf float64
	}{
		{
			name:     "same line with separator",
			text:     "Product name: Whiteboard Cleaner",
			want:     "Whiteboard Cleaner",
			wantConf: confidenceSameLine,
		},
		{
			name:     "same line whitespace only",
			text:     "Trade name Isocol Rubbing Alcohol",
			want:     "Isocol Rubbing Alcohol",
			wantConf: confidenceSameLine,
		},
		{
			name:     "bare label value below",
			text:     "Product identifier\n:\nIsocol Rubbing Alcohol",
			want:     "Isocol Rubbing Alcohol",
			wantConf: confidenceNextLine,
		},
		{
			name:     "noise value pushes search to next line",
			text:     "Product name: Telephone\nWhiteboard Cleaner",
			want:     "Whiteboard Cleaner",
			wantConf: confidenceNextLine,
		},
		{
			name: "no label",
			text: "UN Number: 1993",
			want: "",
		},
		{
			name: "empty",
			text: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conf := extractAfterLabel(tt.text, labels)
			if got != tt.want {
				t.Fatalf("extractAfterLabel() = %q, want %q", got, tt.want)
			}
			if tt.want != "" && conf != tt.wantConf {
				t.Errorf("extractAfterLabel() confidence = %.2f, want %.2f", conf, tt.wantConf)
			}
		})
	}
}

func TestDGClassFromTable(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "modal columns take the first class",
			text:  "Transport hazard class(es)     3     3     3",
			want:  "3",
			found: true,
		},
		{
			name:  "header wrapped onto next line",
			text:  "Transport hazard\nclass(es): 6.1",
			want:  "6.1",
			found: true,
		},
		{
			name:  "generic class row scans below",
			text:  "DG Class:\n2.1 Flammable gas",
			want:  "2.1",
			found: true,
		},
		{
			name:  "un number is not a class",
			text:  "DG Class: 1950",
			found: false,
		},
		{
			name:  "empty",
			text:  "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := dgClassFromTable(tt.text)
			if found != tt.found {
				t.Fatalf("dgClassFromTable() found = %v, want %v (got %q)", found, tt.found, got)
			}
			if found && got != tt.want {
				t.Errorf("dgClassFromTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackingGroupFromTable(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{
			name:  "value on the header line",
			text:  "Packing Group                II",
			want:  "II",
			found: true,
		},
		{
			name:  "value in a table row below",
			text:  "Packing group\nADG    IMDG    IATA\nIII    III    III",
			want:  "III",
			found: true,
		},
		{
			name:  "none phrase cell surfaces as-is",
			text:  "Packing group\nNone",
			want:  "None",
			found: true,
		},
		{
			name:  "no packing group rows",
			text:  "UN Number: 1993",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := packingGroupFromTable(tt.text)
			if found != tt.found {
				t.Fatalf("packingGroupFromTable() found = %v, want %v (got %q)", found, tt.found, got)
			}
			if found && got != tt.want {
				t.Errorf("packingGroupFromTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePackingGroup(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"III", "III", true},
		{"ii", "II", true},
		{"II II", "II", true}, // column bleed duplicates the cell
		{"II III", "", false},
		{"None", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := normalizePackingGroup(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("normalizePackingGroup(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractIssueDate(t *testing.T) {
	t.Run("issue label beats print footer", func(t *testing.T) {
		text := "Printed Date: 01/05/2021\nRevision date: 15/03/2022"
		iso, tier := extractIssueDate(text)
		if iso != "2022-03-15" || tier != dateTierLabeled {
			t.Errorf("extractIssueDate() = %q tier %d, want 2022-03-15 labeled", iso, tier)
		}
	})

	t.Run("print footer accepted alone", func(t *testing.T) {
		iso, tier := extractIssueDate("Printed Date: 01/05/2021")
		if iso != "2021-05-01" || tier != dateTierFallback {
			t.Errorf("extractIssueDate() = %q tier %d, want 2021-05-01 fallback", iso, tier)
		}
	})

	t.Run("no date", func(t *testing.T) {
		if iso, tier := extractIssueDate("no dates in this text"); iso != "" || tier != dateTierNone {
			t.Errorf("extractIssueDate() = %q tier %d, want none", iso, tier)
		}
	})
}

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"15/03/2022", "2022-03-15", true}, // day-first
		{"15-Mar-2022", "2022-03-15", true},
		{"3 August 2021", "2021-08-03", true},
		{"Jan. 5, 2023", "2023-01-05", true},
		{"March 2021", "2021-03-01", true}, // month-year resolves to the 1st
		{"2023-07-04", "2023-07-04", true},
		{"31/02/2022", "", false}, // impossible calendar date
		{"not a date", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := parseFlexibleDate(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseFlexibleDate(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}

	t.Run("future dates are OCR misreads", func(t *testing.T) {
		future := fmt.Sprintf("15/03/%d", time.Now().Year()+1)
		if got, ok := parseFlexibleDate(future); ok {
			t.Errorf("parseFlexibleDate(%q) = %q, want rejected", future, got)
		}
	})
}

func TestBuildMetadata(t *testing.T) {
	yes := true
	no := false
	res := &domain.ParseResult{
		Fields: map[string]domain.FieldResult{
			domain.FieldProductName:         {Value: "Whiteboard Cleaner", Confidence: 0.95},
			domain.FieldVendor:              {Value: "Chemtools Pty Ltd", Confidence: 0.95},
			domain.FieldDangerousGoodsClass: {Value: "3", Confidence: 0.75},
			domain.FieldPackingGroup:        {Value: "III", Confidence: 0.4},
			domain.FieldIssueDate:           {Value: "2022-03-15", Confidence: 0.95},
		},
		Method:             "pdf_text",
		DangerousGood:      &yes,
		HazardousSubstance: &no,
	}

	meta := BuildMetadata("prod-1", res, 0.5)

	if meta.ProductID != "prod-1" {
		t.Errorf("ProductID = %q, want prod-1", meta.ProductID)
	}
	if meta.Vendor == nil || *meta.Vendor != "Chemtools Pty Ltd" {
		t.Errorf("Vendor = %v, want Chemtools Pty Ltd", meta.Vendor)
	}
	if meta.DangerousGoodsClass == nil || *meta.DangerousGoodsClass != "3" {
		t.Errorf("DangerousGoodsClass = %v, want 3", meta.DangerousGoodsClass)
	}
	if meta.PackingGroup != nil {
		t.Errorf("PackingGroup = %q, want nil below threshold", *meta.PackingGroup)
	}
	if meta.IssueDate == nil || *meta.IssueDate != "2022-03-15" {
		t.Errorf("IssueDate = %v, want 2022-03-15", meta.IssueDate)
	}
	if meta.DangerousGood == nil || !*meta.DangerousGood {
		t.Errorf("DangerousGood = %v, want true", meta.DangerousGood)
	}
	if meta.HazardousSubstance == nil || *meta.HazardousSubstance {
		t.Errorf("HazardousSubstance = %v, want false", meta.HazardousSubstance)
	}

	if meta.Provenance() != domain.ProvenanceParsed {
		t.Errorf("Provenance() = %q, want %q", meta.Provenance(), domain.ProvenanceParsed)
	}
	if meta.RawJSON["method"] != "pdf_text" {
		t.Errorf("raw method = %v, want pdf_text", meta.RawJSON["method"])
	}
	if _, ok := meta.RawJSON["fields"]; !ok {
		t.Error("raw_json missing the per-field confidence map")
	}
}
