package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/chemdex/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner fakes pdftoppm and tesseract. pdftoppm "renders" pageCount
// empty PNGs under the requested prefix; tesseract returns canned text
// keyed by page number.
type stubRunner struct {
	pageCount     int
	pageText      map[int]string
	failPages     map[int]bool
	pdftoppmErr   error
	tesseractRuns int
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	if strings.Contains(name, "pdftoppm") {
		if s.pdftoppmErr != nil {
			return nil, []byte("pdftoppm: cannot render"), s.pdftoppmErr
		}
		prefix := args[len(args)-1]
		for i := 1; i <= s.pageCount; i++ {
			if err := os.WriteFile(fmt.Sprintf("%s-%d.png", prefix, i), []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}

	if strings.Contains(name, "tesseract") {
		s.tesseractRuns++
		img := args[0]
		for i := 1; i <= s.pageCount; i++ {
			if strings.HasSuffix(img, fmt.Sprintf("-%d.png", i)) {
				if s.failPages[i] {
					return nil, []byte("tesseract: empty page"), fmt.Errorf("exit status 1")
				}
				return []byte(s.pageText[i]), nil, nil
			}
		}
		return nil, nil, nil
	}

	return nil, nil, fmt.Errorf("unexpected command %q", name)
}

func newOCRExtractor(runner Runner) *Extractor {
	e := NewExtractor(Config{MaxPages: 10, MinTextChars: 50})
	e.SetRunner(runner)
	return e
}

// notPDF fails both in-process rungs so Extract falls through to OCR.
var notPDF = []byte("this is not a pdf document at all")

func TestExtract_FallsBackToOCR(t *testing.T) {
	runner := &stubRunner{
		pageCount: 2,
		pageText: map[int]string{
			1: "SAFETY DATA SHEET\nProduct name: Whiteboard Cleaner\n",
			2: "Section 14 Transport information\nUN 1950\n",
		},
	}

	result, err := newOCRExtractor(runner).Extract(context.Background(), notPDF)

	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", result.Method)
	assert.Equal(t, 2, result.Pages)
	assert.Contains(t, result.Text, "Whiteboard Cleaner")
	assert.Contains(t, result.Text, "Transport information")
	// Page texts are joined with a blank line
	assert.Contains(t, result.Text, "\n\n")
}

func TestExtract_OCRPageFailureIsWarning(t *testing.T) {
	runner := &stubRunner{
		pageCount: 3,
		pageText: map[int]string{
			1: "SAFETY DATA SHEET for Acetone, issued by ChemCo Pty Ltd",
			3: "Section 14: UN 1090, Class 3, Packing group II",
		},
		failPages: map[int]bool{2: true},
	}

	result, err := newOCRExtractor(runner).Extract(context.Background(), notPDF)

	require.NoError(t, err)
	assert.Contains(t, result.Text, "Acetone")
	assert.Contains(t, result.Text, "Packing group II")
	assert.NotEmpty(t, result.Warnings)
}

func TestExtract_NothingExtracted(t *testing.T) {
	runner := &stubRunner{
		pdftoppmErr: fmt.Errorf("exit status 1"),
	}

	result, err := newOCRExtractor(runner).Extract(context.Background(), notPDF)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNoTextExtracted)
}

func TestExtract_OCRPageCap(t *testing.T) {
	runner := &stubRunner{pageCount: 5, pageText: map[int]string{
		1: "page one", 2: "page two", 3: "page three", 4: "page four", 5: "page five",
	}}

	e := NewExtractor(Config{MaxPages: 3, MinTextChars: 50})
	e.SetRunner(runner)

	result, err := e.Extract(context.Background(), notPDF)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 3, runner.tesseractRuns)
	assert.NotContains(t, result.Text, "page four")
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(Config{})

	assert.Equal(t, "pdftoppm", e.cfg.Pdftoppm)
	assert.Equal(t, "tesseract", e.cfg.Tesseract)
	assert.Equal(t, "eng", e.cfg.Language)
	assert.Equal(t, 300, e.cfg.DPI)
	assert.Equal(t, 10, e.cfg.MaxPages)
	assert.Equal(t, 50, e.cfg.MinTextChars)
}

func TestTextFromStream(t *testing.T) {
	stream := strings.Join([]string{
		"BT",
		"/F1 12 Tf",
		"72 712 Td",
		"(SAFETY DATA SHEET) Tj",
		"T*",
		"[(Product name: ) -250 (Whiteboard Cleaner)] TJ",
		"0 -14 TD",
		"(Supplier: ChemCo Pty Ltd) Tj",
		"(Emergency phone) '",
		"ET",
	}, "\n")

	text := textFromStream([]byte(stream))

	assert.Contains(t, text, "SAFETY DATA SHEET")
	assert.Contains(t, text, "Product name: Whiteboard Cleaner")
	assert.Contains(t, text, "Supplier: ChemCo Pty Ltd")
	assert.Contains(t, text, "Emergency phone")

	// Positioning operators keep label lines separate
	lines := strings.Split(text, "\n")
	assert.GreaterOrEqual(t, len(lines), 4)
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Acetone", "Acetone"},
		{"escaped parens", `\(flammable\)`, "(flammable)"},
		{"escaped backslash", `C:\\temp`, `C:\temp`},
		{"newline escape", `line1\nline2`, "line1\nline2"},
		{"octal space", `a\040b`, "a b"},
		{"octal single digit", `\7x`, "\x07x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodePDFString([]byte(tt.input)))
		})
	}
}

func TestTidyStreamText(t *testing.T) {
	input := "Product   name:\t Whiteboard  Cleaner\n\n\nSection  2\n   Hazards"
	want := "Product name: Whiteboard Cleaner\nSection 2\nHazards"

	assert.Equal(t, want, tidyStreamText(input))
}
