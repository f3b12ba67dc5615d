package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// textLayerPDF pulls text straight from the PDF's text layer. This is the
// cheapest rung of the ladder and works for most vendor-generated sheets.
// Malformed documents make the reader panic, so every page is guarded.
func textLayerPDF(data []byte, maxPages int) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}

	var sb strings.Builder
	for i := 1; i <= total; i++ {
		pageText := textLayerPage(reader, i)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	return strings.TrimSpace(sb.String()), total, nil
}

// textLayerPage extracts one page, swallowing per-page panics so a single
// corrupt page does not lose the rest of the document.
func textLayerPage(reader *pdf.Reader, pageNr int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(pageNr)
	if page.V.IsNull() {
		return ""
	}

	pageText, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(pageText)
}
