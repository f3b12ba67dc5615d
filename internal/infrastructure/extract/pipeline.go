package extract

import (
	"context"
	"log"

	"github.com/chemdex/backend/internal/domain"
)

// Config holds extraction tool settings.
type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language     string // tesseract language, default "eng"
	DPI          int    // rasterization DPI for scanned PDFs, default 300
	PSM          int    // tesseract page segmentation mode; 0 uses the default
	MaxPages     int    // pages examined per document, default 10
	MinTextChars int    // below this the next ladder rung is tried, default 50
}

// Result holds the outcome of one extraction run.
type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-stream" | "pdf-ocr"
	Warnings []string
}

// Extractor runs the extraction ladder over a downloaded document:
// text layer first, raw content streams second, OCR last. The longest
// text seen wins; later rungs only run while the best is still short.
type Extractor struct {
	cfg    Config
	runner Runner
}

// NewExtractor creates a new extraction pipeline
func NewExtractor(cfg Config) *Extractor {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	return &Extractor{cfg: cfg, runner: execRunner{}}
}

// SetRunner swaps the command runner, used in tests.
func (e *Extractor) SetRunner(r Runner) {
	e.runner = r
}

// Extract walks the ladder over the raw PDF bytes. It fails only when
// every rung produced nothing.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	best := &Result{Method: "pdf-text"}

	text, pages, err := textLayerPDF(data, e.cfg.MaxPages)
	if err != nil {
		log.Printf("[EXTRACT] text layer failed: %v", err)
		best.Warnings = append(best.Warnings, "text layer: "+err.Error())
	} else {
		best.Text = text
		best.Pages = pages
	}

	if len(best.Text) < e.cfg.MinTextChars {
		text, pages, err = contentStreamPDF(data, e.cfg.MaxPages)
		if err != nil {
			log.Printf("[EXTRACT] content stream failed: %v", err)
			best.Warnings = append(best.Warnings, "content stream: "+err.Error())
		} else if len(text) > len(best.Text) {
			best.Text = text
			best.Pages = pages
			best.Method = "pdf-stream"
		}
	}

	if len(best.Text) < e.cfg.MinTextChars {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if best.Text == "" {
				return nil, ctxErr
			}
			return best, nil
		}

		text, pages, warns, err := e.ocrPDF(ctx, data)
		best.Warnings = append(best.Warnings, warns...)
		if err != nil {
			log.Printf("[EXTRACT] ocr failed: %v", err)
			best.Warnings = append(best.Warnings, "ocr: "+err.Error())
		} else if len(text) > len(best.Text) {
			best.Text = text
			best.Pages = pages
			best.Method = "pdf-ocr"
		}
	}

	if best.Text == "" {
		return nil, domain.ErrNoTextExtracted
	}

	if len(best.Text) < e.cfg.MinTextChars {
		best.Warnings = append(best.Warnings, "extracted text below minimum length")
	}

	log.Printf("[EXTRACT] method=%s pages=%d chars=%d warnings=%d",
		best.Method, best.Pages, len(best.Text), len(best.Warnings))
	return best, nil
}
