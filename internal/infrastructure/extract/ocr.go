package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ocrPDF rasterizes the document with pdftoppm and runs tesseract over
// each rendered page. Individual page failures become warnings so one
// bad page cannot sink the whole scan.
func (e *Extractor) ocrPDF(ctx context.Context, data []byte) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "chemdex-ocr-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			log.Printf("[EXTRACT] failed to remove temp dir %q: %v", tmpDir, rmErr)
		}
	}()

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return "", 0, nil, err
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", pdfPath, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		pageText, w, err := e.tesseractPage(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		warns = append(warns, w...)
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pageText)
	}

	return b.String(), len(matches), warns, nil
}

// tesseractPage OCRs a single rendered page image.
func (e *Extractor) tesseractPage(ctx context.Context, imgPath string) (string, []string, error) {
	args := []string{imgPath, "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract %s: %w", filepath.Base(imgPath), err)
	}

	return string(out), nil, nil
}
