package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/chemdex/backend/internal/domain"
)

// pdfMagic is the signature scanned for in the sniff window. Some
// generators emit a BOM or junk bytes ahead of it, so prefix checks
// alone miss real documents.
var pdfMagic = []byte("%PDF")

// Classifier decides whether a candidate URL serves a PDF document.
// It tries a cheap HEAD first and falls back to a bounded GET that
// sniffs the response body for the PDF signature.
type Classifier struct {
	httpClient *http.Client
	sniffBytes int
}

// NewClassifier creates a new document classifier
func NewClassifier(timeout time.Duration, maxRedirects, sniffBytes int) *Classifier {
	if sniffBytes <= 0 {
		sniffBytes = 512
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Classifier{
		httpClient: client,
		sniffBytes: sniffBytes,
	}
}

// Classify probes rawURL and reports whether it serves a PDF, along with
// the URL it finally resolved to. Servers that mislabel PDFs as HTML are
// caught by the body sniff.
func (c *Classifier) Classify(ctx context.Context, rawURL string) (*domain.ProbeResult, error) {
	if result := c.classifyByHead(ctx, rawURL); result != nil {
		return result, nil
	}
	return c.classifyByGet(ctx, rawURL)
}

// classifyByHead returns a positive result when the HEAD response alone
// proves the URL is a PDF. Anything inconclusive returns nil so the GET
// sniff can decide.
func (c *Classifier) classifyByHead(ctx context.Context, rawURL string) *domain.ProbeResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "ChemDex/1.0")
	req.Header.Set("Accept", "application/pdf,application/octet-stream,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	contentType := resp.Header.Get("Content-Type")
	finalURL := resp.Request.URL.String()
	if isPDFContentType(contentType, finalURL) {
		log.Printf("[PROBE] HEAD classified %s as pdf (%s)", finalURL, contentType)
		return &domain.ProbeResult{
			IsPDF:       true,
			FinalURL:    finalURL,
			ContentType: contentType,
		}
	}

	return nil
}

// classifyByGet downloads just the sniff window and scans it for the PDF
// signature.
func (c *Classifier) classifyByGet(ctx context.Context, rawURL string) (*domain.ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ChemDex/1.0")
	req.Header.Set("Accept", "application/pdf,application/octet-stream,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("probe of %s returned %d", rawURL, resp.StatusCode)
	}

	head := make([]byte, c.sniffBytes)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("reading probe body: %w", err)
	}
	head = head[:n]

	contentType := resp.Header.Get("Content-Type")
	finalURL := resp.Request.URL.String()
	result := &domain.ProbeResult{
		IsPDF:       bytes.Contains(head, pdfMagic),
		FinalURL:    finalURL,
		ContentType: contentType,
	}

	log.Printf("[PROBE] GET classified %s: pdf=%v (%s)", finalURL, result.IsPDF, contentType)
	return result, nil
}

// isPDFContentType reports whether a content type header settles the
// question without sniffing. Octet-stream only counts when the URL path
// itself claims to be a PDF.
func isPDFContentType(contentType, finalURL string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "application/pdf") {
		return true
	}
	if strings.Contains(ct, "application/octet-stream") {
		return pathLooksPDF(finalURL)
	}
	return false
}

// pathLooksPDF reports whether the URL path ends in .pdf, ignoring any
// query string.
func pathLooksPDF(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if i := strings.IndexByte(lower, '?'); i >= 0 {
		lower = lower[:i]
	}
	return strings.HasSuffix(lower, ".pdf")
}
