package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/chemdex/backend/internal/domain"
	"github.com/chemdex/backend/internal/infrastructure/extract"
	"github.com/chemdex/backend/internal/usecase"
)

// defaultMaxDownload caps how large a PDF the local parser will pull down
const defaultMaxDownload = 50 * 1024 * 1024

// LocalConfig holds configuration for the in-process parser
type LocalConfig struct {
	DownloadTimeout time.Duration
	MaxDownload     int64
}

// Local runs the extraction capability in-process: download, classify,
// walk the extraction ladder, extract fields. It implements
// domain.ParserClient so the coordinator cannot tell it from the remote
// service.
type Local struct {
	classifier  domain.DocumentClassifier
	extractor   *extract.Extractor
	fields      *usecase.FieldExtractor
	verifier    *usecase.VerificationService
	httpClient  *http.Client
	maxDownload int64
}

// NewLocal creates an in-process parser client
func NewLocal(
	classifier domain.DocumentClassifier,
	extractor *extract.Extractor,
	fields *usecase.FieldExtractor,
	verifier *usecase.VerificationService,
	cfg LocalConfig,
) *Local {
	timeout := cfg.DownloadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxDownload := cfg.MaxDownload
	if maxDownload <= 0 {
		maxDownload = defaultMaxDownload
	}
	return &Local{
		classifier:  classifier,
		extractor:   extractor,
		fields:      fields,
		verifier:    verifier,
		httpClient:  &http.Client{Timeout: timeout},
		maxDownload: maxDownload,
	}
}

// HealthCheck always succeeds: the in-process capability is available
// whenever the process is. OCR binaries missing at runtime surface as
// extraction warnings, not as unavailability.
func (l *Local) HealthCheck(ctx context.Context) error {
	return nil
}

// Verify downloads and classifies the URL, extracts its text and runs the
// verification gate against the product name
func (l *Local) Verify(ctx context.Context, rawURL, productName string) (*domain.VerifyResult, error) {
	probe, err := l.classifier.Classify(ctx, rawURL)
	if err != nil {
		return nil, newError(CodeDownloadFailed, "classifying "+rawURL, true, err)
	}
	if !probe.IsPDF {
		log.Printf("[PARSER] %s is not a PDF (%s)", probe.FinalURL, probe.ContentType)
		return &domain.VerifyResult{}, nil
	}

	text, err := l.extractText(ctx, probe.FinalURL)
	if err != nil {
		return nil, err
	}

	return l.verifier.Verify(probe.FinalURL, text, productName, false), nil
}

// Parse downloads the document and turns it into structured fields
func (l *Local) Parse(ctx context.Context, productID, pdfURL string) (*domain.ParseResult, error) {
	data, err := l.download(ctx, pdfURL)
	if err != nil {
		return nil, err
	}

	extracted, err := l.extractor.Extract(ctx, data)
	if err != nil {
		return nil, newError(CodeNoTextExtracted, "extracting "+pdfURL, false, err)
	}

	result := l.fields.Parse(extracted.Text)
	result.Method = extracted.Method
	result.Warnings = append(result.Warnings, extracted.Warnings...)

	log.Printf("[PARSER] parsed %s for product %s: %d fields via %s",
		pdfURL, productID, len(result.Fields), extracted.Method)
	return result, nil
}

// extractText downloads a document and walks the extraction ladder over it
func (l *Local) extractText(ctx context.Context, pdfURL string) (string, error) {
	data, err := l.download(ctx, pdfURL)
	if err != nil {
		return "", err
	}
	extracted, err := l.extractor.Extract(ctx, data)
	if err != nil {
		return "", newError(CodeNoTextExtracted, "extracting "+pdfURL, false, err)
	}
	return extracted.Text, nil
}

// download fetches a document, refusing bodies past the size cap
func (l *Local) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(CodeDownloadFailed, "building request for "+rawURL, false, err)
	}
	req.Header.Set("User-Agent", "ChemDex/1.0")
	req.Header.Set("Accept", "application/pdf,application/octet-stream,*/*")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, newError(CodeDownloadFailed, "fetching "+rawURL, true, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, newError(CodeDownloadFailed,
			fmt.Sprintf("fetching %s returned %d", rawURL, resp.StatusCode), retryable, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxDownload+1))
	if err != nil {
		return nil, newError(CodeDownloadFailed, "reading "+rawURL, true, err)
	}
	if int64(len(data)) > l.maxDownload {
		return nil, newError(CodeDownloadFailed,
			fmt.Sprintf("%s exceeds %d byte download cap", rawURL, l.maxDownload), false, nil)
	}
	return data, nil
}
