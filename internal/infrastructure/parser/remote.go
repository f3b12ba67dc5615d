package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chemdex/backend/internal/domain"
)

// maxResponseBytes caps how much of a parser response is read into memory
const maxResponseBytes = 4 << 20 // 4MB

// Remote is an HTTP client for a separately deployed extraction service.
// The wire contract mirrors this server's own /verify-sds, /parse-sds and
// /health endpoints, so a chemdex instance can act as another's parser.
type Remote struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
}

// NewRemote creates a remote parser client
func NewRemote(baseURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig,
	}
}

// SetRetryConfig overrides the retry policy, used in tests
func (r *Remote) SetRetryConfig(cfg RetryConfig) {
	r.retry = cfg
}

type verifyRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type verifyResponse struct {
	Verified     bool     `json:"verified"`
	MatchedTerms []string `json:"matched_terms"`
	Text         string   `json:"text"`
}

type parseRequest struct {
	ProductID string `json:"product_id"`
	PDFURL    string `json:"pdf_url"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// HealthCheck asks the remote service whether extraction is available
func (r *Remote) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return newError(CodeUnavailable, "building health request", false, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return r.transportError("health check", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newError(CodeUnavailable,
			fmt.Sprintf("health check returned %d", resp.StatusCode), true,
			domain.ErrParserUnavailable)
	}

	var health healthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&health); err != nil {
		return newError(CodeBadResponse, "decoding health response", true, err)
	}
	if health.Status != "ok" && health.Status != "healthy" {
		return newError(CodeUnavailable, "parser reports status "+health.Status, true,
			domain.ErrParserUnavailable)
	}
	return nil
}

// Verify asks the remote service whether the URL plausibly serves the
// product's safety data sheet
func (r *Remote) Verify(ctx context.Context, rawURL, productName string) (*domain.VerifyResult, error) {
	return withRetry(ctx, r.retry, func(ctx context.Context) (*domain.VerifyResult, error) {
		var out verifyResponse
		if err := r.postJSON(ctx, "/verify-sds", verifyRequest{URL: rawURL, Name: productName}, &out); err != nil {
			return nil, err
		}
		return &domain.VerifyResult{
			Verified:     out.Verified,
			MatchedTerms: out.MatchedTerms,
			Text:         out.Text,
		}, nil
	})
}

// Parse asks the remote service to extract structured fields from a document
func (r *Remote) Parse(ctx context.Context, productID, pdfURL string) (*domain.ParseResult, error) {
	return withRetry(ctx, r.retry, func(ctx context.Context) (*domain.ParseResult, error) {
		var out domain.ParseResult
		if err := r.postJSON(ctx, "/parse-sds", parseRequest{ProductID: productID, PDFURL: pdfURL}, &out); err != nil {
			return nil, err
		}
		if out.Fields == nil {
			out.Fields = make(map[string]domain.FieldResult)
		}
		return &out, nil
	})
}

// postJSON sends one JSON request and decodes the JSON response into out
func (r *Remote) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return newError(CodeBadResponse, "encoding request", false, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return newError(CodeUnavailable, "building request", false, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return r.transportError(path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return newError(CodeBadResponse, "reading response from "+path, true, err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return newError(CodeUnavailable,
			fmt.Sprintf("%s returned %d: %s", path, resp.StatusCode, truncateBody(raw)), retryable,
			domain.ErrParserUnavailable)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return newError(CodeBadResponse, "decoding response from "+path, false, err)
	}
	return nil
}

// transportError maps a client-side failure onto the taxonomy: deadline
// overruns become timeouts, everything else counts as unavailability
func (r *Remote) transportError(op string, err error) *ParserError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(CodeTimeout, op+" timed out", true, err)
	}
	return newError(CodeUnavailable, op+" failed", true, err)
}

func truncateBody(raw []byte) string {
	s := string(raw)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
