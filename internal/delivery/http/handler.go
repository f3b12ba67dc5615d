package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chemdex/backend/internal/domain"
	"github.com/chemdex/backend/internal/usecase"
)

// healthProbeBudget bounds the parser health probe inside /health
const healthProbeBudget = 3 * time.Second

// SDSResolver locates a verified safety data sheet URL for a product and
// records the outcome against its barcode when one is known
type SDSResolver interface {
	ResolveProduct(ctx context.Context, barcode, name, size string) *usecase.ResolveOutcome
}

// ParseCoordinator drives the per-product auto-parse state machine
type ParseCoordinator interface {
	TriggerParse(ctx context.Context, productID, sdsURL string, force bool) (domain.ParseStatus, error)
	ParseStatus(ctx context.Context, productID string) (domain.ParseStatus, error)
	BatchParse(ctx context.Context) (int, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver    SDSResolver
	coordinator ParseCoordinator
	parser      domain.ParserClient
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver SDSResolver, coordinator ParseCoordinator, parser domain.ParserClient) *Handler {
	return &Handler{
		resolver:    resolver,
		coordinator: coordinator,
		parser:      parser,
	}
}

// resolveRequest is the body of POST /sds/resolve. Either a name or a
// barcode is enough to start a pass.
type resolveRequest struct {
	Name    string `json:"name"`
	Size    string `json:"size"`
	Barcode string `json:"barcode"`
}

// parseTriggerRequest is the body of POST /sds/parse
type parseTriggerRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	SDSURL    string `json:"sds_url"`
	Force     bool   `json:"force"`
}

// verifyRequest is the body of POST /verify-sds
type verifyRequest struct {
	URL  string `json:"url" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// parseDocRequest is the body of POST /parse-sds
type parseDocRequest struct {
	ProductID string `json:"product_id"`
	PDFURL    string `json:"pdf_url" binding:"required"`
}

// HealthCheck returns the health status of the API and the extraction
// capability behind it
func (h *Handler) HealthCheck(c *gin.Context) {
	parserStatus := "ok"
	if h.parser != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeBudget)
		defer cancel()
		if err := h.parser.HealthCheck(ctx); err != nil {
			parserStatus = "unavailable"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "chemdex-backend",
		"version": "1.0.0",
		"parser":  parserStatus,
	})
}

// ResolveSDS discovers, classifies and verifies candidate links for a
// product. An empty sdsUrl in the response is a normal outcome, not an
// error: no document may exist yet.
func (h *Handler) ResolveSDS(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.Name == "" && req.Barcode == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or barcode is required"})
		return
	}

	outcome := h.resolver.ResolveProduct(c.Request.Context(), req.Barcode, req.Name, req.Size)
	c.JSON(http.StatusOK, outcome)
}

// TriggerParse schedules metadata extraction for a product. Returns 202
// with status pending when work was queued, 200 with status exists when a
// non-forced trigger found metadata already recorded.
func (h *Handler) TriggerParse(c *gin.Context) {
	var req parseTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id is required"})
		return
	}

	status, err := h.coordinator.TriggerParse(c.Request.Context(), req.ProductID, req.SDSURL, req.Force)
	if err != nil {
		h.writeError(c, err)
		return
	}

	switch status {
	case domain.StatusParsed:
		c.JSON(http.StatusOK, gin.H{"status": "exists"})
	case domain.StatusNoSDSURL:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"status": string(domain.StatusNoSDSURL)})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "pending"})
	}
}

// GetParseStatus reports where a product sits in the parse lifecycle
func (h *Handler) GetParseStatus(c *gin.Context) {
	productID := c.Param("id")
	status, err := h.coordinator.ParseStatus(c.Request.Context(), productID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// BatchParse queues extraction for every product with an SDS URL and no
// metadata row
func (h *Handler) BatchParse(c *gin.Context) {
	queued, err := h.coordinator.BatchParse(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}

// VerifySDS answers whether a URL plausibly serves the product's safety
// data sheet, returning the extracted text for reuse by the caller
func (h *Handler) VerifySDS(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and name are required"})
		return
	}

	result, err := h.parser.Verify(c.Request.Context(), req.URL, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified":      result.Verified,
		"matched_terms": result.MatchedTerms,
		"text":          result.Text,
	})
}

// ParseSDS extracts structured fields with confidences from a document
func (h *Handler) ParseSDS(c *gin.Context) {
	var req parseDocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf_url is required"})
		return
	}

	result, err := h.parser.Parse(c.Request.Context(), req.ProductID, req.PDFURL)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeError maps domain errors onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request parameters"})
	case errors.Is(err, domain.ErrParserUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "extraction capability unavailable"})
	case errors.Is(err, domain.ErrNoTextExtracted):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no text could be extracted"})
	default:
		log.Printf("[HTTP] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
