package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	Upsert(ctx context.Context, p *Product) (*Product, error)
	ListUnparsed(ctx context.Context) ([]Product, error)
}

// MetadataRepository defines the interface for SDS metadata persistence
type MetadataRepository interface {
	Get(ctx context.Context, productID string) (*SDSMetadata, error)
	Upsert(ctx context.Context, m *SDSMetadata) error
}

// WatchlistRepository pushes denormalized hazard fields into per-user inventory rows
type WatchlistRepository interface {
	UpdateHazardFields(ctx context.Context, productID string, fields HazardFields) error
}

// SearchBackend defines a single web-search source used by candidate discovery
type SearchBackend interface {
	Name() string
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// DocumentClassifier probes a candidate URL and reports whether it serves a PDF
type DocumentClassifier interface {
	Classify(ctx context.Context, rawURL string) (*ProbeResult, error)
}

// ResultPageExpander follows an on-site result page and reports its title
// and outbound links, used to mine retailer pages in barcode mode
type ResultPageExpander interface {
	Expand(ctx context.Context, pageURL string) (*PageSummary, error)
}

// ParserClient defines the boundary to the document extraction capability.
// Implemented in-process and as an HTTP client to a remote extraction service.
type ParserClient interface {
	HealthCheck(ctx context.Context) error
	Verify(ctx context.Context, url, productName string) (*VerifyResult, error)
	Parse(ctx context.Context, productID, pdfURL string) (*ParseResult, error)
}
