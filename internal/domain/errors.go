package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found in the database
	ErrProductNotFound = errors.New("product not found")

	// ErrNoCandidates is returned when discovery yields no usable candidate links
	ErrNoCandidates = errors.New("no usable search candidates")

	// ErrNotPDF is returned when a candidate URL does not resolve to a PDF document
	ErrNotPDF = errors.New("candidate is not a PDF document")

	// ErrVerificationFailed is returned when a document does not look like the product's SDS
	ErrVerificationFailed = errors.New("document failed SDS verification")

	// ErrNoTextExtracted is returned when every extraction method produced no text
	ErrNoTextExtracted = errors.New("no text could be extracted from document")

	// ErrLowConfidence is returned when an extracted field is below the acceptance threshold
	ErrLowConfidence = errors.New("field confidence below threshold")

	// ErrParserUnavailable is returned when the extraction capability is down or unreachable
	ErrParserUnavailable = errors.New("extraction capability unavailable")

	// ErrMetadataExists is returned when a non-forced parse finds an existing metadata row
	ErrMetadataExists = errors.New("sds metadata already recorded")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrSearchFailure is returned when a search backend request fails
	ErrSearchFailure = errors.New("search backend request failed")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
