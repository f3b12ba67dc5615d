package domain

// Product represents a scanned or manually entered chemical product
type Product struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Size    string `json:"contents_size_weight,omitempty"`
	SDSURL  string `json:"sds_url,omitempty"`
}

// CandidateLink represents one candidate URL found during a discovery pass.
// Ephemeral: lives only for the duration of the pass, never persisted.
type CandidateLink struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	SourceQuery string `json:"sourceQuery,omitempty"`
	Score       int    `json:"score"`
}

// SearchHit represents a single raw result returned by a search backend
type SearchHit struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// PageSummary holds what link expansion learned from one result page
type PageSummary struct {
	Title string
	Links []SearchHit
}

// ProbeResult represents the outcome of classifying a candidate URL
type ProbeResult struct {
	IsPDF       bool   `json:"isPdf"`
	FinalURL    string `json:"finalUrl"`
	ContentType string `json:"contentType,omitempty"`
}

// VerifyResult represents the outcome of the SDS verification gate
type VerifyResult struct {
	Verified     bool     `json:"verified"`
	MatchedTerms []string `json:"matched_terms,omitempty"`
	Text         string   `json:"-"` // extracted document text, not serialized
}
