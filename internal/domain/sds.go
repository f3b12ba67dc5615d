package domain

// ParseStatus represents where a product sits in the SDS parsing lifecycle
type ParseStatus string

const (
	StatusNoSDSURL    ParseStatus = "no_sds_url"
	StatusPending     ParseStatus = "pending_parse"
	StatusParsed      ParseStatus = "parsed"
	StatusParseFailed ParseStatus = "parse_failed_basic"
)

// Provenance markers recorded in raw_json. A placeholder row carries one of
// the failure markers so a later forced re-parse can tell why it is empty.
const (
	ProvenanceParsed      = "parsed"
	ProvenanceUnavailable = "extraction_unavailable"
	ProvenanceParseFailed = "parse_failed"
)

// Field names used across the extractor, the parse result and raw_json
const (
	FieldProductName         = "product_name"
	FieldVendor              = "vendor"
	FieldIssueDate           = "issue_date"
	FieldDangerousGoodsClass = "dangerous_goods_class"
	FieldSubsidiaryRisks     = "subsidiary_risks"
	FieldPackingGroup        = "packing_group"
	FieldDescription         = "description"
)

// FieldResult represents a single extracted field value with extractor confidence.
// Confidence below the acceptance threshold means absent, not wrong.
type FieldResult struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ParseResult represents the structured output of parsing one SDS document.
// DangerousGood and HazardousSubstance are derived from the validated fields
// and explicit hazard statements in the document text; nil means unknown.
type ParseResult struct {
	Fields             map[string]FieldResult `json:"fields"`
	Method             string                 `json:"method,omitempty"` // extraction method that produced the text
	DangerousGood      *bool                  `json:"dangerous_good,omitempty"`
	HazardousSubstance *bool                  `json:"hazardous_substance,omitempty"`
	Warnings           []string               `json:"warnings,omitempty"`
}

// Field returns the result for name, if present
func (r *ParseResult) Field(name string) (FieldResult, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

// SDSMetadata is the persisted parsing outcome, keyed by product id.
// At most one row per product; presence means parsing was attempted and
// concluded, even if every chemical field is null.
type SDSMetadata struct {
	ProductID           string                 `json:"product_id"`
	Vendor              *string                `json:"vendor"`
	IssueDate           *string                `json:"issue_date"` // YYYY-MM-DD
	HazardousSubstance  *bool                  `json:"hazardous_substance"`
	DangerousGood       *bool                  `json:"dangerous_good"`
	DangerousGoodsClass *string                `json:"dangerous_goods_class"`
	PackingGroup        *string                `json:"packing_group"` // I, II or III
	SubsidiaryRisks     *string                `json:"subsidiary_risks"`
	Description         *string                `json:"description"`
	RawJSON             map[string]interface{} `json:"raw_json"`
}

// Provenance reports the marker stored in raw_json, or empty if none
func (m *SDSMetadata) Provenance() string {
	if m == nil || m.RawJSON == nil {
		return ""
	}
	if p, ok := m.RawJSON["provenance"].(string); ok {
		return p
	}
	return ""
}

// HazardFields is the denormalized subset propagated into per-user
// inventory (watchlist) rows after a successful parse
type HazardFields struct {
	SDSAvailable       bool    `json:"sds_available"`
	HazardousSubstance *bool   `json:"hazardous_substance"`
	DangerousGood      *bool   `json:"dangerous_good"`
	PackingGroup       *string `json:"packing_group"`
}
