package usecase

import "testing"

const sampleSDSText = `SAFETY DATA SHEET
Section 1: Identification of the material and supplier
Product name: Whiteboard Cleaner
Supplier: Acme Chemicals Pty Ltd
Section 14: Transport information
Dangerous goods class: 3
Packing group: II`

func TestVerify(t *testing.T) {
	v := NewVerificationService()

	tests := []struct {
		name        string
		url         string
		text        string
		productName string
		trusted     bool
		verified    bool
	}{
		{
			name:        "vocabulary and name token present",
			url:         "https://acme.example.com/docs/12345.pdf",
			text:        sampleSDSText,
			productName: "Whiteboard Cleaner 500ml",
			verified:    true,
		},
		{
			name:        "no vocabulary at all",
			url:         "https://acme.example.com/catalog.pdf",
			text:        "Spring catalogue 2025. Great deals on office furniture.",
			productName: "Whiteboard Cleaner",
			verified:    false,
		},
		{
			name:        "vocabulary but unrelated product, plain url",
			url:         "https://other.example.com/docs/99.pdf",
			text:        "Safety data sheet\nProduct name: Engine Degreaser",
			productName: "Glass Polish",
			verified:    false,
		},
		{
			name:        "vocabulary, unrelated product, but sds url",
			url:         "https://other.example.com/sds/99.pdf",
			text:        "Safety data sheet\nProduct name: Engine Degreaser",
			productName: "Glass Polish",
			verified:    true,
		},
		{
			name:        "trusted source skips name overlap",
			url:         "https://cdn.example.com/f/8fa31.pdf",
			text:        "Material Safety Data Sheet\nSection 2",
			productName: "Glass Polish",
			trusted:     true,
			verified:    true,
		},
		{
			name:        "name token in url rather than text",
			url:         "https://acme.example.com/whiteboard-cleaner.pdf",
			text:        "safety data sheet for a professional cleaning product",
			productName: "Whiteboard Cleaner",
			verified:    true,
		},
		{
			name:        "australian regulatory vocabulary counts",
			url:         "https://acme.example.com/docs/5.pdf",
			text:        "This product is classified under the ADG code. Hazchem 2X. Whiteboard formulation.",
			productName: "Whiteboard Cleaner",
			verified:    true,
		},
		{
			name:     "empty text",
			url:      "https://acme.example.com/docs/5.pdf",
			text:     "",
			verified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Verify(tt.url, tt.text, tt.productName, tt.trusted)
			if got.Verified != tt.verified {
				t.Errorf("Verify() verified = %v, want %v (matched %v)", got.Verified, tt.verified, got.MatchedTerms)
			}
		})
	}
}

func TestVerifyMatchedTerms(t *testing.T) {
	v := NewVerificationService()

	got := v.Verify("https://acme.example.com/sds/1.pdf", sampleSDSText, "Whiteboard Cleaner", false)
	if !got.Verified {
		t.Fatalf("expected verification to pass")
	}
	if len(got.MatchedTerms) < 3 {
		t.Errorf("expected several matched terms, got %v", got.MatchedTerms)
	}

	want := map[string]bool{"safety data sheet": false, "packing group": false, "dangerous goods": false}
	for _, term := range got.MatchedTerms {
		if _, ok := want[term]; ok {
			want[term] = true
		}
	}
	for term, seen := range want {
		if !seen {
			t.Errorf("expected term %q in matched set %v", term, got.MatchedTerms)
		}
	}
}

func TestURLLooksLikeSDS(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://acme.example.com/sds/product.pdf", true},
		{"https://acme.example.com/files/MSDS-123.pdf", true},
		{"https://acme.example.com/safety-information.pdf", true},
		{"https://acme.example.com/product-datasheet.pdf", true},
		{"https://acme.example.com/catalog/item-42.pdf", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := urlLooksLikeSDS(tt.url); got != tt.want {
			t.Errorf("urlLooksLikeSDS(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
