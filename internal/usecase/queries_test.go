package usecase

import (
	"strings"
	"testing"
)

func TestCleanProductName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips size pattern",
			input: "Isopropyl Alcohol 5L",
			want:  "Isopropyl Alcohol",
		},
		{
			name:  "strips pack count",
			input: "Acetone 12 pack",
			want:  "Acetone",
		},
		{
			name:  "strips marketing noise",
			input: "Premium Quality Degreaser Bottle",
			want:  "Degreaser",
		},
		{
			name:  "strips orphaned punctuation",
			input: "Methylated Spirits - 1 Litre",
			want:  "Methylated Spirits",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanProductName(tt.input); got != tt.want {
				t.Errorf("CleanProductName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildSDSQueries(t *testing.T) {
	t.Run("with size", func(t *testing.T) {
		queries := BuildSDSQueries("Isopropyl Alcohol", "5L")
		if len(queries) == 0 {
			t.Fatal("BuildSDSQueries() returned no queries")
		}
		if queries[0] != "Isopropyl Alcohol 5L safety data sheet pdf" {
			t.Errorf("first query = %q, want size-qualified variant first", queries[0])
		}

		var hasQuoted bool
		for _, q := range queries {
			if strings.HasPrefix(q, `"`) {
				hasQuoted = true
			}
		}
		if !hasQuoted {
			t.Error("BuildSDSQueries() missing quoted-name variant")
		}
	})

	t.Run("without size", func(t *testing.T) {
		queries := BuildSDSQueries("Acetone", "")
		if len(queries) != 4 {
			t.Fatalf("BuildSDSQueries() returned %d queries, want 4", len(queries))
		}
		for _, q := range queries {
			if strings.Contains(q, "  ") {
				t.Errorf("query %q contains doubled spaces", q)
			}
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		queries := BuildSDSQueries("Acetone", "")
		seen := make(map[string]bool)
		for _, q := range queries {
			if seen[q] {
				t.Errorf("duplicate query %q", q)
			}
			seen[q] = true
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if queries := BuildSDSQueries("", ""); queries != nil {
			t.Errorf("BuildSDSQueries(\"\") = %v, want nil", queries)
		}
	})
}

func TestBuildBarcodeQueries(t *testing.T) {
	queries := BuildBarcodeQueries("9312345678907")
	if len(queries) != 3 {
		t.Fatalf("BuildBarcodeQueries() returned %d queries, want 3", len(queries))
	}
	if queries[0] != `"9312345678907"` {
		t.Errorf("first query = %q, want quoted barcode", queries[0])
	}

	if queries := BuildBarcodeQueries("  "); queries != nil {
		t.Errorf("BuildBarcodeQueries(blank) = %v, want nil", queries)
	}
}

func TestSizeFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Isocol Rubbing Alcohol 345ml", "345ml"},
		{"Diggers Methylated Spirits 1 Litre", "1 Litre"},
		{"Acetone technical grade", ""},
	}

	for _, tt := range tests {
		if got := SizeFromTitle(tt.title); got != tt.want {
			t.Errorf("SizeFromTitle(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
