package usecase

import (
	"testing"

	"github.com/chemdex/backend/internal/domain"
)

func defaultScorer() *CandidateScorer {
	return NewCandidateScorer([]string{".au", ".com.au", ".co.nz"}, false)
}

func TestCandidateScorer_Rank_TokenCoverage(t *testing.T) {
	scorer := defaultScorer()

	// One link matches 3 of 4 significant name tokens, the other none.
	links := []domain.CandidateLink{
		{
			URL:   "https://randomblog.com/posts/gardening-tips",
			Title: "Ten gardening tips for spring",
		},
		{
			URL:   "https://chemsupply.com.au/heavy-duty-degreaser",
			Title: "Heavy Duty Degreaser",
		},
	}

	ranked := scorer.Rank(links, "Heavy Duty Degreaser Concentrate", false)

	if ranked[0].URL != links[1].URL {
		t.Fatalf("Rank() best = %q, want the token-matching link first", ranked[0].URL)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("token-matching link score = %d, not strictly above %d", ranked[0].Score, ranked[1].Score)
	}
}

func TestCandidateScorer_Score(t *testing.T) {
	scorer := defaultScorer()
	nameTokens := tokenize("Isopropyl Alcohol 70%")

	tests := []struct {
		name string
		link domain.CandidateLink
		a    domain.CandidateLink // scored lower than link
	}{
		{
			name: "pdf url beats plain page when seeking the document",
			link: domain.CandidateLink{URL: "https://chemsupply.com.au/docs/isopropyl-alcohol-sds.pdf", Title: "Isopropyl Alcohol SDS"},
			a:    domain.CandidateLink{URL: "https://chemsupply.com.au/isopropyl-alcohol", Title: "Isopropyl Alcohol"},
		},
		{
			name: "regional host beats offshore host",
			link: domain.CandidateLink{URL: "https://chemsupply.com.au/isopropyl-alcohol", Title: "Isopropyl Alcohol"},
			a:    domain.CandidateLink{URL: "https://chemwarehouse.com/isopropyl-alcohol", Title: "Isopropyl Alcohol"},
		},
		{
			name: "marketplace penalized",
			link: domain.CandidateLink{URL: "https://supplier.net/isopropyl-alcohol", Title: "Isopropyl Alcohol"},
			a:    domain.CandidateLink{URL: "https://www.amazon.com.au/isopropyl-alcohol", Title: "Isopropyl Alcohol"},
		},
		{
			name: "promotional title penalized",
			link: domain.CandidateLink{URL: "https://supplier.net/isopropyl-alcohol", Title: "Isopropyl Alcohol"},
			a:    domain.CandidateLink{URL: "https://supplier.net/isopropyl-alcohol-2", Title: "Buy Isopropyl Alcohol - Sale price"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			high := scorer.Score(tt.link, nameTokens, true)
			low := scorer.Score(tt.a, nameTokens, true)
			if high <= low {
				t.Errorf("Score(%q) = %d, want above Score(%q) = %d", tt.link.URL, high, tt.a.URL, low)
			}
		})
	}
}

func TestCandidateScorer_Rank_TieKeepsFirstSeenOrder(t *testing.T) {
	scorer := defaultScorer()

	// Identical scoring inputs; the earlier link must stay first.
	links := []domain.CandidateLink{
		{URL: "https://supplier-one.net/acetone", Title: "Acetone"},
		{URL: "https://supplier-two.net/acetone", Title: "Acetone"},
	}

	ranked := scorer.Rank(links, "Acetone", false)

	if ranked[0].URL != links[0].URL {
		t.Errorf("Rank() tie order = %q first, want %q", ranked[0].URL, links[0].URL)
	}
}

func TestCandidateScorer_Score_UnparseableURL(t *testing.T) {
	scorer := defaultScorer()

	got := scorer.Score(domain.CandidateLink{URL: "::::not a url", Title: "Acetone"}, tokenize("Acetone"), false)
	if got >= 0 {
		t.Errorf("Score(unparseable) = %d, want negative", got)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "strips units and numerics",
			input: "Isopropyl Alcohol 70% 5L",
			want:  []string{"isopropyl", "alcohol"},
		},
		{
			name:  "strips stop words and retail noise",
			input: "The best degreaser product in a bottle",
			want:  []string{"degreaser"},
		},
		{
			name:  "keeps sds token",
			input: "acetone sds download",
			want:  []string{"acetone", "sds", "download"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFuzzyTokenMatch(t *testing.T) {
	tests := []struct {
		name      string
		token1    string
		token2    string
		threshold int
		want      bool
	}{
		{"identical tokens", "acetone", "acetone", 1, true},
		{"two substitutions stay unmatched", "glycerol", "glycerin", 1, false},
		{"one deletion", "toluene", "toluen", 1, true},
		{"short tokens never fuzzy", "ipa", "ipx", 1, false},
		{"length gap beyond threshold", "acetone", "acetonitrile", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fuzzyTokenMatch(tt.token1, tt.token2, tt.threshold); got != tt.want {
				t.Errorf("fuzzyTokenMatch(%q, %q, %d) = %v, want %v", tt.token1, tt.token2, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1   string
		s2   string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"acetone", "acetone", 0},
		{"toluene", "toluen", 1},
		{"xylene", "xylenes", 1},
		{"ethanol", "methanol", 1},
	}

	for _, tt := range tests {
		if got := levenshteinDistance(tt.s1, tt.s2); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.s1, tt.s2, got, tt.want)
		}
	}
}
