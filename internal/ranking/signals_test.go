package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"punctuation separates", "Coca-Cola Zero!", []string{"coca", "cola", "zero"}},
		{"digits kept", "7UP 330ml", []string{"7up", "330ml"}},
		{"duplicates collapse", "diet DIET Diet", []string{"diet"}},
		{"accented letters separate", "Crème brûlée", []string{"cr", "me", "br", "l", "e"}},
		{"accent splits decaf", "Nescafé Decafé", []string{"nescaf", "decaf"}},
		{"mixed script", "Café Decafé Zéro-Sugar dietä", []string{"caf", "decaf", "z", "ro", "sugar", "diet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			assert.Len(t, got, len(tt.want))
			for _, w := range tt.want {
				assert.True(t, got.Has(w), "missing token %q", w)
			}
		})
	}
}

func TestTextBlob(t *testing.T) {
	p := catalog.Product{
		Name:       "Pepsi MAX",
		Brands:     "PepsiCo",
		LabelsTags: `["en:no-sugar"]`,
		Categories: "Sodas",
	}
	assert.Equal(t, `pepsi max pepsico ["en:no-sugar"] sodas`, TextBlob(p))
}

func TestBuildQuery(t *testing.T) {
	q := BuildQuery([]string{"Diet Coke", "Coca-Cola Zero"}, "Coca-Cola", "Zero Sugar")

	assert.Equal(t, "diet coke coca-cola zero coca-cola zero sugar", q.Text)
	assert.True(t, q.Tokens.HasAny("diet", "zero"))
	assert.Equal(t, []string{"coca-cola", "diet", "diet coke", "coca-cola zero"}, q.Brands)
}

func TestDetectQuerySignals(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  QuerySignals
	}{
		{"zero token", "coke zero", QuerySignals{ZeroSugar: true}},
		{"sugar-free phrase", "sugar-free gum", QuerySignals{ZeroSugar: true}},
		{"sugar free phrase", "red bull sugar free", QuerySignals{ZeroSugar: true}},
		{"diet token", "diet pepsi", QuerySignals{Diet: true}},
		{"dieting is not diet", "dieting snacks", QuerySignals{}},
		{"classic", "coca-cola classic", QuerySignals{Original: true}},
		{"decaf", "decaf coffee", QuerySignals{CaffeineFree: true}},
		{"caffeine-free", "caffeine-free cola", QuerySignals{CaffeineFree: true}},
		{"accented decaf", "nescafé decafé", QuerySignals{CaffeineFree: true}},
		{"none", "nutella hazelnut spread", QuerySignals{}},
		{"contradictory", "diet original", QuerySignals{Diet: true, Original: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectQuerySignals(tt.query, Tokenize(tt.query)))
		})
	}
}

func TestDetectCandidateSignals(t *testing.T) {
	assert.Equal(t, CandidateSignals{Zero: true}, DetectCandidateSignals("coca-cola zero sugar"))
	assert.Equal(t, CandidateSignals{Zero: true}, DetectCandidateSignals("diet coke"))
	assert.Equal(t, CandidateSignals{Original: true}, DetectCandidateSignals("coca-cola original taste"))
	assert.Equal(t, CandidateSignals{Decaf: true, Caffeinated: true}, DetectCandidateSignals("caffeine free cola"))
	assert.Equal(t, CandidateSignals{Caffeinated: true}, DetectCandidateSignals("monster energy"))
	// substring semantics: "zero" inside another word still counts
	assert.True(t, DetectCandidateSignals("zeroes").Zero)
}
