package ranking

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

func match(code, name, brands string, sim float64) catalog.Match {
	return catalog.Match{
		Product:    catalog.Product{Code: code, Name: name, Brands: brands},
		Similarity: sim,
	}
}

func TestVariantAdjustment_Table(t *testing.T) {
	tests := []struct {
		name string
		q    QuerySignals
		c    CandidateSignals
		want float64
	}{
		{"zero matches zero", QuerySignals{ZeroSugar: true}, CandidateSignals{Zero: true}, 0.18},
		{"diet matches zero", QuerySignals{Diet: true}, CandidateSignals{Zero: true}, 0.18},
		{"zero vs original", QuerySignals{ZeroSugar: true}, CandidateSignals{Original: true}, -0.22},
		{"original matches", QuerySignals{Original: true}, CandidateSignals{Original: true}, 0.12},
		{"original vs zero", QuerySignals{Original: true}, CandidateSignals{Zero: true}, -0.18},
		{"decaf matches", QuerySignals{CaffeineFree: true}, CandidateSignals{Decaf: true}, 0.10},
		{"decaf vs energy", QuerySignals{CaffeineFree: true}, CandidateSignals{Caffeinated: true}, -0.10},
		{"decaf blob mentioning caffeine", QuerySignals{CaffeineFree: true}, CandidateSignals{Decaf: true, Caffeinated: true}, 0},
		{"no intent", QuerySignals{}, CandidateSignals{Zero: true, Original: true, Decaf: true}, 0},
		// both intents fire; zero-vs-original and original-vs-zero stack
		{"contradictory query stacks", QuerySignals{Diet: true, Original: true}, CandidateSignals{Zero: true}, 0.18 - 0.18},
		{"contradictory query on original", QuerySignals{ZeroSugar: true, Original: true}, CandidateSignals{Original: true}, -0.22 + 0.12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VariantAdjustment(tt.q, tt.c), 1e-9)
		})
	}
}

func TestBrandBoost(t *testing.T) {
	brands := []string{"ferrero", "nutella", "nutella hazelnut spread"}

	assert.Equal(t, BrandFieldBoost, BrandBoost(brands, "Ferrero, Nutella", "Nutella"))
	assert.Equal(t, NamePrefixBoost, BrandBoost([]string{"nutella"}, "Unknown Co", "Nutella Biscuits"))
	assert.Equal(t, 0.0, BrandBoost([]string{"nutella"}, "Unknown Co", "Nutellax Spread"))
	assert.Equal(t, 0.0, BrandBoost(nil, "Ferrero", "Nutella"))
	// brand field match takes precedence even if a name prefix appears earlier in the list
	assert.Equal(t, BrandFieldBoost, BrandBoost([]string{"kinder", "ferrero"}, "Ferrero", "Kinder Bueno"))
}

func TestBrandCandidates_SkipsBlanksAndDuplicates(t *testing.T) {
	got := BrandCandidates([]string{"Nutella", "  ", "Nutella Go"}, "")
	assert.Equal(t, []string{"nutella", "nutella go"}, got)
}

func TestRescore_ZeroSugarBeatsOriginal(t *testing.T) {
	q := BuildQuery([]string{"Diet Coke", "Coca-Cola Zero"}, "Coca-Cola", "")
	candidates := []catalog.Match{
		match("orig", "Coca-Cola Original", "Coca-Cola", 0.60),
		match("zero", "Coca-Cola Zero Sugar", "Coca-Cola", 0.60),
	}

	scored := Rescore(q, candidates)
	require.Len(t, scored, 2)

	assert.InDelta(t, 0.25, scored[0].BrandBoost, 1e-9)
	assert.InDelta(t, -0.22, scored[0].VariantDelta, 1e-9)
	assert.InDelta(t, 0.63, scored[0].Adjusted, 1e-9)

	assert.InDelta(t, 0.25, scored[1].BrandBoost, 1e-9)
	assert.InDelta(t, 0.18, scored[1].VariantDelta, 1e-9)
	assert.Equal(t, 1.0, scored[1].Adjusted, "clamped from 1.03")

	ranked := Rank(scored, 5)
	assert.Equal(t, "zero", ranked[0].Product.Code)
	assert.Equal(t, "orig", ranked[1].Product.Code)
}

func TestRescore_ClampInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	queries := []Query{
		BuildQuery([]string{"Diet Original Decaf Zero"}, "Acme", "caffeine free sugar free"),
		BuildQuery([]string{"Original Classic"}, "", ""),
		BuildQuery(nil, "", ""),
	}
	names := []string{"Acme Zero Energy", "Original Diet Classic Decaf", "Plain", "Acme Regular Caffeine"}

	for i := 0; i < 500; i++ {
		q := queries[rng.Intn(len(queries))]
		m := match("x", names[rng.Intn(len(names))], "Acme", rng.Float64())
		s := Rescore(q, []catalog.Match{m})[0]
		assert.GreaterOrEqual(t, s.Adjusted, 0.0)
		assert.LessOrEqual(t, s.Adjusted, 1.0)
	}
}

func TestRescore_NegativeClampsToZero(t *testing.T) {
	q := BuildQuery([]string{"zero"}, "", "")
	s := Rescore(q, []catalog.Match{match("a", "Classic Original", "Other", 0.05)})[0]
	assert.Equal(t, 0.0, s.Adjusted)
	assert.InDelta(t, -0.22, s.Delta(), 1e-9)
}

func TestRank_StableAndTruncated(t *testing.T) {
	scored := []Scored{
		{Match: match("a", "", "", 0), Adjusted: 0.5},
		{Match: match("b", "", "", 0), Adjusted: 0.9},
		{Match: match("c", "", "", 0), Adjusted: 0.5},
		{Match: match("d", "", "", 0), Adjusted: 0.7},
		{Match: match("e", "", "", 0), Adjusted: 0.5},
		{Match: match("f", "", "", 0), Adjusted: 0.1},
	}

	ranked := Rank(scored, 5)
	codes := make([]string, len(ranked))
	for i, r := range ranked {
		codes[i] = r.Product.Code
	}
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, codes)
	assert.Equal(t, "a", scored[0].Product.Code, "input untouched")

	assert.Len(t, Rank(scored, 0), 6)
	assert.Empty(t, Rank(nil, 5))
}

func TestNeedsConfirmation(t *testing.T) {
	best := &Scored{Adjusted: 0.6}

	assert.True(t, NeedsConfirmation(nil, 0))
	assert.False(t, NeedsConfirmation(best, 0.6), "equal to threshold is confident")
	assert.True(t, NeedsConfirmation(best, 0.61))
	assert.False(t, NeedsConfirmation(best, 0))
}

func TestNeedsConfirmation_MonotonicInThreshold(t *testing.T) {
	for _, score := range []float64{0, 0.2, 0.5, 0.99, 1} {
		best := &Scored{Adjusted: score}
		prev := NeedsConfirmation(best, 0)
		for th := 0.0; th <= 1.0; th += 0.05 {
			cur := NeedsConfirmation(best, th)
			if prev {
				assert.True(t, cur, "score %.2f flipped back at threshold %.2f", score, th)
			}
			prev = cur
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.4))
	assert.Equal(t, 1.0, Clamp(1.03))
	assert.Equal(t, 0.5, Clamp(0.5))
}
