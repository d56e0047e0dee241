package ranking

import (
	"sort"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// Scored is a candidate with its heuristic adjustments applied.
type Scored struct {
	catalog.Match
	BrandBoost   float64
	VariantDelta float64
	Adjusted     float64
}

// Delta is the total heuristic adjustment applied to the raw similarity.
func (s Scored) Delta() float64 {
	return s.BrandBoost + s.VariantDelta
}

// Clamp bounds v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rescore applies brand and variant adjustments to every candidate. The
// input order is preserved.
func Rescore(q Query, candidates []catalog.Match) []Scored {
	qs := DetectQuerySignals(q.Text, q.Tokens)

	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		brand := BrandBoost(q.Brands, c.Product.Brands, c.Product.Name)
		variant := VariantAdjustment(qs, DetectCandidateSignals(TextBlob(c.Product)))
		out[i] = Scored{
			Match:        c,
			BrandBoost:   brand,
			VariantDelta: variant,
			Adjusted:     Clamp(c.Similarity + brand + variant),
		}
	}
	return out
}

// Rank sorts by adjusted score descending, keeping aggregation order for
// ties, and truncates to limit. A non-positive limit keeps everything.
func Rank(scored []Scored, limit int) []Scored {
	ranked := make([]Scored, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Adjusted > ranked[j].Adjusted
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// NeedsConfirmation is the confidence gate: true when there is no best match
// or its adjusted score is strictly below threshold.
func NeedsConfirmation(best *Scored, threshold float64) bool {
	return best == nil || best.Adjusted < threshold
}
