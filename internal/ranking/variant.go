package ranking

// Variant adjustment weights.
const (
	SugarFreeMatchBoost      = 0.18
	SugarFreeOriginalPenalty = 0.22
	OriginalMatchBoost       = 0.12
	OriginalSugarFreePenalty = 0.18
	DecafMatchBoost          = 0.10
	DecafCaffeinatedPenalty  = 0.10
)

// VariantAdjustment rewards candidates that agree with the query's variant
// intent and penalizes ones that contradict it. Every rule is applied
// independently, so contradictory queries (asking for both "diet" and
// "original") fire both sets of rules.
func VariantAdjustment(q QuerySignals, c CandidateSignals) float64 {
	var delta float64

	if q.ZeroSugar || q.Diet {
		if c.Zero {
			delta += SugarFreeMatchBoost
		}
		if c.Original {
			delta -= SugarFreeOriginalPenalty
		}
	}

	if q.Original {
		if c.Original {
			delta += OriginalMatchBoost
		}
		if c.Zero {
			delta -= OriginalSugarFreePenalty
		}
	}

	if q.CaffeineFree {
		if c.Decaf {
			delta += DecafMatchBoost
		}
		if c.Caffeinated {
			delta -= DecafCaffeinatedPenalty
		}
	}

	return delta
}
