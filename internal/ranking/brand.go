package ranking

import "strings"

// Brand boost weights.
const (
	BrandFieldBoost = 0.25
	NamePrefixBoost = 0.15
)

// BrandCandidates collects brand hypotheses: the recognized brand, then the
// first word and the full text of every guess, all lower-cased. Order is
// first-seen and duplicates or blanks are skipped.
func BrandCandidates(guesses []string, brand string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(brand)
	for _, g := range guesses {
		if fields := strings.Fields(g); len(fields) > 0 {
			add(fields[0])
		}
		add(g)
	}
	return out
}

// BrandBoost scores how well a candidate's brand field or name agrees with
// the brand hypotheses. A hypothesis found inside the brand field wins over a
// name that starts with "<hypothesis> "; at most one boost applies.
func BrandBoost(brands []string, brandField, name string) float64 {
	brandField = strings.ToLower(brandField)
	for _, b := range brands {
		if b != "" && strings.Contains(brandField, b) {
			return BrandFieldBoost
		}
	}

	name = strings.ToLower(name)
	for _, b := range brands {
		if b != "" && strings.HasPrefix(name, b+" ") {
			return NamePrefixBoost
		}
	}

	return 0
}
