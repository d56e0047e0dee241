package identify

import "github.com/harshakrishna15/SlopScan/internal/catalog"

// Aggregate merges per-guess result lists into one list unique by product
// code. Lists are visited in guess order and each list in its own rank
// order; the first occurrence of a code wins and later hits are dropped
// without touching its score. Matches without a code are skipped.
func Aggregate(perGuess [][]catalog.Match) []catalog.Match {
	seen := make(map[string]struct{})
	var out []catalog.Match

	for _, matches := range perGuess {
		for _, m := range matches {
			code := m.Product.Code
			if code == "" {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, m)
		}
	}

	return out
}
