package recommend

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// Normalize trims and case-folds an identity field. A Caser carries state,
// so each call gets its own.
func Normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// PrimaryBrand is the normalized brand text before the first comma.
func PrimaryBrand(brands string) string {
	first, _, _ := strings.Cut(Normalize(brands), ",")
	return strings.TrimSpace(first)
}

// Source describes the product alternatives are sought for.
type Source struct {
	Code          string `json:"product_code,omitempty"`
	Name          string `json:"product_name"`
	Brands        string `json:"brands,omitempty"`
	Categories    string `json:"categories,omitempty"`
	EcoscoreGrade string `json:"ecoscore_grade,omitempty"`
}

// Text is the string embedded for a source without a stored vector.
func (s Source) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Name, s.Brands, s.Categories} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ExcludeSource drops items carrying the source's code. A source without a
// code instead excludes items whose name and primary brand both match.
func ExcludeSource(src Source, items []catalog.Product) []catalog.Product {
	code := Normalize(src.Code)
	name := Normalize(src.Name)
	brand := PrimaryBrand(src.Brands)

	out := make([]catalog.Product, 0, len(items))
	for _, p := range items {
		if code != "" {
			if Normalize(p.Code) == code {
				continue
			}
		} else if name != "" && Normalize(p.Name) == name && PrimaryBrand(p.Brands) == brand {
			continue
		}
		out = append(out, p)
	}
	return out
}

// DedupeByIdentity keeps the first item per (name, brand). Items without a
// name fall back to their code; items with neither are dropped.
func DedupeByIdentity(items []catalog.Product) []catalog.Product {
	type identity struct {
		kind, a, b string
	}

	seen := make(map[identity]struct{})
	out := make([]catalog.Product, 0, len(items))
	for _, p := range items {
		var key identity
		switch name, code := Normalize(p.Name), Normalize(p.Code); {
		case name != "":
			key = identity{"name", name, Normalize(p.Brands)}
		case code != "":
			key = identity{"code", code, ""}
		default:
			continue
		}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// DiversifyByBrand keeps at most one item per non-empty primary brand.
// Items without a brand always pass.
func DiversifyByBrand(items []catalog.Product) []catalog.Product {
	seen := make(map[string]struct{})
	out := make([]catalog.Product, 0, len(items))
	for _, p := range items {
		brand := PrimaryBrand(p.Brands)
		if brand != "" {
			if _, dup := seen[brand]; dup {
				continue
			}
			seen[brand] = struct{}{}
		}
		out = append(out, p)
	}
	return out
}

// Filter runs exclude-self, dedupe, diversify and truncate in that order.
// A non-positive limit keeps everything.
func Filter(src Source, pool []catalog.Product, limit int) []catalog.Product {
	out := DiversifyByBrand(DedupeByIdentity(ExcludeSource(src, pool)))
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
