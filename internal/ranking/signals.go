// Package ranking rescores nearest-neighbor candidates with brand and
// product-variant heuristics and decides whether the best one is trustworthy.
//
// Everything here is a pure function of text and numbers so the rules can be
// exercised without a recognizer, embedder or vector store.
package ranking

import (
	"strings"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// TokenSet is a set of lower-cased alphanumeric tokens.
type TokenSet map[string]struct{}

// Has reports whether tok is in the set.
func (s TokenSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// HasAny reports whether any of toks is in the set.
func (s TokenSet) HasAny(toks ...string) bool {
	for _, t := range toks {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// Tokenize lower-cases text and splits it into runs of [a-z0-9]. Every
// other rune, accented letters included, is a separator, so "Decafé"
// yields "decaf".
func Tokenize(text string) TokenSet {
	set := make(TokenSet)
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isASCIIAlnum(r)
	})
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TextBlob is the lower-cased substring-search surface of a candidate:
// name, brand, label tags and categories joined by spaces.
func TextBlob(p catalog.Product) string {
	return strings.ToLower(strings.Join([]string{p.Name, p.Brands, p.LabelsTags, p.Categories}, " "))
}

// Query is the recognizer output folded into one searchable surface.
type Query struct {
	Text   string
	Tokens TokenSet
	Brands []string
}

// BuildQuery joins every guess, the recognized brand and the front-label
// text into the query text, and derives the brand candidate set.
func BuildQuery(guesses []string, brand, frontText string) Query {
	parts := make([]string, 0, len(guesses)+2)
	parts = append(parts, guesses...)
	parts = append(parts, brand, frontText)

	text := strings.ToLower(strings.TrimSpace(strings.Join(parts, " ")))
	return Query{
		Text:   text,
		Tokens: Tokenize(text),
		Brands: BrandCandidates(guesses, brand),
	}
}

// QuerySignals are the variant intents detected on the query side.
type QuerySignals struct {
	ZeroSugar    bool
	Diet         bool
	Original     bool
	CaffeineFree bool
}

// DetectQuerySignals reads variant intent from the query text and tokens.
func DetectQuerySignals(text string, tokens TokenSet) QuerySignals {
	return QuerySignals{
		ZeroSugar: containsAny(text, "zero sugar", "sugar free", "sugar-free") ||
			tokens.Has("zero"),
		Diet:     tokens.Has("diet"),
		Original: tokens.HasAny("original", "classic", "regular"),
		CaffeineFree: containsAny(text, "caffeine free", "caffeine-free") ||
			tokens.Has("decaf"),
	}
}

// CandidateSignals are the variant markers found in a candidate's text blob.
type CandidateSignals struct {
	Zero        bool
	Original    bool
	Decaf       bool
	Caffeinated bool
}

// DetectCandidateSignals substring-matches variant markers in a text blob.
func DetectCandidateSignals(blob string) CandidateSignals {
	return CandidateSignals{
		Zero:        containsAny(blob, "zero", "sugar free", "no sugar", "diet"),
		Original:    containsAny(blob, "original", "classic", "regular"),
		Decaf:       containsAny(blob, "decaf", "caffeine free"),
		Caffeinated: containsAny(blob, "caffeine", "energy"),
	}
}

func isASCIIAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('0' <= r && r <= '9')
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
