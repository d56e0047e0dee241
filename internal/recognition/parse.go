package recognition

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ExtractJSON strips code fences and returns the outermost JSON object, or
// failing that the outermost array. Text without either is returned trimmed.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")[1:]
		if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
			lines = lines[:n-1]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	text = strings.TrimSpace(strings.Trim(text, "`"))

	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start != -1 && end > start {
			return text[start : end+1]
		}
	}
	return text
}

// ParseResult decodes model output. A bare array is read as guesses.
// Output that is not JSON yields an empty Result and a non-nil error the
// caller may log; the Result is still usable.
func ParseResult(text string, maxGuesses int) (Result, error) {
	var raw any
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return Result{Guesses: []string{}}, fmt.Errorf("unparseable recognizer output: %w", err)
	}

	var res Result
	switch v := raw.(type) {
	case []any:
		res.Guesses = stringList(v)
	case map[string]any:
		if list, ok := v["guesses"].([]any); ok {
			res.Guesses = stringList(list)
		}
		res.Brand = optionalString(v["brand"])
		res.FrontText = optionalString(v["front_text"])
	default:
		return Result{Guesses: []string{}}, fmt.Errorf("unexpected recognizer output type %T", raw)
	}

	res.Guesses = cleanGuesses(res.Guesses, maxGuesses)
	return res, nil
}

// cleanGuesses trims, drops blanks and caps the list.
func cleanGuesses(guesses []string, max int) []string {
	if max <= 0 {
		max = DefaultMaxGuesses
	}
	out := make([]string, 0, len(guesses))
	for _, g := range guesses {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
		if len(out) == max {
			break
		}
	}
	return out
}

func stringList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func optionalString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
