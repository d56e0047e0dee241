package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[\"x\"]\n```", `["x"]`},
		{"prose around", `Sure! Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"array only", `answer: ["a","b"]`, `["a","b"]`},
		{"no json", "  nothing here ", "nothing here"},
		{"inline backticks", "`{\"a\":1}`", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestParseResult_Object(t *testing.T) {
	in := "```json\n" + `{"guesses": ["Nutella Hazelnut Spread", "  ", "Nutella & Go", 7], "brand": " Ferrero ", "front_text": "nutella"}` + "\n```"

	res, err := ParseResult(in, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nutella Hazelnut Spread", "Nutella & Go"}, res.Guesses)
	assert.Equal(t, "Ferrero", res.Brand)
	assert.Equal(t, "nutella", res.FrontText)
}

func TestParseResult_BareArray(t *testing.T) {
	res, err := ParseResult(`["Diet Coke", "Coca-Cola Zero"]`, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Diet Coke", "Coca-Cola Zero"}, res.Guesses)
	assert.Empty(t, res.Brand)
	assert.Empty(t, res.FrontText)
}

func TestParseResult_NullBrand(t *testing.T) {
	res, err := ParseResult(`{"guesses":["x"],"brand":null}`, 5)
	require.NoError(t, err)
	assert.Empty(t, res.Brand)
}

func TestParseResult_CapsGuesses(t *testing.T) {
	res, err := ParseResult(`["a","b","c","d","e","f","g"]`, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, res.Guesses)

	res, err = ParseResult(`["a","b","c"]`, 2)
	require.NoError(t, err)
	assert.Len(t, res.Guesses, 2)
}

func TestParseResult_Unparseable(t *testing.T) {
	res, err := ParseResult("I cannot identify this product.", 5)
	assert.Error(t, err)
	assert.NotNil(t, res.Guesses)
	assert.Empty(t, res.Guesses)

	res, err = ParseResult(`"just a string"`, 5)
	assert.Error(t, err)
	assert.Empty(t, res.Guesses)
}
