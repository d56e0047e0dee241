package catalog

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_UnmarshalSplitsExtra(t *testing.T) {
	payload := `{
		"product_code": "dummy-coke",
		"product_name": "Coca-Cola Original Taste",
		"brands": "Coca-Cola",
		"categories": "Beverages, Soft Drinks, Sodas",
		"labels_tags": "[]",
		"ecoscore_grade": "D",
		"ecoscore_score": 35,
		"image_url": null,
		"ingredients_text": "Carbonated water, sugar"
	}`

	var p Product
	require.NoError(t, json.Unmarshal([]byte(payload), &p))

	assert.Equal(t, "dummy-coke", p.Code)
	assert.Equal(t, "Coca-Cola Original Taste", p.Name)
	assert.Equal(t, "Coca-Cola", p.Brands)
	assert.Equal(t, "d", p.EcoscoreGrade)
	assert.Len(t, p.Extra, 3)
	assert.EqualValues(t, 35, p.Extra["ecoscore_score"])
	assert.Contains(t, p.Extra, "image_url")
	assert.NotContains(t, p.Extra, FieldName)
}

func TestProduct_MarshalFlattensExtra(t *testing.T) {
	p := Product{
		Code:   "x1",
		Name:   "Tea Z",
		Brands: "Beta",
		Extra:  map[string]any{"packaging_tags": "[\"en:can\"]", FieldName: "shadowed"},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Tea Z", raw[FieldName], "fixed fields win over Extra")
	assert.Equal(t, "[\"en:can\"]", raw["packaging_tags"])
}

func TestFromPayload_NonStringCode(t *testing.T) {
	p := FromPayload(map[string]any{FieldCode: float64(3017620422003), FieldName: "Nutella"})
	assert.Equal(t, "3017620422003", p.Code)
	assert.Nil(t, p.Extra)
}

func TestPrimaryCategory(t *testing.T) {
	assert.Equal(t, "beverages", PrimaryCategory(" Beverages , Water"))
	assert.Equal(t, "spreads", PrimaryCategory("Spreads"))
	assert.Equal(t, "", PrimaryCategory(""))
}

func TestClone_CopiesExtra(t *testing.T) {
	p := Product{Code: "a", Extra: map[string]any{"k": 1}}
	c := p.Clone()
	c.Extra["k"] = 2
	assert.Equal(t, 1, p.Extra["k"])
}
