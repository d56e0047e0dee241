// Package catalog defines the product record carried through search, ranking and recommendation.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Payload keys for the fixed product fields.
const (
	FieldCode          = "product_code"
	FieldName          = "product_name"
	FieldBrands        = "brands"
	FieldCategories    = "categories"
	FieldLabelsTags    = "labels_tags"
	FieldEcoscoreGrade = "ecoscore_grade"
)

// Product is one catalog item. The fixed fields are the only ones ranking
// and filtering read; every other payload key rides along in Extra.
type Product struct {
	Code          string
	Name          string
	Brands        string // comma-joined when multi-valued
	Categories    string
	LabelsTags    string
	EcoscoreGrade string
	Extra         map[string]any
}

// Match is a product returned by a nearest-neighbor search for one query vector.
type Match struct {
	Product    Product
	Similarity float64
}

// MarshalJSON flattens the fixed fields and Extra into one object.
func (p Product) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields())
}

// Fields returns the flattened payload. Fixed fields win over Extra keys.
func (p Product) Fields() map[string]any {
	out := make(map[string]any, len(p.Extra)+6)
	for k, v := range p.Extra {
		out[k] = v
	}
	out[FieldCode] = p.Code
	out[FieldName] = p.Name
	out[FieldBrands] = p.Brands
	out[FieldCategories] = p.Categories
	out[FieldLabelsTags] = p.LabelsTags
	out[FieldEcoscoreGrade] = p.EcoscoreGrade
	return out
}

// UnmarshalJSON splits a payload object into fixed fields and Extra.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode product payload: %w", err)
	}
	*p = FromPayload(raw)
	return nil
}

// FromPayload builds a Product from a loosely typed payload map.
func FromPayload(raw map[string]any) Product {
	p := Product{
		Code:          stringField(raw[FieldCode]),
		Name:          stringField(raw[FieldName]),
		Brands:        stringField(raw[FieldBrands]),
		Categories:    stringField(raw[FieldCategories]),
		LabelsTags:    stringField(raw[FieldLabelsTags]),
		EcoscoreGrade: strings.ToLower(strings.TrimSpace(stringField(raw[FieldEcoscoreGrade]))),
	}

	for k, v := range raw {
		switch k {
		case FieldCode, FieldName, FieldBrands, FieldCategories, FieldLabelsTags, FieldEcoscoreGrade:
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}

	return p
}

// EncodePayload serializes a product for storage.
func EncodePayload(p Product) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses a stored payload.
func DecodePayload(data []byte) (Product, error) {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

// PrimaryCategory returns the lower-cased first comma-separated category.
func PrimaryCategory(categories string) string {
	first, _, _ := strings.Cut(categories, ",")
	return strings.ToLower(strings.TrimSpace(first))
}

// Clone returns a copy with its own Extra map.
func (p Product) Clone() Product {
	if p.Extra != nil {
		extra := make(map[string]any, len(p.Extra))
		for k, v := range p.Extra {
			extra[k] = v
		}
		p.Extra = extra
	}
	return p
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
