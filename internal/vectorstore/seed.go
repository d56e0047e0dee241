package vectorstore

import (
	"context"
	"fmt"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
)

// TextEmbedder is the slice of the embedding client seeding needs.
type TextEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DemoProducts returns the catalog used when a fresh store is seeded.
func DemoProducts() []catalog.Product {
	return []catalog.Product{
		{
			Code:          "dummy-path-water",
			Name:          "PATH Purified Water",
			Brands:        "PATH",
			Categories:    "Beverages, Water, Bottled Water",
			LabelsTags:    `["en:recyclable"]`,
			EcoscoreGrade: "a",
			Extra: map[string]any{
				"categories_tags":  `["en:beverages","en:waters","en:bottled-waters"]`,
				"ecoscore_score":   85,
				"packaging_tags":   `["en:aluminum-bottle","en:reusable-packaging"]`,
				"ingredients_text": "Purified water, electrolytes.",
				"palm_oil_count":   0,
				"nutrition_json":   `{"energy-kcal_100g":0,"sugars_100g":0,"fat_100g":0,"saturated-fat_100g":0,"proteins_100g":0,"salt_100g":0}`,
			},
		},
		{
			Code:          "dummy-coke",
			Name:          "Coca-Cola Original Taste",
			Brands:        "Coca-Cola",
			Categories:    "Beverages, Soft Drinks, Sodas",
			LabelsTags:    "[]",
			EcoscoreGrade: "d",
			Extra: map[string]any{
				"categories_tags":  `["en:beverages","en:soft-drinks","en:sodas"]`,
				"ecoscore_score":   35,
				"packaging_tags":   `["en:plastic-bottle"]`,
				"ingredients_text": "Carbonated water, sugar, caramel color, phosphoric acid, natural flavors, caffeine.",
				"palm_oil_count":   0,
				"nutrition_json":   `{"energy-kcal_100g":42,"sugars_100g":10.6,"fat_100g":0,"saturated-fat_100g":0,"proteins_100g":0,"salt_100g":0.01}`,
			},
		},
		{
			Code:          "dummy-la-croix",
			Name:          "LaCroix Sparkling Water Lime",
			Brands:        "LaCroix",
			Categories:    "Beverages, Sparkling Water",
			LabelsTags:    "[]",
			EcoscoreGrade: "a",
			Extra: map[string]any{
				"categories_tags":  `["en:beverages","en:sparkling-waters"]`,
				"ecoscore_score":   82,
				"packaging_tags":   `["en:can","en:aluminum"]`,
				"ingredients_text": "Carbonated water, natural flavor.",
				"palm_oil_count":   0,
				"nutrition_json":   `{"energy-kcal_100g":0,"sugars_100g":0,"fat_100g":0,"saturated-fat_100g":0,"proteins_100g":0,"salt_100g":0}`,
			},
		},
		{
			Code:          "dummy-nutella",
			Name:          "Nutella Hazelnut Spread",
			Brands:        "Ferrero",
			Categories:    "Spreads, Chocolate Spreads",
			LabelsTags:    "[]",
			EcoscoreGrade: "e",
			Extra: map[string]any{
				"categories_tags":  `["en:spreads","en:chocolate-spreads"]`,
				"ecoscore_score":   20,
				"packaging_tags":   `["en:glass-jar"]`,
				"ingredients_text": "Sugar, palm oil, hazelnuts, cocoa, skim milk powder, lecithin, vanillin.",
				"palm_oil_count":   1,
				"nutrition_json":   `{"energy-kcal_100g":539,"sugars_100g":56.3,"fat_100g":30.9,"saturated-fat_100g":10.6,"proteins_100g":6.3,"salt_100g":0.11}`,
			},
		},
		{
			Code:          "dummy-peanut-butter",
			Name:          "Skippy Natural Peanut Butter",
			Brands:        "Skippy",
			Categories:    "Spreads, Peanut Butters",
			LabelsTags:    `["en:vegetarian"]`,
			EcoscoreGrade: "c",
			Extra: map[string]any{
				"categories_tags":  `["en:spreads","en:peanut-butters"]`,
				"ecoscore_score":   58,
				"packaging_tags":   `["en:plastic-jar"]`,
				"ingredients_text": "Roasted peanuts, sugar, palm oil, salt.",
				"palm_oil_count":   1,
				"nutrition_json":   `{"energy-kcal_100g":588,"sugars_100g":8.2,"fat_100g":50.4,"saturated-fat_100g":10.4,"proteins_100g":22.0,"salt_100g":1.0}`,
			},
		},
	}
}

// SeedIfEmpty embeds product names and inserts the demo catalog when the
// store holds nothing. It reports whether anything was inserted.
func SeedIfEmpty(ctx context.Context, store Store, embedder TextEmbedder) (bool, error) {
	n, err := store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count catalog: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	products := DemoProducts()
	if err := Load(ctx, store, embedder, products, nil); err != nil {
		return false, err
	}
	return true, nil
}

// Load embeds each product's name and upserts the batch. progress, when
// non-nil, is called with the number of products written so far.
func Load(ctx context.Context, store Store, embedder TextEmbedder, products []catalog.Product, progress func(done int)) error {
	if len(products) == 0 {
		return nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.Name
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}
	if len(vectors) != len(products) {
		return fmt.Errorf("embed catalog: got %d vectors for %d products", len(vectors), len(products))
	}

	entries := make([]Entry, len(products))
	for i, p := range products {
		entries[i] = Entry{Product: p, Vector: vectors[i]}
	}

	for i, e := range entries {
		if err := store.Upsert(ctx, []Entry{e}); err != nil {
			return fmt.Errorf("upsert catalog: %w", err)
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return nil
}
