// Package recognition turns a product photo into ranked product-name guesses
// using a multimodal chat-completions model.
package recognition

import "context"

// Result is what the recognizer saw on the package.
type Result struct {
	// Guesses are product names, most likely first.
	Guesses   []string `json:"guesses"`
	Brand     string   `json:"brand,omitempty"`
	FrontText string   `json:"front_text,omitempty"`
}

// Recognizer identifies a product from image bytes.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}

// DefaultMaxGuesses bounds the guesses kept from one response.
const DefaultMaxGuesses = 5

// Prompt asks the model for the guesses/brand/front_text object.
const Prompt = "You are a food product identifier. Look at this photo of a food product package. " +
	"Return a JSON object with three fields:\n" +
	"1. 'guesses': A JSON array of 3-5 possible product names (including brand) IN ENGLISH, from most to least likely.\n" +
	"2. 'brand': The most likely brand name detected (e.g. 'Coca-Cola', 'Nestle') IN ENGLISH.\n" +
	"3. 'front_text': Key visible front-label text from the package (OCR-like), as a short string IN ENGLISH.\n" +
	`Example: {"guesses": ["Nutella Hazelnut Spread", "Nutella & Go"], "brand": "Ferrero", "front_text": "nutella hazelnut spread"}` + "\n" +
	"Prioritize English names even if the packaging is in another language.\n" +
	"Return ONLY the valid JSON object, no other text."
