package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/harshakrishna15/SlopScan/internal/identify"
	"github.com/harshakrishna15/SlopScan/internal/observability"
	"github.com/harshakrishna15/SlopScan/internal/ranking"
)

// ImageField is the multipart field carrying the photo.
const ImageField = "image"

// IdentifyHandler handles product identification from photos.
type IdentifyHandler struct {
	logger         *observability.Logger
	identifier     Identifier
	maxUploadBytes int64
}

// NewIdentifyHandler creates a new identify handler.
func NewIdentifyHandler(logger *observability.Logger, identifier Identifier, maxUploadBytes int64) *IdentifyHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &IdentifyHandler{
		logger:         logger,
		identifier:     identifier,
		maxUploadBytes: maxUploadBytes,
	}
}

// IdentifyResponseDTO is the body of POST /api/identify.
type IdentifyResponseDTO struct {
	Guesses           []string         `json:"guesses"`
	Brand             string           `json:"brand,omitempty"`
	FrontText         string           `json:"front_text"`
	BestMatch         *BestMatchDTO    `json:"best_match"`
	Candidates        []map[string]any `json:"candidates"`
	NeedsConfirmation bool             `json:"needs_confirmation"`
}

// BestMatchDTO is the public view of the top candidate.
type BestMatchDTO struct {
	Code          string  `json:"product_code"`
	Name          string  `json:"product_name"`
	Brands        string  `json:"brands"`
	Confidence    float64 `json:"confidence"`
	EcoscoreGrade string  `json:"ecoscore_grade"`
}

// Identify handles POST /api/identify.
func (h *IdentifyHandler) Identify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "image too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	file, header, err := r.FormFile(ImageField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required", err.Error())
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image", err.Error())
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "empty image file", "")
		return
	}

	h.logger.WithContext(r.Context()).Info().
		Str("filename", header.Filename).
		Int("bytes", len(image)).
		Msg("Processing identify request")

	result, err := h.identifier.Identify(r.Context(), image)
	if err != nil {
		writeDomainError(w, h.logger, r, "identify failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentifyDTO(result))
}

func toIdentifyDTO(res *identify.Result) IdentifyResponseDTO {
	dto := IdentifyResponseDTO{
		Guesses:           res.Guesses,
		Brand:             res.Brand,
		FrontText:         res.FrontText,
		Candidates:        make([]map[string]any, 0, len(res.Candidates)),
		NeedsConfirmation: res.NeedsConfirmation,
	}
	if dto.Guesses == nil {
		dto.Guesses = []string{}
	}

	if bm := res.BestMatch; bm != nil {
		dto.BestMatch = &BestMatchDTO{
			Code:          bm.Code,
			Name:          bm.Name,
			Brands:        bm.Brands,
			Confidence:    bm.Confidence,
			EcoscoreGrade: bm.EcoscoreGrade,
		}
	}

	for _, c := range res.Candidates {
		dto.Candidates = append(dto.Candidates, candidateView(c))
	}
	return dto
}

func candidateView(c ranking.Scored) map[string]any {
	view := c.Product.Fields()
	view["confidence"] = c.Adjusted
	view["similarity"] = c.Similarity
	return view
}
