// Package slopscan provides the public Go SDK for the SlopScan API.
package slopscan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Client is the public SDK client for a SlopScan server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new SlopScan client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Product is a catalog item. Confidence is set only on identify candidates.
type Product struct {
	Code          string  `json:"product_code"`
	Name          string  `json:"product_name"`
	Brands        string  `json:"brands"`
	Categories    string  `json:"categories,omitempty"`
	LabelsTags    string  `json:"labels_tags,omitempty"`
	EcoscoreGrade string  `json:"ecoscore_grade"`
	ImageURL      string  `json:"image_url,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Similarity    float64 `json:"similarity,omitempty"`
}

// BestMatch is the top identify candidate.
type BestMatch struct {
	Code          string  `json:"product_code"`
	Name          string  `json:"product_name"`
	Brands        string  `json:"brands"`
	Confidence    float64 `json:"confidence"`
	EcoscoreGrade string  `json:"ecoscore_grade"`
}

// IdentifyResponse is the result of identifying a photo.
type IdentifyResponse struct {
	Guesses           []string   `json:"guesses"`
	Brand             string     `json:"brand,omitempty"`
	FrontText         string     `json:"front_text"`
	BestMatch         *BestMatch `json:"best_match"`
	Candidates        []Product  `json:"candidates"`
	NeedsConfirmation bool       `json:"needs_confirmation"`
}

// Source describes a product to find alternatives for.
type Source struct {
	Code       string `json:"product_code,omitempty"`
	Name       string `json:"product_name"`
	Brands     string `json:"brands,omitempty"`
	Categories string `json:"categories,omitempty"`
}

// Health is the server health report.
type Health struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Products   int64  `json:"products"`
	Recognizer string `json:"recognizer,omitempty"`
	Embedding  string `json:"embedding,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("slopscan: %d %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("slopscan: %d %s", e.StatusCode, e.Message)
}

// Health checks server status.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, "", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Identify uploads a photo and returns the ranked match.
func (c *Client) Identify(ctx context.Context, filename string, image []byte) (*IdentifyResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var resp IdentifyResponse
	if err := c.do(ctx, http.MethodPost, "/api/identify", &body, mw.FormDataContentType(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Product fetches one catalog product.
func (c *Client) Product(ctx context.Context, code string) (*Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/api/product/"+url.PathEscape(code), nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Recommend returns alternatives to a catalog product.
func (c *Client) Recommend(ctx context.Context, code string) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/api/recommend/"+url.PathEscape(code), nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecommendFromSource returns alternatives to a described product.
func (c *Client) RecommendFromSource(ctx context.Context, src Source) ([]Product, error) {
	payload, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("marshal source: %w", err)
	}

	var out []Product
	if err := c.do(ctx, http.MethodPost, "/api/recommend", bytes.NewReader(payload), "application/json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
