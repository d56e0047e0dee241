package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harshakrishna15/SlopScan/internal/app"
	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/identify"
	"github.com/harshakrishna15/SlopScan/internal/recognition"
	"github.com/harshakrishna15/SlopScan/internal/recommend"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
	"github.com/harshakrishna15/SlopScan/pkg/slopscan"
)

// errRemoteUnsupported is returned for operations a server cannot run.
var errRemoteUnsupported = errors.New("not available against a remote server")

// backend is what the commands run against: a locally wired catalog or a
// SlopScan server. Results use the SDK types so rendering is shared.
type backend interface {
	Identify(ctx context.Context, filename string, image []byte) (*slopscan.IdentifyResponse, error)
	IdentifyGuesses(ctx context.Context, guesses []string, brand string) (*slopscan.IdentifyResponse, error)
	Product(ctx context.Context, code string) (*slopscan.Product, error)
	Recommend(ctx context.Context, code string) ([]slopscan.Product, error)
	RecommendFromSource(ctx context.Context, src slopscan.Source) ([]slopscan.Product, error)
	Stats(ctx context.Context) ([][2]string, error)
	Close() error
}

type localBackend struct {
	app *app.App
}

func (b *localBackend) Identify(ctx context.Context, _ string, image []byte) (*slopscan.IdentifyResponse, error) {
	res, err := b.app.Identify.Identify(ctx, image)
	if err != nil {
		return nil, err
	}
	return toSDKIdentify(res), nil
}

func (b *localBackend) IdentifyGuesses(ctx context.Context, guesses []string, brand string) (*slopscan.IdentifyResponse, error) {
	res, err := b.app.Identify.IdentifyGuesses(ctx, recognition.Result{Guesses: guesses, Brand: brand})
	if err != nil {
		return nil, err
	}
	return toSDKIdentify(res), nil
}

func (b *localBackend) Product(ctx context.Context, code string) (*slopscan.Product, error) {
	p, _, err := b.app.Store.Get(ctx, code)
	if errors.Is(err, vectorstore.ErrNotFound) {
		return nil, domain.NotFoundError(fmt.Sprintf("product %q not found", code), err)
	}
	if err != nil {
		return nil, err
	}
	sp := toSDKProduct(*p)
	return &sp, nil
}

func (b *localBackend) Recommend(ctx context.Context, code string) ([]slopscan.Product, error) {
	alts, err := b.app.Recommend.ForProduct(ctx, code)
	if err != nil {
		return nil, err
	}
	return toSDKProducts(alts), nil
}

func (b *localBackend) RecommendFromSource(ctx context.Context, src slopscan.Source) ([]slopscan.Product, error) {
	alts, err := b.app.Recommend.ForSource(ctx, recommend.Source{
		Code:       src.Code,
		Name:       src.Name,
		Brands:     src.Brands,
		Categories: src.Categories,
	})
	if err != nil {
		return nil, err
	}
	return toSDKProducts(alts), nil
}

func (b *localBackend) Stats(ctx context.Context) ([][2]string, error) {
	n, err := b.app.Store.Count(ctx)
	if err != nil {
		return nil, err
	}
	cfg := b.app.Config
	return [][2]string{
		{"Products", fmt.Sprintf("%d", n)},
		{"Vector store", cfg.Vector.Adapter},
		{"Cache", cfg.Cache.Driver},
		{"Embedding model", b.app.Embedder.Model()},
		{"Dimension", fmt.Sprintf("%d", b.app.Embedder.Dimension())},
		{"Recognizer", b.app.RecognizerState()},
		{"Embedding guard", b.app.EmbeddingStatus()},
		{"Confidence threshold", fmt.Sprintf("%.2f", cfg.Identify.ConfidenceThreshold)},
	}, nil
}

func (b *localBackend) Close() error {
	return b.app.Close()
}

type remoteBackend struct {
	client *slopscan.Client
	url    string
}

func (b *remoteBackend) Identify(ctx context.Context, filename string, image []byte) (*slopscan.IdentifyResponse, error) {
	return b.client.Identify(ctx, filename, image)
}

func (b *remoteBackend) IdentifyGuesses(context.Context, []string, string) (*slopscan.IdentifyResponse, error) {
	return nil, fmt.Errorf("identify --guess: %w", errRemoteUnsupported)
}

func (b *remoteBackend) Product(ctx context.Context, code string) (*slopscan.Product, error) {
	return b.client.Product(ctx, code)
}

func (b *remoteBackend) Recommend(ctx context.Context, code string) ([]slopscan.Product, error) {
	return b.client.Recommend(ctx, code)
}

func (b *remoteBackend) RecommendFromSource(ctx context.Context, src slopscan.Source) ([]slopscan.Product, error) {
	return b.client.RecommendFromSource(ctx, src)
}

func (b *remoteBackend) Stats(ctx context.Context) ([][2]string, error) {
	h, err := b.client.Health(ctx)
	if err != nil {
		return nil, err
	}
	return [][2]string{
		{"Server", b.url},
		{"Status", h.Status},
		{"Products", fmt.Sprintf("%d", h.Products)},
		{"Recognizer", h.Recognizer},
		{"Embedding guard", h.Embedding},
	}, nil
}

func (b *remoteBackend) Close() error { return nil }

func toSDKIdentify(res *identify.Result) *slopscan.IdentifyResponse {
	out := &slopscan.IdentifyResponse{
		Guesses:           res.Guesses,
		Brand:             res.Brand,
		FrontText:         res.FrontText,
		Candidates:        make([]slopscan.Product, 0, len(res.Candidates)),
		NeedsConfirmation: res.NeedsConfirmation,
	}
	if bm := res.BestMatch; bm != nil {
		out.BestMatch = &slopscan.BestMatch{
			Code:          bm.Code,
			Name:          bm.Name,
			Brands:        bm.Brands,
			Confidence:    bm.Confidence,
			EcoscoreGrade: bm.EcoscoreGrade,
		}
	}
	for _, c := range res.Candidates {
		p := toSDKProduct(c.Product)
		p.Confidence = c.Adjusted
		p.Similarity = c.Similarity
		out.Candidates = append(out.Candidates, p)
	}
	return out
}

func toSDKProduct(p catalog.Product) slopscan.Product {
	img, _ := p.Extra["image_url"].(string)
	return slopscan.Product{
		Code:          p.Code,
		Name:          p.Name,
		Brands:        p.Brands,
		Categories:    p.Categories,
		LabelsTags:    p.LabelsTags,
		EcoscoreGrade: p.EcoscoreGrade,
		ImageURL:      strings.TrimSpace(img),
	}
}

func toSDKProducts(ps []catalog.Product) []slopscan.Product {
	out := make([]slopscan.Product, len(ps))
	for i, p := range ps {
		out[i] = toSDKProduct(p)
	}
	return out
}
