package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/domain"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.EmbedSingle(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	s.texts = append(s.texts, text)
	return s.vec, s.err
}

func (s *stubEmbedder) Model() string  { return "stub" }
func (s *stubEmbedder) Dimension() int { return 3 }

func seededStore(t *testing.T) vectorstore.Store {
	t.Helper()
	s := vectorstore.NewMemoryStore(3)
	t.Cleanup(func() { _ = s.Close() })

	entry := func(code, name, brands, cats, grade string, v ...float32) vectorstore.Entry {
		return vectorstore.Entry{
			Product: catalog.Product{Code: code, Name: name, Brands: brands, Categories: cats, EcoscoreGrade: grade},
			Vector:  v,
		}
	}

	require.NoError(t, s.Upsert(context.Background(), []vectorstore.Entry{
		entry("coke", "Coca-Cola Classic", "Coca-Cola", "Beverages, Sodas", "e", 1, 0, 0),
		entry("water", "Spring Water", "Path", "Beverages, Water", "a", 0.9, 0.1, 0),
		entry("water-2", "Spring Water", "Path", "Beverages, Water", "a", 0.9, 0.1, 0),
		entry("sparkling", "Sparkling Water", "Path", "Beverages", "b", 0.85, 0.15, 0),
		entry("seltzer", "Lime Seltzer", "LaCroix", "Beverages", "a", 0.8, 0.2, 0),
		entry("juice", "Apple Juice", "Orchard", "Beverages", "c", 0.95, 0.05, 0),
		entry("spread", "Hazelnut Spread", "Nutella", "Spreads", "a", 0.7, 0.3, 0),
	}))
	return s
}

func TestService_ForProduct(t *testing.T) {
	svc := NewService(seededStore(t), &stubEmbedder{}, Options{MatchCategory: true}, nil)

	got, err := svc.ForProduct(context.Background(), "coke")
	require.NoError(t, err)

	// juice fails the grade filter, spread the category filter, the second
	// water is a duplicate and sparkling repeats the Path brand.
	assert.Equal(t, []string{"water", "seltzer"}, codesOf(got))
}

func TestService_ForProductWithoutCategoryMatch(t *testing.T) {
	svc := NewService(seededStore(t), &stubEmbedder{}, Options{}, nil)

	got, err := svc.ForProduct(context.Background(), "coke")
	require.NoError(t, err)
	assert.Equal(t, []string{"water", "seltzer", "spread"}, codesOf(got))
}

func TestService_ForProductErrors(t *testing.T) {
	svc := NewService(seededStore(t), &stubEmbedder{}, Options{}, nil)

	_, err := svc.ForProduct(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))

	_, err = svc.ForProduct(context.Background(), "  ")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestService_ForSource(t *testing.T) {
	emb := &stubEmbedder{vec: []float32{1, 0, 0}}
	svc := NewService(seededStore(t), emb, Options{MaxResults: 1}, nil)

	got, err := svc.ForSource(context.Background(), Source{
		Name:       "Spring Water",
		Brands:     "PATH",
		Categories: "Beverages",
	})
	require.NoError(t, err)

	// Both Spring Water rows match the source by name and primary brand.
	assert.Equal(t, []string{"sparkling"}, codesOf(got))
	assert.Equal(t, []string{"Spring Water PATH Beverages"}, emb.texts)
}

func TestService_ForSourceErrors(t *testing.T) {
	t.Run("name required", func(t *testing.T) {
		svc := NewService(seededStore(t), &stubEmbedder{}, Options{}, nil)
		_, err := svc.ForSource(context.Background(), Source{Brands: "x"})
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	})

	t.Run("embedding failure", func(t *testing.T) {
		svc := NewService(seededStore(t), &stubEmbedder{err: errors.New("boom")}, Options{}, nil)
		_, err := svc.ForSource(context.Background(), Source{Name: "Cola"})
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindEmbedding))
	})
}
