package identify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/harshakrishna15/SlopScan/internal/catalog"
	"github.com/harshakrishna15/SlopScan/internal/vectorstore"
)

// searchOutcome is one guess's search result.
type searchOutcome struct {
	matches []catalog.Match
	err     error
}

// fanOut runs one search per non-nil vector with at most workers in flight. Every
// search runs to completion; per-guess errors are returned alongside the
// results rather than cancelling the others.
func fanOut(ctx context.Context, store vectorstore.Store, vectors [][]float32, k, workers int) []searchOutcome {
	outcomes := make([]searchOutcome, len(vectors))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, vec := range vectors {
		if vec == nil {
			continue
		}
		i, vec := i, vec
		g.Go(func() error {
			matches, err := store.Search(ctx, vec, k, vectorstore.Filter{})
			outcomes[i] = searchOutcome{matches: matches, err: err}
			return nil
		})
	}

	_ = g.Wait()
	return outcomes
}
