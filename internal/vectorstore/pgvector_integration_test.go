//go:build integration

package vectorstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGVectorStore_Conformance(t *testing.T) {
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"pgvector/pgvector:pg17",
		postgres.WithDatabase("slopscan_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	s, err := NewPGVectorStore(ctx, PGVectorConfig{
		DSN:       fmt.Sprintf("postgres://test:test@%s:%s/slopscan_test?sslmode=disable", host, port.Port()),
		Table:     "products_test",
		Dimension: 3,
	})
	require.NoError(t, err)

	runStoreConformance(t, s)
}
