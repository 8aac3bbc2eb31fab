//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreStore_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	const projectID = "test-project"
	client, err := firestore.NewClient(ctx, projectID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := store.NewFirestoreStore(&store.FirestoreConfig{ProjectID: projectID}, client, zerolog.Nop())
	table := "periods_" + time.Now().Format("150405.000000")

	t.Run("Empty collection", func(t *testing.T) {
		rows, err := s.Select(ctx, table)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("Insert then select", func(t *testing.T) {
		err := s.Insert(ctx, table, []store.Row{
			{"id": "romantic", "name": "Romantic", "start_year": 1820},
			{"id": "baroque", "name": "Baroque", "start_year": 1600},
		})
		require.NoError(t, err)

		rows, err := s.Select(ctx, table)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "baroque", rows[0]["id"])
		assert.Equal(t, int64(1600), rows[0]["start_year"])
	})
}
