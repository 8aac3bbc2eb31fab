package bootstrap_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/illmade-knight/go-refdata/pkg/bootstrap"
	"github.com/illmade-knight/go-refdata/pkg/bundle"
	"github.com/illmade-knight/go-refdata/pkg/config"
	"github.com/illmade-knight/go-refdata/pkg/refdata"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableStore(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		backend string
		name    string
	}{
		{backend: config.BackendSupabase, name: "supabase"},
		{backend: config.BackendPostgres, name: "postgres"},
		{backend: config.BackendFirestore, name: "firestore"},
		{backend: config.BackendBigQuery, name: "bigquery"},
	}

	for _, tc := range testCases {
		t.Run(tc.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Remote.Backend = tc.backend

			st, err := bootstrap.NewTableStore(ctx, cfg, zerolog.Nop())

			require.NoError(t, err)
			assert.Equal(t, tc.name, st.Name())
			assert.ErrorIs(t, st.Configured(), refdata.ErrNotConfigured, "empty config should be reported, not fatal")
			assert.NoError(t, st.Close())
		})
	}

	t.Run("Unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Remote.Backend = "mongo"
		_, err := bootstrap.NewTableStore(ctx, cfg, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestNewBundleSource(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	src, closer, err := bootstrap.NewBundleSource(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, bundle.EmbeddedSource{}.Name(), src.Name())
	assert.NoError(t, closer())

	cfg.Bundle.Path = "/tmp/refdata.json"
	src, _, err = bootstrap.NewBundleSource(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "file:/tmp/refdata.json", src.Name())
}

func TestTableOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Remote.Tables = map[string]string{"terms": "glossary", "concertHalls": "venues"}

	overrides, err := bootstrap.TableOverrides(cfg)
	require.NoError(t, err)
	assert.Equal(t, map[types.Kind]string{types.KindTerms: "glossary", types.KindConcertHalls: "venues"}, overrides)

	cfg.Remote.Tables = map[string]string{"symphonies": "x"}
	_, err = bootstrap.TableOverrides(cfg)
	assert.ErrorContains(t, err, "symphonies")
}

func TestNewDataService(t *testing.T) {
	ctx := context.Background()

	t.Run("Local from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "refdata.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"periods":[{"id":"baroque","name":"Baroque"}]}`), 0o600))
		cfg := config.Default()
		cfg.Bundle.Path = path

		svc, closer, err := bootstrap.NewDataService(ctx, cfg, zerolog.Nop(), nil)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closer()) }()

		periods, err := svc.GetPeriods(ctx)
		require.NoError(t, err)
		require.Len(t, periods, 1)
		assert.Equal(t, "local", svc.ProviderName())
	})

	t.Run("Remote without credentials fails on first use", func(t *testing.T) {
		cfg := config.Default()
		cfg.Provider.Type = "remote"

		svc, closer, err := bootstrap.NewDataService(ctx, cfg, zerolog.Nop(), nil)
		require.NoError(t, err)
		defer func() { assert.NoError(t, closer()) }()

		_, err = svc.GetComposers(ctx)
		assert.ErrorIs(t, err, refdata.ErrNotConfigured)
		assert.Equal(t, "remote:supabase", svc.ProviderName())
	})

	t.Run("Bad table overrides", func(t *testing.T) {
		cfg := config.Default()
		cfg.Remote.Tables = map[string]string{"nope": "x"}
		_, _, err := bootstrap.NewDataService(ctx, cfg, zerolog.Nop(), nil)
		assert.Error(t, err)
	})
}
