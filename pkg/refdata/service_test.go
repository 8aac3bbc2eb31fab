package refdata_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/illmade-knight/go-refdata/pkg/cache"
	"github.com/illmade-knight/go-refdata/pkg/refdata"
	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalService(t *testing.T) *refdata.DataService {
	t.Helper()
	return refdata.NewDataService(&refdata.ServiceConfig{Type: refdata.ProviderLocal}, zerolog.Nop())
}

func TestDataService_CacheIdentity(t *testing.T) {
	ctx := context.Background()
	svc := newLocalService(t)

	first, err := svc.GetComposers(ctx)
	require.NoError(t, err)
	second, err := svc.GetComposers(ctx)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0], "a cache hit should return the same slice")
	assert.Equal(t, "local", svc.ProviderName())

	for _, kind := range types.AllKinds() {
		t.Run(string(kind), func(t *testing.T) {
			a, err := svc.Collection(ctx, kind)
			require.NoError(t, err)
			b, err := svc.Collection(ctx, kind)
			require.NoError(t, err)

			av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
			require.Equal(t, reflect.Slice, av.Kind())
			require.Positive(t, av.Len())
			assert.Equal(t, av.Pointer(), bv.Pointer(), "a cache hit should return the same backing array")
			assert.Equal(t, av.Len(), bv.Len())
		})
	}
}

func TestDataService_ClearCache(t *testing.T) {
	ctx := context.Background()
	fake := &fakeProvider{terms: []types.Term{{ID: "1", Term: "Largo", Category: "Tempo"}}}
	svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: fake}, zerolog.Nop())

	_, err := svc.GetTerms(ctx)
	require.NoError(t, err)
	_, err = svc.GetTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.termHit.Load())

	svc.ClearCache()
	svc.ClearCache()

	_, err = svc.GetTerms(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.termHit.Load(), "clearing should force a refetch")
}

func TestDataService_ClearCacheInvalidatesMirror(t *testing.T) {
	ctx := context.Background()
	mirror := cache.NewInMemoryCache[types.Kind, json.RawMessage]()
	source := &fakeProvider{composers: []types.Composer{{ID: "bach", Name: "Bach", Period: "baroque"}}}
	provider := refdata.NewMirrorProvider(&refdata.MirrorConfig{}, source, mirror, zerolog.Nop())
	svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: provider}, zerolog.Nop())

	first, err := svc.GetComposers(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, mirror.Len())

	source.composers = []types.Composer{
		{ID: "bach", Name: "Bach", Period: "baroque"},
		{ID: "handel", Name: "Handel", Period: "baroque"},
	}
	svc.ClearCache()
	assert.Equal(t, 0, mirror.Len(), "clearing should drop the shared snapshots")

	second, err := svc.GetComposers(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2, "the refetch should see the updated source")
	assert.Equal(t, int32(2), source.composerHit.Load())
}

func TestDataService_ClearCacheBeforeUse(t *testing.T) {
	svc := newLocalService(t)
	assert.NotPanics(t, svc.ClearCache)
	assert.Equal(t, "", svc.ProviderName())
}

func TestDataService_Lookups(t *testing.T) {
	ctx := context.Background()
	svc := newLocalService(t)

	t.Run("Known id", func(t *testing.T) {
		c, ok, err := svc.GetComposerByID(ctx, "mozart")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "classical", c.Period)
	})

	t.Run("Unknown id is not an error", func(t *testing.T) {
		_, ok, err := svc.GetComposerByID(ctx, "nonexistent")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = svc.GetConcertHallByID(ctx, "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Term ids are strings", func(t *testing.T) {
		term, ok, err := svc.GetTermByID(ctx, "1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Largo", term.Term)

		terms, err := svc.GetTerms(ctx)
		require.NoError(t, err)
		for _, tm := range terms {
			assert.NotEmpty(t, tm.ID)
			assert.Equal(t, tm.ID, types.NormalizeID(tm.ID))
		}
	})

	t.Run("Every kind resolves its first record", func(t *testing.T) {
		halls, err := svc.GetConcertHalls(ctx)
		require.NoError(t, err)
		_, ok, err := svc.GetConcertHallByID(ctx, halls[0].ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, ok, err = svc.GetPeriodByID(ctx, "baroque")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = svc.GetFormByID(ctx, "fugue")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = svc.GetWeeklyAlbumByID(ctx, "wa-001")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = svc.GetMonthlySpotlightByID(ctx, "ms-2025-01")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = svc.GetNewReleaseByID(ctx, "nr-001")
		require.NoError(t, err)
		assert.True(t, ok)
		_, ok, err = svc.GetKickstartDayByID(ctx, "ks-01")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestDataService_Filters(t *testing.T) {
	ctx := context.Background()
	svc := newLocalService(t)

	t.Run("Terms by category keep source order", func(t *testing.T) {
		tempo, err := svc.GetTermsByCategory(ctx, "Tempo")
		require.NoError(t, err)

		names := make([]string, len(tempo))
		for i, tm := range tempo {
			assert.Equal(t, "Tempo", tm.Category)
			names[i] = tm.Term
		}
		assert.Equal(t, []string{"Largo", "Adagio", "Andante", "Allegro", "Presto", "Rubato"}, names)
	})

	t.Run("Unknown category is empty", func(t *testing.T) {
		none, err := svc.GetTermsByCategory(ctx, "tempo")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Categories in first-seen order", func(t *testing.T) {
		cats, err := svc.GetTermCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tempo", "Dynamics", "Articulation", "Technique", "Form", "Texture"}, cats)
	})

	t.Run("Search is case insensitive", func(t *testing.T) {
		found, err := svc.SearchTerms(ctx, "LEG")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Legato", found[0].Term)
	})

	t.Run("Week and day", func(t *testing.T) {
		album, ok, err := svc.GetWeeklyAlbumByWeek(ctx, 2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "wa-002", album.ID)

		_, ok, err = svc.GetWeeklyAlbumByWeek(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)

		day, ok, err := svc.GetKickstartDay(ctx, 3)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "ks-03", day.ID)
	})
}

func TestDataService_ComposersByPeriod(t *testing.T) {
	ctx := context.Background()
	fake := &fakeProvider{composers: []types.Composer{
		{ID: "bach", Name: "Johann Sebastian Bach", Period: "baroque"},
		{ID: "mozart", Name: "Wolfgang Amadeus Mozart", Period: "classical"},
		{ID: "beethoven", Name: "Ludwig van Beethoven", Period: "romantic"},
	}}
	svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: fake}, zerolog.Nop())

	baroque, err := svc.GetComposersByPeriod(ctx, "baroque")
	require.NoError(t, err)
	require.Len(t, baroque, 1)
	assert.Equal(t, "bach", baroque[0].ID)

	mozart, ok, err := svc.GetComposerByID(ctx, "mozart")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "classical", mozart.Period)

	_, ok, err = svc.GetComposerByID(ctx, "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)

	none, err := svc.GetComposersByPeriod(ctx, "unknown-period")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.Equal(t, int32(1), fake.composerHit.Load(), "filters and lookups share one fetch")
}

func TestDataService_InjectedProvider(t *testing.T) {
	ctx := context.Background()
	terms := []types.Term{{ID: "42", Term: "Ostinato", Category: "Texture"}}
	fake := &fakeProvider{name: "injected", terms: terms}

	remoteCalled := false
	svc := refdata.NewDataService(&refdata.ServiceConfig{
		Type:     refdata.ProviderRemote,
		Provider: fake,
		Remote: func() (refdata.DataProvider, error) {
			remoteCalled = true
			return nil, errors.New("should not be built")
		},
	}, zerolog.Nop())

	got, err := svc.GetTerms(ctx)

	require.NoError(t, err)
	assert.Same(t, &terms[0], &got[0], "the injected provider's slice should be returned as is")
	assert.False(t, remoteCalled)
	assert.Equal(t, "injected", svc.ProviderName())
}

func TestDataService_FailedFetch(t *testing.T) {
	ctx := context.Background()
	queryErr := &store.QueryError{Store: "fake", Table: "composers", Status: 500}
	fake := &fakeProvider{Err: queryErr}
	svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: fake}, zerolog.Nop())

	_, err := svc.GetComposers(ctx)
	require.Error(t, err)
	assert.Same(t, queryErr, err, "provider errors are returned unchanged")

	fake.Err = nil
	fake.composers = []types.Composer{{ID: "bach", Name: "Bach", Period: "baroque"}}

	got, err := svc.GetComposers(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(2), fake.composerHit.Load(), "a failed fetch must not be cached")
}

func TestDataService_NilCollectionBecomesEmpty(t *testing.T) {
	svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: &fakeProvider{}}, zerolog.Nop())

	periods, err := svc.GetPeriods(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, periods)
	assert.Empty(t, periods)
}

func TestDataService_ProviderSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("Remote without a factory is a configuration error", func(t *testing.T) {
		svc := refdata.NewDataService(&refdata.ServiceConfig{Type: refdata.ProviderRemote}, zerolog.Nop())

		_, err := svc.GetPeriods(ctx)

		require.Error(t, err)
		var cfgErr *store.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, refdata.ErrNotConfigured)
	})

	t.Run("Unknown type", func(t *testing.T) {
		svc := refdata.NewDataService(&refdata.ServiceConfig{Type: "carrier-pigeon"}, zerolog.Nop())
		_, err := svc.GetPeriods(ctx)
		assert.ErrorContains(t, err, "carrier-pigeon")
	})

	t.Run("Factory failures are retried", func(t *testing.T) {
		var attempts atomic.Int32
		fake := &fakeProvider{name: "remote:fake", periods: []types.Period{{ID: "baroque", Name: "Baroque"}}}
		svc := refdata.NewDataService(&refdata.ServiceConfig{
			Type: refdata.ProviderRemote,
			Remote: func() (refdata.DataProvider, error) {
				if attempts.Add(1) == 1 {
					return nil, errors.New("dial tcp: connection refused")
				}
				return fake, nil
			},
		}, zerolog.Nop())

		_, err := svc.GetPeriods(ctx)
		require.Error(t, err)
		assert.Equal(t, "", svc.ProviderName())

		periods, err := svc.GetPeriods(ctx)
		require.NoError(t, err)
		assert.Len(t, periods, 1)
		assert.Equal(t, "remote:fake", svc.ProviderName())

		_, err = svc.GetPeriods(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), attempts.Load(), "a built provider is kept")
	})

	t.Run("Custom local factory", func(t *testing.T) {
		fake := &fakeProvider{name: "bundle:test"}
		svc := refdata.NewDataService(&refdata.ServiceConfig{
			Local: func() (refdata.DataProvider, error) { return fake, nil },
		}, zerolog.Nop())

		_, err := svc.GetForms(ctx)
		require.NoError(t, err)
		assert.Equal(t, "bundle:test", svc.ProviderName())
	})
}

func TestDataService_Preload(t *testing.T) {
	ctx := context.Background()

	t.Run("Warms every kind", func(t *testing.T) {
		fake := &fakeProvider{}
		svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: fake}, zerolog.Nop())

		require.NoError(t, svc.Preload(ctx))
		assert.Equal(t, int32(len(types.AllKinds())), fake.calls.Load())

		_, err := svc.GetConcertHalls(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(len(types.AllKinds())), fake.calls.Load(), "preloaded kinds are served from cache")
	})

	t.Run("Returns the first failure", func(t *testing.T) {
		fake := &fakeProvider{Err: errors.New("boom")}
		svc := refdata.NewDataService(&refdata.ServiceConfig{Provider: fake}, zerolog.Nop())

		err := svc.Preload(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestDataService_Collection(t *testing.T) {
	svc := newLocalService(t)

	v, err := svc.Collection(context.Background(), types.KindNewReleases)
	require.NoError(t, err)
	assert.IsType(t, []types.NewRelease{}, v)

	_, err = svc.Collection(context.Background(), types.Kind("symphonies"))
	assert.Error(t, err)
}

func TestDataService_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	fake := &fakeProvider{composers: []types.Composer{{ID: "bach"}}}
	svc := refdata.NewDataService(&refdata.ServiceConfig{
		Provider: fake,
		Metrics:  refdata.NewMetrics(reg),
	}, zerolog.Nop())

	_, err := svc.GetComposers(ctx)
	require.NoError(t, err)
	_, err = svc.GetComposers(ctx)
	require.NoError(t, err)

	expected := `
# HELP refdata_cache_hits_total Accessor calls served from the in-memory cache.
# TYPE refdata_cache_hits_total counter
refdata_cache_hits_total{kind="composers"} 1
# HELP refdata_cache_misses_total Accessor calls that had to fetch from the provider.
# TYPE refdata_cache_misses_total counter
refdata_cache_misses_total{kind="composers"} 1
# HELP refdata_provider_fetches_total Provider fetches by outcome.
# TYPE refdata_provider_fetches_total counter
refdata_provider_fetches_total{kind="composers",provider="fake",result="ok"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"refdata_cache_hits_total", "refdata_cache_misses_total", "refdata_provider_fetches_total")
	assert.NoError(t, err)
}
