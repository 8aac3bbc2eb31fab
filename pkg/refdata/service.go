package refdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/illmade-knight/go-refdata/pkg/cache"
	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ProviderType selects the backing provider.
type ProviderType string

const (
	ProviderLocal  ProviderType = "local"
	ProviderRemote ProviderType = "remote"
)

// ServiceConfig configures a DataService.
type ServiceConfig struct {
	// Type selects the provider built on first access. Empty means local.
	Type ProviderType
	// Provider, when set, is used directly and Type is ignored.
	Provider DataProvider
	// Local builds the local provider. Defaults to the embedded bundle.
	Local ProviderFactory
	// Remote builds the remote provider. Without it the remote type cannot be used.
	Remote ProviderFactory
	// Metrics is optional.
	Metrics *Metrics
}

// DataService is the single entry point for reference data. Each collection is
// fetched from the provider on first access and the same slice is returned
// until ClearCache. Concurrent first accesses to one kind are not coalesced;
// each may fetch and the last to finish owns the cache slot.
type DataService struct {
	cfg     ServiceConfig
	metrics *Metrics
	logger  zerolog.Logger

	mu       sync.Mutex
	provider DataProvider

	cache *cache.InMemoryCache[types.Kind, any]
}

// NewDataService creates a service with an empty cache.
func NewDataService(cfg *ServiceConfig, logger zerolog.Logger) *DataService {
	s := &DataService{
		cfg:      *cfg,
		metrics:  cfg.Metrics,
		logger:   logger.With().Str("component", "DataService").Logger(),
		provider: cfg.Provider,
		cache:    cache.NewInMemoryCache[types.Kind, any](),
	}
	if s.provider != nil {
		s.logger.Info().Str("provider", s.provider.Name()).Msg("Using injected provider.")
	}
	return s
}

// activeProvider resolves the provider lazily. A failed factory call is not
// remembered, so the next access tries again.
func (s *DataService) activeProvider() (DataProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil {
		return s.provider, nil
	}

	var factory ProviderFactory
	switch s.cfg.Type {
	case "", ProviderLocal:
		factory = s.cfg.Local
		if factory == nil {
			factory = func() (DataProvider, error) {
				return NewDefaultLocalProvider(context.Background())
			}
		}
	case ProviderRemote:
		factory = s.cfg.Remote
		if factory == nil {
			return nil, &store.ConfigError{Store: "remote", Missing: []string{"remote provider"}}
		}
	default:
		return nil, fmt.Errorf("unknown provider type %q", s.cfg.Type)
	}

	p, err := factory()
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(s.cfg.Type)).Msg("Failed to build provider.")
		return nil, err
	}
	s.provider = p
	s.logger.Info().Str("provider", p.Name()).Msg("Provider selected.")
	return p, nil
}

// ProviderName returns the name of the resolved provider, or "" before first use.
func (s *DataService) ProviderName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// cached returns the cached collection for kind or fetches and stores it.
// A failed fetch stores nothing.
func cached[T any](
	ctx context.Context,
	s *DataService,
	kind types.Kind,
	fetch func(DataProvider, context.Context) ([]T, error),
) ([]T, error) {
	if v, ok := s.cache.Lookup(kind); ok {
		s.metrics.hit(kind)
		s.logger.Debug().Str("kind", string(kind)).Msg("Cache hit.")
		return v.([]T), nil
	}
	s.metrics.miss(kind)

	p, err := s.activeProvider()
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("kind", string(kind)).Str("provider", p.Name()).Msg("Cache miss. Fetching from provider.")
	started := time.Now()
	items, err := fetch(p, ctx)
	s.metrics.fetched(kind, p.Name(), started, err)
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("Fetch failed.")
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	s.cache.Store(kind, items)
	return items, nil
}

// GetComposers returns the cached composers, fetching them on first access.
func (s *DataService) GetComposers(ctx context.Context) ([]types.Composer, error) {
	return cached(ctx, s, types.KindComposers, DataProvider.GetComposers)
}

// GetPeriods returns the cached musical periods, fetching them on first access.
func (s *DataService) GetPeriods(ctx context.Context) ([]types.Period, error) {
	return cached(ctx, s, types.KindPeriods, DataProvider.GetPeriods)
}

// GetForms returns the cached musical forms, fetching them on first access.
func (s *DataService) GetForms(ctx context.Context) ([]types.MusicalForm, error) {
	return cached(ctx, s, types.KindForms, DataProvider.GetForms)
}

// GetTerms returns the cached glossary terms, fetching them on first access.
func (s *DataService) GetTerms(ctx context.Context) ([]types.Term, error) {
	return cached(ctx, s, types.KindTerms, DataProvider.GetTerms)
}

// GetWeeklyAlbums returns the cached weekly album picks, fetching them on first access.
func (s *DataService) GetWeeklyAlbums(ctx context.Context) ([]types.WeeklyAlbum, error) {
	return cached(ctx, s, types.KindWeeklyAlbums, DataProvider.GetWeeklyAlbums)
}

// GetMonthlySpotlights returns the cached monthly spotlights, fetching them on first access.
func (s *DataService) GetMonthlySpotlights(ctx context.Context) ([]types.MonthlySpotlight, error) {
	return cached(ctx, s, types.KindMonthlySpotlights, DataProvider.GetMonthlySpotlights)
}

// GetNewReleases returns the cached new releases, fetching them on first access.
func (s *DataService) GetNewReleases(ctx context.Context) ([]types.NewRelease, error) {
	return cached(ctx, s, types.KindNewReleases, DataProvider.GetNewReleases)
}

// GetConcertHalls returns the cached concert halls, fetching them on first access.
func (s *DataService) GetConcertHalls(ctx context.Context) ([]types.ConcertHall, error) {
	return cached(ctx, s, types.KindConcertHalls, DataProvider.GetConcertHalls)
}

// GetKickstartDays returns the cached kickstart programme days, fetching them on first access.
func (s *DataService) GetKickstartDays(ctx context.Context) ([]types.KickstartDay, error) {
	return cached(ctx, s, types.KindKickstartDays, DataProvider.GetKickstartDays)
}

// Collection returns the collection of any kind as an untyped value.
func (s *DataService) Collection(ctx context.Context, kind types.Kind) (any, error) {
	switch kind {
	case types.KindComposers:
		return s.GetComposers(ctx)
	case types.KindPeriods:
		return s.GetPeriods(ctx)
	case types.KindForms:
		return s.GetForms(ctx)
	case types.KindTerms:
		return s.GetTerms(ctx)
	case types.KindWeeklyAlbums:
		return s.GetWeeklyAlbums(ctx)
	case types.KindMonthlySpotlights:
		return s.GetMonthlySpotlights(ctx)
	case types.KindNewReleases:
		return s.GetNewReleases(ctx)
	case types.KindConcertHalls:
		return s.GetConcertHalls(ctx)
	case types.KindKickstartDays:
		return s.GetKickstartDays(ctx)
	default:
		return nil, fmt.Errorf("unknown reference data kind %q", kind)
	}
}

// Preload fetches every collection concurrently and returns the first failure.
func (s *DataService) Preload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range types.AllKinds() {
		g.Go(func() error {
			if _, err := s.Collection(ctx, kind); err != nil {
				return fmt.Errorf("preload %s: %w", kind, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info().Int("collections", s.cache.Len()).Msg("Reference data preloaded.")
	return nil
}

// Invalidator is implemented by providers that keep their own shared copy of
// the data, such as MirrorProvider.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

const invalidateTimeout = 5 * time.Second

// ClearCache drops every cached collection and invalidates the provider's
// shared copy when it keeps one. Fetches already in flight are not cancelled
// and may repopulate their slot when they finish.
func (s *DataService) ClearCache() {
	s.cache.Clear()

	s.mu.Lock()
	p := s.provider
	s.mu.Unlock()
	if inv, ok := p.(Invalidator); ok {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		if err := inv.Invalidate(ctx); err != nil {
			s.logger.Error().Err(err).Str("provider", p.Name()).Msg("Failed to invalidate provider copy.")
		}
	}
	s.logger.Info().Msg("Reference data cache cleared.")
}
