package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/illmade-knight/go-refdata/pkg/cache"
	"github.com/illmade-knight/go-refdata/pkg/types"
	"github.com/rs/zerolog"
)

// MirrorConfig holds configuration for the mirror write-back.
type MirrorConfig struct {
	WriteTimeout time.Duration
}

// MirrorCache is the shared store behind a MirrorProvider. Delete is needed so
// that a cache clear also drops the shared snapshots.
type MirrorCache interface {
	cache.Cache[types.Kind, json.RawMessage]
	Delete(ctx context.Context, key types.Kind) error
}

// MirrorProvider serves collections from a shared mirror (usually Redis) and
// falls back to a source provider on a miss, writing the snapshot back.
type MirrorProvider struct {
	source       DataProvider
	mirror       MirrorCache
	writeTimeout time.Duration
	logger       zerolog.Logger
}

// NewMirrorProvider wraps source with mirror.
func NewMirrorProvider(
	cfg *MirrorConfig,
	source DataProvider,
	mirror MirrorCache,
	logger zerolog.Logger,
) *MirrorProvider {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MirrorProvider{
		source:       source,
		mirror:       mirror,
		writeTimeout: timeout,
		logger:       logger.With().Str("component", "MirrorProvider").Logger(),
	}
}

// Name implements DataProvider.
func (m *MirrorProvider) Name() string { return "mirror:" + m.source.Name() }

// Invalidate deletes every snapshot from the mirror so the next read goes to
// the source. It attempts every kind and joins the failures.
func (m *MirrorProvider) Invalidate(ctx context.Context) error {
	var errs []error
	for _, kind := range types.AllKinds() {
		if err := m.mirror.Delete(ctx, kind); err != nil {
			errs = append(errs, fmt.Errorf("delete mirror snapshot %s: %w", kind, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.logger.Error().Err(err).Msg("Failed to invalidate mirror.")
		return err
	}
	m.logger.Info().Msg("Mirror invalidated.")
	return nil
}

func mirrored[T any](ctx context.Context, m *MirrorProvider, kind types.Kind, fetch func(context.Context) ([]T, error)) ([]T, error) {
	// 1. Try the mirror.
	raw, err := m.mirror.FetchFromCache(ctx, kind)
	switch {
	case err == nil:
		var out []T
		if uerr := json.Unmarshal(raw, &out); uerr == nil && out != nil {
			m.logger.Debug().Str("kind", string(kind)).Msg("Mirror hit.")
			return out, nil
		}
		m.logger.Warn().Str("kind", string(kind)).Msg("Mirror entry unreadable, falling back to source.")
	case errors.Is(err, cache.ErrCacheMiss):
		m.logger.Debug().Str("kind", string(kind)).Msg("Mirror miss. Falling back to source.")
	default:
		m.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Mirror read failed, falling back to source.")
	}

	// 2. Fall back to the source.
	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	// 3. Write the snapshot back. Failures only cost a future miss.
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to encode snapshot for mirror.")
		return value, nil
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.writeTimeout)
	defer cancel()
	if err := m.mirror.WriteToCache(writeCtx, kind, data); err != nil {
		m.logger.Error().Err(err).Str("kind", string(kind)).Msg("Failed to write snapshot to mirror.")
	}
	return value, nil
}

// GetComposers returns the composers, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetComposers(ctx context.Context) ([]types.Composer, error) {
	return mirrored(ctx, m, types.KindComposers, m.source.GetComposers)
}

// GetPeriods returns the periods, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetPeriods(ctx context.Context) ([]types.Period, error) {
	return mirrored(ctx, m, types.KindPeriods, m.source.GetPeriods)
}

// GetForms returns the musical forms, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetForms(ctx context.Context) ([]types.MusicalForm, error) {
	return mirrored(ctx, m, types.KindForms, m.source.GetForms)
}

// GetTerms returns the glossary terms, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetTerms(ctx context.Context) ([]types.Term, error) {
	return mirrored(ctx, m, types.KindTerms, m.source.GetTerms)
}

// GetWeeklyAlbums returns the weekly albums, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetWeeklyAlbums(ctx context.Context) ([]types.WeeklyAlbum, error) {
	return mirrored(ctx, m, types.KindWeeklyAlbums, m.source.GetWeeklyAlbums)
}

// GetMonthlySpotlights returns the monthly spotlights, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetMonthlySpotlights(ctx context.Context) ([]types.MonthlySpotlight, error) {
	return mirrored(ctx, m, types.KindMonthlySpotlights, m.source.GetMonthlySpotlights)
}

// GetNewReleases returns the new releases, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetNewReleases(ctx context.Context) ([]types.NewRelease, error) {
	return mirrored(ctx, m, types.KindNewReleases, m.source.GetNewReleases)
}

// GetConcertHalls returns the concert halls, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetConcertHalls(ctx context.Context) ([]types.ConcertHall, error) {
	return mirrored(ctx, m, types.KindConcertHalls, m.source.GetConcertHalls)
}

// GetKickstartDays returns the kickstart days, from the mirror when it holds a snapshot.
func (m *MirrorProvider) GetKickstartDays(ctx context.Context) ([]types.KickstartDay, error) {
	return mirrored(ctx, m, types.KindKickstartDays, m.source.GetKickstartDays)
}
